package i18n

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"gigmarket/internal/domain"

	"golang.org/x/text/language"
)

// Message is a rendered notification text.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Params fill {placeholders} in a template.
type Params map[string]string

type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error)
}

// Translator resolves a recipient's locale and renders message templates.
type Translator struct {
	users    UserDirectory
	logger   *slog.Logger
	matcher  language.Matcher
	fallback language.Tag
}

func NewTranslator(users UserDirectory, defaultLocale string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		fallback = language.Russian
	}

	supported := []language.Tag{fallback}
	for _, tag := range []language.Tag{language.Russian, language.English, language.Kazakh} {
		if tag != fallback {
			supported = append(supported, tag)
		}
	}

	return &Translator{
		users:    users,
		logger:   logger,
		matcher:  language.NewMatcher(supported),
		fallback: fallback,
	}
}

// Translate renders key for a single user.
func (t *Translator) Translate(ctx context.Context, userID int64, key string, params Params) Message {
	return t.TranslateBatch(ctx, []int64{userID}, key, params)[userID]
}

// TranslateBatch renders key for many users with one directory lookup.
// Unknown users and lookup failures fall back to the default locale.
func (t *Translator) TranslateBatch(ctx context.Context, userIDs []int64, key string, params Params) map[int64]Message {
	out := make(map[int64]Message, len(userIDs))
	if len(userIDs) == 0 {
		return out
	}

	users, err := t.users.GetByIDs(ctx, userIDs)
	if err != nil {
		t.logger.Warn("locale lookup failed, using default", "error", err, "key", key)
		users = nil
	}

	for _, id := range userIDs {
		locale := ""
		if u, ok := users[id]; ok {
			locale = u.Locale
		}
		out[id] = t.Render(locale, key, params)
	}
	return out
}

// Render fills the template for an explicit locale.
func (t *Translator) Render(locale, key string, params Params) Message {
	base := t.base(locale)
	tpl, ok := catalog[base][key]
	if !ok {
		fb, _ := t.fallback.Base()
		tpl, ok = catalog[fb.String()][key]
	}
	if !ok {
		return Message{Title: key}
	}

	r := replacer(params)
	return Message{Title: r.Replace(tpl.title), Body: r.Replace(tpl.body)}
}

func (t *Translator) base(locale string) string {
	tag := t.fallback
	if locale = strings.TrimSpace(locale); locale != "" {
		tag, _ = language.MatchStrings(t.matcher, locale)
	}
	b, _ := tag.Base()
	return b.String()
}

func replacer(params Params) *strings.Replacer {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", params[k])
	}
	return strings.NewReplacer(pairs...)
}
