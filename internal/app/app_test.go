package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"gigmarket/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:               "test",
		DatabaseURL:          fmt.Sprintf("file:app_%s?mode=memory&cache=shared", uuid.NewString()[:8]),
		JWTSecret:            "app-test-secret",
		InternalToken:        "internal-secret",
		DefaultLocale:        "en",
		CORSOrigins:          []string{"http://localhost:3000"},
		Location:             time.UTC,
		SweepInterval:        time.Minute,
		SweepLockTTL:         time.Minute,
		FastPathWindow:       5 * time.Minute,
		WorkReminderHour:     18,
		CompleteReminderHour: 19,
		SideEffectTimeout:    5 * time.Second,
		ShutdownTimeout:      time.Second,
	}
}

func newApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

type result struct {
	Code int
	Body map[string]any
}

func call(a *App, method, path, token, body string) result {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return result{Code: w.Code, Body: out}
}

func dataField(t *testing.T, r result, key string) map[string]any {
	t.Helper()
	data, ok := r.Body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", r.Body)
	v, ok := data[key].(map[string]any)
	require.True(t, ok, "missing %s in %v", key, data)
	return v
}

func idOf(m map[string]any) string {
	return strconv.FormatInt(int64(m["id"].(float64)), 10)
}

func TestHealth(t *testing.T) {
	a := newApp(t)

	r := call(a, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, r.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, http.StatusUnauthorized, call(a, http.MethodGet, "/api/v1/orders/my", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(a, http.MethodPost, "/api/v1/internal/reminders/sweep", "", "").Code)
	assert.Equal(t, http.StatusOK, call(a, http.MethodGet, "/api/v1/workers/1/reviews", "", "").Code)
}

func TestInternalSweep(t *testing.T) {
	a := newApp(t)

	r := call(a, http.MethodPost, "/api/v1/internal/reminders/sweep", "internal-secret", "")
	require.Equal(t, http.StatusOK, r.Code, r.Body)
	data := r.Body["data"].(map[string]any)
	assert.Equal(t, true, data["ran"])
}

func TestHireFlowDeliversNotifications(t *testing.T) {
	a := newApp(t)

	customerToken, err := a.Tokens.GenerateToken(1, "customer")
	require.NoError(t, err)
	workerToken, err := a.Tokens.GenerateToken(2, "worker")
	require.NoError(t, err)

	serviceDate := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	body := `{"title":"Assemble shelves","category":"assembly","location":"Astana","workers_needed":1,"service_date":"` + serviceDate + `"}`

	r := call(a, http.MethodPost, "/api/v1/orders", customerToken, body)
	require.Equal(t, http.StatusCreated, r.Code, r.Body)
	orderID := idOf(dataField(t, r, "order"))

	r = call(a, http.MethodPost, "/api/v1/orders/"+orderID+"/applicants", workerToken, `{"message":"I can do it"}`)
	require.Equal(t, http.StatusCreated, r.Code, r.Body)
	applicantID := idOf(dataField(t, r, "applicant"))

	r = call(a, http.MethodPost, "/api/v1/applicants/"+applicantID+"/accept", customerToken, "")
	require.Equal(t, http.StatusOK, r.Code, r.Body)

	r = call(a, http.MethodGet, "/api/v1/orders/"+orderID, workerToken, "")
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "in_progress", dataField(t, r, "order")["status"])

	a.Runner.Wait()

	r = call(a, http.MethodGet, "/api/v1/notifications", workerToken, "")
	require.Equal(t, http.StatusOK, r.Code, r.Body)
	list := r.Body["data"].(map[string]any)["notifications"].([]any)
	assert.NotEmpty(t, list)

	r = call(a, http.MethodGet, "/api/v1/notifications", customerToken, "")
	require.Equal(t, http.StatusOK, r.Code, r.Body)
	list = r.Body["data"].(map[string]any)["notifications"].([]any)
	assert.NotEmpty(t, list)
}
