package notification

import (
	"context"
	"strings"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/pkg/validator"
)

type InboxRepository interface {
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) error
}

type DeviceRepository interface {
	Upsert(ctx context.Context, t *domain.DeviceToken) error
	Delete(ctx context.Context, userID int64, token string) error
}

// Service serves the user's in-app inbox and push device registrations.
type Service struct {
	inbox   InboxRepository
	devices DeviceRepository
	now     func() time.Time
}

func NewService(inbox InboxRepository, devices DeviceRepository) *Service {
	return &Service{inbox: inbox, devices: devices, now: time.Now}
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]domain.Notification, int64, error) {
	list, err := s.inbox.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.inbox.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.inbox.MarkRead(ctx, id, userID, s.now())
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.inbox.MarkAllRead(ctx, userID, s.now())
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=512"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android web"`
}

func (s *Service) RegisterDevice(ctx context.Context, userID int64, req RegisterDeviceRequest) (*domain.DeviceToken, error) {
	req.Token = strings.TrimSpace(req.Token)
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	t := &domain.DeviceToken{
		UserID:     userID,
		Token:      req.Token,
		Platform:   req.Platform,
		LastSeenAt: s.now().UTC(),
	}
	if err := s.devices.Upsert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) UnregisterDevice(ctx context.Context, userID int64, token string) error {
	return s.devices.Delete(ctx, userID, token)
}
