package order

import (
	"context"

	"gigmarket/internal/domain"
	"gigmarket/internal/i18n"
	"gigmarket/internal/notification"
)

const reconcileAttempts = 3

// Reconcile recounts the order's active applicants and derives its status
// from them. It never increments cached counters, so running it repeatedly
// or out of order converges on the same state.
//
//	accepted >= workersNeeded  -> in_progress (sticky)
//	active > 0                 -> response_received
//	otherwise                  -> new
//
// Terminal orders are returned untouched.
func (s *Service) Reconcile(ctx context.Context, orderID int64) (*domain.Order, error) {
	for attempt := 1; attempt <= reconcileAttempts; attempt++ {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if o.Status.Terminal() {
			return o, nil
		}

		active, err := s.applicants.CountByOrder(ctx, orderID, domain.ActiveApplicantStatuses...)
		if err != nil {
			return nil, err
		}
		accepted, err := s.applicants.CountByOrder(ctx, orderID, domain.ApplicantAccepted)
		if err != nil {
			return nil, err
		}

		next := deriveStatus(o.Status, o.WorkersNeeded, active, accepted)
		if next == o.Status && active == o.ApplicantsCount {
			if next == domain.OrderInProgress {
				s.onFilled(ctx, o)
			}
			return o, nil
		}

		ok, err := s.orders.SetDerivedState(ctx, orderID, o.Status, next, active)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Debug("order changed during reconcile, retrying", "order_id", orderID, "attempt", attempt)
			continue
		}

		prev := o.Status
		o.Status = next
		o.ApplicantsCount = active
		if prev != next {
			s.logger.Info("order status derived",
				"order_id", orderID, "from", prev, "to", next, "active", active, "accepted", accepted)
		}
		if next == domain.OrderInProgress {
			s.onFilled(ctx, o)
		}
		return o, nil
	}
	return nil, ErrReconcileContend
}

func deriveStatus(current domain.OrderStatus, workersNeeded, active, accepted int) domain.OrderStatus {
	switch {
	case current == domain.OrderInProgress:
		return domain.OrderInProgress
	case workersNeeded > 0 && accepted >= workersNeeded:
		return domain.OrderInProgress
	case active > 0:
		return domain.OrderResponseReceived
	default:
		return domain.OrderNew
	}
}

// onFilled runs the in_progress side effects once per order. The persisted
// marker decides which caller owns them, so retries and other instances
// skip.
func (s *Service) onFilled(ctx context.Context, o *domain.Order) {
	if o.FilledNotifiedAt != nil {
		return
	}
	snapshot := *o
	s.runner.Go(ctx, "order filled", func(ctx context.Context) error {
		claimed, err := s.orders.MarkFilledNotified(ctx, snapshot.ID, s.now())
		if err != nil || !claimed {
			return err
		}

		if _, err := s.reminders.Schedule(ctx, snapshot.CustomerID, snapshot, domain.ReminderCompleteWork); err != nil {
			s.logger.Warn("schedule completion reminder", "order_id", snapshot.ID, "error", err)
		}
		s.notifier.Notify(ctx, notification.Notice{
			Key:      i18n.KeyOrderFilled,
			Category: domain.CategoryOrder,
			Params:   i18n.Params{"order": snapshot.Title},
			Data:     map[string]any{"order_id": snapshot.ID, "status": string(domain.OrderInProgress)},
		}, snapshot.CustomerID)
		return nil
	})
}
