package order

import (
	"fmt"

	"gigmarket/internal/domain"
)

var (
	ErrNotEditable      = fmt.Errorf("%w: order can only change while new or response_received", domain.ErrInvalidState)
	ErrNotInProgress    = fmt.Errorf("%w: order is not in progress", domain.ErrInvalidState)
	ErrNotOwner         = fmt.Errorf("%w: order belongs to another customer", domain.ErrNotAuthorized)
	ErrCustomersOnly    = fmt.Errorf("%w: only customers can post orders", domain.ErrNotAuthorized)
	ErrWorkersOnly      = fmt.Errorf("%w: only workers can browse available orders", domain.ErrNotAuthorized)
	ErrReconcileContend = fmt.Errorf("%w: order state kept changing during reconcile", domain.ErrAlreadyProcessed)
)
