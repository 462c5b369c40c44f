package applicant

import (
	"fmt"

	"gigmarket/internal/domain"
)

var (
	ErrNotPending     = fmt.Errorf("%w: applicant is no longer pending", domain.ErrInvalidState)
	ErrOrderClosed    = fmt.Errorf("%w: order is not accepting applicants", domain.ErrInvalidState)
	ErrOrderStarted   = fmt.Errorf("%w: order is already in progress", domain.ErrInvalidState)
	ErrAlreadyApplied = fmt.Errorf("%w: worker already applied to this order", domain.ErrInvalidState)
	ErrOwnOrder       = fmt.Errorf("%w: cannot apply to your own order", domain.ErrNotAuthorized)
	ErrWorkersOnly    = fmt.Errorf("%w: only workers can apply", domain.ErrNotAuthorized)
	ErrNotOrderOwner  = fmt.Errorf("%w: order belongs to another customer", domain.ErrNotAuthorized)
	ErrNotApplicant   = fmt.Errorf("%w: application belongs to another worker", domain.ErrNotAuthorized)
	ErrDateTaken      = fmt.Errorf("%w: worker already has accepted work that day", domain.ErrDateConflict)
)
