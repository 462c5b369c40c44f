package review

import (
	"fmt"

	"gigmarket/internal/domain"
)

var (
	ErrNotOrderOwner   = fmt.Errorf("%w: only the order's customer can review it", domain.ErrNotAuthorized)
	ErrOrderNotDone    = fmt.Errorf("%w: order is not completed", domain.ErrInvalidState)
	ErrWorkerNotOnJob  = fmt.Errorf("%w: worker did not complete this order", domain.ErrInvalidState)
	ErrAlreadyReviewed = fmt.Errorf("%w: worker already reviewed for this order", domain.ErrAlreadyProcessed)
)
