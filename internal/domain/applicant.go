package domain

import "time"

type ApplicantStatus string

const (
	ApplicantPending   ApplicantStatus = "pending"
	ApplicantAccepted  ApplicantStatus = "accepted"
	ApplicantRejected  ApplicantStatus = "rejected"
	ApplicantCancelled ApplicantStatus = "cancelled"
	ApplicantCompleted ApplicantStatus = "completed"
)

// ActiveApplicantStatuses are counted into Order.ApplicantsCount.
var ActiveApplicantStatuses = []ApplicantStatus{ApplicantPending, ApplicantAccepted}

func (s ApplicantStatus) Active() bool {
	return s == ApplicantPending || s == ApplicantAccepted
}

func (s ApplicantStatus) Terminal() bool {
	return s == ApplicantRejected || s == ApplicantCancelled || s == ApplicantCompleted
}

// HiddenFromCustomer reports statuses never shown in the customer's list.
func (s ApplicantStatus) HiddenFromCustomer() bool {
	return s == ApplicantRejected || s == ApplicantCancelled
}

type Applicant struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	OrderID       int64           `json:"order_id" gorm:"not null;index"`
	WorkerID      int64           `json:"worker_id" gorm:"not null;index;uniqueIndex:idx_applicants_worker_accepted_day,priority:1"`
	WorkerName    string          `json:"worker_name" gorm:"size:120"`
	WorkerPhone   string          `json:"worker_phone,omitempty" gorm:"size:32"`
	ProposedPrice int64           `json:"proposed_price" gorm:"not null;default:0"`
	Message       string          `json:"message,omitempty" gorm:"type:text"`
	Status        ApplicantStatus `json:"status" gorm:"size:32;not null;index"`
	AppliedAt     time.Time       `json:"applied_at"`
	AcceptedAt    *time.Time      `json:"accepted_at,omitempty"`

	// AcceptedDay is the local calendar day of an accepted applicant and is
	// cleared when it leaves accepted. Unique per worker, so one accepted
	// commitment per day is enforced by the store.
	AcceptedDay *string `json:"-" gorm:"size:10;uniqueIndex:idx_applicants_worker_accepted_day,priority:2"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Applicant) TableName() string { return "applicants" }

// Commitment is an applicant row joined with the service date of its order.
type Commitment struct {
	ApplicantID int64           `gorm:"column:applicant_id"`
	OrderID     int64           `gorm:"column:order_id"`
	WorkerID    int64           `gorm:"column:worker_id"`
	Status      ApplicantStatus `gorm:"column:status"`
	ServiceDate time.Time       `gorm:"column:service_date"`
	AcceptedAt  *time.Time      `gorm:"column:accepted_at"`
}
