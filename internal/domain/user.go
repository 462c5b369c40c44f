package domain

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleWorker   UserRole = "worker"
	RoleAdmin    UserRole = "admin"
)

// User is the read side of the identity provider's directory.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120"`
	Phone     string    `json:"phone,omitempty" gorm:"size:32"`
	Role      UserRole  `json:"role" gorm:"size:16;not null"`
	Locale    string    `json:"locale,omitempty" gorm:"size:16"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   int64
	Role UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
