package order

import (
	"database/sql"
	"time"
)

// Status is the order's position in the purchase state machine. Completed,
// failed and cancelled are terminal, an order never leaves them.
type Status string

const (
	Pending   Status = "pending"
	Initiated Status = "initiated"
	Approved  Status = "approved"
	Completed Status = "completed"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

type Order struct {
	ID         string         `json:"id" db:"order_id"`
	UserID     string         `json:"userId" db:"user_id"`
	Status     Status         `json:"status" db:"status"`
	Currency   string         `json:"currency" db:"currency"`
	Amount     int            `json:"amount" db:"amount"`
	ProviderID sql.NullString `json:"-" db:"provider_id"`
	PayerID    sql.NullString `json:"-" db:"payer_id"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time      `json:"updatedAt" db:"updated_at"`
}

// Item carries the price snapshotted at order creation. Catalog changes
// after that point never touch it.
type Item struct {
	OrderID   string    `json:"orderId" db:"order_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Price     int       `json:"price" db:"price"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type ConfirmIn struct {
	PaymentID string `json:"paymentId" validate:"required"`
	PayerID   string `json:"payerId" validate:"required"`
}

type CheckoutOut struct {
	OrderID     string `json:"orderId"`
	ApprovalURL string `json:"approvalUrl"`
}

type ConfirmOut struct {
	OrderID string `json:"orderId"`
	Status  Status `json:"status"`
}
