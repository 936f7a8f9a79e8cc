package domain

import "time"

// PaymentTTL is how long a pending payment stays payable after creation.
const PaymentTTL = 3 * time.Hour

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusExpired PaymentStatus = "expired"
)

type Payment struct {
	ID              string        `json:"id"`
	OrderID         string        `json:"order_id"`
	PaymentMethodID string        `json:"payment_method_id"`
	BankAccountID   *string       `json:"bank_account_id"`
	Amount          int64         `json:"amount"`
	Status          PaymentStatus `json:"status"`
	ExpiresAt       time.Time     `json:"expires_at"`
	CreatedAt       time.Time     `json:"created_at"`
}
