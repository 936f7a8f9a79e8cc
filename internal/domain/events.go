package domain

import "time"

type CheckoutCompletedEvent struct {
	OrderID       string        `json:"order_id"`
	PaymentID     string        `json:"payment_id"`
	UserID        string        `json:"user_id"`
	Email         string        `json:"email"`
	FullName      string        `json:"full_name"`
	Amount        int64         `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	BankAccount   *BankAccount  `json:"bank_account,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
	Timestamp     time.Time     `json:"timestamp"`
}
