package domain

import "time"

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
}

type PaymentMethodType string

const (
	PaymentMethodBank PaymentMethodType = "bank"
	PaymentMethodQR   PaymentMethodType = "qr"
)

type PaymentMethod struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      PaymentMethodType `json:"type"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
}

type BankAccount struct {
	ID            string    `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountHolder string    `json:"account_holder"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
