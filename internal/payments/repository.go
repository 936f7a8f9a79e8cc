package payments

import (
	"context"
	"database/sql"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Insert writes a single payment row and fills in the generated ID.
func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, payment_method_id, bank_account_id, amount, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.OrderID, p.PaymentMethodID, p.BankAccountID, p.Amount, p.Status, p.ExpiresAt, p.CreatedAt).Scan(&p.ID)
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, payment_method_id, bank_account_id, amount, status, expires_at, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var payments []domain.Payment
	for rows.Next() {
		var (
			p    domain.Payment
			bank sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.PaymentMethodID, &bank, &p.Amount, &p.Status, &p.ExpiresAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if bank.Valid {
			p.BankAccountID = &bank.String
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
