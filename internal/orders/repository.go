package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

var ErrNotFound = errors.New("order not found")

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and fills in the store-generated ID and CreatedAt.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	shipping, err := json.Marshal(order.ShippingInfo)
	if err != nil {
		return fmt.Errorf("marshal shipping info: %w", err)
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, items, shipping_info, total_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, order.UserID, items, shipping, order.TotalAmount, order.Status).Scan(&order.ID, &order.CreatedAt)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, items, shipping_info, total_amount, status, created_at
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, items, shipping_info, total_amount, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListOrphaned returns IDs of pending orders created before cutoff that never
// got a payment row.
func (r *OrderRepository) ListOrphaned(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id
		FROM orders o
		WHERE o.status = $1
		  AND o.created_at < $2
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = o.id)
		ORDER BY o.created_at
		LIMIT $3
	`, domain.OrderStatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// MarkFailed moves the given orders to failed. Orders that gained a payment or
// left pending since they were listed are skipped.
func (r *OrderRepository) MarkFailed(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders o
		SET status = $1, updated_at = NOW()
		WHERE o.id = ANY($2::uuid[])
		  AND o.status = $3
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = o.id)
	`, domain.OrderStatusFailed, pq.Array(ids), domain.OrderStatusPending)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		order    domain.Order
		items    []byte
		shipping []byte
	)

	if err := s.Scan(&order.ID, &order.UserID, &items, &shipping, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shipping, &order.ShippingInfo); err != nil {
		return nil, fmt.Errorf("unmarshal shipping info: %w", err)
	}

	return &order, nil
}
