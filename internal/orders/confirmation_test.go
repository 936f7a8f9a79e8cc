package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

const testOrderID = "5b0c6a57-3f7e-4d8a-9f1e-2a3b4c5d6e7f"

type fakeOrderStore struct {
	orders     map[string]*domain.Order
	err        error
	calls      int
	listErr    error
	payments   map[string][]domain.Payment
	paymentErr error
}

func (f *fakeOrderStore) ListByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.payments[orderID], nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:     testOrderID,
		UserID: "user-1",
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Netflix", Price: 50000, Quantity: 2, Category: "Streaming"},
		},
		ShippingInfo: domain.ShippingInfo{FullName: "Ana", Email: "ana@example.com", PhoneNumber: "0812"},
		TotalAmount:  100000,
		Status:       domain.OrderStatusPending,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestViewer_Load(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store := &fakeOrderStore{orders: map[string]*domain.Order{testOrderID: sampleOrder()}}
		view := NewViewer(store, discardLogger()).Load(context.Background(), testOrderID)

		if view.State != ViewFound {
			t.Fatalf("expected found, got %s", view.State)
		}
		if view.Order.TotalAmount != 100000 {
			t.Errorf("expected stored total 100000, got %d", view.Order.TotalAmount)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		store := &fakeOrderStore{orders: map[string]*domain.Order{}}
		view := NewViewer(store, discardLogger()).Load(context.Background(), testOrderID)

		if view.State != ViewNotFound {
			t.Fatalf("expected not found, got %s", view.State)
		}
		if view.Reason != ReasonMissing {
			t.Errorf("expected reason %s, got %s", ReasonMissing, view.Reason)
		}
	})

	t.Run("lookup error is not found with distinct reason", func(t *testing.T) {
		store := &fakeOrderStore{err: errors.New("connection reset")}
		view := NewViewer(store, discardLogger()).Load(context.Background(), testOrderID)

		if view.State != ViewNotFound {
			t.Fatalf("expected not found, got %s", view.State)
		}
		if view.Reason != ReasonLookupFailed {
			t.Errorf("expected reason %s, got %s", ReasonLookupFailed, view.Reason)
		}
	})

	t.Run("invalid id skips the query", func(t *testing.T) {
		store := &fakeOrderStore{}
		view := NewViewer(store, discardLogger()).Load(context.Background(), "not-a-uuid")

		if view.Reason != ReasonInvalidID {
			t.Errorf("expected reason %s, got %s", ReasonInvalidID, view.Reason)
		}
		if store.calls != 0 {
			t.Errorf("expected no store calls, got %d", store.calls)
		}
	})
}
