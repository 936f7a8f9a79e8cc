package orders

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type ViewState string

const (
	ViewFound    ViewState = "found"
	ViewNotFound ViewState = "not_found"
)

// NotFoundReason records why a lookup produced NotFound. Users only ever see
// one message; the reason is for logs and tests.
type NotFoundReason string

const (
	ReasonMissing      NotFoundReason = "missing"
	ReasonInvalidID    NotFoundReason = "invalid_id"
	ReasonLookupFailed NotFoundReason = "lookup_failed"
)

type View struct {
	State  ViewState
	Order  *domain.Order
	Reason NotFoundReason
	Err    error
}

type OrderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// Viewer reads back a persisted order for the confirmation page.
type Viewer struct {
	orders OrderReader
	logger *slog.Logger
}

func NewViewer(orders OrderReader, logger *slog.Logger) *Viewer {
	return &Viewer{orders: orders, logger: logger}
}

func (v *Viewer) Load(ctx context.Context, id string) View {
	if _, err := uuid.Parse(id); err != nil {
		return View{State: ViewNotFound, Reason: ReasonInvalidID, Err: err}
	}

	order, err := v.orders.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return View{State: ViewNotFound, Reason: ReasonMissing, Err: err}
	case err != nil:
		v.logger.Error("failed to load order for confirmation", "error", err, "order_id", id)
		return View{State: ViewNotFound, Reason: ReasonLookupFailed, Err: err}
	}

	return View{State: ViewFound, Order: order}
}
