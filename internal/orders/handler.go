package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/digital-storefront/internal/auth"
	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type OrderLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type PaymentLister interface {
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
}

type OptionsLoader interface {
	Load(ctx context.Context) catalog.PaymentOptions
}

type Handler struct {
	viewer   *Viewer
	lister   OrderLister
	payments PaymentLister
	options  OptionsLoader
	logger   *slog.Logger
}

func NewHandler(viewer *Viewer, lister OrderLister, payments PaymentLister, options OptionsLoader, logger *slog.Logger) *Handler {
	return &Handler{
		viewer:   viewer,
		lister:   lister,
		payments: payments,
		options:  options,
		logger:   logger,
	}
}

type confirmationResponse struct {
	ID           string              `json:"id"`
	Status       domain.OrderStatus  `json:"status"`
	Items        []domain.OrderItem  `json:"items"`
	ShippingInfo domain.ShippingInfo `json:"shipping_info"`
	TotalAmount  int64               `json:"total_amount"`
	CreatedAt    time.Time           `json:"created_at"`
	Payment      *paymentDetails     `json:"payment,omitempty"`
}

type paymentDetails struct {
	ID          string                `json:"id"`
	Status      domain.PaymentStatus  `json:"status"`
	Amount      int64                 `json:"amount"`
	ExpiresAt   time.Time             `json:"expires_at"`
	Method      *domain.PaymentMethod `json:"method,omitempty"`
	BankAccount *domain.BankAccount   `json:"bank_account,omitempty"`
}

func (h *Handler) HandleConfirmation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	view := h.viewer.Load(r.Context(), id)
	if view.State != ViewFound {
		h.logger.Info("confirmation order not found", "order_id", id, "reason", view.Reason)
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	order := view.Order
	h.logger.Info("order confirmation viewed", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, confirmationResponse{
		ID:           order.ID,
		Status:       order.Status,
		Items:        order.Items,
		ShippingInfo: order.ShippingInfo,
		TotalAmount:  order.TotalAmount,
		CreatedAt:    order.CreatedAt,
		Payment:      h.paymentDetails(r.Context(), order.ID),
	})
}

// paymentDetails describes the order's latest payment. Orders without a
// payment row, or whose payments cannot be read, render without one.
func (h *Handler) paymentDetails(ctx context.Context, orderID string) *paymentDetails {
	payments, err := h.payments.ListByOrder(ctx, orderID)
	if err != nil {
		h.logger.Error("failed to list payments for confirmation", "error", err, "order_id", orderID)
		return nil
	}
	if len(payments) == 0 {
		return nil
	}

	payment := payments[len(payments)-1]
	details := &paymentDetails{
		ID:        payment.ID,
		Status:    payment.Status,
		Amount:    payment.Amount,
		ExpiresAt: payment.ExpiresAt,
	}

	options := h.options.Load(ctx)
	if method, ok := options.Method(payment.PaymentMethodID); ok {
		details.Method = &method
	}
	if payment.BankAccountID != nil {
		if account, ok := options.BankAccount(*payment.BankAccountID); ok {
			details.BankAccount = &account
		}
	}

	return details
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := h.lister.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", principal.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders), "user_id", principal.UserID)
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
