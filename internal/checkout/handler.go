package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/digital-storefront/internal/cart"
	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type CartSessions interface {
	Load(ctx context.Context, sessionID string) (*cart.Store, error)
	Remove(ctx context.Context, sessionID string, items []cart.Item) error
}

type OptionsLoader interface {
	Load(ctx context.Context) catalog.PaymentOptions
}

type Handler struct {
	orchestrator *Orchestrator
	sessions     CartSessions
	options      OptionsLoader
	logger       *slog.Logger
}

func NewHandler(orchestrator *Orchestrator, sessions CartSessions, options OptionsLoader, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		sessions:     sessions,
		options:      options,
		logger:       logger,
	}
}

type submitRequest struct {
	ShippingInfo    domain.ShippingInfo `json:"shipping_info"`
	PaymentMethodID string              `json:"payment_method_id"`
	BankAccountID   string              `json:"bank_account_id"`
}

type submitResponse struct {
	OrderID       string               `json:"order_id"`
	PaymentID     string               `json:"payment_id"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	ExpiresAt     time.Time            `json:"expires_at"`
	RedirectTo    string               `json:"redirect_to"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := cart.SessionID(w, r)
	store, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	selector := catalog.NewSelector(h.options.Load(r.Context()), func(methodID, bankAccountID string) {
		h.logger.Debug("payment selected", "session_id", sessionID, "payment_method_id", methodID, "bank_account_id", bankAccountID)
	})
	if req.PaymentMethodID != "" {
		if err := selector.SelectMethod(req.PaymentMethodID); err != nil {
			h.writeError(w, http.StatusUnprocessableEntity, "payment_method_id: unknown payment method")
			return
		}
	}
	if req.BankAccountID != "" {
		if err := selector.SelectBankAccount(req.BankAccountID); err != nil {
			h.writeError(w, http.StatusUnprocessableEntity, "bank_account_id: unknown bank account")
			return
		}
	}

	result, err := h.orchestrator.Submit(r.Context(), Request{
		SessionID: sessionID,
		Cart:      store,
		Shipping:  req.ShippingInfo,
		Payment:   selector,
	})
	if err != nil {
		h.writeSubmitError(w, sessionID, err)
		return
	}

	// Only the submitted lines leave the session cart. Items added while the
	// submission was running stay for the next checkout.
	if err := h.sessions.Remove(r.Context(), sessionID, result.Order.Items); err != nil {
		h.logger.Error("failed to clear cart after checkout", "error", err, "session_id", sessionID)
	}

	h.writeJSON(w, http.StatusCreated, submitResponse{
		OrderID:       result.Order.ID,
		PaymentID:     result.Payment.ID,
		Status:        result.Order.Status,
		PaymentStatus: result.Payment.Status,
		ExpiresAt:     result.Payment.ExpiresAt,
		RedirectTo:    result.RedirectTo,
	})
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, sessionID string, err error) {
	var validationErr *ValidationError
	var persistenceErr *PersistenceError

	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrSubmissionInProgress):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &persistenceErr):
		h.logger.Error("checkout failed", "error", err, "step", persistenceErr.Step, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, persistenceErr.Message)
	default:
		h.logger.Error("checkout failed", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
