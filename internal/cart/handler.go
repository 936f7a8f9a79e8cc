package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

const SessionCookie = "cart_session"

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type Handler struct {
	sessions *SessionStore
	products ProductLookup
	logger   *slog.Logger
}

func NewHandler(sessions *SessionStore, products ProductLookup, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		products: products,
		logger:   logger,
	}
}

type cartResponse struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
	Count int    `json:"count"`
}

func newCartResponse(store *Store) cartResponse {
	snap := store.Snapshot()
	return cartResponse{Items: snap.Items, Total: snap.Total, Count: store.Count()}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionID(w, r)

	store, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(store))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) || (err == nil && product == nil) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	item := Item{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  1,
		Category:  product.Category,
	}

	sessionID := SessionID(w, r)
	store, err := h.sessions.Update(r.Context(), sessionID, func(store *Store) error {
		return store.AddItem(item)
	})
	if errors.Is(err, ErrInvalidItem) {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to update cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "session_id", sessionID, "product_id", product.ID)
	h.writeJSON(w, http.StatusOK, newCartResponse(store))
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sessionID := SessionID(w, r)

	store, err := h.sessions.Update(r.Context(), sessionID, func(store *Store) error {
		store.RemoveItem(id)
		return nil
	})
	if err != nil {
		h.logger.Error("failed to update cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(store))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionID(w, r)

	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, newCartResponse(NewStore()))
}

// SessionID returns the cart session from the request cookie, issuing a new
// one on w when the cookie is missing or malformed.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(DefaultSessionTTL / time.Second),
	})
	return id
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
