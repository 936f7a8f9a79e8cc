package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

const relatedLimit = 4

type ProductReader interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListRelated(ctx context.Context, category, excludeID string, limit int) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type Handler struct {
	products ProductReader
	loader   *Loader
	logger   *slog.Logger
}

func NewHandler(products ProductReader, loader *Loader, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		loader:   loader,
		logger:   logger,
	}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.products.ListProducts(r.Context(), category)
	if err != nil {
		h.logger.Error("failed to list products", "error", err, "category", category)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("products listed", "count", len(products), "category", category)
	h.writeJSON(w, http.StatusOK, products)
}

type productResponse struct {
	domain.Product
	Related []domain.Product `json:"related"`
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if errors.Is(err, ErrProductNotFound) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Related products are decoration; a failed read still renders the product.
	related, err := h.products.ListRelated(r.Context(), product.Category, product.ID, relatedLimit)
	if err != nil {
		h.logger.Warn("failed to list related products", "error", err, "product_id", id)
		related = []domain.Product{}
	}

	h.writeJSON(w, http.StatusOK, productResponse{Product: *product, Related: related})
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandlePaymentOptions(w http.ResponseWriter, r *http.Request) {
	opts := h.loader.Load(r.Context())

	h.logger.Info("payment options loaded", "methods", len(opts.Methods), "bank_accounts", len(opts.BankAccounts))
	h.writeJSON(w, http.StatusOK, opts)
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
