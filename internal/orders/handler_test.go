package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joao-fontenele/digital-storefront/internal/auth"
	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type staticOptions catalog.PaymentOptions

func (s staticOptions) Load(context.Context) catalog.PaymentOptions {
	return catalog.PaymentOptions(s)
}

func newTestHandler(store *fakeOrderStore) *Handler {
	logger := discardLogger()
	options := staticOptions{
		Methods: []domain.PaymentMethod{
			{ID: "bank", Name: "Bank Transfer", Type: domain.PaymentMethodBank, IsActive: true},
		},
		BankAccounts: []domain.BankAccount{
			{ID: "bca", BankName: "BCA", AccountNumber: "1234567890", AccountHolder: "Storefront", IsActive: true},
		},
	}
	return NewHandler(NewViewer(store, logger), store, store, options, logger)
}

func getConfirmation(t *testing.T, handler *Handler) confirmationResponse {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /checkout/{id}/confirmation", handler.HandleConfirmation)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout/"+testOrderID+"/confirmation", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp confirmationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandler_HandleConfirmation(t *testing.T) {
	t.Run("renders stored order", func(t *testing.T) {
		handler := newTestHandler(&fakeOrderStore{orders: map[string]*domain.Order{testOrderID: sampleOrder()}})

		mux := http.NewServeMux()
		mux.HandleFunc("GET /checkout/{id}/confirmation", handler.HandleConfirmation)

		req := httptest.NewRequest(http.MethodGet, "/checkout/"+testOrderID+"/confirmation", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var resp confirmationResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != testOrderID {
			t.Errorf("expected id %s, got %s", testOrderID, resp.ID)
		}
		if resp.ShippingInfo.FullName != "Ana" {
			t.Errorf("expected shipping snapshot, got %+v", resp.ShippingInfo)
		}
		if resp.TotalAmount != 100000 {
			t.Errorf("expected total 100000, got %d", resp.TotalAmount)
		}
	})

	t.Run("renders latest payment with bank details", func(t *testing.T) {
		bank := "bca"
		expires := time.Date(2026, 1, 2, 6, 4, 5, 0, time.UTC)
		store := &fakeOrderStore{
			orders: map[string]*domain.Order{testOrderID: sampleOrder()},
			payments: map[string][]domain.Payment{testOrderID: {
				{ID: "pay-old", OrderID: testOrderID, PaymentMethodID: "bank", Status: domain.PaymentStatusExpired},
				{ID: "pay-1", OrderID: testOrderID, PaymentMethodID: "bank", BankAccountID: &bank, Amount: 100000, Status: domain.PaymentStatusPending, ExpiresAt: expires},
			}},
		}

		resp := getConfirmation(t, newTestHandler(store))

		if resp.Payment == nil {
			t.Fatal("expected payment details")
		}
		if resp.Payment.ID != "pay-1" || !resp.Payment.ExpiresAt.Equal(expires) {
			t.Errorf("expected latest payment expiring at %s, got %+v", expires, resp.Payment)
		}
		if resp.Payment.Method == nil || resp.Payment.Method.Name != "Bank Transfer" {
			t.Errorf("expected bank transfer method, got %+v", resp.Payment.Method)
		}
		if resp.Payment.BankAccount == nil || resp.Payment.BankAccount.AccountNumber != "1234567890" {
			t.Errorf("expected BCA account, got %+v", resp.Payment.BankAccount)
		}
	})

	t.Run("payment lookup failure still renders the order", func(t *testing.T) {
		store := &fakeOrderStore{
			orders:     map[string]*domain.Order{testOrderID: sampleOrder()},
			paymentErr: errors.New("boom"),
		}

		resp := getConfirmation(t, newTestHandler(store))

		if resp.ID != testOrderID {
			t.Errorf("expected id %s, got %s", testOrderID, resp.ID)
		}
		if resp.Payment != nil {
			t.Errorf("expected no payment details, got %+v", resp.Payment)
		}
	})

	t.Run("missing and failing lookups share one message", func(t *testing.T) {
		for _, store := range []*fakeOrderStore{
			{orders: map[string]*domain.Order{}},
			{err: errors.New("boom")},
		} {
			handler := newTestHandler(store)
			mux := http.NewServeMux()
			mux.HandleFunc("GET /checkout/{id}/confirmation", handler.HandleConfirmation)

			req := httptest.NewRequest(http.MethodGet, "/checkout/"+testOrderID+"/confirmation", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", rec.Code)
			}

			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] != "order not found" {
				t.Errorf("expected 'order not found', got %s", resp["error"])
			}
		}
	})
}

func TestHandler_HandleList(t *testing.T) {
	t.Run("requires principal", func(t *testing.T) {
		handler := newTestHandler(&fakeOrderStore{})
		rec := httptest.NewRecorder()
		handler.HandleList(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("lists the principal's orders", func(t *testing.T) {
		handler := newTestHandler(&fakeOrderStore{orders: map[string]*domain.Order{testOrderID: sampleOrder()}})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: "user-1"}))
		rec := httptest.NewRecorder()
		handler.HandleList(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var orders []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&orders); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(orders) != 1 {
			t.Errorf("expected 1 order, got %d", len(orders))
		}
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		handler := newTestHandler(&fakeOrderStore{listErr: errors.New("boom")})

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: "user-1"}))
		rec := httptest.NewRecorder()
		handler.HandleList(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}
