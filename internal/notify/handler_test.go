package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

func newTestHandler(url string) *Handler {
	return NewHandler(url, http.DefaultClient, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bankEvent() domain.CheckoutCompletedEvent {
	return domain.CheckoutCompletedEvent{
		OrderID:       "order-1",
		PaymentID:     "pay-1",
		UserID:        "user-1",
		Email:         "ana@example.com",
		FullName:      "Ana",
		Amount:        100000,
		PaymentMethod: domain.PaymentMethod{ID: "m1", Name: "Bank Transfer", Type: domain.PaymentMethodBank},
		BankAccount:   &domain.BankAccount{BankName: "BCA", AccountNumber: "1234567890", AccountHolder: "Storefront"},
		ExpiresAt:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Handle(t *testing.T) {
	t.Run("sends bank transfer instructions", func(t *testing.T) {
		var got email
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" {
				t.Errorf("expected /send, got %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode email: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		payload, _ := json.Marshal(bankEvent())
		if err := newTestHandler(server.URL+"/").Handle(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got.To != "ana@example.com" {
			t.Errorf("expected recipient ana@example.com, got %s", got.To)
		}
		for _, want := range []string{"Rp 100.000", "BCA 1234567890", "14 Mar 2026 12:00 UTC"} {
			if !strings.Contains(got.Body, want) {
				t.Errorf("expected body to contain %q, got:\n%s", want, got.Body)
			}
		}
	})

	t.Run("qr payment has no bank line", func(t *testing.T) {
		var got email
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
		}))
		defer server.Close()

		event := bankEvent()
		event.BankAccount = nil
		event.PaymentMethod = domain.PaymentMethod{ID: "m2", Name: "QRIS", Type: domain.PaymentMethodQR}
		payload, _ := json.Marshal(event)

		if err := newTestHandler(server.URL).Handle(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(got.Body, "Transfer to") {
			t.Errorf("qr email must not carry bank details:\n%s", got.Body)
		}
		if !strings.Contains(got.Body, "QR code") {
			t.Errorf("expected QR instructions, got:\n%s", got.Body)
		}
	})

	t.Run("email service failure is returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		payload, _ := json.Marshal(bankEvent())
		err := newTestHandler(server.URL).Handle(context.Background(), payload)
		if err == nil {
			t.Fatal("expected error when email service fails")
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			t.Error("expected email service failure to be retryable")
		}
	})

	t.Run("malformed payload is permanent", func(t *testing.T) {
		err := newTestHandler("http://unused").Handle(context.Background(), []byte("{"))
		var permanent *backoff.PermanentError
		if !errors.As(err, &permanent) {
			t.Fatalf("expected permanent unmarshal error, got %v", err)
		}
	})

	t.Run("missing recipient is skipped", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		event := bankEvent()
		event.Email = ""
		payload, _ := json.Marshal(event)

		if err := newTestHandler(server.URL).Handle(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called {
			t.Error("email service must not be called without a recipient")
		}
	})
}

func TestHandler_FormatAmount(t *testing.T) {
	h := newTestHandler("http://unused")

	tests := map[int64]string{
		0:       "Rp 0",
		999:     "Rp 999",
		50000:   "Rp 50.000",
		1250000: "Rp 1.250.000",
	}
	for amount, want := range tests {
		if got := h.FormatAmount(amount); got != want {
			t.Errorf("FormatAmount(%d) = %q, want %q", amount, got, want)
		}
	}
}
