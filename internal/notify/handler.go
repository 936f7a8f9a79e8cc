package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

// Handler turns checkout.completed events into payment instruction emails.
type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	printer         *message.Printer
	location        *time.Location
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, location *time.Location, logger *slog.Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		emailServiceURL: strings.TrimRight(emailServiceURL, "/"),
		httpClient:      client,
		printer:         message.NewPrinter(language.Indonesian),
		location:        location,
		logger:          logger,
	}
}

type email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.CheckoutCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return backoff.Permanent(fmt.Errorf("unmarshal checkout completed event: %w", err))
	}

	h.logger.Info("processing checkout completed event", "order_id", event.OrderID, "user_id", event.UserID)

	if event.Email == "" {
		h.logger.Warn("checkout event without recipient, skipping", "order_id", event.OrderID)
		return nil
	}

	if err := h.sendEmail(ctx, h.paymentInstructions(event)); err != nil {
		h.logger.Error("failed to send payment instructions", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send payment instructions: %w", err)
	}

	h.logger.Info("payment instructions sent", "order_id", event.OrderID)
	return nil
}

func (h *Handler) paymentInstructions(event domain.CheckoutCompletedEvent) email {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", event.FullName)
	fmt.Fprintf(&b, "Thanks for your order %s.\n", event.OrderID)
	fmt.Fprintf(&b, "Amount due: %s\n", h.FormatAmount(event.Amount))
	fmt.Fprintf(&b, "Payment method: %s\n", event.PaymentMethod.Name)

	switch {
	case event.BankAccount != nil:
		fmt.Fprintf(&b, "Transfer to %s %s (%s)\n",
			event.BankAccount.BankName, event.BankAccount.AccountNumber, event.BankAccount.AccountHolder)
	case event.PaymentMethod.Type == domain.PaymentMethodQR:
		b.WriteString("Scan the QR code on your order page to pay.\n")
	}

	fmt.Fprintf(&b, "Please pay before %s.\n", event.ExpiresAt.In(h.location).Format("02 Jan 2006 15:04 MST"))

	return email{
		To:      event.Email,
		Subject: "Payment instructions for order " + event.OrderID,
		Body:    b.String(),
	}
}

// FormatAmount renders minor units with locale digit grouping, e.g. Rp 100.000.
func (h *Handler) FormatAmount(amount int64) string {
	return h.printer.Sprintf("Rp %d", amount)
}

func (h *Handler) sendEmail(ctx context.Context, body email) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
