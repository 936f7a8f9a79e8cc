package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

var ErrInvalidInput = errors.New("invalid payment input")

type CreatePaymentInput struct {
	OrderID         string
	PaymentMethodID string
	BankAccountID   string
	Amount          int64
}

type Inserter interface {
	Insert(ctx context.Context, p *domain.Payment) error
}

type Option func(*Service)

// WithClock overrides the time source used for created_at and expires_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service creates pending payments. The expiry is always computed here from
// the creation instant; callers cannot supply one.
type Service struct {
	repo Inserter
	now  func() time.Time
}

func NewService(repo Inserter, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	if in.OrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	if in.PaymentMethodID == "" {
		return nil, fmt.Errorf("%w: payment method id is required", ErrInvalidInput)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	// Postgres keeps microseconds; truncating first keeps the stored TTL exact.
	now := s.now().UTC().Truncate(time.Microsecond)

	payment := &domain.Payment{
		OrderID:         in.OrderID,
		PaymentMethodID: in.PaymentMethodID,
		Amount:          in.Amount,
		Status:          domain.PaymentStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(domain.PaymentTTL),
	}
	if in.BankAccountID != "" {
		bank := in.BankAccountID
		payment.BankAccountID = &bank
	}

	if err := s.repo.Insert(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}
