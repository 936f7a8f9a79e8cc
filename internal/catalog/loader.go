package catalog

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type PaymentSource interface {
	ActivePaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	ActiveBankAccounts(ctx context.Context) ([]domain.BankAccount, error)
}

// PaymentOptions is what a buyer can choose from at checkout.
type PaymentOptions struct {
	Methods      []domain.PaymentMethod `json:"methods"`
	BankAccounts []domain.BankAccount   `json:"bank_accounts"`
}

func (o PaymentOptions) Method(id string) (domain.PaymentMethod, bool) {
	for _, m := range o.Methods {
		if m.ID == id {
			return m, true
		}
	}
	return domain.PaymentMethod{}, false
}

func (o PaymentOptions) BankAccount(id string) (domain.BankAccount, bool) {
	for _, a := range o.BankAccounts {
		if a.ID == id {
			return a, true
		}
	}
	return domain.BankAccount{}, false
}

type Loader struct {
	source PaymentSource
	logger *slog.Logger
}

func NewLoader(source PaymentSource, logger *slog.Logger) *Loader {
	return &Loader{
		source: source,
		logger: logger,
	}
}

// Load reads active methods and bank accounts concurrently. A failed read is
// logged and yields an empty list; Load itself never fails.
func (l *Loader) Load(ctx context.Context) PaymentOptions {
	opts := PaymentOptions{
		Methods:      []domain.PaymentMethod{},
		BankAccounts: []domain.BankAccount{},
	}

	var g errgroup.Group

	g.Go(func() error {
		methods, err := l.source.ActivePaymentMethods(ctx)
		if err != nil {
			l.logger.Error("failed to load payment methods", "error", err)
			return nil
		}
		if methods != nil {
			opts.Methods = methods
		}
		return nil
	})

	g.Go(func() error {
		accounts, err := l.source.ActiveBankAccounts(ctx)
		if err != nil {
			l.logger.Error("failed to load bank accounts", "error", err)
			return nil
		}
		if accounts != nil {
			opts.BankAccounts = accounts
		}
		return nil
	})

	_ = g.Wait()

	return opts
}
