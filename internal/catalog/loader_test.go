package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type fakePaymentSource struct {
	methods     []domain.PaymentMethod
	accounts    []domain.BankAccount
	methodsErr  error
	accountsErr error
	calls       atomic.Int32
}

func (f *fakePaymentSource) ActivePaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	f.calls.Add(1)
	return f.methods, f.methodsErr
}

func (f *fakePaymentSource) ActiveBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	f.calls.Add(1)
	return f.accounts, f.accountsErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() PaymentOptions {
	return PaymentOptions{
		Methods: []domain.PaymentMethod{
			{ID: "m-bank", Name: "Bank Transfer", Type: domain.PaymentMethodBank, IsActive: true},
			{ID: "m-qr", Name: "QRIS", Type: domain.PaymentMethodQR, IsActive: true},
		},
		BankAccounts: []domain.BankAccount{
			{ID: "b-1", BankName: "BCA", AccountNumber: "123", AccountHolder: "Store", IsActive: true},
			{ID: "b-2", BankName: "Mandiri", AccountNumber: "456", AccountHolder: "Store", IsActive: true},
		},
	}
}

func TestLoader_Load(t *testing.T) {
	t.Run("returns both lists", func(t *testing.T) {
		want := testOptions()
		source := &fakePaymentSource{methods: want.Methods, accounts: want.BankAccounts}

		got := NewLoader(source, discardLogger()).Load(context.Background())

		assert.Equal(t, want, got)
		assert.EqualValues(t, 2, source.calls.Load())
	})

	t.Run("failed method read yields empty list", func(t *testing.T) {
		source := &fakePaymentSource{
			methodsErr: errors.New("connection refused"),
			accounts:   testOptions().BankAccounts,
		}

		got := NewLoader(source, discardLogger()).Load(context.Background())

		require.NotNil(t, got.Methods)
		assert.Empty(t, got.Methods)
		assert.Len(t, got.BankAccounts, 2)
	})

	t.Run("both reads failing yields empty options", func(t *testing.T) {
		source := &fakePaymentSource{
			methodsErr:  errors.New("boom"),
			accountsErr: errors.New("boom"),
		}

		got := NewLoader(source, discardLogger()).Load(context.Background())

		assert.Empty(t, got.Methods)
		assert.Empty(t, got.BankAccounts)
	})
}
