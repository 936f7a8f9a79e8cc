package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type selectCall struct {
	methodID string
	bankID   string
}

func newRecordingSelector() (*Selector, *[]selectCall) {
	var calls []selectCall
	s := NewSelector(testOptions(), func(methodID, bankAccountID string) {
		calls = append(calls, selectCall{methodID, bankAccountID})
	})
	return s, &calls
}

func TestSelector(t *testing.T) {
	t.Run("bank method without account is incomplete", func(t *testing.T) {
		s, calls := newRecordingSelector()

		require.NoError(t, s.SelectMethod("m-bank"))

		sel := s.Selection()
		assert.Equal(t, domain.PaymentMethodBank, sel.MethodType)
		assert.Empty(t, sel.BankAccountID)
		assert.False(t, sel.Complete())
		assert.Equal(t, []selectCall{{"m-bank", ""}}, *calls)
	})

	t.Run("bank method with account is complete", func(t *testing.T) {
		s, calls := newRecordingSelector()

		require.NoError(t, s.SelectMethod("m-bank"))
		require.NoError(t, s.SelectBankAccount("b-2"))

		sel := s.Selection()
		assert.True(t, sel.Complete())
		assert.Equal(t, "b-2", sel.BankAccountID)
		assert.Equal(t, []selectCall{{"m-bank", ""}, {"m-bank", "b-2"}}, *calls)

		method, account := s.Method()
		assert.Equal(t, "Bank Transfer", method.Name)
		require.NotNil(t, account)
		assert.Equal(t, "Mandiri", account.BankName)
	})

	t.Run("qr method clears bank choice", func(t *testing.T) {
		s, calls := newRecordingSelector()

		require.NoError(t, s.SelectMethod("m-bank"))
		require.NoError(t, s.SelectBankAccount("b-1"))
		require.NoError(t, s.SelectMethod("m-qr"))

		sel := s.Selection()
		assert.True(t, sel.Complete())
		assert.Empty(t, sel.BankAccountID)
		assert.Equal(t, selectCall{"m-qr", ""}, (*calls)[len(*calls)-1])

		_, account := s.Method()
		assert.Nil(t, account)

		// Switching back does not resurrect the cleared account.
		require.NoError(t, s.SelectMethod("m-bank"))
		assert.False(t, s.Selection().Complete())
	})

	t.Run("bank choice before method does not fire", func(t *testing.T) {
		s, calls := newRecordingSelector()

		require.NoError(t, s.SelectBankAccount("b-1"))
		assert.Empty(t, *calls)

		require.NoError(t, s.SelectMethod("m-bank"))
		assert.Equal(t, []selectCall{{"m-bank", "b-1"}}, *calls)
	})

	t.Run("unchanged selection does not fire again", func(t *testing.T) {
		s, calls := newRecordingSelector()

		require.NoError(t, s.SelectMethod("m-qr"))
		require.NoError(t, s.SelectMethod("m-qr"))

		assert.Len(t, *calls, 1)
	})

	t.Run("unknown ids are rejected", func(t *testing.T) {
		s, calls := newRecordingSelector()

		assert.ErrorIs(t, s.SelectMethod("nope"), ErrPaymentMethodNotFound)
		assert.ErrorIs(t, s.SelectBankAccount("nope"), ErrBankAccountNotFound)
		assert.Empty(t, *calls)
		assert.False(t, s.Selection().Complete())
	})
}
