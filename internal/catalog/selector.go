package catalog

import (
	"fmt"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

// Selection is the buyer's current payment choice. BankAccountID is empty for
// qr methods and for bank methods whose account has not been picked yet.
type Selection struct {
	MethodID      string
	MethodType    domain.PaymentMethodType
	BankAccountID string
}

// Complete reports whether the selection can be submitted.
func (s Selection) Complete() bool {
	if s.MethodID == "" {
		return false
	}
	return s.MethodType != domain.PaymentMethodBank || s.BankAccountID != ""
}

// Selector tracks a payment choice against loaded options and calls onSelect
// each time the effective (method, bank account) pair changes.
type Selector struct {
	options  PaymentOptions
	onSelect func(methodID, bankAccountID string)

	method domain.PaymentMethod
	bankID string
}

func NewSelector(options PaymentOptions, onSelect func(methodID, bankAccountID string)) *Selector {
	return &Selector{
		options:  options,
		onSelect: onSelect,
	}
}

func (s *Selector) SelectMethod(id string) error {
	method, ok := s.options.Method(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPaymentMethodNotFound, id)
	}

	before := s.Selection()
	s.method = method
	if method.Type == domain.PaymentMethodQR {
		s.bankID = ""
	}
	s.notify(before)
	return nil
}

func (s *Selector) SelectBankAccount(id string) error {
	if _, ok := s.options.BankAccount(id); !ok {
		return fmt.Errorf("%w: %s", ErrBankAccountNotFound, id)
	}

	before := s.Selection()
	s.bankID = id
	s.notify(before)
	return nil
}

func (s *Selector) Selection() Selection {
	sel := Selection{
		MethodID:   s.method.ID,
		MethodType: s.method.Type,
	}
	if s.method.Type == domain.PaymentMethodBank {
		sel.BankAccountID = s.bankID
	}
	return sel
}

// Method returns the chosen method and, when relevant, the chosen account.
func (s *Selector) Method() (domain.PaymentMethod, *domain.BankAccount) {
	sel := s.Selection()
	if sel.BankAccountID == "" {
		return s.method, nil
	}
	account, _ := s.options.BankAccount(sel.BankAccountID)
	return s.method, &account
}

func (s *Selector) notify(before Selection) {
	after := s.Selection()
	if after.MethodID == "" || after == before || s.onSelect == nil {
		return
	}
	s.onSelect(after.MethodID, after.BankAccountID)
}
