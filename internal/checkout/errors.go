package checkout

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSubmissionInProgress   = errors.New("checkout already in progress")
	ErrIllegalTransition      = errors.New("illegal checkout transition")
)

// ValidationError rejects a submission before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Step string

const (
	StepOrder   Step = "order"
	StepPayment Step = "payment"
)

// PersistenceError reports which insert failed. Message is the store's own
// message, shown to the buyer as is.
type PersistenceError struct {
	Step    Step
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("create %s: %s", e.Step, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func newPersistenceError(step Step, err error) *PersistenceError {
	message := err.Error()
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		message = pqErr.Message
	}
	return &PersistenceError{Step: step, Message: message, Err: err}
}
