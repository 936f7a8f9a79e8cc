package checkout

import "fmt"

// State is a step of one checkout submission.
type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StateCreatingOrder   State = "creating_order"
	StateCreatingPayment State = "creating_payment"
	StateSuccess         State = "success"
	StateFailed          State = "failed"
)

var transitions = map[State][]State{
	StateIdle:            {StateValidating},
	StateValidating:      {StateCreatingOrder, StateFailed},
	StateCreatingOrder:   {StateCreatingPayment, StateFailed},
	StateCreatingPayment: {StateSuccess, StateFailed},
}

func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// transition is the only way a submission changes state.
func transition(from, to State) (State, error) {
	for _, next := range transitions[from] {
		if next == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
