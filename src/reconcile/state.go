package reconcile

import "fmt"

// State is a step of the delete flow.
type State int

const (
	Idle State = iota
	FetchingTransaction
	FetchingAccount
	UpdatingAccount
	DeletingTransaction
	Done
	Failed
)

var stateNames = [...]string{
	Idle:                "idle",
	FetchingTransaction: "fetching_transaction",
	FetchingAccount:     "fetching_account",
	UpdatingAccount:     "updating_account",
	DeletingTransaction: "deleting_transaction",
	Done:                "done",
	Failed:              "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// StepError reports which step of a flow failed.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
