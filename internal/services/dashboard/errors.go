package dashboard

import (
	"errors"
	"fmt"

	"qrdine-backend/internal/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// TransitionError is returned when an order is asked to move to a state
// it cannot reach from where it is.
type TransitionError struct {
	OrderID int
	From    models.OrderStatus
	To      models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order #%d: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// FetchError wraps a failure of the order source.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch ready orders: " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure to write the served history.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persist order history: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }
