package billing

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/pkg/database"
)

// Sentinel errors of the invoice pipeline. Pricing and stock errors abort
// the whole invoice transaction; ledger errors never do.
var (
	ErrNotFound          = database.ErrNotFound
	ErrNoItems           = errors.New("invoice requires at least one item")
	ErrMissingTitle      = errors.New("custom line item requires a title")
	ErrMissingRate       = errors.New("custom line item requires a rate")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrTxnAborted        = errors.New("transaction aborted")
	ErrLedgerReconcile   = errors.New("customer ledger reconcile failed")
)

// InsufficientStockError carries which product rejected the decrement.
// Matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductID primitive.ObjectID
	Title     string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Title, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// domainError reports whether err belongs to the billing taxonomy, as
// opposed to a datastore/commit failure that callers see as ErrTxnAborted.
func domainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrMissingTitle) ||
		errors.Is(err, ErrMissingRate) ||
		errors.Is(err, ErrInsufficientStock)
}
