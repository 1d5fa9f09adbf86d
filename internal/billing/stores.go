package billing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
)

// The stores are the pipeline's only view of the datastore. The mongo
// implementations live in app/repositories; the tests use in-memory
// fakes. Every method joins whatever transaction the ctx carries.

// ProductStore reads catalogue snapshots and applies stock decrements.
type ProductStore interface {
	// FindByID returns ErrNotFound when the product does not exist.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)

	// Decrement atomically subtracts qty from the product's stock,
	// refusing to go below zero. Returns the updated product, an
	// *InsufficientStockError when stock < qty at write time, or
	// ErrNotFound.
	Decrement(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error)
}

// InvoiceStore persists invoices and answers the ledger's aggregate.
type InvoiceStore interface {
	Insert(ctx context.Context, inv *models.Invoice) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error)

	// TotalForBuyer sums totalAmount over every invoice whose buyer is
	// customerID. Fresh aggregate, never a cached counter.
	TotalForBuyer(ctx context.Context, customerID primitive.ObjectID) (decimal.Decimal, error)
}

// CustomerStore reads and writes the customer document including its
// cart index and derived balances.
type CustomerStore interface {
	// FindByID returns ErrNotFound when the customer does not exist.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	Save(ctx context.Context, c *models.Customer) error
	AppendPaymentID(ctx context.Context, customerID, paymentID primitive.ObjectID) error
}

// PaymentStore persists payments and answers the ledger's aggregate.
type PaymentStore interface {
	Insert(ctx context.Context, p *models.Payment) error

	// TotalForCustomer sums amount over the customer's completed
	// payments.
	TotalForCustomer(ctx context.Context, customerID primitive.ObjectID) (decimal.Decimal, error)
}
