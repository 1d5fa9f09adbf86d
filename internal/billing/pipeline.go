package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/event"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
	"github.com/shashiranjanraj/vyapar/pkg/queue"
)

// EventStockChanged fires after an invoice commit for every product whose
// stock the invoice decremented. Listeners are observational only.
const EventStockChanged = "product.stock_changed"

// StockChanged is the payload of EventStockChanged.
type StockChanged struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Stock     int64  `json:"stock"`
	Status    string `json:"status"`
}

// Service orchestrates the invoice pipeline and the customer ledger.
type Service struct {
	coord     database.Coordinator
	products  ProductStore
	invoices  InvoiceStore
	customers CustomerStore
	payments  PaymentStore

	now func() time.Time
}

func NewService(coord database.Coordinator, products ProductStore, invoices InvoiceStore,
	customers CustomerStore, payments PaymentStore) *Service {
	return &Service{
		coord:     coord,
		products:  products,
		invoices:  invoices,
		customers: customers,
		payments:  payments,
		now:       time.Now,
	}
}

// CreateInvoice runs the two-transaction invoice pipeline.
//
// Transaction one prices every line in input order, decrements stock for
// catalogue lines, totals the document and persists it. Any line failure
// aborts the whole transaction — no partial decrements ever survive.
//
// After commit the customer ledger runs in its own transaction. A ledger
// failure never rolls the sale back: it is logged, counted, and the
// idempotent reconcile is queued for retry.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*models.Invoice, error) {
	// Guard here as well as at the HTTP layer: the CLI and queue paths
	// call the service directly and must not persist an empty document.
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	inv := &models.Invoice{
		ID:            primitive.NewObjectID(),
		InvoiceNumber: in.InvoiceNumber,
		BuyerID:       in.BuyerID,
		SellerID:      in.SellerID,
		InvoiceDate:   in.InvoiceDate,
		DueDate:       in.DueDate,
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = nextInvoiceNumber(s.now())
	}

	var touched []*models.Product

	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		touched = touched[:0]
		inv.Items = inv.Items[:0]

		for _, line := range in.Items {
			var product *models.Product
			if line.ProductID != nil {
				p, err := s.products.FindByID(txn, *line.ProductID)
				if err != nil {
					return err
				}
				product = p
			}

			item, err := PriceItem(line, product)
			if err != nil {
				return err
			}

			if product != nil {
				updated, err := s.products.Decrement(txn, product.ID, line.Quantity)
				if err != nil {
					return err
				}
				touched = append(touched, updated)
			}

			inv.Items = append(inv.Items, item)
		}

		inv.EnsureDates(s.now())

		t := Aggregate(inv.Items)
		inv.SubTotal = t.SubTotal
		inv.TotalDiscount = t.TotalDiscount
		inv.GST = t.GST
		inv.TotalAmount = t.TotalAmount

		return s.invoices.Insert(txn, inv)
	})
	if err != nil {
		if domainError(err) {
			if errors.Is(err, ErrInsufficientStock) {
				metrics.OversellRejected.Inc()
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTxnAborted, err)
	}

	metrics.InvoicesCreated.Inc()

	for _, p := range touched {
		event.FireAsync(EventStockChanged, StockChanged{
			ProductID: p.ID.Hex(),
			Title:     p.Title,
			Stock:     p.Stock,
			Status:    p.Status,
		})
	}

	// Second, independent transaction. The sale is already committed;
	// from here failures are operational, not user-visible.
	if err := s.ReconcileCustomer(ctx, in.BuyerID, inv); err != nil {
		s.reportReconcileFailure(ctx, in.BuyerID, inv.ID, err)
	}

	return inv, nil
}

// reportReconcileFailure logs the soft failure and queues the idempotent
// reconcile for retry.
func (s *Service) reportReconcileFailure(ctx context.Context, customerID, invoiceID primitive.ObjectID, err error) {
	metrics.LedgerReconcileFailures.Inc()
	logger.WithCtx(ctx).Error("customer ledger reconcile failed, queued for retry",
		"customer_id", customerID.Hex(),
		"invoice_id", invoiceID.Hex(),
		"error", err,
	)

	job := ReconcileJob{CustomerID: customerID.Hex(), InvoiceID: invoiceID.Hex()}
	if qerr := queue.Dispatch(job); qerr != nil {
		logger.WithCtx(ctx).Error("could not queue ledger reconcile", "error", qerr)
	}
}

// nextInvoiceNumber builds a unique, human-sortable invoice number.
// Uniqueness is ultimately enforced by the invoiceNumber index.
func nextInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), primitive.NewObjectID().Hex()[18:])
}
