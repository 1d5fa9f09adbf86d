package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
)

// ReconcileCustomer recomputes the customer's ledger in one transaction
// of its own. When inv is non-nil its line items are also unioned into
// the cart index.
//
// The recompute reads fresh source aggregates and overwrites, so it is
// idempotent and safe to run concurrently with itself: racing reconciles
// for the same customer all converge on the same answer.
func (s *Service) ReconcileCustomer(ctx context.Context, customerID primitive.ObjectID, inv *models.Invoice) error {
	start := time.Now()

	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		return s.reconcile(txn, customerID, inv)
	})

	metrics.LedgerReconcileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerReconcile, err)
	}
	return nil
}

func (s *Service) reconcile(txn context.Context, customerID primitive.ObjectID, inv *models.Invoice) error {
	cust, err := s.customers.FindByID(txn, customerID)
	if err != nil {
		// A vanished customer behind a committed invoice is an
		// integrity problem, not noise.
		return err
	}

	if inv != nil {
		for _, it := range inv.Items {
			if it.ProductID != nil {
				cust.AppendInvoiceRef(*it.ProductID, inv.ID)
			}
		}
	}

	purchased, err := s.invoices.TotalForBuyer(txn, customerID)
	if err != nil {
		return err
	}
	paid, err := s.payments.TotalForCustomer(txn, customerID)
	if err != nil {
		return err
	}

	remaining := purchased.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	cust.TotalPurchasedAmount = purchased
	cust.RemainingAmount = remaining
	cust.UpdatedAt = s.now()

	return s.customers.Save(txn, cust)
}

// RecordPayment persists a payment and links it to its customer in one
// transaction, then runs the ledger recompute in a second one — the same
// two-transaction shape as invoice creation, minus the cart mutation.
func (s *Service) RecordPayment(ctx context.Context, pay *models.Payment) (*models.Payment, error) {
	if pay.Amount.IsNegative() {
		return nil, fmt.Errorf("payment amount must not be negative")
	}

	pay.ID = primitive.NewObjectID()
	if pay.Status == "" {
		pay.Status = models.PaymentCompleted
	}
	if pay.PaidAt.IsZero() {
		pay.PaidAt = s.now()
	}
	pay.CreatedAt = s.now()

	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		if _, err := s.customers.FindByID(txn, pay.CustomerID); err != nil {
			return err
		}
		if err := s.payments.Insert(txn, pay); err != nil {
			return err
		}
		return s.customers.AppendPaymentID(txn, pay.CustomerID, pay.ID)
	})
	if err != nil {
		if domainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTxnAborted, err)
	}

	if err := s.ReconcileCustomer(ctx, pay.CustomerID, nil); err != nil {
		metrics.LedgerReconcileFailures.Inc()
		logger.WithCtx(ctx).Error("ledger reconcile after payment failed, queued for retry",
			"customer_id", pay.CustomerID.Hex(),
			"payment_id", pay.ID.Hex(),
			"error", err,
		)
		if qerr := queueReconcile(pay.CustomerID); qerr != nil {
			logger.WithCtx(ctx).Error("could not queue ledger reconcile", "error", qerr)
		}
	}

	return pay, nil
}
