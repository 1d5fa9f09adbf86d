package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/queue"
)

var (
	defaultMu  sync.RWMutex
	defaultSvc *Service
)

// SetDefault installs the service used by queued jobs. Called once at
// boot, after the stores are wired.
func SetDefault(s *Service) {
	defaultMu.Lock()
	defaultSvc = s
	defaultMu.Unlock()
}

func defaultService() *Service {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSvc
}

// ReconcileJob re-runs the customer ledger recompute from a queue worker.
// The reconcile recomputes from source, so at-least-once delivery is
// safe; InvoiceID, when present, repairs the cart append as well.
type ReconcileJob struct {
	CustomerID string `json:"customer_id"`
	InvoiceID  string `json:"invoice_id,omitempty"`
}

// RegisterJobs makes the billing job types deserialisable by the queue.
func RegisterJobs() {
	// Dispatch serialises by value, so register under the value type name;
	// the factory hands back a pointer for the payload unmarshal.
	queue.Register(fmt.Sprintf("%T", ReconcileJob{}), func() queue.Job { return &ReconcileJob{} })
}

func queueReconcile(customerID primitive.ObjectID) error {
	return queue.Dispatch(ReconcileJob{CustomerID: customerID.Hex()})
}

func (j ReconcileJob) Handle() error {
	svc := defaultService()
	if svc == nil {
		return errors.New("billing: no default service installed")
	}

	customerID, err := primitive.ObjectIDFromHex(j.CustomerID)
	if err != nil {
		return fmt.Errorf("billing: bad customer id %q: %w", j.CustomerID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var inv *models.Invoice
	if j.InvoiceID != "" {
		invoiceID, err := primitive.ObjectIDFromHex(j.InvoiceID)
		if err != nil {
			return fmt.Errorf("billing: bad invoice id %q: %w", j.InvoiceID, err)
		}
		inv, err = svc.invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
	}

	return svc.ReconcileCustomer(ctx, customerID, inv)
}
