package billing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
)

func TestCreateInvoiceMixedLines(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Thermal Printer", "100", "18", 10)
	buyerID := seedCustomer(db, "asha")

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items: []LineInput{
			{ProductID: &productID, Quantity: 2},
			{Title: "Setup service", Quantity: 1, Rate: decPtr("50")},
		},
	})
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)

	// 2*100 taxable + 18% gst = 236, plus 50 custom.
	assert.True(t, inv.SubTotal.Equal(dec("250")), "got %s", inv.SubTotal)
	assert.True(t, inv.GST.Equal(dec("36")), "got %s", inv.GST)
	assert.True(t, inv.TotalAmount.Equal(dec("286")), "got %s", inv.TotalAmount)

	assert.NotEmpty(t, inv.InvoiceNumber)
	assert.Equal(t, testNow, inv.InvoiceDate)
	assert.Equal(t, testNow.Add(models.DefaultDueAfter), inv.DueDate)

	// Stock decremented under the same transaction.
	assert.Equal(t, int64(8), db.products[productID].Stock)

	// Persisted.
	_, ok := db.invoices[inv.ID]
	assert.True(t, ok)

	// Ledger reconciled: balances recomputed, cart unioned.
	cust := db.customers[buyerID]
	assert.True(t, cust.TotalPurchasedAmount.Equal(dec("286")), "got %s", cust.TotalPurchasedAmount)
	assert.True(t, cust.RemainingAmount.Equal(dec("286")), "got %s", cust.RemainingAmount)
	require.Len(t, cust.Cart, 1)
	assert.Equal(t, productID, cust.Cart[0].ProductID)
	assert.Equal(t, []primitive.ObjectID{inv.ID}, cust.Cart[0].InvoiceIDs)
}

func TestCreateInvoiceInsufficientStockRollsBackEverything(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	okID := seedProduct(db, "Notebook", "120", "12", 100)
	lowID := seedProduct(db, "Scanner", "2150.50", "18", 3)
	buyerID := seedCustomer(db, "ravi")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items: []LineInput{
			{ProductID: &okID, Quantity: 10}, // would succeed alone
			{ProductID: &lowID, Quantity: 5}, // only 3 left
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, lowID, stockErr.ProductID)

	// No partial decrement survives the abort.
	assert.Equal(t, int64(100), db.products[okID].Stock)
	assert.Equal(t, int64(3), db.products[lowID].Stock)
	assert.Empty(t, db.invoices)

	cust := db.customers[buyerID]
	assert.True(t, cust.TotalPurchasedAmount.IsZero())
	assert.Empty(t, cust.Cart)
}

func TestCreateInvoiceUnknownProduct(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)
	buyerID := seedCustomer(db, "meena")

	ghost := primitive.NewObjectID()
	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &ghost, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, db.invoices)
}

func TestCreateInvoiceRequiresItems(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)
	buyerID := seedCustomer(db, "meena")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{BuyerID: buyerID})
	assert.ErrorIs(t, err, ErrNoItems)
	assert.Empty(t, db.invoices, "no empty document persisted")
}

func TestCreateInvoiceCustomLineValidation(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)
	buyerID := seedCustomer(db, "sunil")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{Quantity: 1, Rate: decPtr("10")}},
	})
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{Title: "Misc", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMissingRate)
	assert.Empty(t, db.invoices)
}

func TestCreateInvoiceDatastoreFailureIsTxnAborted(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Drawer", "3250", "28", 5)
	buyerID := seedCustomer(db, "lata")

	db.insertInvoiceErr = errors.New("socket reset")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxnAborted)
	assert.NotErrorIs(t, err, ErrInsufficientStock)

	// The decrement rolled back with the rest of the transaction.
	assert.Equal(t, int64(5), db.products[productID].Stock)
}

func TestCreateInvoiceLedgerFailureDoesNotVoidSale(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Ribbon", "89.99", "12", 500)
	buyerID := seedCustomer(db, "noor")

	db.saveCustomerErr = errors.New("primary stepped down")

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		BuyerID: buyerID,
		Items:   []LineInput{{ProductID: &productID, Quantity: 3}},
	})

	// The sale stands: committed invoice, decremented stock, no error
	// surfaced to the caller.
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Contains(t, db.invoices, inv.ID)
	assert.Equal(t, int64(497), db.products[productID].Stock)

	// The ledger write never landed.
	cust := db.customers[buyerID]
	assert.True(t, cust.TotalPurchasedAmount.IsZero())
	assert.Empty(t, cust.Cart)

	// A later reconcile (the queued retry path) repairs it.
	db.saveCustomerErr = nil
	require.NoError(t, svc.ReconcileCustomer(context.Background(), buyerID, inv))

	cust = db.customers[buyerID]
	assert.False(t, cust.TotalPurchasedAmount.IsZero())
	require.Len(t, cust.Cart, 1)
}

func TestCreateInvoiceLastUnitRace(t *testing.T) {
	db := newMemDB()
	svc := newTestService(db)

	productID := seedProduct(db, "Last Unit", "999", "18", 1)
	buyerA := seedCustomer(db, "a")
	buyerB := seedCustomer(db, "b")

	input := func(buyer primitive.ObjectID) CreateInvoiceInput {
		return CreateInvoiceInput{
			BuyerID: buyer,
			Items:   []LineInput{{ProductID: &productID, Quantity: 1}},
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	buyers := []primitive.ObjectID{buyerA, buyerB}
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateInvoice(context.Background(), input(buyers[i]))
		}(i)
	}
	wg.Wait()

	var successes, oversells int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientStock):
			oversells++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one sale of the last unit")
	assert.Equal(t, 1, oversells, "the loser sees insufficient stock")
	assert.Equal(t, int64(0), db.products[productID].Stock)
	assert.Equal(t, models.StatusOutOfStock, db.products[productID].Status)
	assert.Len(t, db.invoices, 1)
}
