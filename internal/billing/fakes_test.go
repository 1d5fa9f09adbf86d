package billing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
)

// memDB is the shared state behind the in-memory store fakes. The
// coordinator snapshots it before each transaction so a failing
// callback rolls everything back, mirroring session semantics.
type memDB struct {
	mu sync.Mutex

	products  map[primitive.ObjectID]models.Product
	invoices  map[primitive.ObjectID]models.Invoice
	customers map[primitive.ObjectID]models.Customer
	payments  map[primitive.ObjectID]models.Payment

	insertInvoiceErr error
	saveCustomerErr  error
}

func newMemDB() *memDB {
	return &memDB{
		products:  map[primitive.ObjectID]models.Product{},
		invoices:  map[primitive.ObjectID]models.Invoice{},
		customers: map[primitive.ObjectID]models.Customer{},
		payments:  map[primitive.ObjectID]models.Payment{},
	}
}

type memSnapshot struct {
	products  map[primitive.ObjectID]models.Product
	invoices  map[primitive.ObjectID]models.Invoice
	customers map[primitive.ObjectID]models.Customer
	payments  map[primitive.ObjectID]models.Payment
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := memSnapshot{
		products:  make(map[primitive.ObjectID]models.Product, len(db.products)),
		invoices:  make(map[primitive.ObjectID]models.Invoice, len(db.invoices)),
		customers: make(map[primitive.ObjectID]models.Customer, len(db.customers)),
		payments:  make(map[primitive.ObjectID]models.Payment, len(db.payments)),
	}
	for k, v := range db.products {
		s.products[k] = v
	}
	for k, v := range db.invoices {
		s.invoices[k] = v
	}
	for k, v := range db.customers {
		s.customers[k] = v
	}
	for k, v := range db.payments {
		s.payments[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products = s.products
	db.invoices = s.invoices
	db.customers = s.customers
	db.payments = s.payments
}

// memCoordinator serialises transactions and rolls the shared state
// back when the callback fails, the way racing sessions resolve one
// after another against a real replica set.
type memCoordinator struct {
	txMu sync.Mutex
	db   *memDB
}

func (c *memCoordinator) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	snap := c.db.snapshot()
	if err := fn(ctx); err != nil {
		c.db.restore(snap)
		return err
	}
	return nil
}

// ------------------- store fakes -------------------

type fakeProducts struct{ db *memDB }

func (f fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	p, ok := f.db.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (f fakeProducts) Decrement(_ context.Context, id primitive.ObjectID, qty int64) (*models.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	p, ok := f.db.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Stock < qty {
		return nil, &InsufficientStockError{
			ProductID: id,
			Title:     p.Title,
			Requested: qty,
			Available: p.Stock,
		}
	}

	p.Stock -= qty
	p.Status = models.StockStatus(p.Stock)
	f.db.products[id] = p
	return &p, nil
}

type fakeInvoices struct{ db *memDB }

func (f fakeInvoices) Insert(_ context.Context, inv *models.Invoice) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	if f.db.insertInvoiceErr != nil {
		return f.db.insertInvoiceErr
	}
	f.db.invoices[inv.ID] = *inv
	return nil
}

func (f fakeInvoices) FindByID(_ context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	inv, ok := f.db.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (f fakeInvoices) TotalForBuyer(_ context.Context, customerID primitive.ObjectID) (decimal.Decimal, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	total := decimal.Zero
	for _, inv := range f.db.invoices {
		if inv.BuyerID == customerID {
			total = total.Add(inv.TotalAmount)
		}
	}
	return total, nil
}

type fakeCustomers struct{ db *memDB }

func (f fakeCustomers) FindByID(_ context.Context, id primitive.ObjectID) (*models.Customer, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	c, ok := f.db.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (f fakeCustomers) Save(_ context.Context, c *models.Customer) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	if f.db.saveCustomerErr != nil {
		return f.db.saveCustomerErr
	}
	f.db.customers[c.ID] = *c
	return nil
}

func (f fakeCustomers) AppendPaymentID(_ context.Context, customerID, paymentID primitive.ObjectID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	c, ok := f.db.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range c.PaymentIDs {
		if id == paymentID {
			return nil
		}
	}
	c.PaymentIDs = append(append([]primitive.ObjectID(nil), c.PaymentIDs...), paymentID)
	f.db.customers[customerID] = c
	return nil
}

type fakePayments struct{ db *memDB }

func (f fakePayments) Insert(_ context.Context, p *models.Payment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.payments[p.ID] = *p
	return nil
}

func (f fakePayments) TotalForCustomer(_ context.Context, customerID primitive.ObjectID) (decimal.Decimal, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	total := decimal.Zero
	for _, p := range f.db.payments {
		if p.CustomerID == customerID && p.Status == models.PaymentCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// ------------------- helpers -------------------

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(db *memDB) *Service {
	svc := NewService(&memCoordinator{db: db},
		fakeProducts{db}, fakeInvoices{db}, fakeCustomers{db}, fakePayments{db})
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedProduct(db *memDB, title, rate, gst string, stock int64) primitive.ObjectID {
	id := primitive.NewObjectID()
	p := models.Product{
		ID:      id,
		Title:   title,
		Rate:    decimal.RequireFromString(rate),
		GSTRate: decimal.RequireFromString(gst),
		Stock:   stock,
	}
	p.RecomputeDerived()
	db.products[id] = p
	return id
}

func seedCustomer(db *memDB, name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	db.customers[id] = models.Customer{ID: id, Name: name, Email: name + "@example.com"}
	return id
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
