package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
)

// InvoiceRepository handles the invoices collection.
type InvoiceRepository struct {
	col *mongo.Collection
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{col: database.Collection("invoices")}
}

func (r *InvoiceRepository) Insert(ctx context.Context, inv *models.Invoice) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	_, err := r.col.InsertOne(ctx, inv)
	return err
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var inv models.Invoice
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// TotalForBuyer sums totalAmount over every invoice of one buyer.
// Always a fresh aggregate — the customer ledger depends on this never
// being a cached counter.
func (r *InvoiceRepository) TotalForBuyer(ctx context.Context, customerID primitive.ObjectID) (decimal.Decimal, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"buyerId": customerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalAmount"},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Total decimal.Decimal `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return decimal.Decimal{}, err
	}
	if len(out) == 0 {
		return decimal.Zero, nil
	}
	return out[0].Total, nil
}

// ListForBuyer returns one page of a buyer's invoices, newest first.
func (r *InvoiceRepository) ListForBuyer(ctx context.Context, customerID primitive.ObjectID, page, limit int) ([]models.Invoice, database.Pagination, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	filter := bson.M{"buyerId": customerID}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, database.Pagination{}, err
	}

	p := database.NewPagination(page, limit, total)
	opts := options.Find().
		SetSort(bson.D{{Key: "invoiceDate", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, database.Pagination{}, err
	}
	defer cur.Close(ctx)

	var invoices []models.Invoice
	if err := cur.All(ctx, &invoices); err != nil {
		return nil, database.Pagination{}, err
	}
	return invoices, p, nil
}
