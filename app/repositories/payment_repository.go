package repositories

import (
	"context"
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

// PaymentRepository handles the payments collection.
type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{col: database.Collection("payments")}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *models.Payment) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	_, err := r.col.InsertOne(ctx, p)
	return err
}

// TotalForCustomer sums the customer's completed payments. Pending and
// failed payments do not reduce the outstanding balance.
func (r *PaymentRepository) TotalForCustomer(ctx context.Context, customerID primitive.ObjectID) (decimal.Decimal, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"customerId": customerID,
			"status":     models.PaymentCompleted,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
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

// ListForCustomer returns one page of a customer's payments, newest first.
func (r *PaymentRepository) ListForCustomer(ctx context.Context, customerID primitive.ObjectID, page, limit int) ([]models.Payment, database.Pagination, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	filter := bson.M{"customerId": customerID}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, database.Pagination{}, err
	}

	p := database.NewPagination(page, limit, total)
	opts := options.Find().
		SetSort(bson.D{{Key: "paidAt", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, database.Pagination{}, err
	}
	defer cur.Close(ctx)

	var payments []models.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, database.Pagination{}, err
	}
	return payments, p, nil
}
