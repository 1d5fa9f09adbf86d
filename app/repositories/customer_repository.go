package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
)

// CustomerRepository handles the customers collection.
type CustomerRepository struct {
	col *mongo.Collection
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{col: database.Collection("customers")}
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if c.Cart == nil {
		c.Cart = []models.CartEntry{}
	}
	if c.PaymentIDs == nil {
		c.PaymentIDs = []primitive.ObjectID{}
	}

	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *CustomerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var c models.Customer
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Save replaces the whole customer document. The ledger recompute always
// reads then overwrites, so a full replace is the racing-writers-safe
// write shape here.
func (r *CustomerRepository) Save(ctx context.Context, c *models.Customer) error {
	defer metrics.ObserveDBQuery("update", time.Now())

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// AppendPaymentID unions one payment reference into the customer.
func (r *CustomerRepository) AppendPaymentID(ctx context.Context, customerID, paymentID primitive.ObjectID) error {
	defer metrics.ObserveDBQuery("update", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": customerID}, bson.M{
		"$addToSet":    bson.M{"paymentIds": paymentID},
		"$currentDate": bson.M{"updatedAt": true},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
