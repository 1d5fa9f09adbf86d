// Package repositories contains the MongoDB implementations of the store
// interfaces consumed by internal/billing and internal/rating, plus the
// list/find helpers the controllers need. Every method runs against the
// ctx it is given, so calls made inside a transaction join that session.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
)

// ProductRepository handles the products collection.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{col: database.Collection("products")}
}

// Create recomputes the derived pricing fields and inserts the product.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	p.RecomputeDerived()

	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Decrement subtracts qty from stock only when enough stock remains; the
// filter makes the check-and-write a single conditional update, so two
// transactions racing for the last unit cannot both pass.
func (r *ProductRepository) Decrement(ctx context.Context, id primitive.ObjectID, qty int64) (*models.Product, error) {
	defer metrics.ObserveDBQuery("update", time.Now())

	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc":         bson.M{"stock": -qty},
		"$currentDate": bson.M{"updatedAt": true},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the product is gone or the stock was too low.
		existing, ferr := r.FindByID(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, &billing.InsufficientStockError{
			ProductID: id,
			Title:     existing.Title,
			Requested: qty,
			Available: existing.Stock,
		}
	}
	if err != nil {
		return nil, err
	}

	// Stock changed, so the derived status may have too.
	p.Status = models.StockStatus(p.Stock)
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": p.Status}}); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetRating writes the recomputed rating aggregate.
func (r *ProductRepository) SetRating(ctx context.Context, productID primitive.ObjectID, average float64, count int64) error {
	defer metrics.ObserveDBQuery("update", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{
		"$set": bson.M{
			"ratingAverage": average,
			"ratingCount":   count,
			"updatedAt":     time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// All returns one page of products, newest first.
func (r *ProductRepository) All(ctx context.Context, page, limit int) ([]models.Product, database.Pagination, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, database.Pagination{}, err
	}

	p := database.NewPagination(page, limit, total)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, database.Pagination{}, err
	}
	defer cur.Close(ctx)

	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, database.Pagination{}, err
	}
	return products, p, nil
}
