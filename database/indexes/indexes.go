// Package indexes declares the index set the application relies on.
// Running EnsureAll is idempotent; Mongo skips indexes that already
// exist with the same definition.
package indexes

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAll creates every index the repositories depend on. The unique
// constraints back the invariants the code assumes: one user per email,
// one review per (product, user), one invoice per number.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"invoices": {
			{
				Keys:    bson.D{{Key: "invoiceNumber", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "buyerId", Value: 1}, {Key: "invoiceDate", Value: -1}}},
		},
		"reviews": {
			{
				Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"payments": {
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "status", Value: 1}}},
		},
		"products": {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		"sellers": {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes: %s: %w", col, err)
		}
	}
	return nil
}
