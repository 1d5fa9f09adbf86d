package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/internal/rating"
	"github.com/shashiranjanraj/vyapar/pkg/database"
)

// vyapar ledger:reconcile [customer-id] — recompute customer ledgers
// from the invoice and payment history. With no argument every customer
// is reconciled; the recompute is idempotent either way.
var ledgerReconcileCmd = &cobra.Command{
	Use:   "ledger:reconcile [customer-id]",
	Short: "Recompute customer balances from invoices and payments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := bootDB()
		if err != nil {
			return err
		}
		defer cancel()
		defer database.Disconnect(context.Background()) //nolint:errcheck

		svc := billing.NewService(database.Default(),
			repositories.NewProductRepository(),
			repositories.NewInvoiceRepository(),
			repositories.NewCustomerRepository(),
			repositories.NewPaymentRepository(),
		)

		ids, err := targetIDs(ctx, "customers", args)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := svc.ReconcileCustomer(ctx, id, nil); err != nil {
				return fmt.Errorf("customer %s: %w", id.Hex(), err)
			}
			fmt.Printf("reconciled %s\n", id.Hex())
		}
		fmt.Printf("Done: %d customer(s).\n", len(ids))
		return nil
	},
}

// vyapar rating:rebuild [product-id] — recompute product rating
// aggregates from the reviews collection.
var ratingRebuildCmd = &cobra.Command{
	Use:   "rating:rebuild [product-id]",
	Short: "Recompute product rating aggregates from reviews",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := bootDB()
		if err != nil {
			return err
		}
		defer cancel()
		defer database.Disconnect(context.Background()) //nolint:errcheck

		svc := rating.NewService(database.Default(),
			repositories.NewReviewRepository(),
			repositories.NewProductRepository(),
		)

		ids, err := targetIDs(ctx, "products", args)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := svc.Recalculate(ctx, id); err != nil {
				return fmt.Errorf("product %s: %w", id.Hex(), err)
			}
			fmt.Printf("rebuilt %s\n", id.Hex())
		}
		fmt.Printf("Done: %d product(s).\n", len(ids))
		return nil
	},
}

// targetIDs resolves the optional id argument, or lists every _id in
// the collection when no argument was given.
func targetIDs(ctx context.Context, col string, args []string) ([]primitive.ObjectID, error) {
	if len(args) == 1 {
		id, err := primitive.ObjectIDFromHex(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", args[0])
		}
		return []primitive.ObjectID{id}, nil
	}

	cur, err := database.Collection(col).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}
