package seeders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/auth"
)

func init() {
	Register("users", SeedUsers)
	Register("products", SeedProducts)
}

// SeedUsers upserts one account per role so a fresh install is usable
// immediately. Default password for all three: "password123".
func SeedUsers(ctx context.Context, db *mongo.Database) error {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	users := []models.User{
		{Name: "Admin", Email: "admin@vyapar.local", Role: models.RoleAdmin},
		{Name: "Demo Seller", Email: "seller@vyapar.local", Role: models.RoleSeller},
		{Name: "Demo Customer", Email: "customer@vyapar.local", Role: models.RoleCustomer},
	}

	now := time.Now()
	for _, u := range users {
		u.Password = hash
		u.CreatedAt = now
		u.UpdatedAt = now

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"email": u.Email},
			bson.M{"$setOnInsert": u},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}

		// The customer role also needs a ledger document under the same id,
		// and the seller role a merchant profile.
		if res.UpsertedID == nil {
			continue
		}
		id := res.UpsertedID.(primitive.ObjectID)
		switch u.Role {
		case models.RoleCustomer:
			customer := models.Customer{
				ID:         id,
				Name:       u.Name,
				Email:      u.Email,
				Cart:       []models.CartEntry{},
				PaymentIDs: []primitive.ObjectID{},
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, err := db.Collection("customers").UpdateOne(ctx,
				bson.M{"_id": id},
				bson.M{"$setOnInsert": customer},
				options.Update().SetUpsert(true),
			); err != nil {
				return err
			}
		case models.RoleSeller:
			seller := models.Seller{
				ID:        id,
				UserID:    id,
				ShopName:  "Vyapar Demo Store",
				CreatedAt: now,
			}
			if _, err := db.Collection("sellers").UpdateOne(ctx,
				bson.M{"_id": id},
				bson.M{"$setOnInsert": seller},
				options.Update().SetUpsert(true),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedProducts inserts a small GST-rated catalogue when the products
// collection is empty.
func SeedProducts(ctx context.Context, db *mongo.Database) error {
	count, err := db.Collection("products").CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	type entry struct {
		title string
		rate  string
		gst   string
		disc  string
		stock int64
	}
	catalogue := []entry{
		{"Ledger Notebook A4", "120.00", "12", "0", 250},
		{"Thermal Receipt Printer", "4499.00", "18", "5", 40},
		{"Barcode Scanner", "2150.50", "18", "0", 60},
		{"Cash Drawer", "3250.00", "28", "10", 15},
		{"Ink Ribbon Cartridge", "89.99", "12", "0", 500},
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(catalogue))
	for _, s := range catalogue {
		p := models.Product{
			ID:          primitive.NewObjectID(),
			Title:       s.title,
			Rate:        decimal.RequireFromString(s.rate),
			GSTRate:     decimal.RequireFromString(s.gst),
			DiscountPct: decimal.RequireFromString(s.disc),
			Stock:       s.stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		p.RecomputeDerived()
		docs = append(docs, p)
	}

	_, err = db.Collection("products").InsertMany(ctx, docs)
	return err
}
