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

// ErrEmailTaken is returned when registering with an existing email.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository handles the users collection and the seller profiles
// attached to seller-role accounts.
type UserRepository struct {
	col     *mongo.Collection
	sellers *mongo.Collection
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		col:     database.Collection("users"),
		sellers: database.Collection("sellers"),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	_, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var u models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSellerProfile stores the merchant profile for a seller-role user.
// The profile shares the user's id so the JWT subject doubles as sellerId.
func (r *UserRepository) CreateSellerProfile(ctx context.Context, s *models.Seller) error {
	defer metrics.ObserveDBQuery("insert", time.Now())

	if s.ID.IsZero() {
		s.ID = s.UserID
	}
	s.CreatedAt = time.Now()

	_, err := r.sellers.InsertOne(ctx, s)
	return err
}

func (r *UserRepository) FindSellerProfile(ctx context.Context, userID primitive.ObjectID) (*models.Seller, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var s models.Seller
	err := r.sellers.FindOne(ctx, bson.M{"userId": userID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
