// Package rating keeps every product's rating average and count
// consistent with its review set. Like the customer ledger, it is a
// recompute-from-source aggregate: safe to re-run, no incremental
// counters to drift.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
	"github.com/shashiranjanraj/vyapar/pkg/queue"
)

var (
	// ErrNotFound covers a missing review or product.
	ErrNotFound = database.ErrNotFound

	// ErrDuplicate means the user already reviewed this product.
	ErrDuplicate = errors.New("user has already reviewed this product")
)

// ReviewStore is the aggregator's view of the reviews collection.
type ReviewStore interface {
	Insert(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)

	// Aggregate counts and averages the ratings of one product's
	// reviews. Zero reviews yields (0, 0).
	Aggregate(ctx context.Context, productID primitive.ObjectID) (count int64, average float64, err error)
}

// ProductStore writes the derived rating fields back to the product.
type ProductStore interface {
	// SetRating returns ErrNotFound when the product does not exist.
	SetRating(ctx context.Context, productID primitive.ObjectID, average float64, count int64) error
}

// Service owns the review lifecycle and the rating recompute.
type Service struct {
	coord    database.Coordinator
	reviews  ReviewStore
	products ProductStore

	now func() time.Time
}

func NewService(coord database.Coordinator, reviews ReviewStore, products ProductStore) *Service {
	return &Service{coord: coord, reviews: reviews, products: products, now: time.Now}
}

// CreateReview commits the review, then recomputes the product rating in
// a separate transaction.
func (s *Service) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = s.now()
	review.UpdatedAt = s.now()

	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		return s.reviews.Insert(txn, review)
	})
	if err != nil {
		return nil, err
	}

	if err := s.Recalculate(ctx, review.ProductID); err != nil {
		s.reportRecomputeFailure(ctx, review.ProductID, err)
	}
	return review, nil
}

// UpdateReview replaces rating/comment of an existing review and
// recomputes the product rating.
func (s *Service) UpdateReview(ctx context.Context, id primitive.ObjectID, ratingValue int, comment string) (*models.Review, error) {
	var review *models.Review

	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		existing, err := s.reviews.FindByID(txn, id)
		if err != nil {
			return err
		}
		existing.Rating = ratingValue
		existing.Comment = comment
		existing.UpdatedAt = s.now()
		review = existing
		return s.reviews.Update(txn, existing)
	})
	if err != nil {
		return nil, err
	}

	if err := s.Recalculate(ctx, review.ProductID); err != nil {
		s.reportRecomputeFailure(ctx, review.ProductID, err)
	}
	return review, nil
}

// DeleteReview removes a review. The product id is snapshotted from the
// document before the delete — afterwards there is nothing left to tell
// us which product needs the recompute.
func (s *Service) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	var productID primitive.ObjectID

	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		existing, err := s.reviews.FindByID(txn, id)
		if err != nil {
			return err
		}
		productID = existing.ProductID
		return s.reviews.Delete(txn, id)
	})
	if err != nil {
		return err
	}

	if err := s.Recalculate(ctx, productID); err != nil {
		s.reportRecomputeFailure(ctx, productID, err)
	}
	return nil
}

// reportRecomputeFailure logs the soft failure and queues the idempotent
// recompute for retry. The review write is already committed; from here
// failures are operational, not user-visible.
func (s *Service) reportRecomputeFailure(ctx context.Context, productID primitive.ObjectID, err error) {
	metrics.RatingRecomputeFailures.Inc()
	logger.WithCtx(ctx).Error("product rating recompute failed, queued for retry",
		"product_id", productID.Hex(),
		"error", err,
	)

	if qerr := queue.Dispatch(RebuildJob{ProductID: productID.Hex()}); qerr != nil {
		logger.WithCtx(ctx).Error("could not queue rating rebuild", "error", qerr)
	}
}

// Recalculate recomputes one product's ratingAverage/ratingCount from
// its review set, in a transaction of its own. Idempotent.
func (s *Service) Recalculate(ctx context.Context, productID primitive.ObjectID) error {
	err := s.coord.WithTransaction(ctx, func(txn context.Context) error {
		count, average, err := s.reviews.Aggregate(txn, productID)
		if err != nil {
			return err
		}
		return s.products.SetRating(txn, productID, average, count)
	})
	if err != nil {
		return fmt.Errorf("rating: recalculate product %s: %w", productID.Hex(), err)
	}

	metrics.RatingRecomputes.Inc()
	return nil
}
