package rating

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
)

// fakeStore backs both store interfaces with maps; the coordinator
// snapshot gives failing transactions rollback semantics.
type fakeStore struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]models.Review
	ratings map[primitive.ObjectID][2]float64 // productID -> (count, average)

	products map[primitive.ObjectID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews:  map[primitive.ObjectID]models.Review{},
		ratings:  map[primitive.ObjectID][2]float64{},
		products: map[primitive.ObjectID]bool{},
	}
}

func (f *fakeStore) Insert(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.reviews {
		if existing.ProductID == r.ProductID && existing.UserID == r.UserID {
			return ErrDuplicate
		}
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeStore) Update(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.reviews[r.ID]; !ok {
		return ErrNotFound
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (f *fakeStore) Aggregate(_ context.Context, productID primitive.ObjectID) (int64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	var sum int
	for _, r := range f.reviews {
		if r.ProductID == productID {
			count++
			sum += r.Rating
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return count, float64(sum) / float64(count), nil
}

func (f *fakeStore) SetRating(_ context.Context, productID primitive.ObjectID, average float64, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.products[productID] {
		return ErrNotFound
	}
	f.ratings[productID] = [2]float64{float64(count), average}
	return nil
}

// passCoordinator runs the callback directly; the fakes are consistent
// without rollback for these paths.
type passCoordinator struct{}

func (passCoordinator) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService(store *fakeStore) *Service {
	svc := NewService(passCoordinator{}, store, store)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func seedProductID(store *fakeStore) primitive.ObjectID {
	id := primitive.NewObjectID()
	store.products[id] = true
	return id
}

func TestCreateReviewRecomputesRating(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	productID := seedProductID(store)

	_, err := svc.CreateReview(context.Background(), &models.Review{
		ProductID: productID,
		UserID:    primitive.NewObjectID(),
		Rating:    4,
	})
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), &models.Review{
		ProductID: productID,
		UserID:    primitive.NewObjectID(),
		Rating:    5,
	})
	require.NoError(t, err)

	got := store.ratings[productID]
	assert.Equal(t, float64(2), got[0], "count")
	assert.InDelta(t, 4.5, got[1], 1e-9, "average")
}

func TestDuplicateReviewRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	productID := seedProductID(store)
	userID := primitive.NewObjectID()

	_, err := svc.CreateReview(context.Background(), &models.Review{
		ProductID: productID, UserID: userID, Rating: 4,
	})
	require.NoError(t, err)

	_, err = svc.CreateReview(context.Background(), &models.Review{
		ProductID: productID, UserID: userID, Rating: 2,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	got := store.ratings[productID]
	assert.Equal(t, float64(1), got[0], "first review still counted once")
}

func TestUpdateReviewRecomputesRating(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	productID := seedProductID(store)

	review, err := svc.CreateReview(context.Background(), &models.Review{
		ProductID: productID,
		UserID:    primitive.NewObjectID(),
		Rating:    2,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateReview(context.Background(), review.ID, 5, "much better after the fix")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	got := store.ratings[productID]
	assert.Equal(t, float64(1), got[0])
	assert.InDelta(t, 5.0, got[1], 1e-9)
}

func TestCreateReviewSurvivesRecomputeFailure(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	// Product missing from the store: the review insert succeeds but
	// SetRating cannot find the product, failing the recompute.
	review, err := svc.CreateReview(context.Background(), &models.Review{
		ProductID: primitive.NewObjectID(),
		UserID:    primitive.NewObjectID(),
		Rating:    4,
	})
	require.NoError(t, err, "committed review must not be reported as failed")
	require.NotNil(t, review)

	_, ok := store.reviews[review.ID]
	assert.True(t, ok, "review stays committed")
	assert.NotContains(t, store.ratings, review.ProductID)
}

func TestDeleteReviewRecomputesFromRemaining(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	productID := seedProductID(store)

	var lowest *models.Review
	for _, rating := range []int{5, 4, 3} {
		review, err := svc.CreateReview(context.Background(), &models.Review{
			ProductID: productID,
			UserID:    primitive.NewObjectID(),
			Rating:    rating,
		})
		require.NoError(t, err)
		if rating == 3 {
			lowest = review
		}
	}

	require.NoError(t, svc.DeleteReview(context.Background(), lowest.ID))

	got := store.ratings[productID]
	assert.Equal(t, float64(2), got[0], "count")
	assert.InDelta(t, 4.5, got[1], 1e-9, "average over the remaining reviews")
}

func TestDeleteLastReviewZeroesRating(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	productID := seedProductID(store)

	review, err := svc.CreateReview(context.Background(), &models.Review{
		ProductID: productID,
		UserID:    primitive.NewObjectID(),
		Rating:    5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReview(context.Background(), review.ID))

	got := store.ratings[productID]
	assert.Equal(t, float64(0), got[0], "count resets")
	assert.Equal(t, float64(0), got[1], "average resets, no stale value")
}

func TestDeleteMissingReview(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	err := svc.DeleteReview(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecalculateUnknownProduct(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	err := svc.Recalculate(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}
