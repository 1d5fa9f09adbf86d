package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/pkg/queue"
)

var (
	defaultMu  sync.RWMutex
	defaultSvc *Service
)

// SetDefault installs the service used by queued jobs. Called once at
// boot, after the stores are wired.
func SetDefault(s *Service) {
	defaultMu.Lock()
	defaultSvc = s
	defaultMu.Unlock()
}

func defaultService() *Service {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSvc
}

// RebuildJob re-runs one product's rating recompute from a queue worker.
// The recompute is from source, so at-least-once delivery is safe.
type RebuildJob struct {
	ProductID string `json:"product_id"`
}

// RegisterJobs makes the rating job types deserialisable by the queue.
func RegisterJobs() {
	// Dispatch serialises by value, so register under the value type name;
	// the factory hands back a pointer for the payload unmarshal.
	queue.Register(fmt.Sprintf("%T", RebuildJob{}), func() queue.Job { return &RebuildJob{} })
}

func (j RebuildJob) Handle() error {
	svc := defaultService()
	if svc == nil {
		return errors.New("rating: no default service installed")
	}

	productID, err := primitive.ObjectIDFromHex(j.ProductID)
	if err != nil {
		return fmt.Errorf("rating: bad product id %q: %w", j.ProductID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return svc.Recalculate(ctx, productID)
}
