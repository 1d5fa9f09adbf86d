package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Coordinator runs a function inside one atomic unit of work. The ctx
// handed to fn carries the transaction; every datastore call made with it
// joins the same session, and the whole unit either commits or aborts.
//
// Core code never opens or commits sessions itself — it receives the
// transactional ctx and the caller owns the commit/abort decision.
type Coordinator interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionCoordinator is the production Coordinator, backed by mongo
// sessions. Snapshot read concern plus majority write concern gives the
// isolation the stock decrement depends on: a concurrent transaction that
// already decremented the row forces a write conflict here instead of an
// oversell.
type SessionCoordinator struct {
	client *mongo.Client
}

func NewSessionCoordinator(client *mongo.Client) *SessionCoordinator {
	return &SessionCoordinator{client: client}
}

func (c *SessionCoordinator) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("txn: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	// WithTransaction retries the callback on TransientTransactionError
	// and the commit on UnknownTransactionCommitResult, then aborts on
	// any terminal failure. A client disconnect mid-transaction surfaces
	// here as a context error and the driver aborts — no partial writes.
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}

// Default returns a Coordinator over the connected client.
func Default() Coordinator {
	return NewSessionCoordinator(Client)
}
