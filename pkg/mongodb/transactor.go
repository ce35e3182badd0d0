package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// Transactor runs a callback inside one multi-document transaction. The
// context handed to fn carries the session, so repositories called with it
// join the transaction.
type Transactor struct {
	client        *mongo.Client
	maxCommitTime time.Duration
	logger        *zap.Logger
}

// NewTransactor builds a Transactor bound to the client's connection pool.
func NewTransactor(c *Client) *Transactor {
	return &Transactor{
		client:        c.client,
		maxCommitTime: c.maxCommitTime,
		logger:        c.logger,
	}
}

// WithTransaction reads from the primary, commits with majority write concern
// within maxCommitTime and always ends the session.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority())
	if t.maxCommitTime > 0 {
		mct := t.maxCommitTime
		txnOpts.SetMaxCommitTime(&mct)
	}

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOpts)
	if err != nil {
		t.logger.Debug("transaction aborted", zap.Error(err))
		return err
	}
	return nil
}
