// Package mongodb connects to the document store and runs multi-document
// transactions.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
)

// Collection names.
const (
	CollRegulations          = "regulations"
	CollProgrammeRegulations = "programmeRegulations"
	CollCourses              = "courses"
	CollRegulationBatchYears = "regulationBatchYears"
	CollBatchYears           = "batchYears"
	CollProgrammes           = "programmes"
	CollDepartments          = "departments"
	CollJobs                 = "jobs"
	CollSettings             = "settings"
)

// Client wraps a mongo client and the configured database.
type Client struct {
	client        *mongo.Client
	database      *mongo.Database
	queryTimeout  time.Duration
	maxCommitTime time.Duration
	logger        *zap.Logger
}

// NewClient connects and pings the primary.
func NewClient(ctx context.Context, cfg *config.MongoConfig, logger *zap.Logger) (*Client, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, connectTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("mongo connected", zap.String("database", cfg.Database))

	queryTimeout := cfg.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}

	return &Client{
		client:        client,
		database:      client.Database(cfg.Database),
		queryTimeout:  queryTimeout,
		maxCommitTime: cfg.MaxCommitTime,
		logger:        logger,
	}, nil
}

// Database returns the configured database.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection returns a collection from the database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// QueryTimeout is the per-call deadline repositories apply.
func (c *Client) QueryTimeout() time.Duration {
	return c.queryTimeout
}

// Ping health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the query paths rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollProgrammeRegulations: {
			{
				Keys:    bson.D{{Key: "regulationId", Value: 1}, {Key: "programme.id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		CollCourses: {
			{Keys: bson.D{{Key: "regulationId", Value: 1}, {Key: "programme.id", Value: 1}, {Key: "semester", Value: 1}}},
			{Keys: bson.D{{Key: "vertical", Value: 1}}},
		},
		CollRegulationBatchYears: {
			{Keys: bson.D{{Key: "batchYearId", Value: 1}, {Key: "semester", Value: 1}}},
			{Keys: bson.D{{Key: "prgmRegulationId", Value: 1}}},
		},
		CollRegulations: {
			{Keys: bson.D{{Key: "year", Value: 1}, {Key: "version", Value: -1}}},
		},
		CollJobs: {
			{Keys: bson.D{{Key: "dates.created", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := c.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
