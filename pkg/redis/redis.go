package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
)

// Client wraps go-redis for rate limiting and the job progress mirror.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects and pings.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── rate limiting ──

// CheckRateLimit is a sliding-window limiter on a sorted set: entries older
// than window are trimmed, then the request is admitted if fewer than limit
// remain.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if count.Val() >= int64(limit) {
		return false, nil
	}

	pipe = c.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ── job progress ──

const jobProgressPrefix = "job:progress:"

// JobProgress is the fast-polling view of a running job.
type JobProgress struct {
	Status     string
	Percentage int
}

// SetJobProgress mirrors a job's status and completion percentage.
func (c *Client) SetJobProgress(ctx context.Context, jobID, status string, percentage int, ttl time.Duration) error {
	key := jobProgressPrefix + jobID
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, "status", status, "percentage", percentage)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetJobProgress returns false when nothing is cached for the job.
func (c *Client) GetJobProgress(ctx context.Context, jobID string) (JobProgress, bool, error) {
	values, err := c.rdb.HGetAll(ctx, jobProgressPrefix+jobID).Result()
	if err != nil {
		return JobProgress{}, false, err
	}
	if len(values) == 0 {
		return JobProgress{}, false, nil
	}
	pct, _ := strconv.Atoi(values["percentage"])
	return JobProgress{Status: values["status"], Percentage: pct}, true, nil
}

// Ping health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
