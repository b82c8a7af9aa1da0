// Package redis implements the tracker side of the system on Redis: the
// queue of batch names, claims, completions, and the completion log. Its
// key layout follows the universal tracker:
//
//	<project>:todo    set of batch names waiting to be claimed
//	<project>:claims  sorted set of claimed batch names, scored by claim time
//	<project>:out     hash of claimed batch name to downloader
//	<project>:done    set of completed batch names
//	<project>:failed  set of batch names that exhausted their retries
//	<project>:log     list of JSON completion entries
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Client wraps Redis operations for one project.
type Client struct {
	rdb     *redis.Client
	project string
}

// NewClient connects to Redis and checks the connection.
func NewClient(cfg Config, project string) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, project: project}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Project returns the project the client works on.
func (c *Client) Project() string { return c.project }

// Key helpers
func todoKey(project string) string   { return project + ":todo" }
func claimsKey(project string) string { return project + ":claims" }
func outKey(project string) string    { return project + ":out" }
func doneKey(project string) string   { return project + ":done" }
func failedKey(project string) string { return project + ":failed" }
func logKey(project string) string    { return project + ":log" }
