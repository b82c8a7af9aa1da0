package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/redis/go-redis/v9"
)

// Ensure Tracker implements rangegrab.Tracker at compile time.
var _ rangegrab.Tracker = (*Tracker)(nil)

// Tracker implements rangegrab.Tracker directly against Redis, for setups
// where workers and the queue share a host.
type Tracker struct {
	client     *Client
	downloader string

	// Target is returned for every batch.
	Target rangegrab.UploadTarget
	// ClaimTTL, if positive, returns claims older than this to the todo set
	// before every request.
	ClaimTTL time.Duration
	// Now stamps claims and log entries. Defaults to time.Now.
	Now func() time.Time
}

// NewTracker returns a Tracker claiming batches for downloader.
func NewTracker(client *Client, downloader string) *Tracker {
	return &Tracker{client: client, downloader: downloader}
}

// RequestBatch claims a random batch from the todo set.
func (t *Tracker) RequestBatch(ctx context.Context) (string, error) {
	if t.ClaimTTL > 0 {
		if _, err := t.ReleaseExpired(ctx, t.ClaimTTL); err != nil {
			return "", err
		}
	}

	p := t.client.project
	name, err := t.client.rdb.SPop(ctx, todoKey(p)).Result()
	if errors.Is(err, redis.Nil) {
		return "", rangegrab.Errorf(rangegrab.ENOTFOUND, "no batches queued for %s", p)
	} else if err != nil {
		return "", fmt.Errorf("spop failed: %w", err)
	}

	_, err = t.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, claimsKey(p), redis.Z{Score: float64(t.now().Unix()), Member: name})
		pipe.HSet(ctx, outKey(p), name, t.downloader)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("claim %s: %w", name, err)
	}
	return name, nil
}

// UploadTarget returns the configured target.
func (t *Tracker) UploadTarget(_ context.Context, _ string) (rangegrab.UploadTarget, error) {
	return t.Target, nil
}

// Done moves a claimed batch to the done set and logs the report.
func (t *Tracker) Done(ctx context.Context, report *rangegrab.Report) error {
	return t.finish(ctx, doneKey(t.client.project), report)
}

// Fail moves a claimed batch to the failed set and logs the report.
func (t *Tracker) Fail(ctx context.Context, report *rangegrab.Report) error {
	return t.finish(ctx, failedKey(t.client.project), report)
}

func (t *Tracker) finish(ctx context.Context, set string, report *rangegrab.Report) error {
	entry, err := LogEntry(report, t.downloader, t.now())
	if err != nil {
		return err
	}

	p := t.client.project
	_, err = t.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, claimsKey(p), report.Batch)
		pipe.HDel(ctx, outKey(p), report.Batch)
		pipe.SAdd(ctx, set, report.Batch)
		pipe.RPush(ctx, logKey(p), entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("finish %s: %w", report.Batch, err)
	}
	return nil
}

// ReleaseExpired returns claims older than ttl to the todo set and reports
// how many were released.
func (t *Tracker) ReleaseExpired(ctx context.Context, ttl time.Duration) (int, error) {
	p := t.client.project
	cutoff := strconv.FormatInt(t.now().Add(-ttl).Unix(), 10)
	names, err := t.client.rdb.ZRangeByScore(ctx, claimsKey(p), &redis.ZRangeBy{Min: "-inf", Max: "(" + cutoff}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	if len(names) == 0 {
		return 0, nil
	}

	members := make([]any, len(names))
	for i, name := range names {
		members[i] = name
	}
	_, err = t.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, claimsKey(p), members...)
		pipe.HDel(ctx, outKey(p), names...)
		pipe.SAdd(ctx, todoKey(p), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("release claims: %w", err)
	}
	return len(names), nil
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

type logEntry struct {
	Item   string `json:"item"`
	By     string `json:"by"`
	IP     string `json:"ip"`
	At     int64  `json:"at"`
	Status string `json:"status"`
	Bytes  int64  `json:"bytes"`
	ID     string `json:"id"`
}

// LogEntry encodes report as a completion log entry. As in the universal
// tracker, the "id" field holds a JSON document encoded as a string.
func LogEntry(report *rangegrab.Report, by string, at time.Time) ([]byte, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}
	if report.Downloader != "" {
		by = report.Downloader
	}
	id, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	return json.Marshal(logEntry{
		Item:   report.Batch,
		By:     by,
		IP:     "127.0.0.1",
		At:     at.Unix(),
		Status: string(report.Status),
		Bytes:  report.Bytes,
		ID:     string(id),
	})
}
