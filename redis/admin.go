package redis

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/rangegrab"
)

// EnqueueChunk is how many batch names are added per round trip.
const EnqueueChunk = 10000

// LogPage is how many log entries are fetched per round trip.
const LogPage = 10000

// Scrubbed replaces private fields in exported log entries.
const Scrubbed = "<scrubbed>"

// Enqueue adds the non-blank lines of r to the todo set and returns how many
// lines were read.
func (c *Client) Enqueue(ctx context.Context, r io.Reader) (int, error) {
	n := 0
	err := EachChunk(r, EnqueueChunk, func(names []string) error {
		n += len(names)
		return c.AddItems(ctx, names)
	})
	return n, err
}

// AddItems adds batch names to the todo set.
func (c *Client) AddItems(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	members := make([]any, len(names))
	for i, name := range names {
		members[i] = name
	}
	if err := c.rdb.SAdd(ctx, todoKey(c.project), members...).Err(); err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}
	return nil
}

// EachChunk calls fn with the trimmed non-blank lines of r, size at a time.
// The last chunk may be shorter.
func EachChunk(r io.Reader, size int, fn func([]string) error) error {
	if size < 1 {
		return rangegrab.Errorf(rangegrab.EINVALID, "chunk size %d must be positive", size)
	}
	scanner := bufio.NewScanner(r)
	chunk := make([]string, 0, size)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		chunk = append(chunk, line)
		if len(chunk) >= size {
			if err := fn(chunk); err != nil {
				return err
			}
			chunk = make([]string, 0, size)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(chunk) > 0 {
		return fn(chunk)
	}
	return nil
}

// DoneItems calls emit with the name of every sub-item of every completed
// batch.
func (c *Client) DoneItems(ctx context.Context, emit func(string) error) error {
	names, err := c.rdb.SMembers(ctx, doneKey(c.project)).Result()
	if err != nil {
		return fmt.Errorf("smembers failed: %w", err)
	}
	for _, name := range names {
		if err := ExpandBatch(name, emit); err != nil {
			return err
		}
	}
	return nil
}

// ExpandBatch calls emit with the name of every sub-item of the batch name.
func ExpandBatch(name string, emit func(string) error) error {
	r, a, err := rangegrab.ParseRange(name)
	if err != nil {
		return err
	}
	for id := range r.IDs() {
		if err := emit(a.Encode(id)); err != nil {
			return err
		}
	}
	return nil
}

// LogEntries calls emit with every completion log entry, scrubbed, a page at
// a time.
func (c *Client) LogEntries(ctx context.Context, scrubUser bool, emit func([]byte) error) error {
	for i := int64(0); ; i += LogPage {
		page, err := c.rdb.LRange(ctx, logKey(c.project), i, i+LogPage-1).Result()
		if err != nil {
			return fmt.Errorf("lrange failed: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		for _, entry := range page {
			out, err := ScrubLogEntry([]byte(entry), scrubUser)
			if err != nil {
				return err
			}
			if err := emit(out); err != nil {
				return err
			}
		}
	}
}

// ScrubLogs scrubs every line of r, as LogEntries does for the live log.
func ScrubLogs(r io.Reader, scrubUser bool, emit func([]byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out, err := ScrubLogEntry(line, scrubUser)
		if err != nil {
			return err
		}
		if err := emit(out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ScrubLogEntry replaces the address, and optionally the downloader name, of
// a log entry, and expands its JSON-encoded "id" field into an object.
func ScrubLogEntry(entry []byte, scrubUser bool) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(entry, &doc); err != nil {
		return nil, rangegrab.Errorf(rangegrab.EINVALID, "log entry is not a JSON object: %s", err)
	}
	doc["ip"] = Scrubbed
	if scrubUser {
		doc["by"] = Scrubbed
	}
	if s, ok := doc["id"].(string); ok {
		var id any
		if err := json.Unmarshal([]byte(s), &id); err != nil {
			return nil, rangegrab.Errorf(rangegrab.EINVALID, "log entry id is not JSON: %s", err)
		}
		doc["id"] = id
	}
	return json.Marshal(doc)
}
