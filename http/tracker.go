// Package http provides the tracker client: batches are requested and
// reported over a small JSON-over-HTTP protocol.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/rangegrab"
)

// DefaultTimeout is the default timeout for tracker requests.
const DefaultTimeout = 30 * time.Second

// APIVersion is sent with every batch request.
const APIVersion = "2"

// Ensure Tracker implements rangegrab.Tracker at compile time.
var _ rangegrab.Tracker = (*Tracker)(nil)

// Tracker is a client for a tracker that hands out batch names.
//
// Endpoints, all POST with a JSON body:
//
//	/request  {downloader, api_version, version}  -> {item_name}
//	/upload   {downloader, item, version}         -> {url, prefix}
//	/done     report                              -> 200
//	/fail     report                              -> 200
//
// A 404 or 420 from /request means there is no work right now.
type Tracker struct {
	client     *http.Client
	baseURL    string
	downloader string
	version    string
	timeout    time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTimeout sets the timeout for tracker requests.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		t.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. The timeout option is ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tracker) {
		t.client = c
	}
}

// NewTracker creates a client for the tracker at baseURL, identifying itself
// as downloader running version.
func NewTracker(baseURL, downloader, version string, opts ...Option) *Tracker {
	t := &Tracker{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		downloader: downloader,
		version:    version,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: t.timeout}
	}
	return t
}

type requestBody struct {
	Downloader string `json:"downloader"`
	APIVersion string `json:"api_version"`
	Version    string `json:"version"`
}

type requestResponse struct {
	ItemName string `json:"item_name"`
}

// RequestBatch asks the tracker for the next batch.
func (t *Tracker) RequestBatch(ctx context.Context) (string, error) {
	var resp requestResponse
	status, err := t.post(ctx, "/request", requestBody{
		Downloader: t.downloader,
		APIVersion: APIVersion,
		Version:    t.version,
	}, &resp)
	if status == http.StatusNotFound || status == 420 {
		return "", rangegrab.Errorf(rangegrab.ENOTFOUND, "tracker has no work (HTTP %d)", status)
	} else if err != nil {
		return "", err
	}
	if resp.ItemName == "" {
		return "", rangegrab.Errorf(rangegrab.ENOTFOUND, "tracker returned no item")
	}
	return resp.ItemName, nil
}

type uploadBody struct {
	Downloader string `json:"downloader"`
	Item       string `json:"item"`
	Version    string `json:"version"`
}

// UploadTarget asks the tracker where the artifacts of batch go.
func (t *Tracker) UploadTarget(ctx context.Context, batch string) (rangegrab.UploadTarget, error) {
	var target rangegrab.UploadTarget
	if _, err := t.post(ctx, "/upload", uploadBody{
		Downloader: t.downloader,
		Item:       batch,
		Version:    t.version,
	}, &target); err != nil {
		return rangegrab.UploadTarget{}, err
	}
	return target, nil
}

// Done reports a completed batch.
func (t *Tracker) Done(ctx context.Context, report *rangegrab.Report) error {
	_, err := t.post(ctx, "/done", t.stamp(report), nil)
	return err
}

// Fail reports a failed batch.
func (t *Tracker) Fail(ctx context.Context, report *rangegrab.Report) error {
	_, err := t.post(ctx, "/fail", t.stamp(report), nil)
	return err
}

func (t *Tracker) stamp(report *rangegrab.Report) *rangegrab.Report {
	r := *report
	if r.Downloader == "" {
		r.Downloader = t.downloader
	}
	if r.Version == "" {
		r.Version = t.version
	}
	return &r
}

// post sends body as JSON and decodes a 2xx response into out, if non-nil.
// The HTTP status is returned whenever a response arrived.
func (t *Tracker) post(ctx context.Context, path string, body, out any) (int, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("tracker %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("tracker %s: decode response: %w", path, err)
	}
	return resp.StatusCode, nil
}
