// Package loki is a client for a Loki-compatible log-aggregation backend:
// it builds label-indexed records from transcript turn events, pushes them
// to the write endpoint, and runs range queries against the read endpoint.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"transcript-logger/internal/turnevt"
)

const (
	pushPath  = "/loki/api/v1/push"
	queryPath = "/loki/api/v1/query_range"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 8 << 10 // cap what we echo back from failure bodies
)

// Config is the caller-supplied configuration for a Client. The client loads
// nothing itself.
type Config struct {
	// BaseURL is the backend base address, e.g. "http://localhost:3100".
	BaseURL string

	// Job is the client identity label attached to every record.
	Job string

	// Disabled turns Push into a local-log no-op that reports success
	// without a network call. Counters are not touched.
	Disabled bool

	// Timeout bounds each network call. An earlier deadline on the caller's
	// context still wins. Zero means 10 seconds.
	Timeout time.Duration

	// HTTPClient overrides the transport used for backend calls.
	HTTPClient *http.Client
}

// Client pushes records to and queries a Loki-compatible backend. It holds
// no mutable state besides its Health counters and is safe for concurrent
// use by multiple goroutines.
type Client struct {
	baseURL  string
	job      string
	disabled bool
	timeout  time.Duration
	http     *http.Client
	health   *Health
}

// New creates a Client from cfg. The trailing slash on BaseURL, if any, is
// trimmed so endpoint paths concatenate cleanly.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		job:      cfg.Job,
		disabled: cfg.Disabled,
		timeout:  timeout,
		http:     httpClient,
		health:   &Health{},
	}
}

// Job returns the client identity label.
func (c *Client) Job() string { return c.job }

// Health returns the client's counters for direct reads by an exporter.
func (c *Client) Health() *Health { return c.health }

// HealthSnapshot returns a point-in-time copy of the counters.
func (c *Client) HealthSnapshot() HealthSnapshot { return c.health.Snapshot() }

// BuildRecord transforms evt into a Record carrying this client's job label.
func (c *Client) BuildRecord(evt turnevt.TranscriptEvent) Record {
	return TurnEventToRecord(c.job, evt)
}

// Push delivers one record as a single-stream push request. A 2xx response
// counts as a success; any other status or transport failure increments the
// error counter and is returned to the caller. Push never retries — retry
// policy belongs to the caller.
func (c *Client) Push(ctx context.Context, rec Record) error {
	if c.disabled {
		log.Printf("loki: push disabled, dropping record for session %s", rec.Labels[LabelSessionID])
		return nil
	}

	body, err := json.Marshal(pushRequest{
		Streams: []pushStream{{
			Stream: rec.Labels,
			Values: [][]string{{strconv.FormatInt(rec.TimestampNanos, 10), rec.Payload}},
		}},
	})
	if err != nil {
		c.health.RecordFailure()
		return &ParseError{Op: "push", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		c.health.RecordFailure()
		return &TransportError{Op: "push", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.health.RecordFailure()
		return &TransportError{Op: "push", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.health.RecordFailure()
		return &BackendError{
			Op:         "push",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	c.health.RecordSuccess()
	return nil
}

// PushBatch pushes each record independently and returns a per-record
// outcome slice aligned with recs. One record's failure never aborts or
// corrupts the rest of the batch.
func (c *Client) PushBatch(ctx context.Context, recs []Record) []error {
	outcomes := make([]error, len(recs))
	for i, rec := range recs {
		outcomes[i] = c.Push(ctx, rec)
	}
	return outcomes
}
