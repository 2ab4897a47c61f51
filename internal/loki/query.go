package loki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query runs a range query with the given label selector and time bounds.
// The selector is passed through verbatim; the client does not validate its
// syntax. A zero end defaults to now, a zero start to end minus 24 hours.
// Bounds are transmitted at nanosecond resolution. Query does not touch the
// health counters — those track the write path only.
func (c *Client) Query(ctx context.Context, selector string, start, end time.Time) (QueryResult, error) {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-24 * time.Hour)
	}

	params := url.Values{}
	params.Set("query", selector)
	params.Set("start", strconv.FormatInt(start.UnixNano(), 10))
	params.Set("end", strconv.FormatInt(end.UnixNano(), 10))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+queryPath+"?"+params.Encode(), nil)
	if err != nil {
		return QueryResult{}, &TransportError{Op: "query", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return QueryResult{}, &TransportError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return QueryResult{}, &BackendError{
			Op:         "query",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return QueryResult{}, &ParseError{Op: "query", Err: err}
	}

	return flattenResult(decoded)
}

// flattenResult converts the nested response envelope into a QueryResult,
// preserving the backend's stream and entry order.
func flattenResult(decoded queryResponse) (QueryResult, error) {
	result := QueryResult{Streams: make([]Stream, 0, len(decoded.Data.Result))}
	for i, raw := range decoded.Data.Result {
		stream := Stream{
			Labels:  raw.Stream,
			Entries: make([]Entry, 0, len(raw.Values)),
		}
		for j, pair := range raw.Values {
			if len(pair) != 2 {
				return QueryResult{}, &ParseError{
					Op:  "query",
					Err: fmt.Errorf("stream %d value %d: want [timestamp, line] pair, got %d elements", i, j, len(pair)),
				}
			}
			ns, err := strconv.ParseInt(pair[0], 10, 64)
			if err != nil {
				return QueryResult{}, &ParseError{
					Op:  "query",
					Err: fmt.Errorf("stream %d value %d: bad timestamp %q: %w", i, j, pair[0], err),
				}
			}
			stream.Entries = append(stream.Entries, Entry{TimestampNanos: ns, Line: pair[1]})
		}
		result.Streams = append(result.Streams, stream)
	}
	return result, nil
}
