package loki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func queryStub(t *testing.T, response string, capture *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/query_range" {
			t.Errorf("path = %q, want /loki/api/v1/query_range", r.URL.Path)
		}
		if capture != nil {
			params := map[string]string{}
			for k := range r.URL.Query() {
				params[k] = r.URL.Query().Get(k)
			}
			*capture = params
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
}

func TestQuery_ParsesStreams(t *testing.T) {
	t.Parallel()

	response := `{
		"status": "success",
		"data": {
			"resultType": "streams",
			"result": [
				{
					"stream": {"session_id": "s1", "message_type": "user"},
					"values": [
						["1705312200000000000", "{\"content\":\"hi\"}"],
						["1705312260000000000", "{\"content\":\"more\"}"]
					]
				},
				{
					"stream": {"session_id": "s2", "message_type": "agent"},
					"values": [["1705312300000000000", "{}"]]
				}
			]
		}
	}`
	ts := queryStub(t, response, nil)
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})

	result, err := c.Query(context.Background(), `{session_id="s1"}`, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(result.Streams) != 2 {
		t.Fatalf("streams = %d, want 2", len(result.Streams))
	}
	first := result.Streams[0]
	if first.Labels["session_id"] != "s1" {
		t.Errorf("labels = %v, want session_id=s1", first.Labels)
	}
	if len(first.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(first.Entries))
	}
	// Backend order preserved, no re-sorting.
	if first.Entries[0].TimestampNanos != 1705312200000000000 {
		t.Errorf("entry 0 ts = %d", first.Entries[0].TimestampNanos)
	}
	if first.Entries[0].Line != `{"content":"hi"}` {
		t.Errorf("entry 0 line = %q", first.Entries[0].Line)
	}
	if result.TotalEntries() != 3 {
		t.Errorf("TotalEntries = %d, want 3", result.TotalEntries())
	}
}

func TestQuery_NanosecondBounds(t *testing.T) {
	t.Parallel()

	var params map[string]string
	ts := queryStub(t, `{"status":"success","data":{"result":[]}}`, &params)
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})

	start := time.Unix(1705312200, 0)
	end := time.Unix(1705315800, 0)
	if _, err := c.Query(context.Background(), `{job="j"}`, start, end); err != nil {
		t.Fatalf("Query: %v", err)
	}

	if params["query"] != `{job="j"}` {
		t.Errorf("query param = %q, want the selector verbatim", params["query"])
	}
	if params["start"] != "1705312200000000000" {
		t.Errorf("start = %q, want 1705312200000000000", params["start"])
	}
	if params["end"] != "1705315800000000000" {
		t.Errorf("end = %q, want 1705315800000000000", params["end"])
	}
}

func TestQuery_DefaultWindow(t *testing.T) {
	t.Parallel()

	var params map[string]string
	ts := queryStub(t, `{"status":"success","data":{"result":[]}}`, &params)
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})

	before := time.Now()
	if _, err := c.Query(context.Background(), `{}`, time.Time{}, time.Time{}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	after := time.Now()

	end, err := strconv.ParseInt(params["end"], 10, 64)
	if err != nil {
		t.Fatalf("end param %q: %v", params["end"], err)
	}
	start, err := strconv.ParseInt(params["start"], 10, 64)
	if err != nil {
		t.Fatalf("start param %q: %v", params["start"], err)
	}

	if end < before.UnixNano() || end > after.UnixNano() {
		t.Errorf("default end %d not within [%d, %d]", end, before.UnixNano(), after.UnixNano())
	}
	if got := end - start; got != int64(24*time.Hour) {
		t.Errorf("default window = %s, want 24h", time.Duration(got))
	}
}

func TestQuery_BackendError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse error in selector", http.StatusBadRequest)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})

	_, err := c.Query(context.Background(), `{bad`, time.Time{}, time.Time{})
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error = %T, want *BackendError", err)
	}
	if be.StatusCode != http.StatusBadRequest || be.Body != "parse error in selector" {
		t.Errorf("BackendError = %+v, want status and body surfaced verbatim", be)
	}
}

func TestQuery_ParseError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
	}{
		{"not json", `<html>gateway timeout</html>`},
		{"bad timestamp", `{"status":"success","data":{"result":[{"stream":{},"values":[["not-a-number","line"]]}]}}`},
		{"short pair", `{"status":"success","data":{"result":[{"stream":{},"values":[["1705312200000000000"]]}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := queryStub(t, tc.response, nil)
			defer ts.Close()

			c := New(Config{BaseURL: ts.URL})

			_, err := c.Query(context.Background(), `{}`, time.Time{}, time.Time{})
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %T (%v), want *ParseError", err, err)
			}
		})
	}
}

func TestQuery_DoesNotTouchCounters(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL})

	c.Query(context.Background(), `{}`, time.Time{}, time.Time{})

	if snap := c.HealthSnapshot(); snap.ErrorsTotal != 0 || snap.EntriesTotal != 0 {
		t.Errorf("query must not touch ingestion counters, got %+v", snap)
	}
}
