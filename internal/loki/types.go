package loki

// Record is the immutable, backend-ready representation of one transcript
// turn: a fixed label set for stream indexing, the event time at nanosecond
// resolution, and the JSON payload stored as the log line.
type Record struct {
	Labels         map[string]string
	TimestampNanos int64
	Payload        string
}

// Payload is the structured log line stored alongside the label index. It
// carries the full original event plus the derived fields, with an RFC 3339
// rendering of the event time for human consumption.
type Payload struct {
	SessionID            string   `json:"sessionId"`
	TurnNumber           int      `json:"turnNumber"`
	Timestamp            string   `json:"timestamp"`
	MessageType          string   `json:"messageType"`
	Content              string   `json:"content"`
	ContentLength        int      `json:"contentLength"`
	SafetyFlags          []string `json:"safetyFlags"`
	VocabularyComplexity string   `json:"vocabularyComplexity"`
	GrammarComplexity    string   `json:"grammarComplexity"`
	ConversationFlow     string   `json:"conversationFlow"`
	UserIntent           string   `json:"userIntent"`
	TurnDurationMs       int64    `json:"turnDurationMs,omitempty"`
	MessageID            string   `json:"messageId,omitempty"`
}

// pushStream is one stream in the push request body: a label set plus
// [timestamp, line] value pairs, timestamps as nanosecond strings.
type pushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// pushRequest is the body for POST /loki/api/v1/push.
type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

// queryResponse mirrors the query_range response envelope. Only the fields
// the client consumes are modeled.
type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string       `json:"resultType"`
		Result     []pushStream `json:"result"`
	} `json:"data"`
}

// Entry is one (timestamp, line) pair within a stream, in the backend's
// chronological order.
type Entry struct {
	TimestampNanos int64
	Line           string
}

// Stream is the backend's unit of storage: one unique label set and its
// ordered entries.
type Stream struct {
	Labels  map[string]string
	Entries []Entry
}

// QueryResult is the flattened form of a range-query response. Stream and
// entry order follow the backend; the client does not re-sort or deduplicate.
type QueryResult struct {
	Streams []Stream
}

// TotalEntries returns the number of entries across all streams.
func (r QueryResult) TotalEntries() int {
	n := 0
	for _, s := range r.Streams {
		n += len(s.Entries)
	}
	return n
}
