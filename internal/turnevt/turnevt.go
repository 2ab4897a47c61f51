// Package turnevt defines the wire format for transcript turn events.
package turnevt

// TranscriptEvent matches the JSON wire format emitted by the conversation
// server for each completed turn. This is an independent definition — no
// imports from the server module. The contract between the two programs is
// the JSON schema, not Go types.
type TranscriptEvent struct {
	SessionID   string    `json:"sessionId"`
	TurnNumber  int       `json:"turnNumber"`
	Timestamp   int64     `json:"timestamp"` // unix seconds
	MessageType string    `json:"messageType"`
	Content     string    `json:"content"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	Context     *Context  `json:"context,omitempty"`
}

// Metadata carries the optional per-turn analysis fields. Every field may be
// absent; the accessors below resolve absence to the documented defaults so
// the defaulting rules live in one place.
type Metadata struct {
	SafetyFlags          []string    `json:"safetyFlags,omitempty"`
	VocabularyComplexity *Complexity `json:"vocabularyComplexity,omitempty"`
	GrammarComplexity    *Complexity `json:"grammarComplexity,omitempty"`
	TurnDurationMs       int64       `json:"turnDuration,omitempty"`
	MessageID            string      `json:"messageId,omitempty"`
}

// Complexity is a nested analysis score; only the level is indexed.
type Complexity struct {
	Level string `json:"level"`
}

// Context carries the optional conversational-state fields.
type Context struct {
	ConversationFlow string `json:"conversationFlow,omitempty"`
	UserIntent       string `json:"userIntent,omitempty"`
}

// Default label values for absent optional fields. DefaultNone is reserved
// for an empty safety-flag list; everything else degrades to DefaultUnknown.
const (
	DefaultUnknown = "unknown"
	DefaultNone    = "none"
)

// VocabularyLevel returns the vocabulary complexity level, or DefaultUnknown
// when metadata or the nested score is absent. Safe on a nil receiver.
func (m *Metadata) VocabularyLevel() string {
	if m == nil || m.VocabularyComplexity == nil || m.VocabularyComplexity.Level == "" {
		return DefaultUnknown
	}
	return m.VocabularyComplexity.Level
}

// GrammarLevel returns the grammar complexity level, or DefaultUnknown.
// Safe on a nil receiver.
func (m *Metadata) GrammarLevel() string {
	if m == nil || m.GrammarComplexity == nil || m.GrammarComplexity.Level == "" {
		return DefaultUnknown
	}
	return m.GrammarComplexity.Level
}

// Flags returns the safety flags in input order, nil when absent.
// Safe on a nil receiver.
func (m *Metadata) Flags() []string {
	if m == nil {
		return nil
	}
	return m.SafetyFlags
}

// Duration returns the turn duration in milliseconds, 0 when absent.
// Safe on a nil receiver.
func (m *Metadata) Duration() int64 {
	if m == nil {
		return 0
	}
	return m.TurnDurationMs
}

// ID returns the message ID, "" when absent. Safe on a nil receiver.
func (m *Metadata) ID() string {
	if m == nil {
		return ""
	}
	return m.MessageID
}

// Flow returns the conversation flow, or DefaultUnknown when context or the
// field is absent. Safe on a nil receiver.
func (c *Context) Flow() string {
	if c == nil || c.ConversationFlow == "" {
		return DefaultUnknown
	}
	return c.ConversationFlow
}

// Intent returns the user intent, or DefaultUnknown. Safe on a nil receiver.
func (c *Context) Intent() string {
	if c == nil || c.UserIntent == "" {
		return DefaultUnknown
	}
	return c.UserIntent
}
