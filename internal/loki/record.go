package loki

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"transcript-logger/internal/turnevt"
)

// Label names of the fixed label set attached to every record.
const (
	LabelJob                  = "job"
	LabelSessionID            = "session_id"
	LabelMessageType          = "message_type"
	LabelTurnNumber           = "turn_number"
	LabelContentLength        = "content_length"
	LabelSafetyFlags          = "safety_flags"
	LabelVocabularyComplexity = "vocabulary_complexity"
	LabelGrammarComplexity    = "grammar_complexity"
	LabelConversationFlow     = "conversation_flow"
	LabelUserIntent           = "user_intent"
)

// TurnEventToRecord transforms a wire-format TranscriptEvent into a
// backend-ready Record with the fixed label set and derived payload fields.
// The transformation is pure and deterministic: identical inputs produce
// identical records, and missing optional fields degrade to defaults rather
// than errors. job is the client identity label.
func TurnEventToRecord(job string, evt turnevt.TranscriptEvent) Record {
	contentLength := len(evt.Content)
	flags := evt.Metadata.Flags()

	labels := map[string]string{
		LabelJob:                  job,
		LabelSessionID:            evt.SessionID,
		LabelMessageType:          evt.MessageType,
		LabelTurnNumber:           strconv.Itoa(evt.TurnNumber),
		LabelContentLength:        strconv.Itoa(contentLength),
		LabelSafetyFlags:          safetyFlagsLabel(flags),
		LabelVocabularyComplexity: evt.Metadata.VocabularyLevel(),
		LabelGrammarComplexity:    evt.Metadata.GrammarLevel(),
		LabelConversationFlow:     evt.Context.Flow(),
		LabelUserIntent:           evt.Context.Intent(),
	}

	payload := Payload{
		SessionID:            evt.SessionID,
		TurnNumber:           evt.TurnNumber,
		Timestamp:            time.Unix(evt.Timestamp, 0).UTC().Format(time.RFC3339),
		MessageType:          evt.MessageType,
		Content:              evt.Content,
		ContentLength:        contentLength,
		SafetyFlags:          flags,
		VocabularyComplexity: evt.Metadata.VocabularyLevel(),
		GrammarComplexity:    evt.Metadata.GrammarLevel(),
		ConversationFlow:     evt.Context.Flow(),
		UserIntent:           evt.Context.Intent(),
		TurnDurationMs:       evt.Metadata.Duration(),
		MessageID:            evt.Metadata.ID(),
	}

	// Payload contains only marshalable types, so this cannot fail.
	line, _ := json.Marshal(payload)

	return Record{
		Labels: labels,
		// Nanosecond clock: exact integer multiplication, never float math.
		TimestampNanos: evt.Timestamp * int64(time.Second),
		Payload:        string(line),
	}
}

// safetyFlagsLabel renders the safety-flag list as a label value: a
// comma-join preserving input order, or the literal "none" when empty.
func safetyFlagsLabel(flags []string) string {
	if len(flags) == 0 {
		return turnevt.DefaultNone
	}
	return strings.Join(flags, ",")
}
