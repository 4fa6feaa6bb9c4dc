// Package kafka carries molecule notations and alphabet lifecycle events
// over the platform's message stream.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// Topic constants.
const (
	TopicMoleculeSubmitted = "molsig.molecules"
	TopicAlphabetUpdated   = "molsig.alphabet.updated"
	TopicDeadLetter        = "molsig.dead_letter"
)

// EventEnvelope standardizes event messages on every topic.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// MoleculeSubmittedPayload is the payload of TopicMoleculeSubmitted events.
// Workers parse the notation, compute signatures, and register them into
// their alphabet shard.
type MoleculeSubmittedPayload struct {
	MoleculeID  string    `json:"molecule_id"`
	Notation    string    `json:"notation"`
	Source      string    `json:"source"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AlphabetUpdatedPayload is the payload of TopicAlphabetUpdated events,
// emitted after a fill pass or merge changes a stored alphabet.
type AlphabetUpdatedPayload struct {
	AlphabetName string    `json:"alphabet_name"`
	Entries      int       `json:"entries"`
	OccupiedBits int       `json:"occupied_bits"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const schemaVersion = "1"

// NewEnvelope wraps a payload into a versioned envelope with a fresh event ID.
func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       raw,
	}, nil
}

// DecodeEnvelope parses an envelope from raw message bytes.
func DecodeEnvelope(data []byte) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event envelope")
	}
	return &env, nil
}

// DecodePayload parses the envelope payload into dest.
func (e *EventEnvelope) DecodePayload(dest interface{}) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}
