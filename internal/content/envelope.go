package content

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// Envelope is the timestamped, origin-tagged wrapper around one content value.
// An envelope is immutable once constructed; it is copied, never mutated, as
// it fans out to multiple receivers.
type Envelope struct {
	Content   Content
	Timestamp uint64 // unix seconds
	ClientID  string // empty when the relay's own capture produced the content
}

// NewEnvelope wraps c with the current time and the producing client's
// identity. clientID is empty for relay-local captures.
func NewEnvelope(c Content, clientID string) Envelope {
	return Envelope{
		Content:   c,
		Timestamp: uint64(time.Now().Unix()),
		ClientID:  clientID,
	}
}

type wireEnvelope struct {
	Content   json.RawMessage `json:"content"`
	Timestamp uint64          `json:"timestamp"`
	ClientID  *string         `json:"client_id,omitempty"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	raw, err := MarshalContent(e.Content)
	if err != nil {
		return nil, err
	}
	w := wireEnvelope{Content: raw, Timestamp: e.Timestamp}
	if e.ClientID != "" {
		w.ClientID = &e.ClientID
	}
	return json.Marshal(w)
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	if len(w.Content) == 0 {
		return fmt.Errorf("envelope: missing content")
	}
	c, err := UnmarshalContent(w.Content)
	if err != nil {
		return err
	}
	e.Content = c
	e.Timestamp = w.Timestamp
	if w.ClientID != nil {
		e.ClientID = *w.ClientID
	} else {
		e.ClientID = ""
	}
	return nil
}

// NewClientID builds the process-lifetime client identity: the platform tag
// plus a high-resolution timestamp. Used solely for echo suppression.
func NewClientID() string {
	return fmt.Sprintf("%s-%d", runtime.GOOS, time.Now().UnixNano())
}
