package domain

import "time"

// Domain contains core models shared by the journal and publishers.

// Exchange is the credential-free record of one executed request.
type Exchange struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	BodyBytes  int       `json:"body_bytes"`
	Summary    string    `json:"summary,omitempty"`
	EmptyReply bool      `json:"empty_reply,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Failed reports whether the exchange ended in a transport error.
func (e Exchange) Failed() bool { return e.Error != "" }
