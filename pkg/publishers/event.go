package publishers

import (
	"time"

	"github.com/samvad-hq/webdriver-transport/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	Source      string          `json:"source"`
	Exchange    domain.Exchange `json:"exchange"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewEvent constructs an Event for an executed exchange.
func NewEvent(source string, ex domain.Exchange) Event {
	return Event{
		Source:      source,
		Exchange:    ex,
		PublishedAt: time.Now().UTC(),
	}
}

// attributes returns the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"exchange_id": e.Exchange.ID,
		"method":      e.Exchange.Method,
	}
	if e.Exchange.Failed() {
		attrs["outcome"] = "error"
	} else {
		attrs["outcome"] = "ok"
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
