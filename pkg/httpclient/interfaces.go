package httpclient

import "context"

// Client abstracts request execution so callers can inject mocks or different transports.
type Client interface {
	Execute(ctx context.Context, method, url string, params any, opts ...Option) (*Result, error)
}

// Result is the outcome of a single round trip: the trimmed body and transport metadata.
type Result struct {
	Body string `json:"body"`
	Info Info   `json:"info"`
}

// StatusCode returns the HTTP status of the response, or 0 when none was received.
func (r *Result) StatusCode() int {
	if r == nil {
		return 0
	}
	return r.Info.StatusCode
}
