package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/webdriver-transport/pkg/httpclient"
)

type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	typ     string
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	opts := httpclient.DefaultOptions()
	opts.Timeout = time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	opts.StrictMethods = true

	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}

	return &httpPublisher{
		id:      cfg.ID,
		typ:     TypeHTTP,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewExecutor(opts, nil),
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return h.typ }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	opts := make([]httpclient.Option, 0, len(h.headers))
	for k, v := range h.headers {
		opts = append(opts, httpclient.WithHeader(k, v))
	}

	res, err := h.client.Execute(ctx, h.method, h.url, evt, opts...)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if code := res.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("http response status %d: %s", code, httpclient.Summary(res))
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"status":       res.StatusCode(),
	})
	return nil
}
