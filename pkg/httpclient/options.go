package httpclient

import (
	"strings"
	"time"
)

const (
	// DefaultConnectTimeout bounds dialing the remote end.
	DefaultConnectTimeout = 30 * time.Second
	// DefaultMaxRedirects caps redirect chains when redirects are followed.
	DefaultMaxRedirects = 10

	jsonContentType = "application/json;charset=UTF-8"
)

// Options is the typed transport configuration applied to every request.
type Options struct {
	ConnectTimeout     time.Duration
	Timeout            time.Duration
	InsecureSkipVerify bool
	Proxy              string
	FollowRedirects    bool
	MaxRedirects       int
	UserAgent          string
	Headers            map[string]string
	StrictMethods      bool
}

// Option overrides a single transport setting for one call.
type Option func(*Options)

// DefaultOptions returns the baseline transport configuration.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: DefaultConnectTimeout,
		MaxRedirects:   DefaultMaxRedirects,
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

func WithInsecureSkipVerify(skip bool) Option {
	return func(o *Options) { o.InsecureSkipVerify = skip }
}

// WithProxy routes the request through the given proxy URL. An empty value
// falls back to the proxy environment variables.
func WithProxy(proxyURL string) Option {
	return func(o *Options) { o.Proxy = strings.TrimSpace(proxyURL) }
}

func WithFollowRedirects(follow bool) Option {
	return func(o *Options) { o.FollowRedirects = follow }
}

func WithMaxRedirects(n int) Option {
	return func(o *Options) { o.MaxRedirects = n }
}

func WithUserAgent(ua string) Option {
	return func(o *Options) { o.UserAgent = ua }
}

// WithHeader sets a request header, replacing any default value for the same key.
func WithHeader(key, value string) Option {
	return func(o *Options) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// WithStrictMethods makes unsupported verbs fail instead of being sent as GET.
func WithStrictMethods(strict bool) Option {
	return func(o *Options) { o.StrictMethods = strict }
}

// merge layers opts over a copy of o. The receiver is never mutated.
func (o Options) merge(opts []Option) Options {
	out := o
	if len(o.Headers) > 0 {
		out.Headers = make(map[string]string, len(o.Headers))
		for k, v := range o.Headers {
			out.Headers[k] = v
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.MaxRedirects <= 0 {
		out.MaxRedirects = DefaultMaxRedirects
	}
	return out
}
