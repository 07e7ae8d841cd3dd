package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Executor issues one JSON request per call. Each call gets its own transport,
// released before Execute returns, so an Executor is safe for concurrent use.
type Executor struct {
	defaults Options
	log      *zap.SugaredLogger
}

// NewExecutor builds an Executor with the given default transport options.
// A nil logger discards resty's internal diagnostics.
func NewExecutor(defaults Options, log *zap.SugaredLogger) *Executor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Executor{defaults: defaults.merge(nil), log: log}
}

// Defaults returns a copy of the executor's default options.
func (e *Executor) Defaults() Options { return e.defaults.merge(nil) }

// Get performs a GET request.
func (e *Executor) Get(ctx context.Context, url string, opts ...Option) (*Result, error) {
	return e.Execute(ctx, http.MethodGet, url, nil, opts...)
}

// Post performs a POST request with params encoded as the JSON body.
func (e *Executor) Post(ctx context.Context, url string, params any, opts ...Option) (*Result, error) {
	return e.Execute(ctx, http.MethodPost, url, params, opts...)
}

// Put performs a PUT request with params encoded as the JSON body.
func (e *Executor) Put(ctx context.Context, url string, params any, opts ...Option) (*Result, error) {
	return e.Execute(ctx, http.MethodPut, url, params, opts...)
}

// Delete performs a DELETE request. Params are never sent.
func (e *Executor) Delete(ctx context.Context, url string, opts ...Option) (*Result, error) {
	return e.Execute(ctx, http.MethodDelete, url, nil, opts...)
}

// Execute sends method to rawURL. For POST and PUT a non-empty collection in
// params becomes the JSON body. Credentials embedded in the URL authority are
// sent as basic auth and stripped from the dispatched URL. Any transport
// failure other than an empty reply is returned as a *TransportError; HTTP
// error statuses are not errors.
func (e *Executor) Execute(ctx context.Context, method, rawURL string, params any, opts ...Option) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := e.defaults.merge(opts)

	verb := strings.ToUpper(strings.TrimSpace(method))
	if !SupportedMethod(verb) {
		if cfg.StrictMethods {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
		}
		verb = http.MethodGet
	}

	target, creds, err := splitCredentials(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	paramsJSON, err := encodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %s %s: %w", verb, target, err)
	}
	hasBody := carriesBody(verb) && paramsJSON != nil

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	defer transport.CloseIdleConnections()

	trace := &replyTrace{}
	client := e.newClient(transport, cfg)
	req := client.R().
		SetContext(trace.attach(ctx)).
		EnableTrace().
		SetHeaders(requestHeaders(verb, hasBody, cfg))
	if creds != nil {
		req.SetBasicAuth(creds.username, creds.password)
	}
	if hasBody {
		req.SetBody(paramsJSON)
	}

	resp, err := req.Execute(verb, target)
	if err != nil {
		if trace.isEmptyReply(err) {
			info := newInfo(verb, target, resp)
			info.EmptyReply = true
			return &Result{Info: info}, nil
		}
		return nil, &TransportError{
			Kind:   KindCurlExec,
			Method: verb,
			URL:    target,
			Params: string(paramsJSON),
			Err:    err,
		}
	}

	return &Result{
		Body: strings.TrimSpace(string(resp.Body())),
		Info: newInfo(verb, target, resp),
	}, nil
}

func (e *Executor) newClient(transport *http.Transport, cfg Options) *resty.Client {
	c := resty.New().
		SetTransport(transport).
		SetLogger(e.log).
		SetDisableWarn(true)
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if cfg.FollowRedirects {
		c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	} else {
		c.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	}
	return c
}

func newTransport(cfg Options) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        1,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // caller opt-in
		},
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", StripCredentials(cfg.Proxy))
		}
		t.Proxy = http.ProxyURL(proxyURL)
	}
	return t, nil
}

// requestHeaders returns the headers for verb. Caller supplied headers are
// applied last and win over the fixed JSON headers.
func requestHeaders(verb string, hasBody bool, cfg Options) map[string]string {
	h := map[string]string{
		"Content-Type": jsonContentType,
		"Accept":       jsonContentType,
	}
	if carriesBody(verb) {
		if !hasBody {
			h["Content-Length"] = "0"
		}
		// An empty Expect keeps servers without 100-continue support from stalling.
		h["Expect"] = ""
	}
	if cfg.UserAgent != "" {
		h["User-Agent"] = cfg.UserAgent
	}
	for k, v := range cfg.Headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	return h
}

// encodeParams serializes params when it is a non-empty collection and
// returns nil otherwise.
func encodeParams(params any) ([]byte, error) {
	if !isCollection(params) {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isCollection(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Struct:
		return true
	default:
		return false
	}
}

// SupportedMethod reports whether verb is one of the methods the executor
// dispatches as-is. verb must already be upper case.
func SupportedMethod(verb string) bool {
	switch verb {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func carriesBody(verb string) bool {
	return verb == http.MethodPost || verb == http.MethodPut
}
