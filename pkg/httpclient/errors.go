package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptrace"
	"sync/atomic"
)

// KindCurlExec is the single transport failure kind surfaced by the executor.
const KindCurlExec = "CURL_EXEC"

// ErrUnsupportedMethod is returned for unknown verbs when strict methods are enabled.
var ErrUnsupportedMethod = errors.New("unsupported http method")

// TransportError reports a failed round trip. URL never carries credentials.
type TransportError struct {
	Kind   string
	Method string
	URL    string
	Params string
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("transport error for http %s to %s", e.Method, e.URL)
	if e.Params != "" {
		msg += " with params: " + e.Params
	}
	if e.Err != nil {
		msg += "\n\n" + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// replyTrace tracks how far a round trip got, so an EOF can be told apart:
// after the request went out it means the server sent nothing back, before
// that it is a dial, proxy or TLS failure.
type replyTrace struct {
	wroteRequest atomic.Bool
	gotResponse  atomic.Bool
}

// attach returns ctx carrying hooks for t. Hooks already on ctx, such as
// resty's request trace, keep firing.
func (t *replyTrace) attach(ctx context.Context) context.Context {
	return httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				t.wroteRequest.Store(true)
			}
		},
		GotFirstResponseByte: func() { t.gotResponse.Store(true) },
	})
}

// isEmptyReply reports whether err is the server closing an established
// connection after receiving the whole request without writing a byte back.
func (t *replyTrace) isEmptyReply(err error) bool {
	return errors.Is(err, io.EOF) && t.wroteRequest.Load() && !t.gotResponse.Load()
}
