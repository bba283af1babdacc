package lastfm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Payload is a decoded top-level JSON object from the API, keyed by member name.
type Payload map[string]json.RawMessage

// decodePayload parses body as a JSON object.
func decodePayload(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	if p == nil {
		// The literal null.
		return nil, fmt.Errorf("response is not a JSON object")
	}
	return p, nil
}

// Request is a fully built API request: parameters already include the
// method, api_key, signature and format.
type Request struct {
	HTTPMethod string // http.MethodGet or http.MethodPost
	URL        string
	Params     Params
}

// Response is the raw result of a completed exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport prepares exchanges for requests. Nothing is sent until Resume
// is called on the returned Exchange.
//
// done is called at most once, from any goroutine, with either a response
// or a transport error. It is never called after Cancel.
type Transport interface {
	Prepare(req *Request, done func(*Response, error)) Exchange
}

// Exchange is the control handle of one in-flight HTTP exchange.
type Exchange interface {
	Resume()
	Suspend()
	Cancel()
}

// HTTPTransport is the default Transport, backed by an *http.Client.
type HTTPTransport struct {
	Client    *http.Client // Defaults to http.DefaultClient
	UserAgent string       // Defaults to DefaultUserAgent
}

// DefaultUserAgent is sent when HTTPTransport.UserAgent is empty.
const DefaultUserAgent = "lastfmkit/1.0"

// Prepare implements Transport.
func (t *HTTPTransport) Prepare(req *Request, done func(*Response, error)) Exchange {
	return &httpExchange{transport: t, req: req, done: done}
}

// httpExchange runs a single request on a goroutine. Suspend cannot pause a
// net/http request mid-flight, so a suspended exchange keeps running and
// holds its completion until Resume.
type httpExchange struct {
	transport *HTTPTransport
	req       *Request
	done      func(*Response, error)

	mu        sync.Mutex
	started   bool
	suspended bool
	cancelled bool
	finished  bool
	cancel    context.CancelFunc
	pending   func()
}

func (e *httpExchange) Resume() {
	e.mu.Lock()
	if e.cancelled || e.finished {
		e.mu.Unlock()
		return
	}
	e.suspended = false

	if e.pending != nil {
		deliver := e.pending
		e.pending = nil
		e.finished = true
		e.mu.Unlock()
		deliver()
		return
	}

	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(ctx)
}

func (e *httpExchange) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started && !e.cancelled && !e.finished {
		e.suspended = true
	}
}

func (e *httpExchange) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelled || e.finished {
		return
	}
	e.cancelled = true
	e.pending = nil
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *httpExchange) run(ctx context.Context) {
	resp, err := e.transport.do(ctx, e.req)

	e.mu.Lock()
	if e.cancelled {
		e.mu.Unlock()
		return
	}
	deliver := func() {
		e.cancel()
		e.done(resp, err)
	}
	if e.suspended {
		e.pending = deliver
		e.mu.Unlock()
		return
	}
	e.finished = true
	e.mu.Unlock()

	deliver()
}

func (t *HTTPTransport) do(ctx context.Context, r *Request) (*Response, error) {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	userAgent := t.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	encoded := r.Params.Values().Encode()

	var (
		req *http.Request
		err error
	)
	if r.HTTPMethod == http.MethodGet {
		target := r.URL
		if encoded != "" {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + encoded
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, r.URL, strings.NewReader(encoded))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
