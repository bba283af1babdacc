package lastfm

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// Config holds client configuration.
type Config struct {
	APIKey     string          // Last.fm API key; may instead be set later via Auth().SetCredentials
	APISecret  string          // Last.fm API secret; may instead be set later via Auth().SetCredentials
	HTTPClient *http.Client    // Optional: HTTP client for the default transport (defaults to http.DefaultClient)
	Transport  Transport       // Optional: overrides the default HTTPTransport
	BaseURL    string          // Optional: Base URL for API (defaults to Last.fm API, used for testing)
	UserAgent  string          // Optional: User-Agent for the default transport
	Store      SessionStore    // Optional: where the session is persisted (defaults to a MemoryStore)
	Logger     *zerolog.Logger // Optional: debug logging (defaults to zerolog.Nop())
}

// Client is the main entry point for Last.fm API operations.
//
// A Client owns its Auth coordinator; separate clients keep separate
// credentials and sessions.
type Client struct {
	transport Transport
	baseURL   string
	logger    zerolog.Logger

	auth     *Auth
	scrobble *ScrobbleService
	track    *TrackService
	user     *UserService
	tag      *TagService
}

const (
	// DefaultBaseURL is the default Last.fm API endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
)

// NewClient creates a new Last.fm API client.
//
// Credentials are not validated here; signing or building a request
// without them panics with ErrCredentialsNotSet.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("lastfm: invalid BaseURL: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &HTTPTransport{Client: cfg.HTTPClient, UserAgent: cfg.UserAgent}
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	logger = logger.With().Str("component", "lastfm").Logger()

	store := cfg.Store
	if store == nil {
		store = &MemoryStore{}
	}

	c := &Client{
		transport: transport,
		baseURL:   baseURL,
		logger:    logger,
	}

	c.auth = newAuth(c, cfg.APIKey, cfg.APISecret, store, logger)
	c.scrobble = &ScrobbleService{client: c}
	c.track = &TrackService{client: c}
	c.user = &UserService{client: c}
	c.tag = &TagService{client: c}

	return c, nil
}

// Auth returns the authentication coordinator.
func (c *Client) Auth() *Auth {
	return c.auth
}

// Scrobble returns the scrobbling service.
func (c *Client) Scrobble() *ScrobbleService {
	return c.scrobble
}

// Track returns the track service.
func (c *Client) Track() *TrackService {
	return c.track
}

// User returns the user service.
func (c *Client) User() *UserService {
	return c.user
}

// Tag returns the tag service.
func (c *Client) Tag() *TagService {
	return c.tag
}

// CallOptions control how Call builds a request.
type CallOptions struct {
	HTTPMethod    string // http.MethodGet (default) or http.MethodPost
	Signed        bool   // Add api_sig
	Authenticated bool   // Add the current session key; implies Signed
}

// Call builds a request for an arbitrary API method and returns an idle
// operation for it. params must not include method, api_key, sk, api_sig
// or format; empty values are dropped.
//
// Call panics with ErrCredentialsNotSet if credentials are missing and with
// ErrNotAuthenticated if opts.Authenticated is set without a session.
func (c *Client) Call(method string, params Params, opts CallOptions, callback Callback) *Operation {
	req := c.buildRequest(method, params, opts)
	return newOperation(c.transport, req, callback, c.logger)
}

func (c *Client) buildRequest(method string, params Params, opts CallOptions) *Request {
	apiKey, apiSecret := c.auth.credentials()

	p := make(Params, 0, len(params)+3)
	p = append(p, Param{Name: "method", Value: method})
	p = append(p, params...)
	p = append(p, Param{Name: "api_key", Value: apiKey})

	if opts.Authenticated {
		session := c.auth.Session()
		if session == nil {
			panic(ErrNotAuthenticated)
		}
		p = append(p, Param{Name: "sk", Value: session.Key()})
	}

	p = p.Compact()
	signed := opts.Signed || opts.Authenticated
	if signed {
		p = AppendSignature(p, apiSecret)
	}
	// format is never part of the signature.
	p = p.With("format", "json")

	httpMethod := opts.HTTPMethod
	if httpMethod == "" {
		httpMethod = http.MethodGet
	}

	c.logger.Debug().
		Str("method", method).
		Str("http_method", httpMethod).
		Bool("signed", signed).
		Msg("lastfm: building request")

	return &Request{HTTPMethod: httpMethod, URL: c.baseURL, Params: p}
}

// typed adapts a raw operation callback to a typed one. Parse failures are
// reported as KindMalformedResponse.
func typed[T any](parse func(Payload) (T, error), callback func(T, error)) Callback {
	return func(p Payload, err error) {
		var zero T
		if callback == nil {
			return
		}
		if err != nil {
			callback(zero, err)
			return
		}
		v, perr := parse(p)
		if perr != nil {
			callback(zero, malformed("unexpected response shape", perr))
			return
		}
		callback(v, nil)
	}
}

// untyped adapts an error-only callback.
func untyped(callback func(error)) Callback {
	return func(_ Payload, err error) {
		if callback != nil {
			callback(err)
		}
	}
}
