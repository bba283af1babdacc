package lastfm

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
)

// Auth owns the API credentials and the current session of a Client, and
// runs the login handshakes.
//
// Session keys have an infinite lifetime, so a login is normally needed
// once; later runs restore the session from the SessionStore on first use.
type Auth struct {
	client *Client
	store  SessionStore
	logger zerolog.Logger

	credMu    sync.RWMutex
	apiKey    string
	apiSecret string

	// sessionMu serialises every change to the session slot together with
	// the matching store call.
	sessionMu sync.Mutex
	session   *Session
	loadOnce  sync.Once
}

func newAuth(c *Client, apiKey, apiSecret string, store SessionStore, logger zerolog.Logger) *Auth {
	return &Auth{
		client:    c,
		store:     store,
		logger:    logger,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// SetCredentials sets the API key and shared secret obtained from Last.fm.
func (a *Auth) SetCredentials(apiKey, apiSecret string) {
	a.credMu.Lock()
	defer a.credMu.Unlock()
	a.apiKey = apiKey
	a.apiSecret = apiSecret
}

// APIKey returns the configured API key. It panics with
// ErrCredentialsNotSet if credentials are missing.
func (a *Auth) APIKey() string {
	key, _ := a.credentials()
	return key
}

func (a *Auth) credentials() (string, string) {
	a.credMu.RLock()
	defer a.credMu.RUnlock()
	if a.apiKey == "" || a.apiSecret == "" {
		panic(ErrCredentialsNotSet)
	}
	return a.apiKey, a.apiSecret
}

// SignatureParam returns the api_sig pair for params, which must contain
// every parameter of the call including the method name.
func (a *Auth) SignatureParam(params Params) Param {
	_, secret := a.credentials()
	return SignatureParam(params, secret)
}

// AppendingSignature returns a copy of params with the api_sig pair appended.
func (a *Auth) AppendingSignature(params Params) Params {
	_, secret := a.credentials()
	return AppendSignature(params, secret)
}

// Session returns the current session, or nil if the user has not
// authenticated. The persisted session is loaded on first use.
func (a *Auth) Session() *Session {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	a.loadLocked()
	return a.session
}

// UserHasAuthenticated reports whether a current session exists.
func (a *Auth) UserHasAuthenticated() bool {
	return a.Session() != nil
}

// loadLocked restores the persisted session once. Failures are logged and
// treated as no session. a.sessionMu must be held.
func (a *Auth) loadLocked() {
	a.loadOnce.Do(func() {
		if a.session != nil {
			return
		}
		data, err := a.store.Load()
		if err != nil {
			if !errors.Is(err, ErrNoStoredSession) {
				a.logger.Warn().Err(err).Msg("lastfm: failed to load stored session")
			}
			return
		}
		session, err := UnmarshalSession(data)
		if err != nil {
			a.logger.Warn().Err(err).Msg("lastfm: ignoring unreadable stored session")
			return
		}
		a.session = session
		a.logger.Debug().Object("session", session).Msg("lastfm: restored session")
	})
}

// setSession persists s and makes it current. On a store failure the
// current session is left unchanged.
func (a *Auth) setSession(s *Session) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return fmt.Errorf("lastfm: encode session: %w", err)
	}

	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	// A login supersedes whatever is stored; mark the lazy load as done.
	a.loadOnce.Do(func() {})

	if err := a.store.Save(data); err != nil {
		return fmt.Errorf("lastfm: persist session: %w", err)
	}
	a.session = s
	a.logger.Info().Object("session", s).Msg("lastfm: session established")
	return nil
}

// RemoveSession signs the user out locally. It makes no API call; to
// revoke access entirely the user must visit their Last.fm settings.
//
// It returns true if a session was present and has been removed from both
// memory and the store.
func (a *Auth) RemoveSession() bool {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	a.loadLocked()

	if a.session == nil {
		return false
	}
	if err := a.store.Delete(); err != nil {
		a.logger.Error().Err(err).Msg("lastfm: failed to delete stored session")
		return false
	}
	a.logger.Info().Object("session", a.session).Msg("lastfm: session removed")
	a.session = nil
	return true
}

// Login starts a mobile session for a user with auth.getMobileSession.
//
// On success the session is persisted, made current, and passed to
// callback. On failure the current session is unchanged.
//
// Example:
//
//	op := client.Auth().Login("rj", "secret", func(s *lastfm.Session, err error) {
//	    if err != nil {
//	        log.Printf("login failed: %v", err)
//	        return
//	    }
//	    fmt.Println("Signed in as", s.Name())
//	})
//	_ = op.Resume()
func (a *Auth) Login(username, password string, callback func(*Session, error)) *Operation {
	params := Params{
		{Name: "username", Value: username},
		{Name: "password", Value: password},
	}
	return a.client.Call("auth.getMobileSession", params,
		CallOptions{HTTPMethod: http.MethodPost, Signed: true},
		a.sessionCallback(callback))
}

// Token represents an authentication token from auth.getToken.
type Token struct {
	Token string // The authentication token
}

// GetToken requests an authentication token for the web flow.
//
// After obtaining a token, direct the user to AuthURL, then exchange the
// authorized token with LoginWithToken.
func (a *Auth) GetToken(callback func(*Token, error)) *Operation {
	return a.client.Call("auth.getToken", nil, CallOptions{Signed: true},
		typed(parseToken, callback))
}

// AuthURL returns the URL where users authorize token.
func (a *Auth) AuthURL(token string) string {
	return "https://www.last.fm/api/auth/?api_key=" + url.QueryEscape(a.APIKey()) +
		"&token=" + url.QueryEscape(token)
}

// LoginWithToken exchanges an authorized token for a session with
// auth.getSession. Session handling is the same as Login.
func (a *Auth) LoginWithToken(token string, callback func(*Session, error)) *Operation {
	params := Params{{Name: "token", Value: token}}
	return a.client.Call("auth.getSession", params, CallOptions{Signed: true},
		a.sessionCallback(callback))
}

// sessionCallback parses a session response and makes it current before
// handing it to callback.
func (a *Auth) sessionCallback(callback func(*Session, error)) Callback {
	return typed(parseSession, func(s *Session, err error) {
		if err == nil {
			if err = a.setSession(s); err != nil {
				s = nil
			}
		}
		if callback != nil {
			callback(s, err)
		}
	})
}

func parseToken(p Payload) (*Token, error) {
	var token string
	if err := decodeMember(p, "token", &token); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("received empty token")
	}
	return &Token{Token: token}, nil
}
