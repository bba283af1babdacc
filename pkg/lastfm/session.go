package lastfm

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// sessionFormatVersion is bumped whenever the persisted layout changes.
const sessionFormatVersion = 1

// Session represents an authenticated Last.fm identity. It is immutable;
// obtain one from Auth.Login, Auth.LoginWithToken or UnmarshalSession.
type Session struct {
	name       string
	subscriber bool
	key        string
}

// NewSession creates a session value. Most callers get sessions from Auth
// instead; this is useful for tests and for importing a known session key.
func NewSession(name string, subscriber bool, key string) *Session {
	return &Session{name: name, subscriber: subscriber, key: key}
}

// Name returns the Last.fm username.
func (s *Session) Name() string { return s.name }

// Subscriber reports whether the user is a Last.fm subscriber.
func (s *Session) Subscriber() bool { return s.subscriber }

// Key returns the session key used to authenticate requests.
func (s *Session) Key() string { return s.key }

// Equal reports whether both sessions have the same fields.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}

// String returns a description of the session with the key redacted.
func (s *Session) String() string {
	return fmt.Sprintf("Session{name: %q, subscriber: %t}", s.name, s.subscriber)
}

// MarshalZerologObject logs the session without its key.
func (s *Session) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", s.name).Bool("subscriber", s.subscriber)
}

type persistedSession struct {
	Version    int     `json:"v"`
	Name       *string `json:"name"`
	Subscriber *bool   `json:"subscriber"`
	Key        *string `json:"key"`
}

// MarshalBinary encodes the session for a SessionStore.
func (s *Session) MarshalBinary() ([]byte, error) {
	return json.Marshal(persistedSession{
		Version:    sessionFormatVersion,
		Name:       &s.name,
		Subscriber: &s.subscriber,
		Key:        &s.key,
	})
}

// DecodeError is returned when persisted session bytes are corrupt or were
// written by an incompatible version.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lastfm: decode session: %s: %v", e.Reason, e.Err)
	}
	return "lastfm: decode session: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnmarshalSession decodes bytes produced by Session.MarshalBinary.
func UnmarshalSession(data []byte) (*Session, error) {
	var ps persistedSession
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, &DecodeError{Reason: "invalid encoding", Err: err}
	}
	if ps.Version != sessionFormatVersion {
		return nil, &DecodeError{Reason: fmt.Sprintf("unsupported format version %d", ps.Version)}
	}
	if ps.Name == nil || ps.Subscriber == nil || ps.Key == nil {
		return nil, &DecodeError{Reason: "missing field"}
	}
	return NewSession(*ps.Name, *ps.Subscriber, *ps.Key), nil
}

// sessionResponse is the session object of auth.getMobileSession and auth.getSession.
type sessionResponse struct {
	Name       string   `json:"name"`
	Key        string   `json:"key"`
	Subscriber flexBool `json:"subscriber"`
}

func parseSession(p Payload) (*Session, error) {
	var resp sessionResponse
	if err := decodeMember(p, "session", &resp); err != nil {
		return nil, err
	}
	if resp.Key == "" {
		return nil, fmt.Errorf("received empty session key")
	}
	return NewSession(resp.Name, bool(resp.Subscriber), resp.Key), nil
}
