package lastfm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where an error originated.
type Kind int

const (
	// KindConnectivity is a transport-level failure: no response, or an
	// HTTP error status without a service error envelope.
	KindConnectivity Kind = iota + 1

	// KindService is a well-formed error payload returned by Last.fm.
	KindService

	// KindMalformedResponse means the body did not parse as expected.
	KindMalformedResponse

	// KindCancelled means the operation was cancelled by the caller.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindService:
		return "service"
	case KindMalformedResponse:
		return "malformed response"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error represents a classified Last.fm API error.
//
// The Error type provides structured error information including
// the Last.fm error code and message. Service errors carry a retry
// affordance bound to the operation that produced them.
type Error struct {
	Kind       Kind   // Where the error originated
	Code       int    // Last.fm error code, zero unless Kind is KindService
	Message    string // Error message from Last.fm or a description of the failure
	StatusCode int    // HTTP status code, zero if no response was received
	Err        error  // Underlying error, if any

	retry func()
}

// Error returns the error message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindService:
		return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
	case KindCancelled:
		return "lastfm: operation cancelled"
	case KindMalformedResponse:
		if e.Err != nil {
			return fmt.Sprintf("lastfm: malformed response: %s: %v", e.Message, e.Err)
		}
		return "lastfm: malformed response: " + e.Message
	default:
		if e.Err != nil {
			return fmt.Sprintf("lastfm: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("lastfm: %s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with a matching kind and code.
// Zero fields on target act as wildcards, so errors.Is(err, ErrCancelled)
// and errors.Is(err, &Error{Code: ErrCodeInvalidSessionKey}) both work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != 0 && t.Kind != e.Kind {
		return false
	}
	if t.Code != 0 && t.Code != e.Code {
		return false
	}
	return true
}

// Temporary returns true if the error is temporary and the request
// could succeed if restarted.
//
// Connectivity failures are temporary, as are these Last.fm codes:
//   - 11: Service Offline
//   - 16: Service Temporarily Unavailable
//   - 29: Rate Limit Exceeded
func (e *Error) Temporary() bool {
	if e.Kind == KindConnectivity {
		return true
	}
	if e.Kind != KindService {
		return false
	}
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable, ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// Retryable reports whether Retry will restart the originating operation.
func (e *Error) Retryable() bool {
	return e.retry != nil
}

// Retry restarts the operation that produced e, re-arming its callback.
// It returns false if e carries no retry affordance.
func (e *Error) Retry() bool {
	if e.retry == nil {
		return false
	}
	e.retry()
	return true
}

// RecoverySuggestion returns a short hint for presenting the error to a user.
func (e *Error) RecoverySuggestion() string {
	switch e.Kind {
	case KindConnectivity:
		return "Check your internet connection and try again."
	case KindMalformedResponse:
		return "Last.fm returned an unexpected response. Try again later."
	case KindCancelled:
		return ""
	}
	if s, ok := recoverySuggestions[e.Code]; ok {
		return s
	}
	return "Try again later."
}

// Common Last.fm error codes.
const (
	ErrCodeInvalidService       = 2
	ErrCodeInvalidMethod        = 3
	ErrCodeAuthenticationFailed = 4
	ErrCodeInvalidFormat        = 5
	ErrCodeInvalidParameters    = 6
	ErrCodeInvalidResourceSpec  = 7
	ErrCodeOperationFailed      = 8
	ErrCodeInvalidSessionKey    = 9
	ErrCodeInvalidAPIKey        = 10
	ErrCodeServiceOffline       = 11
	ErrCodeSubscribersOnly      = 12
	ErrCodeInvalidSignature     = 13
	ErrCodeUnauthorizedToken    = 14
	ErrCodeExpiredToken         = 15
	ErrCodeTempUnavailable      = 16
	ErrCodeSuspendedAPIKey      = 26
	ErrCodeRateLimitExceeded    = 29
)

var recoverySuggestions = map[int]string{
	ErrCodeAuthenticationFailed: "Check your username and password and sign in again.",
	ErrCodeInvalidParameters:    "Check the request parameters and try again.",
	ErrCodeInvalidResourceSpec:  "The requested item could not be found.",
	ErrCodeInvalidSessionKey:    "Your session has expired. Sign in again.",
	ErrCodeInvalidAPIKey:        "The application's API key is invalid.",
	ErrCodeServiceOffline:       "Last.fm is temporarily offline. Try again later.",
	ErrCodeSubscribersOnly:      "This feature is only available to Last.fm subscribers.",
	ErrCodeInvalidSignature:     "The application's API secret is invalid.",
	ErrCodeUnauthorizedToken:    "Authorize the token in your browser and try again.",
	ErrCodeExpiredToken:         "The token has expired. Start the sign in again.",
	ErrCodeSuspendedAPIKey:      "The application's API key has been suspended.",
	ErrCodeRateLimitExceeded:    "Too many requests. Wait a moment and try again.",
}

// Predefined errors for common cases.
var (
	// ErrCredentialsNotSet is the panic value when a request is built or
	// signed before the API key and secret have been configured.
	ErrCredentialsNotSet = errors.New("lastfm: API key and secret must be set before any calls")

	// ErrNotAuthenticated is the panic value when an authenticated call is
	// made without a current session.
	ErrNotAuthenticated = errors.New("lastfm: session required")

	// ErrInvalidState is returned by Operation methods called in a state
	// that does not allow them.
	ErrInvalidState = errors.New("lastfm: invalid operation state")

	// ErrNoStoredSession is returned by SessionStore.Load when nothing is stored.
	ErrNoStoredSession = errors.New("lastfm: no stored session")

	// Kind sentinels for errors.Is.
	ErrConnectivity      = &Error{Kind: KindConnectivity}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrCancelled         = &Error{Kind: KindCancelled}
)

// serviceEnvelope is Last.fm's JSON error body: {"error": 10, "message": "..."}.
type serviceEnvelope struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// Classify maps a completed exchange to a classified error, or nil if the
// payload is usable.
//
// payload is nil when the body was absent. Decoding failures are
// classified by the caller as KindMalformedResponse before reaching here.
func Classify(statusCode int, payload Payload, transportErr error) *Error {
	if transportErr != nil {
		return &Error{
			Kind:       KindConnectivity,
			Message:    "request failed",
			StatusCode: statusCode,
			Err:        transportErr,
		}
	}

	if raw, ok := payload["error"]; ok {
		var env serviceEnvelope
		if err := json.Unmarshal(raw, &env.Code); err != nil {
			return &Error{
				Kind:       KindMalformedResponse,
				Message:    "error field is not a number",
				StatusCode: statusCode,
				Err:        err,
			}
		}
		if msg, ok := payload["message"]; ok {
			_ = json.Unmarshal(msg, &env.Message)
		}
		return &Error{
			Kind:       KindService,
			Code:       env.Code,
			Message:    env.Message,
			StatusCode: statusCode,
		}
	}

	if statusCode < 200 || statusCode >= 300 {
		return &Error{
			Kind:       KindConnectivity,
			Message:    fmt.Sprintf("unexpected status code: %d %s", statusCode, http.StatusText(statusCode)),
			StatusCode: statusCode,
		}
	}

	if payload == nil {
		return &Error{
			Kind:       KindMalformedResponse,
			Message:    "empty response body",
			StatusCode: statusCode,
		}
	}

	return nil
}

func malformed(message string, err error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message, Err: err}
}
