package lastfm

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"testing"
)

// TestAuth_Login tests the mobile session handshake.
func TestAuth_Login(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		statusCode  int
		wantSession *Session
		wantErr     bool
		errContains string
	}{
		{
			name:        "success",
			response:    `{"session":{"name":"testuser","key":"test-session-key","subscriber":0}}`,
			statusCode:  http.StatusOK,
			wantSession: NewSession("testuser", false, "test-session-key"),
		},
		{
			name:        "subscriber",
			response:    `{"session":{"name":"rj","key":"k","subscriber":"1"}}`,
			statusCode:  http.StatusOK,
			wantSession: NewSession("rj", true, "k"),
		},
		{
			name:        "api error - authentication failed",
			response:    `{"error":4,"message":"Authentication Failed - You do not have permissions to access the service"}`,
			statusCode:  http.StatusForbidden,
			wantErr:     true,
			errContains: "error 4",
		},
		{
			name:        "missing session object",
			response:    `{"lfm":{}}`,
			statusCode:  http.StatusOK,
			wantErr:     true,
			errContains: "malformed response",
		},
		{
			name:        "empty session key",
			response:    `{"session":{"name":"testuser","key":"","subscriber":0}}`,
			statusCode:  http.StatusOK,
			wantErr:     true,
			errContains: "empty session key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.statusCode, tt.response, func(t *testing.T, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST request, got %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
					t.Errorf("expected Content-Type application/x-www-form-urlencoded, got %s", ct)
				}
				if method := r.FormValue("method"); method != "auth.getMobileSession" {
					t.Errorf("expected method auth.getMobileSession, got %s", method)
				}
				if username := r.FormValue("username"); username != "testuser" {
					t.Errorf("expected username testuser, got %s", username)
				}
				if password := r.FormValue("password"); password != "hunter2" {
					t.Errorf("expected password hunter2, got %s", password)
				}
				if format := r.FormValue("format"); format != "json" {
					t.Errorf("expected format json, got %s", format)
				}
				if sk := r.FormValue("sk"); sk != "" {
					t.Errorf("login must not send a session key, got %s", sk)
				}
				checkSigned(t, r)
			})

			store := &recordingStore{}
			client := newTestClient(t, server.URL, store)

			session, err := Await(testContext(t), func(done func(*Session, error)) *Operation {
				return client.Auth().Login("testuser", "hunter2", done)
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				if client.Auth().UserHasAuthenticated() {
					t.Error("failed login must not establish a session")
				}
				if store.saves != 0 {
					t.Errorf("failed login saved %d times", store.saves)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !session.Equal(tt.wantSession) {
				t.Errorf("expected session %v, got %v", tt.wantSession, session)
			}
			if !client.Auth().Session().Equal(tt.wantSession) {
				t.Errorf("current session = %v, want %v", client.Auth().Session(), tt.wantSession)
			}

			data, err := store.Load()
			if err != nil {
				t.Fatalf("session was not persisted: %v", err)
			}
			stored, err := UnmarshalSession(data)
			if err != nil {
				t.Fatalf("UnmarshalSession() error = %v", err)
			}
			if !stored.Equal(tt.wantSession) {
				t.Errorf("stored session = %v, want %v", stored, tt.wantSession)
			}
		})
	}
}

func TestAuth_Login_FailureKeepsPreviousSession(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"error":4,"message":"Authentication Failed"}`, nil)
	client := newAuthenticatedClient(t, server.URL)
	before := client.Auth().Session()

	_, err := Await(testContext(t), func(done func(*Session, error)) *Operation {
		return client.Auth().Login("other", "wrong", done)
	})
	if !errors.Is(err, &Error{Code: ErrCodeAuthenticationFailed}) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if !client.Auth().Session().Equal(before) {
		t.Errorf("session changed to %v after failed login", client.Auth().Session())
	}
}

func TestAuth_Login_StoreFailure(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"session":{"name":"testuser","key":"k","subscriber":0}}`, nil)
	store := &recordingStore{saveErr: errors.New("disk full")}
	client := newTestClient(t, server.URL, store)

	session, err := Await(testContext(t), func(done func(*Session, error)) *Operation {
		return client.Auth().Login("testuser", "hunter2", done)
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected store error, got %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %v", session)
	}
	if client.Auth().UserHasAuthenticated() {
		t.Error("session must not become current when it cannot be persisted")
	}
}

// TestAuth_GetToken tests the GetToken method.
func TestAuth_GetToken(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		statusCode  int
		wantToken   string
		wantErr     bool
		errContains string
	}{
		{
			name:       "success",
			response:   `{"token":"test-token-123"}`,
			statusCode: http.StatusOK,
			wantToken:  "test-token-123",
		},
		{
			name:        "api error - invalid api key",
			response:    `{"error":10,"message":"Invalid API key - You must be granted a valid key by last.fm"}`,
			statusCode:  http.StatusForbidden,
			wantErr:     true,
			errContains: "error 10",
		},
		{
			name:        "server error - retryable",
			response:    `{"error":11,"message":"Service Offline"}`,
			statusCode:  http.StatusServiceUnavailable,
			wantErr:     true,
			errContains: "error 11",
		},
		{
			name:        "empty token",
			response:    `{"token":""}`,
			statusCode:  http.StatusOK,
			wantErr:     true,
			errContains: "empty token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.statusCode, tt.response, func(t *testing.T, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET request, got %s", r.Method)
				}
				if method := r.FormValue("method"); method != "auth.getToken" {
					t.Errorf("expected method auth.getToken, got %s", method)
				}
				if apiKey := r.FormValue("api_key"); apiKey != testAPIKey {
					t.Errorf("expected api_key %s, got %s", testAPIKey, apiKey)
				}
				checkSigned(t, r)
			})
			client := newTestClient(t, server.URL, nil)

			token, err := Await(testContext(t), func(done func(*Token, error)) *Operation {
				return client.Auth().GetToken(done)
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Token != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, token.Token)
			}
		})
	}
}

// TestAuth_AuthURL tests the AuthURL method.
func TestAuth_AuthURL(t *testing.T) {
	client := newTestClient(t, "", nil)

	authURL := client.Auth().AuthURL("test-token-123")
	expected := "https://www.last.fm/api/auth/?api_key=test-api-key&token=test-token-123"
	if authURL != expected {
		t.Errorf("expected URL %q, got %q", expected, authURL)
	}

	escaped := client.Auth().AuthURL("a b&c")
	if !strings.HasSuffix(escaped, "&token=a+b%26c") {
		t.Errorf("token not escaped: %q", escaped)
	}
}

func TestAuth_LoginWithToken(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"session":{"name":"testuser","key":"web-key","subscriber":0}}`,
		func(t *testing.T, r *http.Request) {
			if method := r.FormValue("method"); method != "auth.getSession" {
				t.Errorf("expected method auth.getSession, got %s", method)
			}
			if token := r.FormValue("token"); token != "authorized-token" {
				t.Errorf("expected token authorized-token, got %s", token)
			}
			checkSigned(t, r)
		})
	client := newTestClient(t, server.URL, nil)

	session, err := Await(testContext(t), func(done func(*Session, error)) *Operation {
		return client.Auth().LoginWithToken("authorized-token", done)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Key() != "web-key" {
		t.Errorf("expected key web-key, got %s", session.Key())
	}
	if !client.Auth().Session().Equal(session) {
		t.Error("session was not made current")
	}
}

func TestAuth_LoginWithToken_Unauthorized(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"error":14,"message":"Unauthorized Token - This token has not been authorized"}`, nil)
	client := newTestClient(t, server.URL, nil)

	_, err := Await(testContext(t), func(done func(*Session, error)) *Operation {
		return client.Auth().LoginWithToken("pending-token", done)
	})

	var lastfmErr *Error
	if !errors.As(err, &lastfmErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if lastfmErr.Code != ErrCodeUnauthorizedToken {
		t.Errorf("expected code %d, got %d", ErrCodeUnauthorizedToken, lastfmErr.Code)
	}
	if !lastfmErr.Retryable() {
		t.Error("service errors should carry a retry affordance")
	}
}

func TestAuth_RestoresStoredSession(t *testing.T) {
	client := newAuthenticatedClient(t, "")

	session := client.Auth().Session()
	if session == nil {
		t.Fatal("expected stored session to be restored")
	}
	if session.Name() != "testuser" || session.Key() != "test-session-key" {
		t.Errorf("restored %v", session)
	}
}

func TestAuth_IgnoresUnreadableStore(t *testing.T) {
	tests := []struct {
		name  string
		store *recordingStore
	}{
		{
			name:  "load error",
			store: &recordingStore{loadErr: errors.New("keychain locked")},
		},
		{
			name: "corrupt data",
			store: func() *recordingStore {
				s := &recordingStore{}
				_ = s.MemoryStore.Save([]byte("not json"))
				return s
			}(),
		},
		{
			name: "future version",
			store: func() *recordingStore {
				s := &recordingStore{}
				_ = s.MemoryStore.Save([]byte(`{"v":99,"name":"a","subscriber":false,"key":"k"}`))
				return s
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "", tt.store)
			if client.Auth().UserHasAuthenticated() {
				t.Error("expected no session")
			}
		})
	}
}

func TestAuth_RemoveSession(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		store := &recordingStore{}
		client := newTestClient(t, "", store)
		data, _ := NewSession("testuser", false, "k").MarshalBinary()
		_ = store.MemoryStore.Save(data)

		if !client.Auth().RemoveSession() {
			t.Fatal("RemoveSession() = false, want true")
		}
		if client.Auth().UserHasAuthenticated() {
			t.Error("session still current")
		}
		if _, err := store.Load(); !errors.Is(err, ErrNoStoredSession) {
			t.Errorf("store still holds a session: %v", err)
		}
		if client.Auth().RemoveSession() {
			t.Error("second RemoveSession() = true, want false")
		}
	})

	t.Run("signed out", func(t *testing.T) {
		store := &recordingStore{}
		client := newTestClient(t, "", store)
		if client.Auth().RemoveSession() {
			t.Error("RemoveSession() = true, want false")
		}
		if store.deletes != 0 {
			t.Errorf("store deleted %d times", store.deletes)
		}
	})

	t.Run("delete fails", func(t *testing.T) {
		store := &recordingStore{deleteErr: errors.New("keychain locked")}
		client := newTestClient(t, "", store)
		data, _ := NewSession("testuser", false, "k").MarshalBinary()
		_ = store.MemoryStore.Save(data)

		if client.Auth().RemoveSession() {
			t.Error("RemoveSession() = true, want false")
		}
		if !client.Auth().UserHasAuthenticated() {
			t.Error("session should stay current when the store cannot delete it")
		}
	})
}

func TestAuth_Preconditions(t *testing.T) {
	t.Run("credentials not set", func(t *testing.T) {
		client, err := NewClient(Config{})
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		defer func() {
			if r := recover(); r != ErrCredentialsNotSet {
				t.Errorf("expected panic %v, got %v", ErrCredentialsNotSet, r)
			}
		}()
		client.Auth().GetToken(nil)
	})

	t.Run("signing without credentials", func(t *testing.T) {
		client, _ := NewClient(Config{APIKey: "only-key"})
		defer func() {
			if r := recover(); r != ErrCredentialsNotSet {
				t.Errorf("expected panic %v, got %v", ErrCredentialsNotSet, r)
			}
		}()
		client.Auth().SignatureParam(Params{{Name: "method", Value: "x"}})
	})

	t.Run("set credentials later", func(t *testing.T) {
		client, _ := NewClient(Config{})
		client.Auth().SetCredentials("k", "s")
		if got := client.Auth().APIKey(); got != "k" {
			t.Errorf("APIKey() = %q, want k", got)
		}
		want := SignatureParam(Params{{Name: "method", Value: "x"}}, "s")
		if got := client.Auth().SignatureParam(Params{{Name: "method", Value: "x"}}); got != want {
			t.Errorf("SignatureParam() = %v, want %v", got, want)
		}
	})
}

// Example_authFlow demonstrates the complete web authentication flow.
func Example_authFlow() {
	client, err := NewClient(Config{
		APIKey:    "your-api-key",
		APISecret: "your-api-secret",
	})
	if err != nil {
		log.Fatal(err)
	}

	// Step 1: Get a token
	tokenOp := client.Auth().GetToken(func(token *Token, err error) {
		if err != nil {
			log.Print(err)
			return
		}

		// Step 2: Direct the user to authorize the token
		fmt.Println("Please visit this URL to authorize the application:")
		fmt.Println(client.Auth().AuthURL(token.Token))

		// Step 3: After the user authorizes, exchange the token for a session.
		// The session is saved to the configured store and reused on later runs.
		sessionOp := client.Auth().LoginWithToken(token.Token, func(s *Session, err error) {
			if err != nil {
				log.Print(err)
				return
			}
			fmt.Printf("Authenticated as: %s\n", s.Name())
		})
		_ = sessionOp.Resume()
	})
	_ = tokenOp.Resume()
}

// ExampleAuth_AuthURL demonstrates how to generate the authorization URL.
func ExampleAuth_AuthURL() {
	client, err := NewClient(Config{
		APIKey:    "your-api-key",
		APISecret: "your-api-secret",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(client.Auth().AuthURL("example-token-123"))
	// Output: https://www.last.fm/api/auth/?api_key=your-api-key&token=example-token-123
}
