package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
)

// newTestServer starts a server that records the parsed form of each
// request and replies with body and statusCode.
func newTestServer(t *testing.T, statusCode int, body string, inspect func(t *testing.T, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if inspect != nil {
			inspect(t, r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string, store SessionStore) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:    testAPIKey,
		APISecret: testAPISecret,
		BaseURL:   baseURL,
		Store:     store,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

// newAuthenticatedClient returns a client whose store already holds a session.
func newAuthenticatedClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	store := &MemoryStore{}
	data, err := NewSession("testuser", false, "test-session-key").MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	if err := store.Save(data); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return newTestClient(t, baseURL, store)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// checkSigned verifies that r carries a valid api_sig for its parameters.
func checkSigned(t *testing.T, r *http.Request) {
	t.Helper()
	var params Params
	var sig string
	for name, values := range r.Form {
		switch name {
		case "api_sig":
			sig = values[0]
		case "format":
		default:
			params = append(params, Param{Name: name, Value: values[0]})
		}
	}
	if sig == "" {
		t.Errorf("request has no api_sig")
		return
	}
	if want := Signature(params, testAPISecret); sig != want {
		t.Errorf("api_sig = %s, want %s", sig, want)
	}
}

// recordingStore is a SessionStore that can be made to fail.
type recordingStore struct {
	MemoryStore
	saveErr   error
	loadErr   error
	deleteErr error
	saves     int
	deletes   int
}

func (s *recordingStore) Save(data []byte) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(data)
}

func (s *recordingStore) Load() ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load()
}

func (s *recordingStore) Delete() error {
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete()
}
