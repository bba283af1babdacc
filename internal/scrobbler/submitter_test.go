package scrobbler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

// fakeLastFM answers track.scrobble with one result per submitted scrobble.
// Tracks named in ignore are reported as ignored.
type fakeLastFM struct {
	mu       sync.Mutex
	batches  []int
	failWith string // raw error body returned instead of a result
	status   int
	ignore   map[string]bool
}

func (f *fakeLastFM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != "" {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.failWith))
		return
	}

	type result struct {
		Track   map[string]string `json:"track"`
		Ignored map[string]string `json:"ignoredMessage"`
	}
	var results []result
	accepted, ignored := 0, 0
	for i := 0; ; i++ {
		track := r.FormValue(fmt.Sprintf("track[%d]", i))
		if track == "" {
			break
		}
		res := result{
			Track:   map[string]string{"#text": track, "corrected": "0"},
			Ignored: map[string]string{"code": "0", "#text": ""},
		}
		if f.ignore[track] {
			res.Ignored = map[string]string{"code": "1", "#text": "Artist was ignored"}
			ignored++
		} else {
			accepted++
		}
		results = append(results, res)
	}
	f.batches = append(f.batches, len(results))

	body := map[string]any{
		"scrobbles": map[string]any{
			"@attr":    map[string]int{"accepted": accepted, "ignored": ignored},
			"scrobble": results,
		},
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeLastFM) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.batches...)
}

func newTestSubmitter(t *testing.T, fake *fakeLastFM, withQueue bool) (*Submitter, *Queue) {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store := &lastfm.MemoryStore{}
	data, err := lastfm.NewSession("testuser", false, "sk").MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, store.Save(data))

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   server.URL,
		Store:     store,
	})
	require.NoError(t, err)

	var queue *Queue
	if withQueue {
		queue = createTestQueue(t)
	}
	return NewSubmitter(client, queue, zerolog.Nop()), queue
}

func TestSubmitter_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		fake := &fakeLastFM{}
		s, queue := newTestSubmitter(t, fake, true)

		outcome, err := s.Submit(ctx, testScrobble("A", "Song", time.Now().Add(-time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, OutcomeAccepted, outcome)

		count, _ := queue.Count(ctx, true)
		assert.Zero(t, count, "accepted scrobbles are not queued")
	})

	t.Run("ignored", func(t *testing.T) {
		fake := &fakeLastFM{ignore: map[string]bool{"Song": true}}
		s, _ := newTestSubmitter(t, fake, true)

		outcome, err := s.Submit(ctx, testScrobble("A", "Song", time.Now().Add(-time.Minute)))
		assert.Equal(t, OutcomeIgnored, outcome)
		assert.ErrorContains(t, err, "Artist was ignored")
	})

	t.Run("temporary failure is queued", func(t *testing.T) {
		fake := &fakeLastFM{failWith: `{"error":11,"message":"Service Offline"}`, status: http.StatusServiceUnavailable}
		s, queue := newTestSubmitter(t, fake, true)

		outcome, err := s.Submit(ctx, testScrobble("A", "Song", time.Now().Add(-time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, OutcomeQueued, outcome)

		pending, err := queue.Pending(ctx, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Song", pending[0].Scrobble.Track.Track)
		assert.Contains(t, pending[0].Error, "Service Offline")
		assert.Equal(t, 1, pending[0].Attempts)
	})

	t.Run("temporary failure without queue", func(t *testing.T) {
		fake := &fakeLastFM{failWith: `{"error":11,"message":"Service Offline"}`, status: http.StatusServiceUnavailable}
		s, _ := newTestSubmitter(t, fake, false)

		_, err := s.Submit(ctx, testScrobble("A", "Song", time.Now().Add(-time.Minute)))
		assert.ErrorIs(t, err, &lastfm.Error{Code: lastfm.ErrCodeServiceOffline})
	})

	t.Run("permanent failure is returned", func(t *testing.T) {
		fake := &fakeLastFM{failWith: `{"error":9,"message":"Invalid session key"}`, status: http.StatusForbidden}
		s, queue := newTestSubmitter(t, fake, true)

		_, err := s.Submit(ctx, testScrobble("A", "Song", time.Now().Add(-time.Minute)))
		assert.ErrorIs(t, err, &lastfm.Error{Code: lastfm.ErrCodeInvalidSessionKey})

		count, _ := queue.Count(ctx, true)
		assert.Zero(t, count)
	})

	t.Run("invalid scrobble never reaches the network", func(t *testing.T) {
		fake := &fakeLastFM{}
		s, _ := newTestSubmitter(t, fake, true)

		_, err := s.Submit(ctx, testScrobble("", "Song", time.Now()))
		assert.ErrorIs(t, err, ErrInvalidScrobble)
		assert.Empty(t, fake.batchSizes())
	})
}

func TestSubmitter_Flush(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLastFM{ignore: map[string]bool{"Track 7": true}}
	s, queue := newTestSubmitter(t, fake, true)

	now := time.Now()
	for i := 0; i < 120; i++ {
		ts := now.Add(-time.Duration(120-i) * time.Minute)
		_, err := queue.Add(ctx, testScrobble("Artist", fmt.Sprintf("Track %d", i), ts))
		require.NoError(t, err)
	}
	_, err := queue.Add(ctx, testScrobble("Artist", "Ancient", now.Add(-MaxScrobbleAge-time.Hour)))
	require.NoError(t, err)

	stats, err := s.Flush(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 50, 20}, fake.batchSizes())
	assert.Equal(t, FlushStats{Accepted: 119, Ignored: 1, Expired: 1, Remaining: 0}, stats)

	all, err := queue.All(ctx)
	require.NoError(t, err)
	for _, qs := range all {
		assert.True(t, qs.Scrobbled, "%s still pending", qs.Scrobble.Track.Track)
		if qs.Scrobble.Track.Track == "Track 7" {
			assert.Equal(t, "Artist was ignored", qs.Error)
		}
	}
}

func TestSubmitter_FlushStopsOnFailure(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLastFM{failWith: `{"error":29,"message":"Rate Limit Exceeded"}`, status: http.StatusTooManyRequests}
	s, queue := newTestSubmitter(t, fake, true)

	for i := 0; i < 60; i++ {
		_, err := queue.Add(ctx, testScrobble("Artist", fmt.Sprintf("Track %d", i), time.Now().Add(-time.Duration(i+1)*time.Minute)))
		require.NoError(t, err)
	}

	stats, err := s.Flush(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, &lastfm.Error{Code: lastfm.ErrCodeRateLimitExceeded})
	assert.Equal(t, 60, stats.Remaining)

	pending, err := queue.Pending(ctx, 0)
	require.NoError(t, err)
	attempted := 0
	for _, qs := range pending {
		if qs.Attempts > 0 {
			attempted++
		}
	}
	assert.Equal(t, lastfm.MaxBatchSize, attempted, "only the first batch was attempted")
}

func TestSubmitter_FlushEmpty(t *testing.T) {
	fake := &fakeLastFM{}
	s, _ := newTestSubmitter(t, fake, true)

	stats, err := s.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FlushStats{}, stats)
	assert.Empty(t, fake.batchSizes())
}
