// Package scrobbler submits scrobbles to Last.fm, keeping the ones that
// could not be delivered in a local queue until they can be.
package scrobbler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

// ErrInvalidScrobble is wrapped by the errors Validate returns.
var ErrInvalidScrobble = errors.New("invalid scrobble")

var (
	errMissingArtist    = fmt.Errorf("%w: missing artist", ErrInvalidScrobble)
	errMissingTrack     = fmt.Errorf("%w: missing track", ErrInvalidScrobble)
	errMissingTimestamp = fmt.Errorf("%w: missing timestamp", ErrInvalidScrobble)
	errTooOld           = fmt.Errorf("%w: timestamp is older than two weeks", ErrInvalidScrobble)
	errInFuture         = fmt.Errorf("%w: timestamp is in the future", ErrInvalidScrobble)
)

// Outcome is what happened to a submitted scrobble.
type Outcome int

const (
	OutcomeAccepted Outcome = iota + 1
	OutcomeIgnored
	OutcomeQueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Submitter sends scrobbles through a Last.fm client. Scrobbles that fail
// for temporary reasons are kept in the queue for a later Flush.
type Submitter struct {
	client *lastfm.Client
	queue  *Queue
	logger zerolog.Logger
	now    func() time.Time
}

// NewSubmitter creates a Submitter. queue may be nil, in which case
// failures are returned instead of queued.
func NewSubmitter(client *lastfm.Client, queue *Queue, logger zerolog.Logger) *Submitter {
	return &Submitter{
		client: client,
		queue:  queue,
		logger: logger.With().Str("component", "scrobbler").Logger(),
		now:    time.Now,
	}
}

// Submit scrobbles s immediately. Connectivity failures and temporary
// Last.fm errors queue the scrobble and report OutcomeQueued with a nil
// error. An ignored scrobble reports OutcomeIgnored with the reason.
func (s *Submitter) Submit(ctx context.Context, sc lastfm.Scrobble) (Outcome, error) {
	if err := Validate(sc, s.now()); err != nil {
		return 0, err
	}

	resp, err := lastfm.Await(ctx, func(done func(*lastfm.ScrobbleResponse, error)) *lastfm.Operation {
		return s.client.Scrobble().Scrobble([]lastfm.Scrobble{sc}, done)
	})
	if err != nil {
		if s.queue == nil || !isTemporary(err) {
			return 0, fmt.Errorf("failed to scrobble track: %w", err)
		}
		id, qerr := s.queue.Add(ctx, sc)
		if qerr != nil {
			return 0, fmt.Errorf("failed to queue scrobble after %v: %w", err, qerr)
		}
		if merr := s.queue.MarkError(ctx, id, err.Error()); merr != nil {
			s.logger.Warn().Err(merr).Int64("id", id).Msg("Failed to record scrobble error")
		}
		s.logger.Info().
			Err(err).
			Int64("id", id).
			Str("artist", sc.Track.Artist).
			Str("track", sc.Track.Track).
			Msg("Scrobble queued for retry")
		return OutcomeQueued, nil
	}

	if len(resp.Scrobbles) > 0 && resp.Scrobbles[0].WasIgnored() {
		return OutcomeIgnored, fmt.Errorf("scrobble was ignored: %s", resp.Scrobbles[0].Ignored.Text)
	}
	if resp.Ignored > 0 {
		return OutcomeIgnored, errors.New("scrobble was ignored by Last.fm")
	}
	return OutcomeAccepted, nil
}

// FlushStats summarises a Flush.
type FlushStats struct {
	Accepted  int
	Ignored   int
	Expired   int // Dropped because Last.fm no longer accepts them
	Remaining int // Still pending afterwards
}

// Flush submits every pending scrobble in batches of lastfm.MaxBatchSize,
// oldest first. It stops at the first failed batch; the scrobbles of that
// batch and later ones stay pending.
func (s *Submitter) Flush(ctx context.Context) (FlushStats, error) {
	var stats FlushStats
	if s.queue == nil {
		return stats, nil
	}

	expired, err := s.queue.CleanupExpired(ctx)
	if err != nil {
		return stats, err
	}
	stats.Expired = int(expired)

	pending, err := s.queue.Pending(ctx, 0)
	if err != nil {
		return stats, err
	}

	var flushErr error
	for start := 0; start < len(pending); start += lastfm.MaxBatchSize {
		batch := pending[start:min(start+lastfm.MaxBatchSize, len(pending))]
		accepted, ignored, err := s.submitBatch(ctx, batch)
		stats.Accepted += accepted
		stats.Ignored += ignored
		if err != nil {
			flushErr = err
			break
		}
	}

	remaining, err := s.queue.Count(ctx, false)
	if err != nil && flushErr == nil {
		flushErr = err
	}
	stats.Remaining = remaining

	s.logger.Info().
		Int("accepted", stats.Accepted).
		Int("ignored", stats.Ignored).
		Int("expired", stats.Expired).
		Int("remaining", stats.Remaining).
		Msg("Flushed scrobble queue")

	return stats, flushErr
}

func (s *Submitter) submitBatch(ctx context.Context, batch []QueuedScrobble) (accepted, ignored int, err error) {
	scrobbles := make([]lastfm.Scrobble, len(batch))
	for i, qs := range batch {
		scrobbles[i] = qs.Scrobble
	}

	resp, err := lastfm.Await(ctx, func(done func(*lastfm.ScrobbleResponse, error)) *lastfm.Operation {
		return s.client.Scrobble().Scrobble(scrobbles, done)
	})
	if err != nil {
		for _, qs := range batch {
			if merr := s.queue.MarkError(ctx, qs.ID, err.Error()); merr != nil {
				s.logger.Warn().Err(merr).Int64("id", qs.ID).Msg("Failed to record scrobble error")
			}
		}
		return 0, 0, fmt.Errorf("failed to scrobble batch: %w", err)
	}

	// Results are positional. Without one per scrobble nothing can be
	// attributed, so only a fully accepted batch is resolved.
	if len(resp.Scrobbles) != len(batch) {
		if resp.Ignored == 0 {
			ids := make([]int64, len(batch))
			for i, qs := range batch {
				ids[i] = qs.ID
			}
			return len(batch), 0, s.queue.MarkScrobbledBatch(ctx, ids)
		}
		return 0, 0, fmt.Errorf("cannot match %d results to %d scrobbles", len(resp.Scrobbles), len(batch))
	}

	var ids []int64
	for i, result := range resp.Scrobbles {
		qs := batch[i]
		if result.WasIgnored() {
			ignored++
			if err := s.queue.MarkIgnored(ctx, qs.ID, result.Ignored.Text); err != nil {
				return accepted, ignored, err
			}
			s.logger.Debug().
				Int64("id", qs.ID).
				Int("code", result.Ignored.Code).
				Str("reason", result.Ignored.Text).
				Msg("Queued scrobble ignored")
			continue
		}
		ids = append(ids, qs.ID)
	}
	if err := s.queue.MarkScrobbledBatch(ctx, ids); err != nil {
		return 0, ignored, err
	}
	return len(ids), ignored, nil
}

func isTemporary(err error) bool {
	var lfmErr *lastfm.Error
	return errors.As(err, &lfmErr) && lfmErr.Temporary()
}
