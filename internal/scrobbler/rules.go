package scrobbler

import (
	"time"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

// Last.fm scrobbling rules constants
const (
	// MinimumTrackDuration is the shortest track Last.fm accepts (30 seconds)
	MinimumTrackDuration = 30 * time.Second

	// ScrobblePercentage is the share of the track that must be played (50%)
	ScrobblePercentage = 0.5

	// MaxScrobbleThreshold caps the time that needs to be played (4 minutes)
	MaxScrobbleThreshold = 4 * time.Minute

	// MaxScrobbleAge is how far back Last.fm accepts timestamps (2 weeks)
	MaxScrobbleAge = 14 * 24 * time.Hour
)

// Threshold returns how long a track of the given duration must play
// before it counts as a scrobble, and false if it can never be scrobbled.
//
// A zero duration means the length is unknown; only the 4 minute cap
// applies then.
func Threshold(trackDuration time.Duration) (time.Duration, bool) {
	if trackDuration == 0 {
		return MaxScrobbleThreshold, true
	}
	if trackDuration < MinimumTrackDuration {
		return 0, false
	}
	return min(time.Duration(float64(trackDuration)*ScrobblePercentage), MaxScrobbleThreshold), true
}

// ShouldScrobble reports whether playing track for played satisfies the
// Last.fm rules: the track is at least 30 seconds long and has played for
// half its duration or 4 minutes, whichever comes first.
func ShouldScrobble(track lastfm.Track, played time.Duration) bool {
	threshold, ok := Threshold(time.Duration(track.Duration) * time.Second)
	return ok && played >= threshold
}

// Validate checks the parts of a scrobble Last.fm would reject outright.
func Validate(s lastfm.Scrobble, now time.Time) error {
	switch {
	case s.Track.Artist == "":
		return errMissingArtist
	case s.Track.Track == "":
		return errMissingTrack
	case s.Timestamp.IsZero():
		return errMissingTimestamp
	case now.Sub(s.Timestamp) > MaxScrobbleAge:
		return errTooOld
	case s.Timestamp.After(now.Add(time.Hour)):
		// Last.fm tolerates small clock skew only.
		return errInFuture
	}
	return nil
}
