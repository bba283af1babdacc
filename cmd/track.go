package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

// addTrackFlags registers the flags describing a track.
func addTrackFlags(flags *pflag.FlagSet) {
	flags.StringP("artist", "a", "", "Artist name (required)")
	flags.StringP("track", "t", "", "Track name (required)")
	flags.String("album", "", "Album name")
	flags.String("album-artist", "", "Album artist, if different from the artist")
	flags.Duration("duration", 0, "Track length, e.g. 3m45s")
	flags.Int("track-number", 0, "Position on the album")
	flags.String("mbid", "", "MusicBrainz track ID")
}

func trackFromFlags(flags *pflag.FlagSet) (lastfm.Track, error) {
	var t lastfm.Track
	t.Artist, _ = flags.GetString("artist")
	t.Track, _ = flags.GetString("track")
	t.Album, _ = flags.GetString("album")
	t.AlbumArtist, _ = flags.GetString("album-artist")
	t.TrackNumber, _ = flags.GetInt("track-number")
	t.MBTrackID, _ = flags.GetString("mbid")
	duration, _ := flags.GetDuration("duration")
	t.Duration = int(duration / time.Second)

	t.Artist = strings.TrimSpace(t.Artist)
	t.Track = strings.TrimSpace(t.Track)
	if t.Artist == "" || t.Track == "" {
		return t, errors.New("--artist and --track are required")
	}
	if duration < 0 {
		return t, errors.New("--duration must not be negative")
	}
	return t, nil
}

// parseWhen accepts an RFC 3339 time, a Unix timestamp, or a duration
// before now such as "5m". Empty means now.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	if d, err := time.ParseDuration(strings.TrimPrefix(s, "-")); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339, a Unix timestamp or a duration ago like 5m", s)
}
