package lastfm

import (
	"time"
)

// Track represents a music track for scrobbling or now playing updates.
type Track struct {
	Artist      string // Required: Artist name
	Track       string // Required: Track name
	Album       string // Optional: Album name
	AlbumArtist string // Optional: Album artist (if different from track artist)
	Duration    int    // Optional: Track duration in seconds
	TrackNumber int    // Optional: Track number on album
	MBTrackID   string // Optional: MusicBrainz track ID
}

// Scrobble represents a single scrobble with timestamp.
type Scrobble struct {
	Track     Track     // The track being scrobbled
	Timestamp time.Time // When the track started playing

	// NotChosenByUser marks plays the user did not pick directly, such as
	// radio or a recommendation service.
	NotChosenByUser bool
}

// IgnoredMessage explains why Last.fm ignored a scrobble or now playing
// update. Code is zero when nothing was ignored.
type IgnoredMessage struct {
	Code int
	Text string
}

// Corrected is a value Last.fm may have corrected to its canonical spelling.
type Corrected struct {
	Value     string
	Corrected bool
}

// NowPlayingResponse represents the response from track.updateNowPlaying.
type NowPlayingResponse struct {
	Artist      Corrected
	Track       Corrected
	Album       Corrected
	AlbumArtist Corrected
	Ignored     IgnoredMessage
}

// ScrobbleResult is the outcome for one submitted scrobble.
type ScrobbleResult struct {
	Artist      Corrected
	Track       Corrected
	Album       Corrected
	AlbumArtist Corrected
	Timestamp   time.Time
	Ignored     IgnoredMessage
}

// WasIgnored reports whether Last.fm rejected the scrobble.
func (r ScrobbleResult) WasIgnored() bool {
	return r.Ignored.Code != 0
}

// ScrobbleResponse represents the response from track.scrobble.
type ScrobbleResponse struct {
	Accepted  int // Number of scrobbles accepted
	Ignored   int // Number of scrobbles ignored
	Scrobbles []ScrobbleResult
}

// Image is an artwork URL at one of Last.fm's sizes.
type Image struct {
	Size string // small, medium, large, extralarge, mega
	URL  string
}

// Artist is a Last.fm artist.
type Artist struct {
	Name      string
	MBID      string
	URL       string
	Listeners int64
	Playcount int64
	Images    []Image
}

// Album is a Last.fm album.
type Album struct {
	Name      string
	Artist    string
	MBID      string
	URL       string
	Listeners int64
	Playcount int64
	Images    []Image
}

// TrackInfo is a Last.fm track as returned by lookups and charts.
type TrackInfo struct {
	Name      string
	MBID      string
	URL       string
	Duration  time.Duration
	Listeners int64
	Playcount int64
	Artist    *Artist
	Album     *Album
	UserLoved bool
}

// User is a Last.fm user profile.
type User struct {
	Name       string
	RealName   string
	URL        string
	Country    string
	Playcount  int64
	Subscriber bool
	Registered time.Time
	Images     []Image
}

// RecentTrack is an entry of a user's listening history.
type RecentTrack struct {
	Name       string
	Artist     string
	Album      string
	MBID       string
	NowPlaying bool      // Currently playing; PlayedAt is zero
	PlayedAt   time.Time // When the scrobble was recorded
}

// Page describes the position of a paginated result.
type Page struct {
	Page       int
	PerPage    int
	TotalPages int
	Total      int
}

// PageOptions selects a page of a paginated method. Zero values use the
// API defaults.
type PageOptions struct {
	Page  int
	Limit int
}

func (o PageOptions) params() Params {
	return Params{
		{Name: "page", Value: itoa(o.Page)},
		{Name: "limit", Value: itoa(o.Limit)},
	}
}
