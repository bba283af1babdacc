package lastfm

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ScrobbleService provides scrobbling operations for the Last.fm API.
type ScrobbleService struct {
	client *Client
}

const (
	// MaxBatchSize is the maximum number of scrobbles allowed in a single batch.
	MaxBatchSize = 50
)

// UpdateNowPlaying updates the "now playing" status on Last.fm.
//
// This should be called when a track starts playing. It does not count
// as a scrobble and does not affect play counts.
//
// Requires authentication. The returned operation is idle; call Resume.
//
// Example:
//
//	track := lastfm.Track{
//	    Artist: "The Beatles",
//	    Track:  "Yesterday",
//	    Album:  "Help!",
//	}
//	resp, err := lastfm.Await(ctx, func(done func(*lastfm.NowPlayingResponse, error)) *lastfm.Operation {
//	    return client.Scrobble().UpdateNowPlaying(track, done)
//	})
func (s *ScrobbleService) UpdateNowPlaying(track Track, callback func(*NowPlayingResponse, error)) *Operation {
	params := Params{
		{Name: "artist", Value: track.Artist},
		{Name: "track", Value: track.Track},
		{Name: "album", Value: track.Album},
		{Name: "albumArtist", Value: track.AlbumArtist},
		{Name: "duration", Value: itoa(track.Duration)},
		{Name: "trackNumber", Value: itoa(track.TrackNumber)},
		{Name: "mbid", Value: track.MBTrackID},
	}

	return s.client.Call("track.updateNowPlaying", params,
		CallOptions{HTTPMethod: http.MethodPost, Authenticated: true},
		typed(parseNowPlaying, callback))
}

// Scrobble submits up to 50 scrobbles to Last.fm in a single request.
// Scrobbles beyond MaxBatchSize are not submitted.
//
// A track should only be scrobbled when:
// - The track is longer than 30 seconds, AND
// - The track has been played for at least 50% of its duration OR 4 minutes
//   (whichever comes first)
//
// Requires authentication. The returned operation is idle; call Resume.
//
// Example:
//
//	scrobbles := []lastfm.Scrobble{
//	    {
//	        Track:     lastfm.Track{Artist: "The Beatles", Track: "Yesterday"},
//	        Timestamp: time.Now().Add(-10 * time.Minute),
//	    },
//	}
//	op := client.Scrobble().Scrobble(scrobbles, func(resp *lastfm.ScrobbleResponse, err error) {
//	    if err != nil {
//	        log.Printf("Failed to scrobble: %v", err)
//	        return
//	    }
//	    fmt.Printf("Accepted: %d, Ignored: %d\n", resp.Accepted, resp.Ignored)
//	})
//	_ = op.Resume()
func (s *ScrobbleService) Scrobble(scrobbles []Scrobble, callback func(*ScrobbleResponse, error)) *Operation {
	if len(scrobbles) > MaxBatchSize {
		scrobbles = scrobbles[:MaxBatchSize]
	}

	params := make(Params, 0, len(scrobbles)*9)
	for i, scrobble := range scrobbles {
		idx := fmt.Sprintf("[%d]", i)
		chosen := ""
		if scrobble.NotChosenByUser {
			chosen = boolParam(false)
		}
		params = append(params,
			Param{Name: "artist" + idx, Value: scrobble.Track.Artist},
			Param{Name: "track" + idx, Value: scrobble.Track.Track},
			Param{Name: "timestamp" + idx, Value: strconv.FormatInt(scrobble.Timestamp.Unix(), 10)},
			Param{Name: "album" + idx, Value: scrobble.Track.Album},
			Param{Name: "albumArtist" + idx, Value: scrobble.Track.AlbumArtist},
			Param{Name: "duration" + idx, Value: itoa(scrobble.Track.Duration)},
			Param{Name: "trackNumber" + idx, Value: itoa(scrobble.Track.TrackNumber)},
			Param{Name: "mbid" + idx, Value: scrobble.Track.MBTrackID},
			Param{Name: "chosenByUser" + idx, Value: chosen},
		)
	}

	return s.client.Call("track.scrobble", params,
		CallOptions{HTTPMethod: http.MethodPost, Authenticated: true},
		typed(parseScrobbles, callback))
}

type wireNowPlaying struct {
	Artist      textField   `json:"artist"`
	Track       textField   `json:"track"`
	Album       textField   `json:"album"`
	AlbumArtist textField   `json:"albumArtist"`
	Ignored     wireIgnored `json:"ignoredMessage"`
}

func parseNowPlaying(p Payload) (*NowPlayingResponse, error) {
	var w wireNowPlaying
	if err := decodeMember(p, "nowplaying", &w); err != nil {
		return nil, err
	}
	return &NowPlayingResponse{
		Artist:      corrected(w.Artist),
		Track:       corrected(w.Track),
		Album:       corrected(w.Album),
		AlbumArtist: corrected(w.AlbumArtist),
		Ignored:     w.Ignored.convert(),
	}, nil
}

type wireScrobble struct {
	Artist      textField   `json:"artist"`
	Track       textField   `json:"track"`
	Album       textField   `json:"album"`
	AlbumArtist textField   `json:"albumArtist"`
	Timestamp   flexInt     `json:"timestamp"`
	Ignored     wireIgnored `json:"ignoredMessage"`
}

type wireScrobbles struct {
	Scrobble oneOrMany[wireScrobble] `json:"scrobble"`
	Attr     struct {
		Accepted flexInt `json:"accepted"`
		Ignored  flexInt `json:"ignored"`
	} `json:"@attr"`
}

func parseScrobbles(p Payload) (*ScrobbleResponse, error) {
	var w wireScrobbles
	if err := decodeMember(p, "scrobbles", &w); err != nil {
		return nil, err
	}

	resp := &ScrobbleResponse{
		Accepted:  int(w.Attr.Accepted),
		Ignored:   int(w.Attr.Ignored),
		Scrobbles: make([]ScrobbleResult, 0, len(w.Scrobble)),
	}
	for _, s := range w.Scrobble {
		result := ScrobbleResult{
			Artist:      corrected(s.Artist),
			Track:       corrected(s.Track),
			Album:       corrected(s.Album),
			AlbumArtist: corrected(s.AlbumArtist),
			Ignored:     s.Ignored.convert(),
		}
		if s.Timestamp > 0 {
			result.Timestamp = time.Unix(int64(s.Timestamp), 0)
		}
		resp.Scrobbles = append(resp.Scrobbles, result)
	}
	return resp, nil
}
