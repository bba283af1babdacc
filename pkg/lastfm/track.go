package lastfm

import (
	"net/http"
	"time"
)

// TrackService provides track.* methods other than scrobbling.
type TrackService struct {
	client *Client
}

// Love marks a track as loved by the authenticated user.
func (s *TrackService) Love(artist, track string, callback func(error)) *Operation {
	return s.client.Call("track.love", trackParams(artist, track),
		CallOptions{HTTPMethod: http.MethodPost, Authenticated: true},
		untyped(callback))
}

// Unlove removes a track from the authenticated user's loved tracks.
func (s *TrackService) Unlove(artist, track string, callback func(error)) *Operation {
	return s.client.Call("track.unlove", trackParams(artist, track),
		CallOptions{HTTPMethod: http.MethodPost, Authenticated: true},
		untyped(callback))
}

func trackParams(artist, track string) Params {
	return Params{
		{Name: "artist", Value: artist},
		{Name: "track", Value: track},
	}
}

// TrackQuery identifies a track for GetInfo, either by MBID or by artist
// and track name.
type TrackQuery struct {
	Artist      string
	Track       string
	MBID        string
	Username    string // Optional: include this user's playcount and loved status
	AutoCorrect bool   // Let Last.fm correct misspelled names
}

// GetInfo looks up the metadata of a track. It does not require
// authentication.
func (s *TrackService) GetInfo(query TrackQuery, callback func(*TrackInfo, error)) *Operation {
	params := Params{
		{Name: "artist", Value: query.Artist},
		{Name: "track", Value: query.Track},
		{Name: "mbid", Value: query.MBID},
		{Name: "username", Value: query.Username},
	}
	if query.AutoCorrect {
		params = append(params, Param{Name: "autocorrect", Value: boolParam(true)})
	}
	return s.client.Call("track.getInfo", params, CallOptions{},
		typed(parseTrackInfo, callback))
}

func parseTrackInfo(p Payload) (*TrackInfo, error) {
	var w wireTrack
	if err := decodeMember(p, "track", &w); err != nil {
		return nil, err
	}
	return w.convert(time.Millisecond)
}
