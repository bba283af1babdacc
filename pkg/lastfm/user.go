package lastfm

import "fmt"

// UserService provides user.* methods.
type UserService struct {
	client *Client
}

// GetInfo fetches a user's profile. With an empty username the request is
// authenticated and returns the profile of the signed-in user.
func (s *UserService) GetInfo(username string, callback func(*User, error)) *Operation {
	params := Params{{Name: "user", Value: username}}
	return s.client.Call("user.getInfo", params,
		CallOptions{Authenticated: username == ""},
		typed(parseUser, callback))
}

func parseUser(p Payload) (*User, error) {
	var w wireUser
	if err := decodeMember(p, "user", &w); err != nil {
		return nil, err
	}
	return w.convert()
}

// RecentTracks is a page of a user's listening history, newest first. A
// track that is playing right now comes first with NowPlaying set.
type RecentTracks struct {
	User   string
	Tracks []RecentTrack
	Page   Page
}

// RecentTracks fetches a page of the scrobbles of username.
func (s *UserService) RecentTracks(username string, page PageOptions, callback func(*RecentTracks, error)) *Operation {
	params := append(Params{{Name: "user", Value: username}}, page.params()...)
	return s.client.Call("user.getRecentTracks", params, CallOptions{},
		typed(parseRecentTracks, callback))
}

type wireRecentTracks struct {
	Track oneOrMany[wireRecentTrack] `json:"track"`
	Attr  struct {
		wirePageAttr
		User string `json:"user"`
	} `json:"@attr"`
}

func parseRecentTracks(p Payload) (*RecentTracks, error) {
	var w wireRecentTracks
	if err := decodeMember(p, "recenttracks", &w); err != nil {
		return nil, err
	}
	out := &RecentTracks{
		User:   w.Attr.User,
		Page:   w.Attr.page(),
		Tracks: make([]RecentTrack, 0, len(w.Track)),
	}
	for i := range w.Track {
		rt, err := w.Track[i].convert()
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		out.Tracks = append(out.Tracks, rt)
	}
	return out, nil
}
