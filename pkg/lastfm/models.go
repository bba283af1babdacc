package lastfm

import (
	"errors"
	"time"
)

// Wire representations of Last.fm entities and their conversions. A
// conversion fails only when a required field is missing.

var errMissingName = errors.New("missing name")

type wireImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

func convertImages(in []wireImage) []Image {
	var out []Image
	for _, img := range in {
		if img.URL == "" {
			continue
		}
		out = append(out, Image{Size: img.Size, URL: img.URL})
	}
	return out
}

type wireStats struct {
	Listeners flexInt `json:"listeners"`
	Playcount flexInt `json:"playcount"`
}

type wirePageAttr struct {
	Page       flexInt `json:"page"`
	PerPage    flexInt `json:"perPage"`
	TotalPages flexInt `json:"totalPages"`
	Total      flexInt `json:"total"`
}

func (a wirePageAttr) page() Page {
	return Page{
		Page:       int(a.Page),
		PerPage:    int(a.PerPage),
		TotalPages: int(a.TotalPages),
		Total:      int(a.Total),
	}
}

type wireArtist struct {
	Name      string      `json:"name"`
	MBID      string      `json:"mbid"`
	URL       string      `json:"url"`
	Listeners flexInt     `json:"listeners"`
	Playcount flexInt     `json:"playcount"`
	Stats     *wireStats  `json:"stats"`
	Image     []wireImage `json:"image"`
}

func (w *wireArtist) convert() (*Artist, error) {
	if w.Name == "" {
		return nil, errMissingName
	}
	a := &Artist{
		Name:      w.Name,
		MBID:      w.MBID,
		URL:       w.URL,
		Listeners: int64(w.Listeners),
		Playcount: int64(w.Playcount),
		Images:    convertImages(w.Image),
	}
	if w.Stats != nil {
		a.Listeners = int64(w.Stats.Listeners)
		a.Playcount = int64(w.Stats.Playcount)
	}
	return a, nil
}

type wireAlbum struct {
	Name      string      `json:"name"`
	Title     string      `json:"title"`
	Artist    textField   `json:"artist"`
	MBID      string      `json:"mbid"`
	URL       string      `json:"url"`
	Listeners flexInt     `json:"listeners"`
	Playcount flexInt     `json:"playcount"`
	Image     []wireImage `json:"image"`
}

func (w *wireAlbum) convert() (*Album, error) {
	name := w.Name
	if name == "" {
		name = w.Title
	}
	if name == "" {
		return nil, errMissingName
	}
	return &Album{
		Name:      name,
		Artist:    w.Artist.Text,
		MBID:      w.MBID,
		URL:       w.URL,
		Listeners: int64(w.Listeners),
		Playcount: int64(w.Playcount),
		Images:    convertImages(w.Image),
	}, nil
}

type wireTrack struct {
	Name      string      `json:"name"`
	MBID      string      `json:"mbid"`
	URL       string      `json:"url"`
	Duration  flexInt     `json:"duration"`
	Listeners flexInt     `json:"listeners"`
	Playcount flexInt     `json:"playcount"`
	Artist    *wireArtist `json:"artist"`
	Album     *wireAlbum  `json:"album"`
	UserLoved flexBool    `json:"userloved"`
}

// convert builds a TrackInfo. Last.fm reports durations in milliseconds
// from track.getInfo but in seconds from the charts, so the caller passes
// the unit.
func (w *wireTrack) convert(unit time.Duration) (*TrackInfo, error) {
	if w.Name == "" {
		return nil, errMissingName
	}
	t := &TrackInfo{
		Name:      w.Name,
		MBID:      w.MBID,
		URL:       w.URL,
		Duration:  time.Duration(w.Duration) * unit,
		Listeners: int64(w.Listeners),
		Playcount: int64(w.Playcount),
		UserLoved: bool(w.UserLoved),
	}
	if w.Artist != nil {
		if artist, err := w.Artist.convert(); err == nil {
			t.Artist = artist
		}
	}
	if w.Album != nil {
		if album, err := w.Album.convert(); err == nil {
			t.Album = album
		}
	}
	return t, nil
}

type wireUser struct {
	Name       string      `json:"name"`
	RealName   string      `json:"realname"`
	URL        string      `json:"url"`
	Country    string      `json:"country"`
	Playcount  flexInt     `json:"playcount"`
	Subscriber flexBool    `json:"subscriber"`
	Image      []wireImage `json:"image"`
	Registered struct {
		Unixtime flexInt `json:"unixtime"`
	} `json:"registered"`
}

func (w *wireUser) convert() (*User, error) {
	if w.Name == "" {
		return nil, errMissingName
	}
	u := &User{
		Name:       w.Name,
		RealName:   w.RealName,
		URL:        w.URL,
		Country:    w.Country,
		Playcount:  int64(w.Playcount),
		Subscriber: bool(w.Subscriber),
		Images:     convertImages(w.Image),
	}
	if w.Registered.Unixtime > 0 {
		u.Registered = time.Unix(int64(w.Registered.Unixtime), 0)
	}
	return u, nil
}

type wireRecentTrack struct {
	Name   string    `json:"name"`
	MBID   string    `json:"mbid"`
	Artist textField `json:"artist"`
	Album  textField `json:"album"`
	Date   *struct {
		UTS flexInt `json:"uts"`
	} `json:"date"`
	Attr struct {
		NowPlaying flexBool `json:"nowplaying"`
	} `json:"@attr"`
}

func (w *wireRecentTrack) convert() (RecentTrack, error) {
	if w.Name == "" {
		return RecentTrack{}, errMissingName
	}
	rt := RecentTrack{
		Name:       w.Name,
		Artist:     w.Artist.Text,
		Album:      w.Album.Text,
		MBID:       w.MBID,
		NowPlaying: bool(w.Attr.NowPlaying),
	}
	if w.Date != nil && w.Date.UTS > 0 {
		rt.PlayedAt = time.Unix(int64(w.Date.UTS), 0)
	}
	return rt, nil
}

type wireIgnored struct {
	Code flexInt `json:"code"`
	Text string  `json:"#text"`
}

func (w wireIgnored) convert() IgnoredMessage {
	return IgnoredMessage{Code: int(w.Code), Text: w.Text}
}

func corrected(t textField) Corrected {
	return Corrected{Value: t.Text, Corrected: t.Corrected}
}
