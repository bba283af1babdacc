package lastfm

import (
	"fmt"
	"time"
)

// TagService provides tag.* methods.
type TagService struct {
	client *Client
}

// ItemKind selects which chart TopItems fetches.
type ItemKind int

const (
	ItemAlbums ItemKind = iota
	ItemArtists
	ItemTracks
)

func (k ItemKind) String() string {
	switch k {
	case ItemAlbums:
		return "albums"
	case ItemArtists:
		return "artists"
	case ItemTracks:
		return "tracks"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// TaggedItem is one entry of a tag chart. It is implemented by *Album,
// *Artist and *TrackInfo only; use a type switch to get at the entity.
type TaggedItem interface {
	Kind() ItemKind
	taggedItem()
}

func (*Album) Kind() ItemKind     { return ItemAlbums }
func (*Artist) Kind() ItemKind    { return ItemArtists }
func (*TrackInfo) Kind() ItemKind { return ItemTracks }

func (*Album) taggedItem()     {}
func (*Artist) taggedItem()    {}
func (*TrackInfo) taggedItem() {}

// TaggedItems is a page of a tag chart. Every element of Items has the
// requested Kind.
type TaggedItems struct {
	Tag   string
	Kind  ItemKind
	Items []TaggedItem
	Page  Page
}

// TopItems fetches the albums, artists or tracks most often tagged with tag.
//
// Example:
//
//	op := client.Tag().TopItems("disco", lastfm.ItemArtists, lastfm.PageOptions{Limit: 10},
//	    func(items *lastfm.TaggedItems, err error) {
//	        if err != nil {
//	            return
//	        }
//	        for _, item := range items.Items {
//	            fmt.Println(item.(*lastfm.Artist).Name)
//	        }
//	    })
//	_ = op.Resume()
func (s *TagService) TopItems(tag string, kind ItemKind, page PageOptions, callback func(*TaggedItems, error)) *Operation {
	var method string
	switch kind {
	case ItemAlbums:
		method = "tag.getTopAlbums"
	case ItemArtists:
		method = "tag.getTopArtists"
	case ItemTracks:
		method = "tag.getTopTracks"
	default:
		panic(fmt.Sprintf("lastfm: unknown item kind %d", int(kind)))
	}

	params := append(Params{{Name: "tag", Value: tag}}, page.params()...)
	parse := func(p Payload) (*TaggedItems, error) {
		return parseTaggedItems(p, kind)
	}
	return s.client.Call(method, params, CallOptions{}, typed(parse, callback))
}

type wireChartAttr struct {
	wirePageAttr
	Tag string `json:"tag"`
}

type wireTopAlbums struct {
	Album oneOrMany[wireAlbum] `json:"album"`
	Attr  wireChartAttr        `json:"@attr"`
}

type wireTopArtists struct {
	Artist oneOrMany[wireArtist] `json:"artist"`
	Attr   wireChartAttr         `json:"@attr"`
}

type wireTopTracks struct {
	Track oneOrMany[wireTrack] `json:"track"`
	Attr  wireChartAttr        `json:"@attr"`
}

// parseTaggedItems decodes the chart for kind. Entries missing a name are
// rejected as a whole, since a partial chart would misreport its paging.
func parseTaggedItems(p Payload, kind ItemKind) (*TaggedItems, error) {
	out := &TaggedItems{Kind: kind}

	var attr wireChartAttr
	switch kind {
	case ItemAlbums:
		var w wireTopAlbums
		if err := decodeMember(p, "albums", &w); err != nil {
			return nil, err
		}
		attr = w.Attr
		for i := range w.Album {
			album, err := w.Album[i].convert()
			if err != nil {
				return nil, fmt.Errorf("album %d: %w", i, err)
			}
			out.Items = append(out.Items, album)
		}
	case ItemArtists:
		var w wireTopArtists
		if err := decodeMember(p, "topartists", &w); err != nil {
			return nil, err
		}
		attr = w.Attr
		for i := range w.Artist {
			artist, err := w.Artist[i].convert()
			if err != nil {
				return nil, fmt.Errorf("artist %d: %w", i, err)
			}
			out.Items = append(out.Items, artist)
		}
	case ItemTracks:
		var w wireTopTracks
		if err := decodeMember(p, "tracks", &w); err != nil {
			return nil, err
		}
		attr = w.Attr
		for i := range w.Track {
			track, err := w.Track[i].convert(time.Second)
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", i, err)
			}
			out.Items = append(out.Items, track)
		}
	}

	out.Tag = attr.Tag
	out.Page = attr.page()
	return out, nil
}
