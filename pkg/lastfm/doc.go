// Package lastfm provides a client library for the Last.fm API 2.0.
//
// # Overview
//
// Every API call is an Operation: a request that has been built and
// signed but not yet sent. Operations are resumed, suspended, cancelled
// and restarted explicitly, and report their outcome through a single
// callback per attempt. Await and Wait turn an operation into a blocking
// call bound to a context.Context.
//
// # Installation
//
//	go get github.com/jfmyers9/lastfmkit/pkg/lastfm
//
// # Quick Start
//
// First, create a client with your API credentials:
//
//	import "github.com/jfmyers9/lastfmkit/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	    Store:     store, // Optional: persists the session between runs
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Authentication
//
// Mobile clients sign in with a username and password:
//
//	session, err := lastfm.Await(ctx, func(done func(*lastfm.Session, error)) *lastfm.Operation {
//	    return client.Auth().Login("rj", "secret", done)
//	})
//
// Web clients use the token flow:
//
//  1. Get a token with Auth.GetToken
//  2. Direct the user to Auth.AuthURL to authorize it
//  3. Exchange it for a session with Auth.LoginWithToken
//
// Either way the session is saved to the configured SessionStore and
// restored automatically the next time the client needs it.
//
// # Scrobbling
//
// Once authenticated, you can scrobble tracks and update now playing status:
//
//	track := lastfm.Track{
//	    Artist: "The Beatles",
//	    Track:  "Yesterday",
//	    Album:  "Help!",
//	}
//	op := client.Scrobble().UpdateNowPlaying(track, func(resp *lastfm.NowPlayingResponse, err error) {
//	    // ...
//	})
//	_ = op.Resume()
//
//	// Batch scrobble (up to 50 tracks)
//	scrobbles := []lastfm.Scrobble{
//	    {Track: track1, Timestamp: time1},
//	    {Track: track2, Timestamp: time2},
//	}
//	resp, err := lastfm.Await(ctx, func(done func(*lastfm.ScrobbleResponse, error)) *lastfm.Operation {
//	    return client.Scrobble().Scrobble(scrobbles, done)
//	})
//
// # Error Handling
//
// Errors delivered to callbacks are *Error values classified by Kind.
// Service errors can restart the operation that produced them:
//
//	var lastfmErr *lastfm.Error
//	if errors.As(err, &lastfmErr) {
//	    if lastfmErr.Temporary() && lastfmErr.Retryable() {
//	        lastfmErr.Retry() // the callback fires again
//	    }
//	}
//
// Misuse is not reported through callbacks: building a request without
// credentials panics with ErrCredentialsNotSet, and an authenticated call
// without a session panics with ErrNotAuthenticated.
//
// # API Coverage
//
// Currently implemented:
//   - Authentication (auth.getMobileSession, auth.getToken, auth.getSession)
//   - Scrobbling (track.scrobble, track.updateNowPlaying)
//   - Tracks (track.love, track.unlove, track.getInfo)
//   - Users (user.getInfo, user.getRecentTracks)
//   - Tags (tag.getTopAlbums, tag.getTopArtists, tag.getTopTracks)
//
// Other methods can be called with Client.Call.
//
// # Last.fm API Documentation
//
// For more information about the Last.fm API:
// https://www.last.fm/api
package lastfm
