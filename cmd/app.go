package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/lastfmkit/internal/config"
	"github.com/jfmyers9/lastfmkit/internal/scrobbler"
	"github.com/jfmyers9/lastfmkit/internal/store"
	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

var (
	errNoCredentials = errors.New("no API credentials configured; run 'lfm login' first")
	errNotLoggedIn   = errors.New("not logged in; run 'lfm login' first")
)

// app bundles what every command needs: configuration, a logger and a
// Last.fm client whose session lives in the configured store.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	client *lastfm.Client

	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newAppWithConfig(cfg)
}

func newAppWithConfig(cfg *config.Config) (*app, error) {
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	a := &app{cfg: cfg, logger: setupLogger(level)}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	sessions, err := a.openSessionStore()
	if err != nil {
		return nil, err
	}

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:    cfg.LastFM.APIKey,
		APISecret: cfg.LastFM.APISecret,
		BaseURL:   cfg.LastFM.BaseURL,
		UserAgent: "lfm/" + version,
		Store:     sessions,
		Logger:    &a.logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create Last.fm client: %w", err)
	}
	a.client = client
	return a, nil
}

func (a *app) openSessionStore() (lastfm.SessionStore, error) {
	path := a.cfg.SessionPath()
	switch a.cfg.SessionStore {
	case config.StoreFile:
		return store.NewFileStore(path), nil
	default:
		s, err := store.NewSQLiteStore(path, store.DefaultAccount)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

// openQueue opens the offline scrobble queue. It is closed with the app.
func (a *app) openQueue() (*scrobbler.Queue, error) {
	q, err := scrobbler.NewQueue(a.cfg.QueuePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open scrobble queue: %w", err)
	}
	a.closers = append(a.closers, q.Close)
	return q, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	a.closers = nil
}

// requireCredentials guards calls that would otherwise panic on missing
// credentials.
func (a *app) requireCredentials() error {
	if a.cfg.LastFM.APIKey == "" || a.cfg.LastFM.APISecret == "" {
		return errNoCredentials
	}
	return nil
}

// requireSession is requireCredentials plus a current session.
func (a *app) requireSession() error {
	if err := a.requireCredentials(); err != nil {
		return err
	}
	if !a.client.Auth().UserHasAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

// describeError appends Last.fm's recovery suggestion when there is one.
func describeError(err error) string {
	msg := err.Error()
	var lfmErr *lastfm.Error
	if errors.As(err, &lfmErr) {
		if s := lfmErr.RecoverySuggestion(); s != "" && !strings.Contains(msg, s) {
			msg += "\n" + s
		}
	}
	return msg
}
