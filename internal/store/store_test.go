package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
)

func newTestSQLiteStore(t *testing.T, path, account string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(path, account)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) lastfm.SessionStore{
		"sqlite": func(t *testing.T) lastfm.SessionStore {
			return newTestSQLiteStore(t, ":memory:", "")
		},
		"file": func(t *testing.T) lastfm.SessionStore {
			return NewFileStore(filepath.Join(t.TempDir(), "nested", "session"))
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)

			_, err := s.Load()
			require.ErrorIs(t, err, lastfm.ErrNoStoredSession)

			require.NoError(t, s.Save([]byte("first")))
			require.NoError(t, s.Save([]byte("second")))

			data, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), data)

			require.NoError(t, s.Delete())
			_, err = s.Load()
			assert.ErrorIs(t, err, lastfm.ErrNoStoredSession)

			assert.NoError(t, s.Delete(), "deleting nothing is not an error")
		})
	}
}

func TestSQLiteStore_Accounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastfmkit.db")
	alice := newTestSQLiteStore(t, path, "alice")
	bob := newTestSQLiteStore(t, path, "bob")

	require.NoError(t, alice.Save([]byte("a")))

	_, err := bob.Load()
	require.ErrorIs(t, err, lastfm.ErrNoStoredSession)

	require.NoError(t, bob.Save([]byte("b")))
	require.NoError(t, alice.Delete())

	data, err := bob.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastfmkit.db")

	first, err := NewSQLiteStore(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Save([]byte("persisted")))
	require.NoError(t, first.Close())

	second := newTestSQLiteStore(t, path, DefaultAccount)
	data, err := second.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}

func TestFileStore_Permissions(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, s.Save([]byte("secret")))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestStores_WithAuth(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session"))
	data, err := lastfm.NewSession("rj", true, "key").MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, s.Save(data))

	client, err := lastfm.NewClient(lastfm.Config{APIKey: "k", APISecret: "s", Store: s})
	require.NoError(t, err)

	session := client.Auth().Session()
	require.NotNil(t, session)
	assert.Equal(t, "rj", session.Name())

	assert.True(t, client.Auth().RemoveSession())
	_, err = s.Load()
	assert.ErrorIs(t, err, lastfm.ErrNoStoredSession)
}
