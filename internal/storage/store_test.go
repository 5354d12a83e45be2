// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// SHARED BEHAVIOR
// =============================================================================

func backendsUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("moon_access_unlocked_v2")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set("moon_access_unlocked_v2", "1"))
			v, err := store.Get("moon_access_unlocked_v2")
			require.NoError(t, err)
			require.Equal(t, "1", v)

			require.NoError(t, store.Set("moon_access_unlocked_v2", "0"))
			v, err = store.Get("moon_access_unlocked_v2")
			require.NoError(t, err)
			require.Equal(t, "0", v)

			require.NoError(t, store.Delete("moon_access_unlocked_v2"))
			_, err = store.Get("moon_access_unlocked_v2")
			require.ErrorIs(t, err, ErrNotFound)

			// Deleting again is fine.
			require.NoError(t, store.Delete("moon_access_unlocked_v2"))
		})
	}
}

func TestStore_ConcurrentWrites(t *testing.T) {
	for name, store := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = store.Set("usedKeys", `["a"]`)
					_, _ = store.Get("usedKeys")
				}()
			}
			wg.Wait()

			v, err := store.Get("usedKeys")
			require.NoError(t, err)
			require.Equal(t, `["a"]`, v)
		})
	}
}

// =============================================================================
// BACKEND SPECIFICS
// =============================================================================

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = Open("FILE", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = Open(BackendSQLite, filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("redis", "")
	require.Error(t, err)
}

func TestDisabledStore(t *testing.T) {
	var s Store = DisabledStore{}
	_, err := s.Get("k")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, s.Set("k", "v"), ErrUnavailable)
	require.ErrorIs(t, s.Delete("k"), ErrUnavailable)
}

func TestFileStore_SharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	a, err := NewFileStore(path)
	require.NoError(t, err)
	b, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, a.Set("moon_access_unlocked_v2", "1"))
	v, err := b.Get("moon_access_unlocked_v2")
	require.NoError(t, err)
	require.Equal(t, "1", v)

	require.NoError(t, b.Delete("moon_access_unlocked_v2"))
	_, err = a.Get("moon_access_unlocked_v2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get("k")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, s.Set("k", "v"), ErrUnavailable)
}

func TestFileStore_Closed(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get("k")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFileStore_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("store file permissions = %o, want 600", perm)
	}
}

func TestFileStore_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	require.NoError(t, s.Watch(ctx, func() { changed <- struct{}{} }))

	other, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, other.Set("moon_access_unlocked_v2", "1"))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestFileStore_WatchErrorsAreLogged(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	var buf bytes.Buffer
	s.SetLogger(log.New(&buf, "", 0))
	s.watchError(errors.New("event queue overflow"))

	require.Contains(t, buf.String(), "[store] watch "+s.Path())
	require.Contains(t, buf.String(), "event queue overflow")
}

func TestSQLiteStore_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gate.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestSQLiteStore_Closed(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get("k")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;")
	require.Equal(t, "\nCREATE TABLE a (x);\n", got)
	require.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}
