// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value stores that stand in for a
// browser profile's local and session storage.
//
// # Key Types
//
//   - Store: string key-value interface used by the unlock flag and the used-key list
//   - MemoryStore: process-scoped store, used as the session scope and in tests
//   - FileStore: JSON map on disk with atomic writes and change watching
//   - SQLiteStore: kv table in a SQLite database (modernc.org/sqlite)
//   - DisabledStore: fails every call with ErrUnavailable (storage turned off)
//
// # Usage
//
// Open the configured backend:
//
//	store, err := storage.Open(storage.BackendFile, "~/.moongate/store.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Missing keys report ErrNotFound; callers treat that the same as an
// absent localStorage item.
package storage
