// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Get when the key has never been set or was deleted.
	ErrNotFound = errors.New("storage: key not found")

	// ErrUnavailable is returned when the backing store cannot be used at all
	// (disabled, closed, quota).
	ErrUnavailable = errors.New("storage: unavailable")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a string key-value store. Implementations are safe for
// concurrent use; writes are last-writer-wins.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendDisabled = "disabled"
)

// Backends lists every backend name Open understands.
func Backends() []string {
	return []string{BackendMemory, BackendFile, BackendSQLite, BackendDisabled}
}

// Open creates the store for backend. path is ignored for the memory and
// disabled backends.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendDisabled:
		return DisabledStore{}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of %s)", backend, strings.Join(Backends(), ", "))
	}
}
