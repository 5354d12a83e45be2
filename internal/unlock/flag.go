// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package unlock

import (
	"errors"
	"log"
	"strings"

	"github.com/jeranaias/moongate/internal/storage"
)

// Stored flag value meaning "unlocked". Anything else, or no value, is locked.
const flagOn = "1"

// DefaultSessionKey is the session-scoped marker set after a successful redeem.
const DefaultSessionKey = "unlocked"

// FlagName joins a flag prefix and a schema version: ("moon_access_unlocked",
// "v2") -> "moon_access_unlocked_v2". An empty version yields the bare prefix.
func FlagName(prefix, version string) string {
	prefix = strings.TrimSpace(prefix)
	version = strings.TrimSpace(version)
	if version == "" {
		return prefix
	}
	return prefix + "_" + version
}

// Flag is a persisted boolean.
type Flag struct {
	store storage.Store
	name  string
}

// NewFlag binds a flag name to a store.
func NewFlag(store storage.Store, name string) *Flag {
	return &Flag{store: store, name: name}
}

// Name returns the storage key of the flag.
func (f *Flag) Name() string {
	return f.name
}

// IsUnlocked reports whether the flag is set. Storage errors read as false.
func (f *Flag) IsUnlocked() bool {
	if f == nil || f.store == nil {
		return false
	}
	v, err := f.store.Get(f.name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[unlock] read %s: %v", f.name, err)
		}
		return false
	}
	return v == flagOn
}

// SetUnlocked sets the flag. Failures are logged and swallowed.
func (f *Flag) SetUnlocked() {
	if f == nil || f.store == nil {
		return
	}
	if err := f.store.Set(f.name, flagOn); err != nil {
		log.Printf("[unlock] write %s: %v", f.name, err)
	}
}

// ClearUnlocked removes the flag. Failures are logged and swallowed.
func (f *Flag) ClearUnlocked() {
	if f == nil || f.store == nil {
		return
	}
	if err := f.store.Delete(f.name); err != nil {
		log.Printf("[unlock] clear %s: %v", f.name, err)
	}
}
