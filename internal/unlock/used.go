// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package unlock

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/moongate/internal/storage"
)

// DefaultUsedKey is the storage key of the used-digest list.
const DefaultUsedKey = "usedKeys"

// UsedSet is the redeem flow's reuse deterrent: a JSON array of digests
// already redeemed with this store. It is a soft, single-profile check,
// trivially cleared by the user.
type UsedSet struct {
	store storage.Store
	key   string
	mu    sync.Mutex
}

// NewUsedSet binds the used list to a store key.
func NewUsedSet(store storage.Store, key string) *UsedSet {
	if key == "" {
		key = DefaultUsedKey
	}
	return &UsedSet{store: store, key: key}
}

// Contains reports whether digest was recorded. Storage or decode errors
// read as false.
func (u *UsedSet) Contains(digest string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	list, err := u.readLocked()
	if err != nil {
		log.Printf("[unlock] read %s: %v", u.key, err)
		return false
	}
	for _, d := range list {
		if d == digest {
			return true
		}
	}
	return false
}

// Add appends digest if it is not already present. Existing entries are
// preserved in order. Failures are logged and swallowed.
func (u *UsedSet) Add(digest string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	list, err := u.readLocked()
	if err != nil {
		log.Printf("[unlock] read %s: %v", u.key, err)
		return
	}
	for _, d := range list {
		if d == digest {
			return
		}
	}
	list = append(list, digest)
	data, err := json.Marshal(list)
	if err != nil {
		log.Printf("[unlock] encode %s: %v", u.key, err)
		return
	}
	if err := u.store.Set(u.key, string(data)); err != nil {
		log.Printf("[unlock] write %s: %v", u.key, err)
	}
}

// List returns the recorded digests in insertion order.
func (u *UsedSet) List() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	list, err := u.readLocked()
	if err != nil {
		return nil
	}
	return list
}

// Clear forgets every recorded digest.
func (u *UsedSet) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.store.Delete(u.key); err != nil {
		log.Printf("[unlock] clear %s: %v", u.key, err)
	}
}

func (u *UsedSet) readLocked() ([]string, error) {
	if u.store == nil {
		return nil, storage.ErrUnavailable
	}
	raw, err := u.store.Get(u.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}
