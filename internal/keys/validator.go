// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keys

// =============================================================================
// ALLOW LIST
// =============================================================================

// AllowList is the ordered, immutable set of accepted keys in canonical form.
type AllowList struct {
	ordered []string
	set     map[string]struct{}
}

// NewAllowList normalizes every configured key once. Entries that normalize
// to the empty string are dropped; duplicates keep their first position.
func NewAllowList(keys ...string) *AllowList {
	al := &AllowList{set: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		n := Normalize(k)
		if n == "" {
			continue
		}
		if _, dup := al.set[n]; dup {
			continue
		}
		al.set[n] = struct{}{}
		al.ordered = append(al.ordered, n)
	}
	return al
}

// Contains reports whether the already-normalized key is in the list.
func (a *AllowList) Contains(normalized string) bool {
	if a == nil {
		return false
	}
	_, ok := a.set[normalized]
	return ok
}

// Len returns the number of distinct canonical keys.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ordered)
}

// Keys returns a copy of the canonical keys in configured order.
func (a *AllowList) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.ordered...)
}

// =============================================================================
// PLAIN VALIDATOR
// =============================================================================

// Validator checks raw user input against an AllowList.
type Validator struct {
	allow *AllowList
}

// NewValidator creates a validator over allow.
func NewValidator(allow *AllowList) *Validator {
	return &Validator{allow: allow}
}

// Validate reports whether raw matches any configured key. Empty input is
// rejected without comparing.
func (v *Validator) Validate(raw string) bool {
	if raw == "" {
		return false
	}
	n := Normalize(raw)
	if n == "" {
		return false
	}
	return v.allow.Contains(n)
}
