// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keys canonicalizes and validates gate keys.
//
// Two canonical forms exist. Normalize (trim, lower-case, NFKC) feeds the
// plain allow-list compare used by the gate. NormalizeForHash (trim, full
// upper-case, strip all whitespace) feeds the salted SHA-256 digest used by
// the redeem flow; it matches the digests produced by `moongate hash`.
//
// # Usage
//
//	v := keys.NewValidator(keys.NewAllowList("moon2025", "anotherKey"))
//	v.Validate(" MOON2025 ") // true
//
//	hv := keys.NewHashValidator(salt, digests, usedSet)
//	outcome, err := hv.Validate(ctx, raw)
package keys
