// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrEmptyKey is returned by HashValidator.Validate for blank input.
var ErrEmptyKey = errors.New("key is empty")

// Outcome is the result of a redeem validation.
type Outcome int

const (
	// OutcomeEmpty means nothing usable was entered; no digest was computed.
	OutcomeEmpty Outcome = iota
	// OutcomeInvalid means the digest is not in the allowed set.
	OutcomeInvalid
	// OutcomeReused means the digest is allowed but was already redeemed here.
	OutcomeReused
	// OutcomeAccepted means the key redeemed and has been recorded as used.
	OutcomeAccepted
)

// String returns the outcome name used in logs and JSON output.
func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeReused:
		return "reused"
	case OutcomeAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// UsedSet records digests redeemed in this profile. Implementations treat
// storage failures as "not used" and drop failed writes.
type UsedSet interface {
	Contains(digest string) bool
	Add(digest string)
}

// HashValidator checks keys against a list of salted SHA-256 digests.
type HashValidator struct {
	salt    string
	allowed map[string]struct{}
	used    UsedSet
}

// NewHashValidator creates a validator. used may be nil to disable the
// reuse deterrent.
func NewHashValidator(salt string, digests []string, used UsedSet) *HashValidator {
	allowed := make(map[string]struct{}, len(digests))
	for _, d := range digests {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed[d] = struct{}{}
		}
	}
	return &HashValidator{salt: salt, allowed: allowed, used: used}
}

// Digest returns the lower-case hex SHA-256 of salt + NormalizeForHash(raw).
func Digest(salt, raw string) string {
	sum := sha256.Sum256([]byte(salt + NormalizeForHash(raw)))
	return hex.EncodeToString(sum[:])
}

// Digest returns the digest raw would be checked under.
func (h *HashValidator) Digest(raw string) string {
	return Digest(h.salt, raw)
}

// Validate decides the outcome for raw. The reuse check runs before the
// allow-list check; an accepted digest is recorded into the used set before
// returning. The only error returned is ctx's, when it is already done.
func (h *HashValidator) Validate(ctx context.Context, raw string) (Outcome, error) {
	if NormalizeForHash(raw) == "" {
		return OutcomeEmpty, nil
	}
	if err := ctx.Err(); err != nil {
		return OutcomeInvalid, err
	}

	digest := h.Digest(raw)

	if h.used != nil && h.used.Contains(digest) {
		return OutcomeReused, nil
	}
	if _, ok := h.allowed[digest]; !ok {
		return OutcomeInvalid, nil
	}
	if h.used != nil {
		h.used.Add(digest)
	}
	return OutcomeAccepted, nil
}
