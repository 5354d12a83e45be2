// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package keys

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// maxNormalizePasses bounds the fixed-point loop in Normalize. Real input
// settles after one or two passes.
const maxNormalizePasses = 8

// Normalize returns the comparison form of a gate key: compatibility
// composed (so full-width and ligature look-alikes compare equal),
// lower-cased and trimmed. The empty string maps to itself.
//
// Lower-casing can produce text NFKC recomposes, and NFKC can produce
// upper-case runes, so the pass repeats until the output is stable.
func Normalize(s string) string {
	for i := 0; i < maxNormalizePasses; i++ {
		next := normalizePass(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizePass(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = norm.NFKC.String(s)
	return strings.TrimSpace(s)
}

// NormalizeForHash returns the form that is salted and digested by the
// redeem flow: trimmed, fully upper-cased ("ß" becomes "SS") and with every
// whitespace rune removed. Whitespace is the ECMAScript set, so digests
// match lists produced by a browser's trim/toUpperCase/\s+ pipeline.
func NormalizeForHash(s string) string {
	s = strings.TrimFunc(s, isScriptSpace)
	s = cases.Upper(language.Und).String(s)
	return strings.Map(func(r rune) rune {
		if isScriptSpace(r) {
			return -1
		}
		return r
	}, s)
}

// isScriptSpace reports whether r matches the ECMAScript \s class
// (WhiteSpace plus LineTerminator).
func isScriptSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}
