// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// hash_cmd.go - Produce redeem.hashes entries.
//
// Command: hash [--salt SALT] KEY...
//          hash --new-salt
//
// Digests are computed exactly as the redeem validator computes them, so the
// output can be pasted into the config file.

package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jeranaias/moongate/internal/keys"
)

const hashUsage = "moongate hash [--salt SALT] KEY..."

// saltBytes is the length of a generated salt before hex encoding.
const saltBytes = 24

// HandleHash handles the "hash" command.
func HandleHash(app *App) error {
	p := NewArgParser(app.Args.Raw, "new-salt")

	if p.BoolFlag("new-salt") {
		salt, err := NewSalt()
		if err != nil {
			return err
		}
		if app.Args.JSON {
			return NewJSONResponse("hash", map[string]string{"salt": salt}).Fprint(app.Out)
		}
		fmt.Fprintln(app.Out, salt)
		return nil
	}

	raw := p.PositionalFrom(0)
	if len(raw) == 0 {
		return ErrMissingArgument("KEY", hashUsage)
	}

	salt := p.Flag("salt")
	if !p.HasFlag("salt") {
		cfg, err := app.Config()
		if err != nil {
			return err
		}
		salt = cfg.Redeem.Salt
	}
	if salt == "" {
		app.Logger.Printf("[hash] no salt set; digests will only match an empty redeem.salt")
	}

	out := make([]HashData, 0, len(raw))
	for _, k := range raw {
		out = append(out, HashData{Key: k, Digest: keys.Digest(salt, k)})
	}

	if app.Args.JSON {
		return NewJSONResponse("hash", out).Fprint(app.Out)
	}
	for _, h := range out {
		if app.Args.Quiet || len(out) == 1 {
			fmt.Fprintln(app.Out, h.Digest)
			continue
		}
		fmt.Fprintf(app.Out, "%s  %s\n", h.Digest, DimStyle.Render(h.Key))
	}
	return nil
}

// NewSalt returns a random hex salt.
func NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}
