// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package loader injects the protected payload script into a page and
// reports whether it loaded.
//
// A Page is the document the payload runs in: an ordered list of inserted
// scripts, each tagged with a marker attribute, plus a goja runtime that
// executes them. The payload sees `window`, `console` and a small `document`
// (`write`, `title`).
//
// Loader.Load is idempotent for a page life. A loaded payload short-circuits,
// concurrent callers join the attempt in flight, and a failed attempt
// detaches its script so the next user-initiated retry inserts it again.
// Every attempt is raced against a safety timer and settles exactly once.
//
//	page := loader.NewPage()
//	l := loader.New(page, fetcher, loader.Config{Src: "script.js", Timeout: 3 * time.Second})
//	if err := l.Load(ctx); err != nil {
//	    // re-show the gate
//	}
package loader
