// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across moongate packages.
//
// # Atomic File Writes
//
// AtomicWriteFile writes through a temp file, fsync and rename so the
// file-backed key-value store and saved configs are never left half-written:
//
//	err := util.AtomicWriteFile(path, data, 0600)
//
// # Display Width
//
// TruncateWidth and PadRight measure terminal cells with go-runewidth so
// gate messages containing wide characters line up inside the overlay.
package util
