// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package unlock holds the persisted gate state: the versioned unlock flag,
// the session marker and the used-key list of the redeem flow.
//
// Every operation is best-effort. A store that errors reads as "locked" and
// "not used", and writes that fail are logged and dropped; storage trouble
// never reaches the user.
//
// Bumping the flag version re-gates every visitor that unlocked under the
// previous version:
//
//	flag := unlock.NewFlag(store, unlock.FlagName("moon_access_unlocked", "v2"))
package unlock
