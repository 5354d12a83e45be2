// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate implements the unlock state machine in front of the payload.
//
// # States
//
//	Locked              gate shown, waiting for a key
//	Unlocking           key accepted (or unlock restored), payload loading
//	Unlocked            payload loaded; terminal for the page life
//	UnlockedLoadFailed  flag persisted but the payload failed; gate re-shown
//
// The Orchestrator owns no UI. It drives a View (the overlay), a Validator,
// the persisted unlock Flag and a Loader. Retries are always user-initiated,
// either by submitting the key again or through Hooks.
package gate
