// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package redeem implements the one-shot redeem form: a key is checked
// against salted digests, recorded as used for this profile, and the user is
// sent on to the destination after a short success message.
package redeem
