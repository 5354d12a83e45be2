// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateview

import "github.com/jeranaias/moongate/internal/gate"

// =============================================================================
// MESSAGES
// =============================================================================

// ShowMsg raises the gate card.
type ShowMsg struct{}

// HideMsg removes the gate card.
type HideMsg struct{}

// ShowErrorMsg displays Text and restarts the shake.
type ShowErrorMsg struct {
	Text string
}

// ClearErrorMsg empties the error line.
type ClearErrorMsg struct{}

// FocusMsg focuses the key input and selects its value.
type FocusMsg struct{}

// ContentMsg appends payload output to the unlocked content.
type ContentMsg struct {
	Text string
}

// TitleMsg replaces the header title.
type TitleMsg struct {
	Title string
}

// StateMsg reports an orchestrator state change.
type StateMsg struct {
	State gate.State
}

// shakeTickMsg advances the shake of generation gen.
type shakeTickMsg struct {
	gen int
}

// submitDoneMsg reports the end of a Submit call.
type submitDoneMsg struct {
	state gate.State
	err   error
}

// startDoneMsg reports the end of the initial Start call.
type startDoneMsg struct {
	state gate.State
	err   error
}
