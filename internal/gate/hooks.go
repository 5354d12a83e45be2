// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import "context"

// Hooks are diagnostic entry points outside the normal submit flow.
type Hooks struct {
	o *Orchestrator
}

// Hooks returns the manual testing hooks for o.
func (o *Orchestrator) Hooks() Hooks {
	return Hooks{o: o}
}

// UnlockForTesting persists the unlock, hides the gate and loads the payload
// without asking for a key. It shares Submit's in-flight guard and returns
// ErrBusy while an attempt is running.
func (h Hooks) UnlockForTesting(ctx context.Context) (State, error) {
	if !h.o.busy.CompareAndSwap(false, true) {
		return h.o.State(), ErrBusy
	}
	defer h.o.busy.Store(false)

	h.o.flag.SetUnlocked()
	h.o.view.Hide()
	return h.o.load(ctx)
}

// Reset clears the persisted unlock and shows the gate again. An already
// loaded payload stays loaded for this page life.
func (h Hooks) Reset() {
	h.o.flag.ClearUnlocked()
	h.o.view.ClearError()
	h.o.setState(StateLocked)
	h.o.view.Show()
}

// Validate runs the validator alone, without touching state or UI.
func (h Hooks) Validate(raw string) bool {
	return h.o.validator.Validate(raw)
}
