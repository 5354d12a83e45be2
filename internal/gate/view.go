// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"log"
	"sync"
)

// View is the gate overlay. Every method is idempotent and must tolerate
// missing UI pieces by doing nothing.
type View interface {
	// Show makes the overlay visible, locks scrolling behind it and focuses
	// and selects the key input.
	Show()
	// Hide removes the overlay and restores scrolling.
	Hide()
	// ShowError displays text and restarts the attention animation, even
	// when the same text is already shown.
	ShowError(text string)
	// ClearError empties and hides the error region.
	ClearError()
	// FocusInput focuses the key input.
	FocusInput()
}

// missingView stands in when no overlay is attached. It logs once.
type missingView struct {
	once   sync.Once
	logger *log.Logger
}

func (m *missingView) warn() {
	m.once.Do(func() {
		m.logger.Printf("[gate] no gate view attached; overlay calls are ignored")
	})
}

func (m *missingView) Show()            { m.warn() }
func (m *missingView) Hide()            { m.warn() }
func (m *missingView) ShowError(string) { m.warn() }
func (m *missingView) ClearError()      { m.warn() }
func (m *missingView) FocusInput()      { m.warn() }
