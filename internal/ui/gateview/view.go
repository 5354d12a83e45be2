// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateview

import (
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/moongate/internal/gate"
)

// Sender is the part of tea.Program the view needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramView implements gate.View by forwarding to a running Model. Calls
// made while no program is attached are logged once and dropped.
type ProgramView struct {
	mu     sync.Mutex
	sender Sender
	logger *log.Logger
	warn   sync.Once
}

var _ gate.View = (*ProgramView)(nil)

// NewProgramView creates a detached view.
func NewProgramView(logger *log.Logger) *ProgramView {
	if logger == nil {
		logger = log.Default()
	}
	return &ProgramView{logger: logger}
}

// Attach routes calls to s, typically a *tea.Program.
func (v *ProgramView) Attach(s Sender) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sender = s
}

// Detach stops forwarding.
func (v *ProgramView) Detach() {
	v.Attach(nil)
}

func (v *ProgramView) send(msg tea.Msg) {
	v.mu.Lock()
	s := v.sender
	v.mu.Unlock()

	if s == nil {
		v.warn.Do(func() {
			v.logger.Printf("[gateview] no program attached; dropping %T", msg)
		})
		return
	}
	s.Send(msg)
}

func (v *ProgramView) Show()                 { v.send(ShowMsg{}) }
func (v *ProgramView) Hide()                 { v.send(HideMsg{}) }
func (v *ProgramView) ShowError(text string) { v.send(ShowErrorMsg{Text: text}) }
func (v *ProgramView) ClearError()           { v.send(ClearErrorMsg{}) }
func (v *ProgramView) FocusInput()           { v.send(FocusMsg{}) }

// WriteContent forwards payload output to the content pane.
func (v *ProgramView) WriteContent(text string) { v.send(ContentMsg{Text: text}) }

// SetTitle replaces the header title.
func (v *ProgramView) SetTitle(title string) { v.send(TitleMsg{Title: title}) }

// SetState reports an orchestrator state change.
func (v *ProgramView) SetState(s gate.State) { v.send(StateMsg{State: s}) }
