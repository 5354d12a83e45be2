// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package redeemview is the bubbletea front end of the redeem form.
package redeemview

import (
	"context"
	"log"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/redeem"
	"github.com/jeranaias/moongate/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// MessageMsg sets the form message.
type MessageMsg struct {
	Text string
	Mode redeem.Mode
}

// DisabledMsg enables or disables the form.
type DisabledMsg struct {
	Disabled bool
}

// FocusMsg focuses the key input.
type FocusMsg struct{}

// NavigateMsg leaves the form for URL.
type NavigateMsg struct {
	URL string
}

type submitDoneMsg struct {
	outcome keys.Outcome
	err     error
}

// =============================================================================
// MODEL
// =============================================================================

// Controller is the part of the redeemer the model drives.
type Controller interface {
	Submit(ctx context.Context, raw string) (keys.Outcome, error)
	InputChanged()
}

// Model is the redeem form screen.
type Model struct {
	ctx   context.Context
	ctrl  Controller
	theme *styles.Theme
	title string

	input    textinput.Model
	message  string
	mode     redeem.Mode
	disabled bool

	destination string
	width       int
	height      int
}

// New creates the redeem form.
func New(ctx context.Context, ctrl Controller, theme *styles.Theme, title string) Model {
	if theme == nil {
		theme = styles.NewTheme(false)
	}
	if title == "" {
		title = "Redeem a key"
	}

	ti := textinput.New()
	ti.Placeholder = "XXXX-XXXX-XXXX"
	ti.Prompt = "> "
	ti.CharLimit = 128
	ti.Width = 36
	ti.PromptStyle = theme.Prompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.Placeholder
	ti.Focus()

	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		theme:  theme,
		title:  title,
		input:  ti,
		width:  80,
		height: 24,
	}
}

// Destination returns where the form navigated to, or "".
func (m Model) Destination() string { return m.destination }

// Message returns the current message and its mode.
func (m Model) Message() (string, redeem.Mode) { return m.message, m.mode }

// Disabled reports whether input is blocked.
func (m Model) Disabled() bool { return m.disabled }

// Value returns the key input value.
func (m Model) Value() string { return m.input.Value() }

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case MessageMsg:
		m.message, m.mode = msg.Text, msg.Mode
		return m, nil

	case DisabledMsg:
		m.disabled = msg.Disabled
		if m.disabled {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()

	case FocusMsg:
		return m, m.input.Focus()

	case NavigateMsg:
		m.destination = msg.URL
		return m, tea.Quit

	case submitDoneMsg:
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if m.disabled {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			raw := m.input.Value()
			ctrl, ctx := m.ctrl, m.ctx
			return m, func() tea.Msg {
				outcome, err := ctrl.Submit(ctx, raw)
				return submitDoneMsg{outcome: outcome, err: err}
			}
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		ctrl := m.ctrl
		return m, tea.Batch(cmd, func() tea.Msg {
			ctrl.InputChanged()
			return nil
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	t := m.theme
	parts := []string{
		t.Title.Render(m.title),
		t.Subtitle.Render("Keys are checked on this device only."),
		"",
	}

	if m.disabled {
		parts = append(parts, t.Disabled.Render(m.input.Prompt+m.input.Value()))
	} else {
		parts = append(parts, m.input.View())
	}

	if m.message != "" {
		style := t.Info
		switch m.mode {
		case redeem.ModeError:
			style = t.Error
		case redeem.ModeSuccess:
			style = t.Success
		}
		parts = append(parts, "", style.Render(m.message))
	}
	parts = append(parts, "", t.Hint.Render("enter redeem   esc quit"))

	card := t.Card.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}

// =============================================================================
// ADAPTER
// =============================================================================

// Sender is the part of tea.Program the adapter needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramForm implements redeem.Form and redeem.Navigator over a running
// Model.
type ProgramForm struct {
	mu     sync.Mutex
	sender Sender
	logger *log.Logger
	warn   sync.Once
}

var (
	_ redeem.Form      = (*ProgramForm)(nil)
	_ redeem.Navigator = (*ProgramForm)(nil)
)

// NewProgramForm creates a detached adapter.
func NewProgramForm(logger *log.Logger) *ProgramForm {
	if logger == nil {
		logger = log.Default()
	}
	return &ProgramForm{logger: logger}
}

// Attach routes calls to s.
func (f *ProgramForm) Attach(s Sender) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sender = s
}

func (f *ProgramForm) send(msg tea.Msg) {
	f.mu.Lock()
	s := f.sender
	f.mu.Unlock()

	if s == nil {
		f.warn.Do(func() {
			f.logger.Printf("[redeemview] no program attached; dropping %T", msg)
		})
		return
	}
	s.Send(msg)
}

func (f *ProgramForm) SetMessage(text string, mode redeem.Mode) {
	f.send(MessageMsg{Text: text, Mode: mode})
}

func (f *ProgramForm) SetDisabled(disabled bool) { f.send(DisabledMsg{Disabled: disabled}) }
func (f *ProgramForm) FocusInput()               { f.send(FocusMsg{}) }

// Navigate ends the form, reporting url as the destination.
func (f *ProgramForm) Navigate(_ context.Context, url string) error {
	f.send(NavigateMsg{URL: url})
	return nil
}
