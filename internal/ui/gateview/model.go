// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateview

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/ui/styles"
	"github.com/jeranaias/moongate/internal/util"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Controller is the part of the orchestrator the model drives.
type Controller interface {
	Start(ctx context.Context) (gate.State, error)
	Submit(ctx context.Context, raw string) (gate.State, error)
	InputChanged()
}

// Options configures a Model.
type Options struct {
	Title        string
	GlamourStyle string
	Theme        *styles.Theme
	Logger       *log.Logger
}

// Model is the bubbletea gate screen.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	theme  *styles.Theme
	logger *log.Logger

	input     textinput.Model
	selectAll bool
	viewport  viewport.Model
	spinner   spinner.Model

	glamourStyle string
	renderer     *glamour.TermRenderer
	rawContent   strings.Builder

	visible    bool
	errText    string
	shakeGen   int
	shakeFrame int
	submitting bool

	state  gate.State
	title  string
	width  int
	height int
}

// New creates the gate screen. The card starts hidden; the controller's
// Start decides whether it is shown.
func New(ctx context.Context, ctrl Controller, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(false)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	title := opts.Title
	if title == "" {
		title = "Moongate"
	}

	ti := textinput.New()
	ti.Placeholder = "access key"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 36
	ti.PromptStyle = theme.Prompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.Placeholder

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	sp.Style = theme.Info

	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		theme:        theme,
		logger:       logger,
		input:        ti,
		viewport:     viewport.New(defaultWidth, defaultHeight-3),
		spinner:      sp,
		glamourStyle: opts.GlamourStyle,
		title:        title,
		width:        defaultWidth,
		height:       defaultHeight,
	}
	m.renderer = newRenderer(m.glamourStyle, defaultWidth-2)
	return m
}

func newRenderer(style string, wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	var styleOpt glamour.TermRendererOption
	switch style {
	case "dark", "light", "notty":
		styleOpt = glamour.WithStandardStyle(style)
	default:
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return nil
	}
	return r
}

// Visible reports whether the gate card is up.
func (m Model) Visible() bool { return m.visible }

// ContentHidden reports whether the unlocked content is hidden behind the card.
func (m Model) ContentHidden() bool { return m.visible }

// ErrorText returns the current error line.
func (m Model) ErrorText() string { return m.errText }

// Value returns the key input value.
func (m Model) Value() string { return m.input.Value() }

// Selected reports whether the next keystroke replaces the input value.
func (m Model) Selected() bool { return m.selectAll }

// Focused reports whether the key input has focus.
func (m Model) Focused() bool { return m.input.Focused() }

// State returns the last reported orchestrator state.
func (m Model) State() gate.State { return m.state }

// Content returns the raw unlocked content.
func (m Model) Content() string { return m.rawContent.String() }

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the orchestrator off the event loop.
func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(textinput.Blink, func() tea.Msg {
		state, err := ctrl.Start(ctx)
		return startDoneMsg{state: state, err: err}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-3)
		m.renderer = newRenderer(m.glamourStyle, msg.Width-2)
		m.refreshContent()
		return m, nil

	case ShowMsg:
		m.visible = true
		return m, m.focus()

	case HideMsg:
		m.visible = false
		m.selectAll = false
		m.input.Blur()
		return m, nil

	case FocusMsg:
		return m, m.focus()

	case ShowErrorMsg:
		m.errText = msg.Text
		m.shakeGen++
		m.shakeFrame = 0
		return m, shakeTick(m.shakeGen)

	case ClearErrorMsg:
		m.errText = ""
		return m, nil

	case shakeTickMsg:
		if msg.gen != m.shakeGen {
			return m, nil
		}
		m.shakeFrame++
		if m.shakeFrame >= styles.CardShake.Frames-1 {
			return m, nil
		}
		return m, shakeTick(m.shakeGen)

	case ContentMsg:
		m.rawContent.WriteString(msg.Text)
		m.refreshContent()
		m.viewport.GotoBottom()
		return m, nil

	case TitleMsg:
		if msg.Title != "" {
			m.title = msg.Title
		}
		return m, nil

	case StateMsg:
		m.state = msg.State
		if msg.State == gate.StateUnlocking {
			return m, m.spinner.Tick
		}
		return m, nil

	case startDoneMsg:
		m.state = msg.state
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		m.state = msg.state
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// Scrolling is locked while the card is up.
		if m.visible {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.visible {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if !m.visible {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.selectAll = false
		raw := m.input.Value()
		ctrl, ctx := m.ctrl, m.ctx
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			state, err := ctrl.Submit(ctx, raw)
			return submitDoneMsg{state: state, err: err}
		})
	}

	if m.selectAll {
		switch msg.Type {
		case tea.KeyRunes, tea.KeySpace, tea.KeyBackspace, tea.KeyDelete:
			m.input.SetValue("")
		}
		m.selectAll = false
	}

	// Typing clears the error: it only describes the last attempt.
	m.errText = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	ctrl := m.ctrl
	return m, tea.Batch(cmd, func() tea.Msg {
		ctrl.InputChanged()
		return nil
	})
}

func (m *Model) focus() tea.Cmd {
	m.selectAll = m.input.Value() != ""
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m Model) busy() bool {
	return m.submitting || m.state == gate.StateUnlocking
}

func (m *Model) refreshContent() {
	raw := m.rawContent.String()
	rendered := raw
	if m.renderer != nil && raw != "" {
		if out, err := m.renderer.Render(raw); err == nil {
			rendered = out
		} else {
			m.logger.Printf("[gateview] render content: %v", err)
		}
	}
	m.viewport.SetContent(rendered)
}

func shakeTick(gen int) tea.Cmd {
	return tea.Tick(styles.CardShake.Duration(), func(time.Time) tea.Msg {
		return shakeTickMsg{gen: gen}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the gate card or the unlocked content.
func (m Model) View() string {
	if m.visible {
		return m.viewGate()
	}
	return m.viewContent()
}

func (m Model) viewGate() string {
	t := m.theme
	var parts []string

	parts = append(parts, t.Title.Render(styles.StatusIndicators.Locked+" "+m.title))
	parts = append(parts, t.Subtitle.Render("Enter your access key to continue."))
	parts = append(parts, "")
	parts = append(parts, m.viewInput())

	switch {
	case m.busy():
		parts = append(parts, "", t.Info.Render(m.spinner.View()+" Unlocking..."))
	case m.errText != "":
		parts = append(parts, "", t.Error.Render(util.TruncateWidth(m.errText, 42)))
	}

	parts = append(parts, "", t.Hint.Render("enter unlock   esc quit"))

	card := t.Card.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	card = lipgloss.NewStyle().PaddingLeft(styles.CardShake.Offset(m.shakeFrame)).Render(card)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		card,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

func (m Model) viewInput() string {
	if m.selectAll && m.input.Value() != "" {
		return m.theme.Prompt.Render(m.input.Prompt) + m.theme.Selected.Render(m.input.Value())
	}
	return m.input.View()
}

func (m Model) viewContent() string {
	t := m.theme
	header := t.Header.Width(m.width).Render(util.TruncateWidth(m.title, max(1, m.width-2)))

	status := m.state.String()
	if m.busy() {
		status = m.spinner.View() + " " + status
	}
	status = util.PadRight(status, max(0, m.width-8)) + percent(m.viewport.ScrollPercent())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		t.Content.Render(m.viewport.View()),
		t.Status.Render(status),
	)
}

func percent(f float64) string {
	return fmt.Sprintf("%3d%%", int(f*100))
}
