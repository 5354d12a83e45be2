// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/ui/styles"
)

// Prompter reads one masked line. *liner.State satisfies it.
type Prompter interface {
	PasswordPrompt(prompt string) (string, error)
}

// LineView is a gate.View for plain terminals. The gate is a prompt; errors
// are printed inline above the next prompt.
type LineView struct {
	mu      sync.Mutex
	out     io.Writer
	theme   *styles.Theme
	title   string
	visible bool
	errText string
}

var _ gate.View = (*LineView)(nil)

// NewLineView writes to out.
func NewLineView(out io.Writer, theme *styles.Theme, title string) *LineView {
	if theme == nil {
		theme = styles.NewTheme(true)
	}
	return &LineView{out: out, theme: theme, title: title}
}

// Show prints the gate banner when the gate becomes visible.
func (v *LineView) Show() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.visible {
		return
	}
	v.visible = true
	fmt.Fprintln(v.out, v.theme.Title.Render(styles.StatusIndicators.Locked+" "+v.title))
	fmt.Fprintln(v.out, v.theme.Subtitle.Render("Enter your access key to continue."))
}

// Hide marks the gate hidden.
func (v *LineView) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = false
}

// ShowError prints text every time, so a repeated error is noticed.
func (v *LineView) ShowError(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errText = text
	fmt.Fprintln(v.out, v.theme.Error.Render(styles.StatusIndicators.Error+" "+text))
}

// ClearError forgets the error.
func (v *LineView) ClearError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errText = ""
}

// FocusInput is a no-op: the prompt always has focus.
func (v *LineView) FocusInput() {}

// Visible reports whether the gate is up.
func (v *LineView) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

// LineController is the part of the orchestrator RunLine drives.
type LineController interface {
	Start(ctx context.Context) (gate.State, error)
	Submit(ctx context.Context, raw string) (gate.State, error)
}

// RunLine runs the gate as a prompt loop until the payload is loaded, the
// user aborts, or ctx is done. An abort returns liner.ErrPromptAborted or
// io.EOF unchanged.
func RunLine(ctx context.Context, ctrl LineController, view *LineView, prompt Prompter) (gate.State, error) {
	state, _ := ctrl.Start(ctx)

	for state != gate.StateUnlocked {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		raw, err := prompt.PasswordPrompt("key> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return state, err
			}
			return state, fmt.Errorf("read key: %w", err)
		}
		state, _ = ctrl.Submit(ctx, raw)
	}

	fmt.Fprintln(view.out, view.theme.Success.Render(styles.StatusIndicators.Success+" Unlocked"))
	return state, nil
}
