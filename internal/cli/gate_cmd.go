// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// gate_cmd.go - The default command: show the gate, then run the payload.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/jeranaias/moongate/internal/config"
	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/ui/gateview"
	"github.com/jeranaias/moongate/internal/ui/styles"
)

// HandleGate opens the gate full screen, or as a line prompt when ui.mode is
// "line" or the terminal cannot host the full-screen card.
func HandleGate(ctx context.Context, app *App) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	if cfg.UI.Mode == "line" || app.Args.JSON || !CanRunTUI() {
		return runGateLine(ctx, app, cfg)
	}
	return runGateTUI(ctx, app, cfg)
}

// =============================================================================
// FULL SCREEN
// =============================================================================

func runGateTUI(ctx context.Context, app *App, cfg *config.Config) error {
	// The program owns the terminal, so logs go to a file.
	logger, closeLog := openTUILog(app)
	defer closeLog()

	view := gateview.NewProgramView(logger)
	parts, err := app.BuildGate(GateWiring{
		View:   view,
		Write:  view.WriteContent,
		Title:  view.SetTitle,
		State:  view.SetState,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	model := gateview.New(ctx, parts.Orchestrator, gateview.Options{
		Title:        cfg.UI.Title,
		GlamourStyle: cfg.UI.GlamourStyle,
		Theme:        styles.NewTheme(cfg.UI.NoColor || !ColorsEnabled()),
		Logger:       logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	view.Attach(p)
	final, runErr := p.Run()
	view.Detach()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run gate: %w", runErr)
	}

	state := parts.Orchestrator.State()
	if m, ok := final.(gateview.Model); ok {
		state = m.State()
	}
	return finishGate(app, parts, state)
}

// openTUILog redirects the standard logger to moongate.log in the config
// directory. When that fails, logging is discarded rather than drawn over
// the screen.
func openTUILog(app *App) (*log.Logger, func()) {
	dir, err := config.ConfigDir()
	if err == nil {
		err = config.EnsureConfigDir()
	}
	if err != nil {
		return log.New(io.Discard, "", 0), func() {}
	}
	f, err := tea.LogToFile(filepath.Join(dir, "moongate.log"), "moongate")
	if err != nil {
		app.Logger.Printf("[gate] cannot open log file: %v", err)
		return log.New(io.Discard, "", 0), func() {}
	}
	return log.Default(), func() { f.Close() }
}

// =============================================================================
// LINE PROMPT
// =============================================================================

func runGateLine(ctx context.Context, app *App, cfg *config.Config) error {
	out := app.Out
	if app.Args.JSON {
		out = app.Err
	}
	theme := styles.NewTheme(cfg.UI.NoColor || !ColorsEnabled())
	view := gateview.NewLineView(out, theme, cfg.UI.Title)

	parts, err := app.BuildGate(GateWiring{
		View:  view,
		Write: func(s string) { fmt.Fprint(out, s) },
	})
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	state, err := gateview.RunLine(ctx, parts.Orchestrator, view, line)
	if err != nil && !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
		return err
	}
	return finishGate(app, parts, state)
}

// finishGate reports the final state. Leaving while locked is ErrCancelled;
// leaving after a failed load is gate.ErrLoadFailed.
func finishGate(app *App, parts *GateParts, state gate.State) error {
	switch state {
	case gate.StateUnlocked:
	case gate.StateUnlockedLoadFailed:
		return gate.ErrLoadFailed
	default:
		return ErrCancelled
	}

	if app.Args.JSON {
		return NewJSONResponse("gate", UnlockData{
			State:    state.String(),
			Attempts: parts.Loader.Attempts(),
			Title:    parts.Page.Title(),
		}).Fprint(app.Out)
	}
	return nil
}
