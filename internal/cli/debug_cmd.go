// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// debug_cmd.go - Developer hooks for exercising the gate without a key.
//
// Command: debug <subcommand>
// Aliases: dev
//
// Subcommands:
//   unlock              Record the unlock and load the payload
//   reset [--used]      Forget the unlock (and, with --used, redeemed keys)
//   validate KEY        Report whether KEY is on the allow-list

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/ui/gateview"
	"github.com/jeranaias/moongate/internal/ui/styles"
	"github.com/jeranaias/moongate/internal/unlock"
)

const debugUsage = "moongate debug unlock|reset [--used]|validate KEY"

// HandleDebug handles the "debug" command.
func HandleDebug(ctx context.Context, app *App) error {
	p := NewArgParser(app.Args.Raw, "used")

	cfg, err := app.Config()
	if err != nil {
		return err
	}
	out := app.Out
	if app.Args.JSON {
		out = io.Discard
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
	hooks := parts.Orchestrator.Hooks()

	switch p.Subcommand() {
	case "unlock":
		state, err := hooks.UnlockForTesting(ctx)
		if err != nil {
			return err
		}
		if app.Args.JSON {
			return NewJSONResponse("debug", UnlockData{
				State:    state.String(),
				Attempts: parts.Loader.Attempts(),
				Title:    parts.Page.Title(),
			}).Fprint(app.Out)
		}
		fmt.Fprintln(app.Out, theme.Success.Render(styles.StatusIndicators.Success+" Unlocked"))
		return nil

	case "reset":
		hooks.Reset()
		if p.BoolFlag("used") {
			local, err := app.LocalStore()
			if err != nil {
				return err
			}
			session, err := app.SessionStore()
			if err != nil {
				return err
			}
			unlock.NewUsedSet(local, unlock.DefaultUsedKey).Clear()
			unlock.NewFlag(session, unlock.DefaultSessionKey).ClearUnlocked()
		}
		if app.Args.JSON {
			return NewJSONResponse("debug", UnlockData{State: gate.StateLocked.String()}).Fprint(app.Out)
		}
		fmt.Fprintln(app.Out, theme.Info.Render(styles.StatusIndicators.Locked+" Locked"))
		return nil

	case "validate":
		key := strings.Join(p.PositionalFrom(1), " ")
		if key == "" {
			return ErrMissingArgument("KEY", "moongate debug validate KEY")
		}
		valid := hooks.Validate(key)
		if app.Args.JSON {
			return NewJSONResponse("debug", ValidateData{Key: key, Valid: valid}).Fprint(app.Out)
		}
		if valid {
			fmt.Fprintln(app.Out, theme.Success.Render(styles.StatusIndicators.Success+" valid"))
		} else {
			fmt.Fprintln(app.Out, theme.Error.Render(styles.StatusIndicators.Error+" not valid"))
		}
		return nil

	case "":
		return ErrMissingArgument("subcommand", debugUsage)
	default:
		return ErrUnknownSubcommand("debug", p.Subcommand(), debugUsage)
	}
}
