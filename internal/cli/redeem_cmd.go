// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// redeem_cmd.go - Redeem a one-time key checked against salted digests.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/jeranaias/moongate/internal/config"
	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/redeem"
	"github.com/jeranaias/moongate/internal/ui/redeemview"
	"github.com/jeranaias/moongate/internal/ui/styles"
	"github.com/jeranaias/moongate/internal/unlock"
)

const redeemUsage = "moongate redeem [--key KEY]"

// HandleRedeem runs the redeem form. With --key it redeems once without
// prompting, which is how scripts use it.
func HandleRedeem(ctx context.Context, app *App) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	p := NewArgParser(app.Args.Raw)

	if len(cfg.Redeem.Hashes) == 0 {
		app.Logger.Printf("[redeem] redeem.hashes is empty; every key will be rejected")
	}

	if p.HasFlag("key") {
		if p.Flag("key") == "" {
			return ErrMissingArgument("KEY", redeemUsage)
		}
		return redeemOnce(ctx, app, cfg, p.Flag("key"))
	}
	if cfg.UI.Mode == "line" || app.Args.JSON || !CanRunTUI() {
		return redeemLine(ctx, app, cfg)
	}
	return redeemTUI(ctx, app, cfg)
}

// buildRedeemer wires the hash validator. The used-digest list lives in the
// local store next to the unlock flag; only the "unlocked" marker is
// session scoped.
func buildRedeemer(app *App, cfg *config.Config, form redeem.Form, nav redeem.Navigator, extra ...redeem.Option) (*redeem.Redeemer, error) {
	local, err := app.LocalStore()
	if err != nil {
		return nil, err
	}
	session, err := app.SessionStore()
	if err != nil {
		return nil, err
	}

	var used keys.UsedSet
	if cfg.Redeem.PreventReuse {
		used = unlock.NewUsedSet(local, unlock.DefaultUsedKey)
	}
	validator := keys.NewHashValidator(cfg.Redeem.Salt, cfg.Redeem.Hashes, used)

	opts := []redeem.Option{
		redeem.WithRedirect(cfg.Redeem.Redirect),
		redeem.WithDelay(cfg.RedeemDelay()),
		redeem.WithLogger(app.Logger),
	}
	if cfg.Redeem.MarkInSession {
		opts = append(opts, redeem.WithSessionFlag(unlock.NewFlag(session, unlock.DefaultSessionKey)))
	}
	opts = append(opts, extra...)
	return redeem.New(validator, form, nav, opts...), nil
}

// =============================================================================
// ONE SHOT
// =============================================================================

func redeemOnce(ctx context.Context, app *App, cfg *config.Config, key string) error {
	out := app.Out
	if app.Args.JSON || app.Args.Quiet {
		out = io.Discard
	}
	form := newLineForm(out, styles.NewTheme(cfg.UI.NoColor || !ColorsEnabled()))
	var dest string
	nav := redeem.NavigatorFunc(func(_ context.Context, url string) error {
		dest = url
		return nil
	})

	r, err := buildRedeemer(app, cfg, form, nav, redeem.WithDelay(0))
	if err != nil {
		return err
	}
	outcome, err := r.Submit(ctx, key)
	if err != nil {
		return err
	}
	if outcome != keys.OutcomeAccepted {
		return fmt.Errorf("%w: %s", ErrNotRedeemed, outcome)
	}

	if app.Args.JSON {
		return NewJSONResponse("redeem", RedeemData{
			Outcome:  outcome.String(),
			Message:  form.last,
			Redirect: dest,
		}).Fprint(app.Out)
	}
	fmt.Fprintln(app.Out, dest)
	return nil
}

// =============================================================================
// LINE PROMPT
// =============================================================================

// lineForm prints redeem messages as lines.
type lineForm struct {
	out   io.Writer
	theme *styles.Theme
	last  string
}

func newLineForm(out io.Writer, theme *styles.Theme) *lineForm {
	return &lineForm{out: out, theme: theme}
}

func (f *lineForm) SetMessage(text string, mode redeem.Mode) {
	f.last = text
	if text == "" {
		return
	}
	switch mode {
	case redeem.ModeSuccess:
		fmt.Fprintln(f.out, f.theme.Success.Render(styles.StatusIndicators.Success+" "+text))
	case redeem.ModeError:
		fmt.Fprintln(f.out, f.theme.Error.Render(styles.StatusIndicators.Error+" "+text))
	default:
		fmt.Fprintln(f.out, f.theme.Info.Render(text))
	}
}

func (f *lineForm) SetDisabled(bool) {}

func (f *lineForm) FocusInput() {}

func redeemLine(ctx context.Context, app *App, cfg *config.Config) error {
	out := app.Out
	if app.Args.JSON {
		out = app.Err
	}
	form := newLineForm(out, styles.NewTheme(cfg.UI.NoColor || !ColorsEnabled()))
	var dest string
	nav := redeem.NavigatorFunc(func(_ context.Context, url string) error {
		dest = url
		return nil
	})
	r, err := buildRedeemer(app, cfg, form, nav)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := line.Prompt("key> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return ErrCancelled
			}
			return fmt.Errorf("read key: %w", err)
		}
		outcome, err := r.Submit(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		if outcome == keys.OutcomeAccepted {
			break
		}
	}

	if app.Args.JSON {
		return NewJSONResponse("redeem", RedeemData{
			Outcome:  keys.OutcomeAccepted.String(),
			Message:  form.last,
			Redirect: dest,
		}).Fprint(app.Out)
	}
	fmt.Fprintf(out, "Redirect: %s\n", dest)
	return nil
}

// =============================================================================
// FULL SCREEN
// =============================================================================

func redeemTUI(ctx context.Context, app *App, cfg *config.Config) error {
	logger, closeLog := openTUILog(app)
	defer closeLog()
	app.Logger = logger

	form := redeemview.NewProgramForm(logger)
	r, err := buildRedeemer(app, cfg, form, form)
	if err != nil {
		return err
	}

	theme := styles.NewTheme(cfg.UI.NoColor || !ColorsEnabled())
	model := redeemview.New(ctx, r, theme, cfg.UI.Title)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	form.Attach(p)
	final, runErr := p.Run()
	form.Attach(nil)

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run redeem: %w", runErr)
	}
	m, ok := final.(redeemview.Model)
	if !ok || m.Destination() == "" {
		return ErrCancelled
	}
	fmt.Fprintf(app.Out, "Redirect: %s\n", m.Destination())
	return nil
}
