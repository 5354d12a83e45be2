// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/moongate/internal/config"
	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/storage"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Command
		wantSub string
	}{
		{"no args opens the gate", nil, CmdGate, ""},
		{"gate", []string{"gate"}, CmdGate, ""},
		{"open alias", []string{"open"}, CmdGate, ""},
		{"redeem", []string{"redeem", "--key", "abc"}, CmdRedeem, "--key"},
		{"debug unlock", []string{"debug", "unlock"}, CmdDebug, "unlock"},
		{"dev alias", []string{"dev", "reset"}, CmdDebug, "reset"},
		{"hash", []string{"hash", "k1"}, CmdHash, "k1"},
		{"status alias", []string{"s"}, CmdStatus, ""},
		{"config set", []string{"config", "set", "ui.title", "Moon"}, CmdConfig, "set"},
		{"version flag", []string{"--version"}, CmdVersion, ""},
		{"help", []string{"help"}, CmdHelp, ""},
		{"case insensitive", []string{"STATUS"}, CmdStatus, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.want {
				t.Errorf("ParseArgs(%v) command = %v, want %v", tt.argv, cmd, tt.want)
			}
			if args.Subcommand != tt.wantSub {
				t.Errorf("ParseArgs(%v) subcommand = %q, want %q", tt.argv, args.Subcommand, tt.wantSub)
			}
		})
	}
}

func TestParseArgs_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args := ParseArgs([]string{"--json", "status", "--store", "sqlite", "--debug", "--config=/tmp/m.toml", "-q", "--line", "--no-color"})
	require.Equal(t, CmdStatus, cmd)
	require.True(t, args.JSON)
	require.True(t, args.Debug)
	require.True(t, args.Quiet)
	require.True(t, args.Line)
	require.True(t, args.NoColor)
	require.Equal(t, "sqlite", args.Store)
	require.Equal(t, "/tmp/m.toml", args.ConfigPath)
	require.Empty(t, args.Raw)
}

func TestParseArgs_DoubleDashStopsGlobalFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"hash", "--", "--json"})
	require.Equal(t, CmdHash, cmd)
	require.False(t, args.JSON)
	require.Equal(t, []string{"--", "--json"}, args.Raw)
}

func TestParseArgs_UnknownCommand(t *testing.T) {
	cmd, args := ParseArgs([]string{"launch", "now"})
	require.Equal(t, CmdHelp, cmd)
	require.Equal(t, "launch", args.Unknown)

	app, _ := newTestApp(t, "")
	app.Args = args
	err := HandleHelp(app)
	var usageErr *UsageError
	require.ErrorAs(t, err, &usageErr)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestCommand_String(t *testing.T) {
	require.Equal(t, "gate", CmdGate.String())
	require.Equal(t, "redeem", CmdRedeem.String())
	require.Equal(t, "unknown", Command(99).String())
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "flag with value",
			args:    []string{"--salt", "pepper", "KEY"},
			wantSub: "KEY",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("salt") != "pepper" {
					t.Errorf("Flag(salt) = %q, want %q", p.Flag("salt"), "pepper")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"--salt=a=b", "KEY"},
			wantSub: "KEY",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("salt") != "a=b" {
					t.Errorf("Flag(salt) = %q, want %q", p.Flag("salt"), "a=b")
				}
			},
		},
		{
			name:    "declared boolean does not eat a value",
			args:    []string{"--watch", "extra"},
			bools:   []string{"watch"},
			wantSub: "extra",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("watch") {
					t.Error("BoolFlag(watch) should be true")
				}
			},
		},
		{
			name:    "undeclared trailing flag is boolean",
			args:    []string{"init", "--force"},
			wantSub: "init",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("force") {
					t.Error("BoolFlag(force) should be true")
				}
			},
		},
		{
			name:    "explicit boolean value",
			args:    []string{"--used=no"},
			bools:   []string{"used"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("used") {
					t.Error("BoolFlag(used) should be false")
				}
				if !p.HasFlag("used") {
					t.Error("HasFlag(used) should be true")
				}
			},
		},
		{
			name:    "double dash keeps dashed positionals",
			args:    []string{"--", "-abc", "--def"},
			wantSub: "-abc",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 2 {
					t.Errorf("PositionalCount() = %d, want 2", p.PositionalCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_Accessors(t *testing.T) {
	p := NewArgParser([]string{"set", "ui.title", "Moon", "Gate", "--n", "12"})
	require.Equal(t, "ui.title", p.Positional(1))
	require.Equal(t, "", p.Positional(9))
	require.Equal(t, []string{"Moon", "Gate"}, p.PositionalFrom(2))
	require.Empty(t, p.PositionalFrom(10))

	n, err := p.FlagInt("n")
	require.NoError(t, err)
	require.Equal(t, 12, n)
	_, err = p.FlagInt("missing")
	require.Error(t, err)
	require.Equal(t, "dflt", p.FlagOrDefault("missing", "dflt"))
	require.Len(t, p.Raw(), 6)
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", "on"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err)
		require.True(t, b, s)
	}
	for _, s := range []string{"false", "No", "n", "0", "off"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err)
		require.False(t, b, s)
	}
	_, err := ParseBoolString("maybe")
	require.Error(t, err)
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", ErrMissingArgument("KEY", ""), ExitUsageError},
		{"config", &ConfigError{Err: errors.New("bad")}, ExitConfigError},
		{"invalid key", gate.ErrInvalidKey, ExitKeyRejected},
		{"throttled", fmt.Errorf("submit: %w", gate.ErrThrottled), ExitKeyRejected},
		{"not redeemed", fmt.Errorf("%w: invalid", ErrNotRedeemed), ExitKeyRejected},
		{"load failed", fmt.Errorf("%w: boom", gate.ErrLoadFailed), ExitLoadError},
		{"storage", storage.ErrUnavailable, ExitStorageError},
		{"cancelled", ErrCancelled, ExitCancelled},
		{"context", context.Canceled, ExitCancelled},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorType(t *testing.T) {
	require.Equal(t, "usage_error", errorType(&UsageError{Message: "x"}))
	require.Equal(t, "config_error", errorType(&ConfigError{Err: errors.New("x")}))
	require.Equal(t, "key_rejected", errorType(gate.ErrInvalidKey))
	require.Equal(t, "load_error", errorType(gate.ErrLoadFailed))
	require.Equal(t, "command_error", errorType(NewCommandError("config", "set", "nope", nil)))
	require.Equal(t, "generic_error", errorType(errors.New("x")))
}

// =============================================================================
// COMMANDS
// =============================================================================

const testSalt = "pepper"

// newTestApp writes a config file into a temp directory and returns an App
// that reads it. The payload directory is the same temp directory.
func newTestApp(t *testing.T, payload string) (*App, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)

	dir := t.TempDir()
	if payload != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte(payload), 0o644))
	}

	cfgPath := filepath.Join(dir, "moongate.toml")
	body := fmt.Sprintf(`
[gate]
keys = ["moon2025", "earlyaccess"]
rate_limit = 0.0

[redeem]
salt = %q
hashes = [%q]
delay_ms = 0

[loader]
root = %q
src = "app.js"
timeout_ms = 2000

[store]
backend = "file"
path = %q
`, testSalt, keys.Digest(testSalt, "GOLD-1234"), dir, filepath.Join(dir, "state.json"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))

	app := &App{
		Args:   Args{ConfigPath: cfgPath},
		Out:    &bytes.Buffer{},
		Err:    &bytes.Buffer{},
		Logger: log.New(&bytes.Buffer{}, "", 0),
	}
	t.Cleanup(func() { app.Close() })
	return app, cfgPath
}

// reopen returns a fresh App over the same config, as a second process
// would see it.
func reopen(t *testing.T, app *App, args Args) *App {
	t.Helper()
	args.ConfigPath = app.Args.ConfigPath
	next := &App{
		Args:   args,
		Out:    &bytes.Buffer{},
		Err:    &bytes.Buffer{},
		Logger: app.Logger,
	}
	t.Cleanup(func() { next.Close() })
	return next
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Command string          `json:"command"`
}

func decodeEnvelope(t *testing.T, app *App, into interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(app.Out.(*bytes.Buffer).Bytes(), &env))
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func output(app *App) string {
	return app.Out.(*bytes.Buffer).String()
}

func TestHandleDebug_UnlockPersistsAcrossRuns(t *testing.T) {
	app, _ := newTestApp(t, `document.write("hello from app"); document.title = "App";`)
	app.Args.JSON = true
	app.Args.Raw = []string{"unlock"}

	require.NoError(t, HandleDebug(context.Background(), app))
	var data UnlockData
	env := decodeEnvelope(t, app, &data)
	require.True(t, env.Success)
	require.Equal(t, "unlocked", data.State)
	require.Equal(t, 1, data.Attempts)
	require.Equal(t, "App", data.Title)
	require.NoError(t, app.Close())

	next := reopen(t, app, Args{JSON: true})
	require.NoError(t, HandleStatus(context.Background(), next))
	var status StatusData
	decodeEnvelope(t, next, &status)
	require.True(t, status.Unlocked)
	require.Equal(t, "moon_access_unlocked_v2", status.FlagName)
	require.Equal(t, 2, status.Keys)
	require.Equal(t, 1, status.Hashes)
}

func TestHandleDebug_UnlockPrintsPayloadOutput(t *testing.T) {
	app, _ := newTestApp(t, `document.write("hello from app");`)
	app.Args.Raw = []string{"unlock"}

	require.NoError(t, HandleDebug(context.Background(), app))
	require.Contains(t, output(app), "hello from app")
	require.Contains(t, output(app), "Unlocked")
}

func TestHandleDebug_ResetLocks(t *testing.T) {
	app, _ := newTestApp(t, `var ok = true;`)
	app.Args.Raw = []string{"unlock"}
	require.NoError(t, HandleDebug(context.Background(), app))
	require.NoError(t, app.Close())

	reset := reopen(t, app, Args{Raw: []string{"reset"}})
	require.NoError(t, HandleDebug(context.Background(), reset))
	require.NoError(t, reset.Close())

	status := reopen(t, app, Args{JSON: true})
	require.NoError(t, HandleStatus(context.Background(), status))
	var data StatusData
	decodeEnvelope(t, status, &data)
	require.False(t, data.Unlocked)
}

func TestHandleDebug_UnlockLoadFailure(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"unlock"}

	err := HandleDebug(context.Background(), app)
	require.ErrorIs(t, err, gate.ErrLoadFailed)
	require.Equal(t, ExitLoadError, GetExitCode(err))
}

func TestHandleDebug_Validate(t *testing.T) {
	tests := []struct {
		key   []string
		valid bool
	}{
		{[]string{"validate", "MOON2025"}, true},
		{[]string{"validate", "  moon2025 "}, true},
		{[]string{"validate", "moon", "2025"}, false},
		{[]string{"validate", "early-access"}, false},
		{[]string{"validate", "nope"}, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.key[1:]), func(t *testing.T) {
			app, _ := newTestApp(t, "")
			app.Args.JSON = true
			app.Args.Raw = tt.key
			require.NoError(t, HandleDebug(context.Background(), app))
			var data ValidateData
			decodeEnvelope(t, app, &data)
			require.Equal(t, tt.valid, data.Valid)
		})
	}
}

func TestHandleDebug_Usage(t *testing.T) {
	app, _ := newTestApp(t, "")
	err := HandleDebug(context.Background(), app)
	require.Equal(t, ExitUsageError, GetExitCode(err))

	app.Args.Raw = []string{"explode"}
	err = HandleDebug(context.Background(), app)
	require.ErrorContains(t, err, "unknown debug subcommand")

	app.Args.Raw = []string{"validate"}
	err = HandleDebug(context.Background(), app)
	require.ErrorContains(t, err, "missing required argument")
}

func TestHandleHash(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"--salt", "pepper", "GOLD-1234"}

	require.NoError(t, HandleHash(app))
	require.Equal(t, keys.Digest("pepper", "GOLD-1234")+"\n", output(app))
}

func TestHandleHash_ConfigSaltAndJSON(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.JSON = true
	app.Args.Raw = []string{"gold-1234", "other"}

	require.NoError(t, HandleHash(app))
	var data []HashData
	decodeEnvelope(t, app, &data)
	require.Len(t, data, 2)
	require.Equal(t, keys.Digest(testSalt, "GOLD-1234"), data[0].Digest, "hash input is normalized")
	require.Equal(t, "other", data[1].Key)
}

func TestHandleHash_NewSalt(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"--new-salt"}

	require.NoError(t, HandleHash(app))
	salt := output(app)
	require.Len(t, salt, saltBytes*2+1)

	again, err := NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, salt[:saltBytes*2], again)
}

func TestHandleHash_MissingKey(t *testing.T) {
	app, _ := newTestApp(t, "")
	err := HandleHash(app)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleRedeem_OnceAccepted(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.JSON = true
	app.Args.Raw = []string{"--key", " gold-12 34 "}

	require.NoError(t, HandleRedeem(context.Background(), app))
	var data RedeemData
	env := decodeEnvelope(t, app, &data)
	require.True(t, env.Success)
	require.Equal(t, "accepted", data.Outcome)
	require.Equal(t, "/", data.Redirect)
}

func TestHandleRedeem_OnceRejected(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"--key", "SILVER-1"}

	err := HandleRedeem(context.Background(), app)
	require.ErrorIs(t, err, ErrNotRedeemed)
	require.Equal(t, ExitKeyRejected, GetExitCode(err))
	require.Contains(t, output(app), "Invalid key")
}

func TestHandleRedeem_KeyFlagNeedsValue(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"--key"}
	err := HandleRedeem(context.Background(), app)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleRedeem_ReuseAcrossRuns(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"--key", "GOLD-1234"}
	require.NoError(t, HandleRedeem(context.Background(), app))
	require.NoError(t, app.Close())

	// A second process sees the used list in the local store even though
	// the session store starts empty.
	again := reopen(t, app, Args{Raw: []string{"--key", "gold 1234"}})
	err := HandleRedeem(context.Background(), again)
	require.ErrorIs(t, err, ErrNotRedeemed)
	require.Contains(t, output(again), "already used")
	require.NoError(t, again.Close())

	status := reopen(t, app, Args{JSON: true})
	require.NoError(t, HandleStatus(context.Background(), status))
	var data StatusData
	decodeEnvelope(t, status, &data)
	require.Equal(t, []string{keys.Digest(testSalt, "GOLD-1234")}, data.UsedKeys)
}

func TestHandleDebug_ResetUsedAllowsRedeemAgain(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"--key", "GOLD-1234"}
	require.NoError(t, HandleRedeem(context.Background(), app))
	require.NoError(t, app.Close())

	reset := reopen(t, app, Args{Raw: []string{"reset", "--used"}})
	require.NoError(t, HandleDebug(context.Background(), reset))
	require.NoError(t, reset.Close())

	again := reopen(t, app, Args{Raw: []string{"--key", "GOLD-1234"}})
	require.NoError(t, HandleRedeem(context.Background(), again))
}

func TestHandleConfig_SetThenGet(t *testing.T) {
	app, cfgPath := newTestApp(t, "")
	app.Args.Raw = []string{"set", "ui.unlocked_title", "Full", "Moon"}
	require.NoError(t, HandleConfig(app))

	loaded, err := config.LoadFromPath(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "Full Moon", loaded.UI.UnlockedTitle)
	require.Equal(t, testSalt, loaded.Redeem.Salt, "other values survive the rewrite")

	get := reopen(t, app, Args{Raw: []string{"get", "ui.unlocked_title"}})
	require.NoError(t, HandleConfig(get))
	require.Equal(t, "Full Moon\n", output(get))
}

func TestHandleConfig_SetRejectsInvalid(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"set", "store.backend", "redis"}
	err := HandleConfig(app)
	require.Equal(t, ExitConfigError, GetExitCode(err))

	app.Args.Raw = []string{"set", "no.such", "x"}
	err = HandleConfig(app)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleConfig_ShowRedactsKeys(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Raw = []string{"show"}
	require.NoError(t, HandleConfig(app))
	out := output(app)
	require.Contains(t, out, "[REDACTED x2]")
	require.NotContains(t, out, "moon2025")
	require.NotContains(t, out, testSalt)
}

func TestHandleConfig_InitRefusesOverwrite(t *testing.T) {
	app, cfgPath := newTestApp(t, "")
	app.Args.Raw = []string{"init"}
	err := HandleConfig(app)
	require.ErrorContains(t, err, "already exists")

	app.Args.Raw = []string{"init", "--force"}
	require.NoError(t, HandleConfig(app))
	loaded, err := config.LoadFromPath(cfgPath)
	require.NoError(t, err)
	require.Equal(t, config.Default().Gate.Keys, loaded.Gate.Keys)
}

func TestApp_FlagOverrides(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Store = storage.BackendMemory
	app.Args.Debug = true
	app.Args.Line = true

	cfg, err := app.Config()
	require.NoError(t, err)
	require.Equal(t, storage.BackendMemory, cfg.Store.Backend)
	require.True(t, cfg.Debug)
	require.Equal(t, "line", cfg.UI.Mode)

	store, err := app.LocalStore()
	require.NoError(t, err)
	_, ok := store.(*storage.MemoryStore)
	require.True(t, ok)
}

func TestApp_InvalidStoreOverride(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Store = "redis"
	_, err := app.Config()
	require.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestHandleStatus_WatchNeedsFileStore(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.Store = storage.BackendMemory
	app.Args.Raw = []string{"--watch"}
	err := HandleStatus(context.Background(), app)
	require.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleVersion_JSON(t *testing.T) {
	app, _ := newTestApp(t, "")
	app.Args.JSON = true
	require.NoError(t, HandleVersion(app))
	var data VersionData
	env := decodeEnvelope(t, app, &data)
	require.Equal(t, "version", env.Command)
	require.Equal(t, Version, data.Version)
}

func TestPayloadLocation(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "./script.js", payloadLocation(cfg))

	cfg.Loader.BaseURL = "https://cdn.example/app/"
	require.Equal(t, "https://cdn.example/app/script.js", payloadLocation(cfg))

	cfg.Loader.Src = "https://other.example/x.js"
	require.Equal(t, "https://other.example/x.js", payloadLocation(cfg))
}
