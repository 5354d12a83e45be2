// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and the help/version commands for moongate.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdGate Command = iota
	CmdRedeem
	CmdDebug
	CmdHash
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name used in JSON envelopes and errors.
func (c Command) String() string {
	switch c {
	case CmdGate:
		return "gate"
	case CmdRedeem:
		return "redeem"
	case CmdDebug:
		return "debug"
	case CmdHash:
		return "hash"
	case CmdStatus:
		return "status"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool   // Output in JSON format
	Debug      bool   // Verbose gate and loader logging
	Line       bool   // Force the line prompt instead of the full-screen gate
	Quiet      bool   // Suppress banners and hints
	NoColor    bool   // Disable colors regardless of terminal
	Store      string // Storage backend override
	ConfigPath string // Config file override

	// Subcommand is the first argument after the command, if any.
	Subcommand string

	// Unknown holds an unrecognized command name.
	Unknown string

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `moongate - key gate for a deferred application payload

Moongate keeps an application locked behind an access key. Once a valid key
is entered the unlock is remembered and the application payload is loaded.

Usage:
  moongate                         Open the gate (default)
  moongate gate                    Open the gate
  moongate redeem [--key KEY]      Redeem a one-time hashed key
  moongate status, s [--watch]     Show lock state and payload settings
  moongate debug <subcommand>      Developer hooks
  moongate hash [--salt S] KEY...  Print salted digests for redeem.hashes
  moongate config <subcommand>     Configuration
  moongate version                 Show version
  moongate help                    Show this help

Debug Commands:
  moongate debug unlock            Unlock without a key and load the payload
  moongate debug reset             Forget the unlock and lock the gate
  moongate debug validate KEY      Check a key without unlocking

Hash Commands:
  moongate hash KEY...             Digest keys with redeem.salt
  moongate hash --new-salt         Print a fresh random salt

Config Commands:
  moongate config show             Show current configuration (keys redacted)
  moongate config get KEY          Show one value (e.g. loader.src)
  moongate config set KEY VALUE    Set and save one value
  moongate config keys             List all settable keys
  moongate config path             Show config file location
  moongate config init [--force]   Write a default config file

Global Flags:
  --json             Output in JSON format
  --debug            Log gate and loader internals
  --line             Use the line prompt instead of the full-screen gate
  --store BACKEND    Storage backend: file, sqlite, memory, disabled
  --config PATH      Load configuration from PATH
  --no-color         Disable colors
  -q, --quiet        Suppress banners and hints

Environment:
  MOONGATE_*         Overrides config values, e.g. MOONGATE_GATE_KEYS=a,b
                     or MOONGATE_LOADER_SRC=https://cdn.example/app.js
  NO_COLOR           Disable colors

Examples:
  moongate                                 Unlock and run ./script.js
  moongate --line                          Same, without the full-screen card
  moongate debug reset && moongate         Start over from a locked gate
  moongate hash --salt pepper GOLD-1234    Digest a key for redeem.hashes
  moongate redeem --key GOLD-1234 --json   Redeem from a script

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "moongate version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) and returns the command
// and its arguments.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdGate, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining
	if len(remaining) > 0 {
		parsedArgs.Subcommand = remaining[0]
	}

	switch cmd {
	case "gate", "open":
		return CmdGate, parsedArgs
	case "redeem":
		return CmdRedeem, parsedArgs
	case "debug", "dev":
		return CmdDebug, parsedArgs
	case "hash":
		return CmdHash, parsedArgs
	case "status", "s":
		return CmdStatus, parsedArgs
	case "config", "cfg":
		return CmdConfig, parsedArgs
	case "version", "-v", "--version":
		return CmdVersion, parsedArgs
	case "help", "-h", "--help":
		return CmdHelp, parsedArgs
	default:
		parsedArgs.Unknown = cmd
		parsedArgs.Raw = nil
		parsedArgs.Subcommand = ""
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags strips global flags from anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--":
			return append(remaining, args[i:]...), parsedArgs
		case "--json":
			parsedArgs.JSON = true
		case "--debug":
			parsedArgs.Debug = true
		case "--line":
			parsedArgs.Line = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--store", "--config":
			if i+1 < len(args) {
				i++
				if arg == "--store" {
					parsedArgs.Store = args[i]
				} else {
					parsedArgs.ConfigPath = args[i]
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--store="):
				parsedArgs.Store = strings.TrimPrefix(arg, "--store=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}
	return remaining, parsedArgs
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(app *App) error {
	if app.Args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		return NewJSONResponse("version", data).Fprint(app.Out)
	}
	PrintVersion(app.Out)
	return nil
}

// HandleHelp handles the "help" command and unknown commands.
func HandleHelp(app *App) error {
	if app.Args.Unknown != "" {
		return &UsageError{
			Message: fmt.Sprintf("unknown command: %s", app.Args.Unknown),
			Usage:   "moongate help",
		}
	}
	PrintUsage(app.Out)
	return nil
}
