// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers for
// moongate.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags and the command's remaining arguments
//   - App: Loaded configuration and opened stores shared by a run
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	cmd, args := cli.Parse()
//	app := cli.NewApp(args)
//	defer app.Close()
//	switch cmd {
//	case cli.CmdGate:
//	    err = cli.HandleGate(ctx, app)
//	// ... other commands
//	}
//	os.Exit(cli.GetExitCode(err))
//
// # Commands Overview
//
//   - gate (default): key card, then the payload
//   - redeem: one-time hashed keys
//   - status: lock state, optionally followed live
//   - debug: unlock, reset and validate without the card
//   - hash: digests for redeem.hashes
//   - config: show, get, set, keys, path, init
//
// Commands that print results support --json.
package cli
