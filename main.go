// moongate - a key gate in front of a deferred application payload.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/moongate/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(args)
	defer app.Close()

	var err error
	switch cmd {
	case cli.CmdGate:
		err = cli.HandleGate(ctx, app)
	case cli.CmdRedeem:
		err = cli.HandleRedeem(ctx, app)
	case cli.CmdDebug:
		err = cli.HandleDebug(ctx, app)
	case cli.CmdHash:
		err = cli.HandleHash(app)
	case cli.CmdStatus:
		err = cli.HandleStatus(ctx, app)
	case cli.CmdConfig:
		err = cli.HandleConfig(app)
	case cli.CmdVersion:
		err = cli.HandleVersion(app)
	case cli.CmdHelp:
		err = cli.HandleHelp(app)
	}

	// Quitting a locked gate is not worth a message, only an exit code.
	if err != nil && (args.JSON || !errors.Is(err, cli.ErrCancelled)) {
		cli.DisplayError(cmd.String(), err, args.JSON)
	}
	return cli.GetExitCode(err)
}
