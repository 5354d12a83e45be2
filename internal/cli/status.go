// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for moongate.
//
// Command: status [--watch]
// Short:   Show lock state and payload settings
// Aliases: s
//
// Flags:
//   --watch             Reprint whenever the file store changes
//   --json              Output in JSON format
//
// Examples:
//   moongate status                 Show status
//   moongate status --json          Status in JSON format
//   moongate status --watch         Follow unlocks and resets live
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/moongate/internal/config"
	"github.com/jeranaias/moongate/internal/storage"
	"github.com/jeranaias/moongate/internal/unlock"
)

// HandleStatus handles the "status" command.
func HandleStatus(ctx context.Context, app *App) error {
	p := NewArgParser(app.Args.Raw, "watch")

	data, err := collectStatus(app)
	if err != nil {
		return err
	}
	if err := printStatus(app, data); err != nil {
		return err
	}
	if !p.BoolFlag("watch") {
		return nil
	}

	store, err := app.LocalStore()
	if err != nil {
		return err
	}
	fs, ok := store.(*storage.FileStore)
	if !ok {
		return &UsageError{
			Message: fmt.Sprintf("--watch needs the %s store backend", storage.BackendFile),
			Usage:   "moongate --store file status --watch",
		}
	}

	var mu sync.Mutex
	err = fs.Watch(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		data, err := collectStatus(app)
		if err != nil {
			app.Logger.Printf("[status] %v", err)
			return
		}
		if err := printStatus(app, data); err != nil {
			app.Logger.Printf("[status] %v", err)
		}
	})
	if err != nil {
		return err
	}
	if !app.Args.JSON && !app.Args.Quiet {
		fmt.Fprintln(app.Out, DimStyle.Render("Watching "+fs.Path()+" (Ctrl+C to stop)"))
	}
	<-ctx.Done()
	return nil
}

// collectStatus reads the lock state and settings.
func collectStatus(app *App) (StatusData, error) {
	cfg, err := app.Config()
	if err != nil {
		return StatusData{}, err
	}
	flag, err := app.UnlockFlag()
	if err != nil {
		return StatusData{}, err
	}

	data := StatusData{
		Unlocked:   flag.IsUnlocked(),
		FlagName:   flag.Name(),
		Store:      cfg.Store.Backend,
		ConfigPath: app.ConfigPath(),
		Payload:    payloadLocation(cfg),
		Keys:       len(cfg.Gate.Keys),
		Hashes:     len(cfg.Redeem.Hashes),
	}
	if fs, ok := app.local.(*storage.FileStore); ok {
		data.StorePath = fs.Path()
	} else if cfg.Store.Backend == storage.BackendSQLite {
		data.StorePath, _ = cfg.StorePath()
	}

	local, err := app.LocalStore()
	if err != nil {
		return StatusData{}, err
	}
	data.UsedKeys = unlock.NewUsedSet(local, unlock.DefaultUsedKey).List()
	return data, nil
}

// payloadLocation describes where the loader will fetch the payload from.
func payloadLocation(cfg *config.Config) string {
	src := cfg.Loader.Src
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return src
	}
	if cfg.Loader.BaseURL != "" {
		return strings.TrimRight(cfg.Loader.BaseURL, "/") + "/" + strings.TrimLeft(src, "/")
	}
	root := cfg.Loader.Root
	if root == "" {
		root = "."
	}
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(src, "/")
}

func printStatus(app *App, data StatusData) error {
	if app.Args.JSON {
		return NewJSONResponse("status", data).Fprint(app.Out)
	}
	writeStatus(app.Out, data)
	return nil
}

func writeStatus(w io.Writer, data StatusData) {
	fmt.Fprintln(w, TitleStyle.Render("moongate Status"))
	fmt.Fprintln(w, RenderSeparator())

	fmt.Fprintln(w, SectionStyle.Render("Gate"))
	fmt.Fprintln(w, "  "+RenderField("State:", RenderLockState(data.Unlocked)))
	fmt.Fprintln(w, "  "+RenderField("Flag:", data.FlagName))
	fmt.Fprintln(w, "  "+RenderField("Allowed keys:", fmt.Sprintf("%d", data.Keys)))

	fmt.Fprintln(w, SectionStyle.Render("Storage"))
	fmt.Fprintln(w, "  "+RenderField("Backend:", data.Store))
	if data.StorePath != "" {
		fmt.Fprintln(w, "  "+RenderField("Path:", data.StorePath))
	}
	if data.ConfigPath != "" {
		fmt.Fprintln(w, "  "+RenderField("Config:", data.ConfigPath))
	}

	fmt.Fprintln(w, SectionStyle.Render("Payload"))
	fmt.Fprintln(w, "  "+RenderField("Source:", data.Payload))

	fmt.Fprintln(w, SectionStyle.Render("Redeem"))
	fmt.Fprintln(w, "  "+RenderField("Digests:", fmt.Sprintf("%d", data.Hashes)))
	if len(data.UsedKeys) > 0 {
		fmt.Fprintln(w, "  "+RenderField("Used:", fmt.Sprintf("%d", len(data.UsedKeys))))
	}
	fmt.Fprintln(w)
}
