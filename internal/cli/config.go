// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for moongate.
//
// Command: config [subcommand]
// Short:   View and modify configuration
// Aliases: cfg
//
// Subcommands:
//   show (default)      Display current configuration (keys redacted)
//   get <key>           Display one value
//   set <key> <value>   Set and save one value
//   keys                List settable keys
//   path                Show configuration file path
//   init [--force]      Write a default configuration file
//
// Examples:
//   moongate config set loader.src https://cdn.example/app.js
//   moongate config set gate.keys alpha,beta
//   moongate config set store.backend sqlite
//   moongate config get gate.flag_version
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/moongate/internal/config"
)

const configUsage = "moongate config show|get KEY|set KEY VALUE|keys|path|init [--force]"

// HandleConfig handles the "config" command.
func HandleConfig(app *App) error {
	p := NewArgParser(app.Args.Raw, "force")

	switch p.Subcommand() {
	case "", "show":
		return handleConfigShow(app)
	case "get":
		return handleConfigGet(app, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return ErrMissingArgument("KEY VALUE", "moongate config set KEY VALUE")
		}
		return handleConfigSet(app, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "keys":
		return handleConfigKeys(app)
	case "path":
		return handleConfigPath(app)
	case "init":
		return handleConfigInit(app, p.BoolFlag("force"))
	default:
		return ErrUnknownSubcommand("config", p.Subcommand(), configUsage)
	}
}

func handleConfigShow(app *App) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	safe := cfg.Redacted()
	if app.Args.JSON {
		return NewJSONResponse("config", safe).Fprint(app.Out)
	}

	fmt.Fprintln(app.Out, TitleStyle.Render("moongate Configuration"))
	fmt.Fprintln(app.Out, RenderSeparator())
	section := ""
	for _, key := range config.GetAllKeys() {
		head, _, _ := strings.Cut(key, ".")
		if head != section && strings.Contains(key, ".") {
			section = head
			fmt.Fprintln(app.Out, SectionStyle.Render("["+section+"]"))
		}
		val, err := safe.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintln(app.Out, "  "+RenderField(key, formatConfigValue(val)))
	}
	if path := app.ConfigPath(); path != "" {
		fmt.Fprintln(app.Out)
		fmt.Fprintln(app.Out, DimStyle.Render("File: "+path))
	}
	return nil
}

func handleConfigGet(app *App, key string) error {
	if key == "" {
		return ErrMissingArgument("KEY", "moongate config get KEY")
	}
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	val, err := cfg.Redacted().Get(key)
	if err != nil {
		return &UsageError{Message: err.Error(), Usage: "moongate config keys"}
	}
	if app.Args.JSON {
		return NewJSONResponse("config", map[string]interface{}{"key": key, "value": val}).Fprint(app.Out)
	}
	fmt.Fprintln(app.Out, formatConfigValue(val))
	return nil
}

// handleConfigSet edits the file configuration, not the flag-adjusted copy,
// so --store and friends are never written back.
func handleConfigSet(app *App, key, value string) error {
	var (
		cfg  *config.Config
		err  error
		path = app.Args.ConfigPath
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if cfg == nil {
		return &ConfigError{Err: err}
	}

	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Message: err.Error(), Usage: "moongate config keys"}
	}
	cfg.Migrate()
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: fmt.Errorf("invalid config: %w", err)}
	}

	switch {
	case path == "":
		err = config.Save(cfg)
	case strings.HasSuffix(path, ".json"):
		err = config.SaveJSON(cfg, path)
	default:
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return NewCommandError("config", "set", "could not save", err)
	}
	config.SetGlobal(cfg)
	app.cfg = nil

	if app.Args.JSON {
		return NewJSONResponse("config", map[string]string{"key": key, "status": "saved"}).Fprint(app.Out)
	}
	if !app.Args.Quiet {
		fmt.Fprintln(app.Out, SuccessStyle.Render("[OK]")+" "+key+" saved")
	}
	return nil
}

func handleConfigKeys(app *App) error {
	all := config.GetAllKeys()
	if app.Args.JSON {
		return NewJSONResponse("config", all).Fprint(app.Out)
	}
	for _, k := range all {
		fmt.Fprintln(app.Out, k)
	}
	return nil
}

func handleConfigPath(app *App) error {
	path := app.Args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		path = p
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if app.Args.JSON {
		return NewJSONResponse("config", map[string]interface{}{"path": path, "exists": exists}).Fprint(app.Out)
	}
	fmt.Fprintln(app.Out, path)
	if !exists && !app.Args.Quiet {
		fmt.Fprintln(app.Err, DimStyle.Render("(not created yet; run: moongate config init)"))
	}
	return nil
}

func handleConfigInit(app *App, force bool) error {
	path := app.Args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	}

	cfg := config.Default()
	var err error
	switch {
	case app.Args.ConfigPath == "":
		err = config.Save(cfg)
	case strings.HasSuffix(path, ".json"):
		err = config.SaveJSON(cfg, path)
	default:
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return NewCommandError("config", "init", "could not write", err)
	}

	if app.Args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path, "status": "created"}).Fprint(app.Out)
	}
	fmt.Fprintln(app.Out, SuccessStyle.Render("[OK]")+" wrote "+path)
	return nil
}

func formatConfigValue(v interface{}) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	case string:
		if t == "" {
			return `""`
		}
		return t
	default:
		return fmt.Sprint(t)
	}
}
