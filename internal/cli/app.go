// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for the moongate commands.
//
// App loads configuration and opens the persistent store once per process.
// The gate and redeem commands assemble their collaborators from it.

package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/jeranaias/moongate/internal/config"
	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/loader"
	"github.com/jeranaias/moongate/internal/storage"
	"github.com/jeranaias/moongate/internal/unlock"
)

// App carries the parsed arguments and lazily opened resources.
type App struct {
	Args   Args
	Out    io.Writer
	Err    io.Writer
	Logger *log.Logger

	cfg     *config.Config
	cfgPath string
	local   storage.Store
	session storage.Store
}

// NewApp creates an App writing to stdout and stderr.
func NewApp(args Args) *App {
	if args.NoColor {
		ForceColorsEnabled(false)
	}
	return &App{
		Args:   args,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Close releases the stores.
func (a *App) Close() error {
	var firstErr error
	for _, s := range []storage.Store{a.local, a.session} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.local, a.session = nil, nil
	return firstErr
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config loads the configuration once. --config selects a file; otherwise
// the process-wide configuration is used, which reports a broken default
// file and falls back to defaults. Command-line flags override file and
// environment.
func (a *App) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	var cfg *config.Config
	if a.Args.ConfigPath != "" {
		loaded, err := config.LoadFromPath(a.Args.ConfigPath)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		cfg = loaded
		a.cfgPath = a.Args.ConfigPath
	} else {
		// The shared instance stays untouched by flag overrides.
		cfg = config.Global().Clone()
		if p, err := config.ConfigPathTOML(); err == nil {
			a.cfgPath = p
		}
	}

	if a.Args.Store != "" {
		cfg.Store.Backend = a.Args.Store
	}
	if a.Args.Debug {
		cfg.Debug = true
	}
	if a.Args.Line {
		cfg.UI.Mode = "line"
	}
	if a.Args.NoColor {
		cfg.UI.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("invalid config: %w", err)}
	}

	a.cfg = cfg
	return cfg, nil
}

// ConfigPath returns the file the configuration was read from, or the
// default location.
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// =============================================================================
// STORAGE
// =============================================================================

// LocalStore opens the persistent store named by store.backend.
func (a *App) LocalStore() (storage.Store, error) {
	if a.local != nil {
		return a.local, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	path, err := cfg.StorePath()
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}
	store, err := storage.Open(cfg.Store.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	if fs, ok := store.(*storage.FileStore); ok {
		fs.SetLogger(a.Logger)
	}
	a.local = store
	return store, nil
}

// SessionStore opens the store named by store.session. The default memory
// backend lives as long as the process.
func (a *App) SessionStore() (storage.Store, error) {
	if a.session != nil {
		return a.session, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	path, err := cfg.SessionPath()
	if err != nil {
		return nil, fmt.Errorf("resolve session path: %w", err)
	}
	store, err := storage.Open(cfg.Store.Session, path)
	if err != nil {
		return nil, fmt.Errorf("open %s session store: %w", cfg.Store.Session, err)
	}
	a.session = store
	return store, nil
}

// UnlockFlag returns the versioned unlock flag in the local store.
func (a *App) UnlockFlag() (*unlock.Flag, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	store, err := a.LocalStore()
	if err != nil {
		return nil, err
	}
	return unlock.NewFlag(store, unlock.FlagName(cfg.Gate.FlagPrefix, cfg.Gate.FlagVersion)), nil
}

// =============================================================================
// GATE ASSEMBLY
// =============================================================================

// NewFetcher builds the payload fetcher from the loader settings. Relative
// sources go to loader.base_url when set, otherwise to loader.root.
func NewFetcher(cfg *config.Config) (loader.Fetcher, error) {
	root := cfg.Loader.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("loader.root: %w", err)
	}
	hf, err := loader.NewHTTPFetcher(cfg.Loader.BaseURL, cfg.LoaderTimeout())
	if err != nil {
		return nil, fmt.Errorf("loader.base_url: %w", err)
	}
	return &loader.SourceFetcher{
		HTTP: hf,
		Dir:  loader.NewDirFetcher(root),
	}, nil
}

// GateParts is an assembled gate.
type GateParts struct {
	Orchestrator *gate.Orchestrator
	Loader       *loader.Loader
	Page         *loader.Page
	Flag         *unlock.Flag
}

// GateWiring lets each front end route page output and state changes.
type GateWiring struct {
	View    gate.View
	Write   func(string)
	Title   func(string)
	State   func(gate.State)
	Logger  *log.Logger
	Options []gate.Option
}

// BuildGate wires the allow-list validator, unlock flag, page, loader and
// orchestrator from the configuration.
func (a *App) BuildGate(w GateWiring) (*GateParts, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	flag, err := a.UnlockFlag()
	if err != nil {
		return nil, err
	}
	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	logger := w.Logger
	if logger == nil {
		logger = a.Logger
	}

	pageOpts := []loader.PageOption{
		loader.WithTitle(cfg.UI.Title),
		loader.WithPageLogger(logger),
	}
	if w.Write != nil {
		pageOpts = append(pageOpts, loader.WithWriter(w.Write))
	}
	if w.Title != nil {
		pageOpts = append(pageOpts, loader.WithTitleListener(w.Title))
	}
	page := loader.NewPage(pageOpts...)

	ldr := loader.New(page, fetcher, loader.Config{
		Src:        cfg.Loader.Src,
		Marker:     cfg.Loader.Marker,
		Timeout:    cfg.LoaderTimeout(),
		EntryPoint: cfg.Loader.EntryPoint,
	}, loader.WithLogger(logger), loader.WithDebug(cfg.Debug))

	validator := keys.NewValidator(keys.NewAllowList(cfg.Gate.Keys...))

	opts := []gate.Option{
		gate.WithPersistBeforeLoad(cfg.Gate.PersistBeforeLoad),
		gate.WithRateLimit(rate.Limit(cfg.Gate.RateLimit), cfg.Gate.RateBurst),
		gate.WithLogger(logger),
		gate.WithDebug(cfg.Debug),
		gate.WithAcceptHook(func() {
			if cfg.UI.UnlockedTitle != "" {
				page.SetTitle(cfg.UI.UnlockedTitle)
			}
		}),
	}
	if w.State != nil {
		opts = append(opts, gate.WithStateObserver(w.State))
	}
	opts = append(opts, w.Options...)

	orch := gate.New(validator, flag, w.View, ldr, opts...)
	return &GateParts{Orchestrator: orch, Loader: ldr, Page: page, Flag: flag}, nil
}
