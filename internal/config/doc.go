// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for moongate.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - GateConfig: allow-list, unlock flag naming and submit throttling
//   - RedeemConfig: salt, digests and redirect for the redeem form
//   - LoaderConfig: payload location, marker, deadline and entry point
//   - StoreConfig: persistent store backend and path
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MOONGATE_*)
//   - ~/.moongate/config.toml
//   - ~/.moongate/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.LoaderTimeout()
package config
