// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for moongate.
//
// Configuration file locations (in order of precedence):
//   - MOONGATE_* environment variables
//   - ~/.moongate/config.toml
//   - ~/.moongate/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/jeranaias/moongate/internal/storage"
	"github.com/jeranaias/moongate/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOONGATE_"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete moongate configuration.
type Config struct {
	Version string `toml:"version" json:"version"`
	Debug   bool   `toml:"debug" json:"debug" env:"DEBUG"`

	Gate   GateConfig   `toml:"gate" json:"gate" envPrefix:"GATE_"`
	Redeem RedeemConfig `toml:"redeem" json:"redeem" envPrefix:"REDEEM_"`
	Loader LoaderConfig `toml:"loader" json:"loader" envPrefix:"LOADER_"`
	Store  StoreConfig  `toml:"store" json:"store" envPrefix:"STORE_"`
	UI     UIConfig     `toml:"ui" json:"ui" envPrefix:"UI_"`
}

// GateConfig configures the key gate.
type GateConfig struct {
	// Keys is the plaintext allow-list, compared after normalization.
	Keys []string `toml:"keys" json:"keys" env:"KEYS" envSeparator:","`

	// FlagPrefix and FlagVersion form the persisted flag name. Bumping the
	// version invalidates earlier unlocks.
	FlagPrefix  string `toml:"flag_prefix" json:"flag_prefix" env:"FLAG_PREFIX"`
	FlagVersion string `toml:"flag_version" json:"flag_version" env:"FLAG_VERSION"`

	// PersistBeforeLoad writes the flag before the payload has loaded.
	PersistBeforeLoad bool `toml:"persist_before_load" json:"persist_before_load" env:"PERSIST_BEFORE_LOAD"`

	// RateLimit is submissions per second; 0 disables throttling.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" env:"RATE_LIMIT"`
	RateBurst int     `toml:"rate_burst" json:"rate_burst" env:"RATE_BURST"`
}

// RedeemConfig configures the hash-based redeem form.
type RedeemConfig struct {
	Salt     string   `toml:"salt" json:"salt" env:"SALT"`
	Hashes   []string `toml:"hashes" json:"hashes" env:"HASHES" envSeparator:","`
	Redirect string   `toml:"redirect" json:"redirect" env:"REDIRECT"`

	// MarkInSession sets the session "unlocked" marker on success.
	MarkInSession bool `toml:"mark_in_session" json:"mark_in_session" env:"MARK_IN_SESSION"`
	// PreventReuse records redeemed digests and refuses them afterwards.
	PreventReuse bool `toml:"prevent_reuse" json:"prevent_reuse" env:"PREVENT_REUSE"`

	DelayMS int `toml:"delay_ms" json:"delay_ms" env:"DELAY_MS"`
}

// LoaderConfig configures payload loading.
type LoaderConfig struct {
	// Src is the payload path or URL. Relative paths resolve against BaseURL
	// when set, otherwise against Root.
	Src     string `toml:"src" json:"src" env:"SRC"`
	BaseURL string `toml:"base_url" json:"base_url" env:"BASE_URL"`
	Root    string `toml:"root" json:"root" env:"ROOT"`

	Marker    string `toml:"marker" json:"marker" env:"MARKER"`
	TimeoutMS int    `toml:"timeout_ms" json:"timeout_ms" env:"TIMEOUT_MS"`

	// EntryPoint, when set, must be a global function after the payload ran.
	EntryPoint string `toml:"entry_point" json:"entry_point" env:"ENTRY_POINT"`
}

// StoreConfig configures the persistent store.
type StoreConfig struct {
	Backend string `toml:"backend" json:"backend" env:"BACKEND"`
	// Path defaults to state.json or state.db in the config directory.
	Path string `toml:"path" json:"path" env:"PATH"`
	// Session backs the redeem "unlocked" marker. "memory" ends the session
	// with the process; other backends use session.json or session.db. The
	// used-key list always lives in the main store.
	Session string `toml:"session" json:"session" env:"SESSION"`
}

// UIConfig configures the terminal front end.
type UIConfig struct {
	// Mode is "tui" (full screen) or "line" (plain prompt).
	Mode  string `toml:"mode" json:"mode" env:"MODE"`
	Title string `toml:"title" json:"title" env:"TITLE"`
	// UnlockedTitle replaces the document title once a key is accepted.
	UnlockedTitle string `toml:"unlocked_title" json:"unlocked_title" env:"UNLOCKED_TITLE"`
	// GlamourStyle styles rendered payload content: auto, dark, light, notty.
	GlamourStyle string `toml:"glamour_style" json:"glamour_style" env:"GLAMOUR_STYLE"`
	NoColor      bool   `toml:"no_color" json:"no_color" env:"NO_COLOR"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,

		Gate: GateConfig{
			Keys:              []string{"moon2025", "earlyaccess"},
			FlagPrefix:        "moon_access_unlocked",
			FlagVersion:       "v2",
			PersistBeforeLoad: true,
			RateLimit:         2,
			RateBurst:         5,
		},

		Redeem: RedeemConfig{
			Redirect:      "/",
			MarkInSession: true,
			PreventReuse:  true,
			DelayMS:       700,
		},

		Loader: LoaderConfig{
			Src:       "script.js",
			Root:      ".",
			Marker:    "data-app-script",
			TimeoutMS: 3000,
		},

		Store: StoreConfig{
			Backend: storage.BackendFile,
			Session: storage.BackendMemory,
		},

		UI: UIConfig{
			Mode:         "tui",
			Title:         "Moongate",
			UnlockedTitle: "Moon",
			GlamourStyle:  "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the moongate configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".moongate"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s). TOML is tried first,
// then JSON, then defaults. Environment overrides are applied last.
// A broken file is reported alongside the defaults it was replaced with.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = err
			}
		}
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file over the defaults.
// Files ending in .json are read as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// cfg's current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return err
	}
	c.Migrate()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with a header comment.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# moongate configuration file\n")
	b.WriteString("# Generated by moongate - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Gate.FlagPrefix) == "" {
		errs = append(errs, ValidationError{"gate.flag_prefix", "must not be empty"})
	}
	if c.Gate.RateLimit < 0 {
		errs = append(errs, ValidationError{"gate.rate_limit", "must not be negative"})
	}
	if c.Gate.RateLimit > 0 && c.Gate.RateBurst < 1 {
		errs = append(errs, ValidationError{"gate.rate_burst", "must be at least 1 when rate_limit is set"})
	}

	for i, h := range c.Redeem.Hashes {
		if !isHexDigest(h) {
			errs = append(errs, ValidationError{
				fmt.Sprintf("redeem.hashes[%d]", i),
				"must be a 64 character lowercase hex SHA-256 digest",
			})
		}
	}
	if c.Redeem.DelayMS < 0 {
		errs = append(errs, ValidationError{"redeem.delay_ms", "must not be negative"})
	}

	if strings.TrimSpace(c.Loader.Src) == "" {
		errs = append(errs, ValidationError{"loader.src", "must not be empty"})
	}
	if strings.TrimSpace(c.Loader.Marker) == "" {
		errs = append(errs, ValidationError{"loader.marker", "must not be empty"})
	}
	if c.Loader.TimeoutMS <= 0 {
		errs = append(errs, ValidationError{"loader.timeout_ms", "must be positive"})
	} else if c.Loader.TimeoutMS > 60000 {
		errs = append(errs, ValidationError{"loader.timeout_ms", "must be at most 60000"})
	}
	if c.Loader.BaseURL != "" &&
		!strings.HasPrefix(c.Loader.BaseURL, "http://") && !strings.HasPrefix(c.Loader.BaseURL, "https://") {
		errs = append(errs, ValidationError{"loader.base_url", "must start with http:// or https://"})
	}

	if !isKnownBackend(c.Store.Backend) {
		errs = append(errs, ValidationError{
			"store.backend",
			fmt.Sprintf("must be one of %s", strings.Join(storage.Backends(), ", ")),
		})
	}
	if c.Store.Session != "" && !isKnownBackend(c.Store.Session) {
		errs = append(errs, ValidationError{
			"store.session",
			fmt.Sprintf("must be one of %s", strings.Join(storage.Backends(), ", ")),
		})
	}

	switch c.UI.Mode {
	case "tui", "line":
	default:
		errs = append(errs, ValidationError{"ui.mode", "must be tui or line"})
	}
	switch c.UI.GlamourStyle {
	case "auto", "dark", "light", "notty":
	default:
		errs = append(errs, ValidationError{"ui.glamour_style", "must be auto, dark, light or notty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func isKnownBackend(backend string) bool {
	for _, b := range storage.Backends() {
		if b == backend {
			return true
		}
	}
	return false
}

// SetDefaults fills zero values that have a meaningful default.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Gate.FlagPrefix == "" {
		c.Gate.FlagPrefix = defaults.Gate.FlagPrefix
	}
	if c.Redeem.Redirect == "" {
		c.Redeem.Redirect = defaults.Redeem.Redirect
	}
	if c.Loader.Src == "" {
		c.Loader.Src = defaults.Loader.Src
	}
	if c.Loader.Root == "" {
		c.Loader.Root = defaults.Loader.Root
	}
	if c.Loader.Marker == "" {
		c.Loader.Marker = defaults.Loader.Marker
	}
	if c.Loader.TimeoutMS == 0 {
		c.Loader.TimeoutMS = defaults.Loader.TimeoutMS
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.Session == "" {
		c.Store.Session = defaults.Store.Session
	}
	if c.UI.Mode == "" {
		c.UI.Mode = defaults.UI.Mode
	}
	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.GlamourStyle == "" {
		c.UI.GlamourStyle = defaults.UI.GlamourStyle
	}
}

// Migrate rewrites values from older config files.
func (c *Config) Migrate() {
	// "session" was the name of the in-memory backend before "memory".
	if c.Store.Backend == "session" {
		c.Store.Backend = storage.BackendMemory
	}
	c.Loader.Src = strings.TrimSpace(c.Loader.Src)
	c.Redeem.Hashes = lowerAll(c.Redeem.Hashes)
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// LoaderTimeout returns the payload deadline.
func (c *Config) LoaderTimeout() time.Duration {
	return time.Duration(c.Loader.TimeoutMS) * time.Millisecond
}

// RedeemDelay returns the pause before navigating after a redeem.
func (c *Config) RedeemDelay() time.Duration {
	return time.Duration(c.Redeem.DelayMS) * time.Millisecond
}

// StorePath returns the configured store path, or the default location for
// the backend inside the config directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Store.Backend == storage.BackendSQLite {
		return filepath.Join(dir, "state.db"), nil
	}
	return filepath.Join(dir, "state.json"), nil
}

// SessionPath returns where a persistent session backend keeps its data.
func (c *Config) SessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Store.Session == storage.BackendSQLite {
		return filepath.Join(dir, "session.db"), nil
	}
	return filepath.Join(dir, "session.json"), nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies MOONGATE_* environment variables. Only variables
// that are set override the loaded values, e.g.
//
//	MOONGATE_DEBUG=1
//	MOONGATE_GATE_KEYS=alpha,beta
//	MOONGATE_LOADER_TIMEOUT_MS=5000
//	MOONGATE_STORE_BACKEND=sqlite
func (c *Config) ApplyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "loader.src").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g. "loader.src").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. "timeout_ms" becomes "TimeoutMs", matched case-insensitively.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(strVal == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"debug",
		"gate.keys",
		"gate.flag_prefix",
		"gate.flag_version",
		"gate.persist_before_load",
		"gate.rate_limit",
		"gate.rate_burst",
		"redeem.salt",
		"redeem.hashes",
		"redeem.redirect",
		"redeem.mark_in_session",
		"redeem.prevent_reuse",
		"redeem.delay_ms",
		"loader.src",
		"loader.base_url",
		"loader.root",
		"loader.marker",
		"loader.timeout_ms",
		"loader.entry_point",
		"store.backend",
		"store.path",
		"store.session",
		"ui.mode",
		"ui.title",
		"ui.unlocked_title",
		"ui.glamour_style",
		"ui.no_color",
	}
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Gate.Keys = append([]string(nil), c.Gate.Keys...)
	clone.Redeem.Hashes = append([]string(nil), c.Redeem.Hashes...)
	return &clone
}

// String returns the config as JSON with secrets redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// Redacted returns a copy with the allow-listed keys and the salt masked.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if len(safe.Gate.Keys) > 0 {
		safe.Gate.Keys = []string{fmt.Sprintf("[REDACTED x%d]", len(c.Gate.Keys))}
	}
	if safe.Redeem.Salt != "" {
		safe.Redeem.Salt = "[REDACTED]"
	}
	return safe
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
