// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by all moongate commands.
//
// Handlers always return errors; main decides how to display them and which
// exit code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/moongate/internal/gate"
	"github.com/jeranaias/moongate/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a config file or environment error
	ExitConfigError = 3
	// ExitKeyRejected indicates a key was not accepted
	ExitKeyRejected = 4
	// ExitLoadError indicates the payload failed to load
	ExitLoadError = 5
	// ExitStorageError indicates the persistent store could not be used
	ExitStorageError = 6
	// ExitCancelled indicates the user quit before unlocking
	ExitCancelled = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "debug", "config")
	Action  string // Action being performed (e.g., "reset", "set")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports a malformed command line.
type UsageError struct {
	Message string
	Usage   string
}

func (e *UsageError) Error() string {
	if e.Usage != "" {
		return fmt.Sprintf("%s\nUsage: %s", e.Message, e.Usage)
	}
	return e.Message
}

// ConfigError wraps a failure to load or validate configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "config: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrCancelled is returned when the user leaves the gate while it is locked.
var ErrCancelled = errors.New("gate closed while locked")

// ErrNotRedeemed is returned by a one-shot redeem whose key was not accepted.
var ErrNotRedeemed = errors.New("key not redeemed")

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{
		Message: fmt.Sprintf("missing required argument: %s", argName),
		Usage:   usage,
	}
}

// ErrUnknownSubcommand reports an unrecognized subcommand.
func ErrUnknownSubcommand(command, sub, usage string) error {
	return &UsageError{
		Message: fmt.Sprintf("unknown %s subcommand: %s", command, sub),
		Usage:   usage,
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err to stderr, or as a JSON envelope on stdout.
func DisplayError(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		resp := NewJSONErrorResponse(command, err)
		resp.ErrorType = errorType(err)
		resp.Print()
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func errorType(err error) string {
	var usageErr *UsageError
	var cmdErr *CommandError
	var cfgErr *ConfigError
	switch {
	case errors.As(err, &usageErr):
		return "usage_error"
	case errors.As(err, &cfgErr):
		return "config_error"
	case errors.Is(err, gate.ErrInvalidKey), errors.Is(err, gate.ErrThrottled), errors.Is(err, ErrNotRedeemed):
		return "key_rejected"
	case errors.Is(err, gate.ErrLoadFailed):
		return "load_error"
	case errors.As(err, &cmdErr):
		return "command_error"
	default:
		return "generic_error"
	}
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	switch {
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.Is(err, gate.ErrInvalidKey), errors.Is(err, gate.ErrThrottled), errors.Is(err, ErrNotRedeemed):
		return ExitKeyRejected
	case errors.Is(err, gate.ErrLoadFailed):
		return ExitLoadError
	case errors.Is(err, storage.ErrUnavailable):
		return ExitStorageError
	}
	return ExitGeneralError
}
