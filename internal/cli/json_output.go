// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for scripts and CI.
//
// Every command that accepts --json wraps its result in the same envelope.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// JSONResponse is the envelope for all --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// ErrorType classifies Error for callers that branch on it.
	ErrorType string `json:"error_type,omitempty"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response to stdout as indented JSON.
func (r *JSONResponse) Print() error {
	return r.Fprint(os.Stdout)
}

// Fprint writes the response to w as indented JSON.
func (r *JSONResponse) Fprint(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the response as indented JSON.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// RESPONSE DATA TYPES
// =============================================================================

// VersionData is the data for "moongate version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// StatusData is the data for "moongate status --json".
type StatusData struct {
	Unlocked   bool     `json:"unlocked"`
	FlagName   string   `json:"flag_name"`
	Store      string   `json:"store"`
	StorePath  string   `json:"store_path,omitempty"`
	ConfigPath string   `json:"config_path,omitempty"`
	Payload    string   `json:"payload"`
	Keys       int      `json:"keys"`
	Hashes     int      `json:"hashes"`
	UsedKeys   []string `json:"used_keys,omitempty"`
}

// UnlockData is the data for gate, debug unlock and debug reset.
type UnlockData struct {
	State    string `json:"state"`
	Attempts int    `json:"load_attempts,omitempty"`
	Title    string `json:"title,omitempty"`
}

// ValidateData is the data for "moongate debug validate --json".
type ValidateData struct {
	Key   string `json:"key"`
	Valid bool   `json:"valid"`
}

// RedeemData is the data for "moongate redeem --key ... --json".
type RedeemData struct {
	Outcome  string `json:"outcome"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// HashData is one digest printed by "moongate hash".
type HashData struct {
	Key    string `json:"key"`
	Digest string `json:"digest"`
}
