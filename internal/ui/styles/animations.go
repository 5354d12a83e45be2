// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"math"
	"time"
)

// =============================================================================
// SHAKE ANIMATION
// =============================================================================

// ShakeConfig describes the horizontal shake of the gate card after an error.
type ShakeConfig struct {
	Amplitude int
	Frames    int
	FPS       int
}

// CardShake is the shake played when a key is rejected.
var CardShake = ShakeConfig{
	Amplitude: 3,
	Frames:    8,
	FPS:       30,
}

// Duration returns the duration of one frame.
func (s ShakeConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.FPS)
}

// Offset returns the left offset in cells for frame. Frames outside the
// animation, including the final one, are at rest.
func (s ShakeConfig) Offset(frame int) int {
	if frame <= 0 || frame >= s.Frames-1 {
		return s.Amplitude
	}
	progress := float64(frame) / float64(s.Frames-1)
	damp := 1 - EaseOutQuad(progress)
	swing := math.Sin(float64(frame) * math.Pi / 2)
	return s.Amplitude + int(math.Round(float64(s.Amplitude)*damp*swing))
}

// =============================================================================
// EASING
// =============================================================================

// EaseOutQuad decelerates to zero velocity.
func EaseOutQuad(t float64) float64 {
	return t * (2 - t)
}

// =============================================================================
// SPINNER
// =============================================================================

// SpinnerConfig holds frames for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// LineSpinner - Simple line rotation, shown while the payload loads
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	return time.Second / time.Duration(s.FPS)
}
