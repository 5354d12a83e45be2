// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the moongate TUI.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values:

	Purple  - gate card border and titles
	Cyan    - input prompt and headers
	Emerald - success messages
	Rose    - error messages
	Amber   - in-progress states

Status indicators add a shape marker so state is readable without color.

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.NoColor)
	card := theme.Card.Render(body)

With no color every style degrades to plain text and borders.

# Animation System (animations.go)

CardShake describes the rejected-key shake: a damped horizontal swing whose
per-frame offset comes from Offset(frame).
*/
package styles
