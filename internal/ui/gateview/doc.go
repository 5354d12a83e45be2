// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateview renders the key gate in the terminal.
//
// Model is the full-screen bubbletea front end: a centered gate card over the
// unlocked content, which stays hidden and unscrollable while the card is up.
// ProgramView is the gate.View that drives a running Model through
// tea.Program.Send, and LineView is a plain prompt built on liner for
// terminals where a full-screen UI is unwanted.
//
// All Model state changes happen in Update. Controller calls run inside
// tea.Cmd goroutines, never on the event loop, because the controller calls
// back into ProgramView which blocks until the loop receives the message.
package gateview
