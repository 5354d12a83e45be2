// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package redeemview

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/redeem"
	"github.com/jeranaias/moongate/internal/storage"
	"github.com/jeranaias/moongate/internal/ui/styles"
	"github.com/jeranaias/moongate/internal/unlock"
)

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func newRedeemer(form *ProgramForm) *redeem.Redeemer {
	local := storage.NewMemoryStore()
	validator := keys.NewHashValidator("s", []string{keys.Digest("s", "GOLD")}, unlock.NewUsedSet(local, ""))
	return redeem.New(validator, form, form,
		redeem.WithDelay(time.Millisecond),
		redeem.WithRedirect("/app"),
		redeem.WithLogger(log.New(io.Discard, "", 0)),
	)
}

// feed applies every message the adapter recorded to m.
func feed(t *testing.T, m Model, s *recordingSender) Model {
	t.Helper()
	for _, msg := range s.msgs {
		m, _ = update(t, m, msg)
	}
	s.msgs = nil
	return m
}

func TestRedeemForm_SuccessNavigates(t *testing.T) {
	form := NewProgramForm(nil)
	sender := &recordingSender{}
	form.Attach(sender)
	r := newRedeemer(form)

	m := New(context.Background(), r, styles.NewTheme(true), "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("gold")})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	done := cmd().(submitDoneMsg)
	require.NoError(t, done.err)
	require.Equal(t, keys.OutcomeAccepted, done.outcome)

	m = feed(t, m, sender)
	text, mode := m.Message()
	require.Equal(t, redeem.MsgAccepted, text)
	require.Equal(t, redeem.ModeSuccess, mode)
	require.True(t, m.Disabled())
	require.Equal(t, "/app", m.Destination())
}

func TestRedeemForm_InvalidReenables(t *testing.T) {
	form := NewProgramForm(nil)
	sender := &recordingSender{}
	form.Attach(sender)
	r := newRedeemer(form)

	m := New(context.Background(), r, styles.NewTheme(true), "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("silver")})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	cmd()

	m = feed(t, m, sender)
	text, mode := m.Message()
	require.Equal(t, redeem.MsgInvalid, text)
	require.Equal(t, redeem.ModeError, mode)
	require.False(t, m.Disabled())
	require.Empty(t, m.Destination())
	require.Contains(t, m.View(), redeem.MsgInvalid)
}

func TestRedeemForm_DisabledIgnoresKeys(t *testing.T) {
	m := New(context.Background(), nil, styles.NewTheme(true), "")
	m, _ = update(t, m, DisabledMsg{Disabled: true})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.Nil(t, cmd)
	require.Empty(t, m.Value())

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
}

func TestRedeemForm_Quit(t *testing.T) {
	m := New(context.Background(), nil, styles.NewTheme(true), "")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgramForm_DetachedLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	form := NewProgramForm(log.New(&buf, "", 0))
	form.SetMessage("x", redeem.ModeError)
	form.SetDisabled(true)
	require.NoError(t, form.Navigate(context.Background(), "/"))
	require.Equal(t, 1, strings.Count(buf.String(), "no program attached"))
}
