// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package redeem

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/storage"
	"github.com/jeranaias/moongate/internal/unlock"
)

const testSalt = "pepper"

type message struct {
	text string
	mode Mode
}

type recordingForm struct {
	mu       sync.Mutex
	messages []message
	disabled bool
	focused  int
}

func (f *recordingForm) SetMessage(text string, mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message{text, mode})
}

func (f *recordingForm) SetDisabled(disabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = disabled
}

func (f *recordingForm) FocusInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused++
}

func (f *recordingForm) last() message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return message{}
	}
	return f.messages[len(f.messages)-1]
}

type recordingNav struct {
	urls []string
	at   []time.Time
	err  error
}

func (n *recordingNav) Navigate(_ context.Context, url string) error {
	n.urls = append(n.urls, url)
	n.at = append(n.at, time.Now())
	return n.err
}

type fixture struct {
	local   *storage.MemoryStore
	session *storage.MemoryStore
	used    *unlock.UsedSet
	form    *recordingForm
	nav     *recordingNav
	r       *Redeemer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		local:   storage.NewMemoryStore(),
		session: storage.NewMemoryStore(),
		form:    &recordingForm{},
		nav:     &recordingNav{},
	}
	f.used = unlock.NewUsedSet(f.local, unlock.DefaultUsedKey)
	validator := keys.NewHashValidator(testSalt, []string{keys.Digest(testSalt, "GOLD-1234")}, f.used)

	opts = append([]Option{
		WithSessionFlag(unlock.NewFlag(f.session, unlock.DefaultSessionKey)),
		WithDelay(10 * time.Millisecond),
		WithLogger(log.New(&bytes.Buffer{}, "", 0)),
	}, opts...)
	f.r = New(validator, f.form, f.nav, opts...)
	return f
}

func TestSubmit_Empty(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.r.Submit(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, keys.OutcomeEmpty, outcome)
	require.Equal(t, message{MsgEmpty, ModeError}, f.form.last())
	require.Equal(t, 1, f.form.focused)
	require.Len(t, f.form.messages, 1)
	require.Empty(t, f.used.List())
}

func TestSubmit_AcceptedNormalized(t *testing.T) {
	f := newFixture(t, WithRedirect("/app/"))

	start := time.Now()
	outcome, err := f.r.Submit(context.Background(), " gold-12 34 ")
	require.NoError(t, err)
	require.Equal(t, keys.OutcomeAccepted, outcome)

	require.Equal(t, message{MsgValidating, ModeDefault}, f.form.messages[0])
	require.Equal(t, message{MsgAccepted, ModeSuccess}, f.form.last())
	require.True(t, f.form.disabled)

	require.Equal(t, []string{"/app/"}, f.nav.urls)
	require.GreaterOrEqual(t, f.nav.at[0].Sub(start), 10*time.Millisecond)

	require.Equal(t, []string{keys.Digest(testSalt, "GOLD-1234")}, f.used.List())
	v, err := f.session.Get(unlock.DefaultSessionKey)
	require.NoError(t, err)
	require.Equal(t, "1", v)
}

func TestSubmit_Reused(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.Submit(context.Background(), "GOLD-1234")
	require.NoError(t, err)

	outcome, err := f.r.Submit(context.Background(), "gold-1234")
	require.NoError(t, err)
	require.Equal(t, keys.OutcomeReused, outcome)
	require.Equal(t, message{MsgReused, ModeError}, f.form.last())
	require.False(t, f.form.disabled)
	require.Len(t, f.nav.urls, 1)
}

func TestSubmit_Invalid(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.r.Submit(context.Background(), "BRONZE-1")
	require.NoError(t, err)
	require.Equal(t, keys.OutcomeInvalid, outcome)
	require.Equal(t, message{MsgInvalid, ModeError}, f.form.last())
	require.False(t, f.form.disabled)
	require.Equal(t, 1, f.form.focused)
	require.Empty(t, f.nav.urls)
	require.Empty(t, f.used.List())
	_, err = f.session.Get(unlock.DefaultSessionKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

type failingValidator struct{}

func (failingValidator) Validate(context.Context, string) (keys.Outcome, error) {
	return keys.OutcomeInvalid, errors.New("digest unavailable")
}

func TestSubmit_UnexpectedError(t *testing.T) {
	form := &recordingForm{}
	nav := &recordingNav{}
	r := New(failingValidator{}, form, nav, WithLogger(log.New(&bytes.Buffer{}, "", 0)))

	_, err := r.Submit(context.Background(), "anything")
	require.Error(t, err)
	require.Equal(t, message{MsgUnexpected, ModeError}, form.last())
	require.False(t, form.disabled)
	require.Empty(t, nav.urls)
}

func TestSubmit_NoSessionFlag(t *testing.T) {
	f := newFixture(t, WithSessionFlag(nil))

	_, err := f.r.Submit(context.Background(), "GOLD-1234")
	require.NoError(t, err)
	require.Equal(t, 0, f.session.Len())
}

func TestSubmit_NavigateError(t *testing.T) {
	f := newFixture(t)
	f.nav.err = errors.New("closed")

	outcome, err := f.r.Submit(context.Background(), "GOLD-1234")
	require.Equal(t, keys.OutcomeAccepted, outcome)
	require.ErrorContains(t, err, "navigate to /")
}

func TestSubmit_CancelledDuringDelay(t *testing.T) {
	f := newFixture(t, WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome, err := f.r.Submit(ctx, "GOLD-1234")
	require.Equal(t, keys.OutcomeAccepted, outcome)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, f.nav.urls)
}

func TestInputChanged(t *testing.T) {
	f := newFixture(t)

	_, _ = f.r.Submit(context.Background(), "BRONZE-1")
	f.r.InputChanged()
	require.Equal(t, message{"", ModeDefault}, f.form.last())

	count := len(f.form.messages)
	f.r.InputChanged()
	require.Len(t, f.form.messages, count, "non-error message is left alone")
}

func TestNavigatorFunc(t *testing.T) {
	var got string
	nav := NavigatorFunc(func(_ context.Context, url string) error {
		got = url
		return nil
	})
	require.NoError(t, nav.Navigate(context.Background(), "/x"))
	require.Equal(t, "/x", got)
}

func TestModeString(t *testing.T) {
	require.Equal(t, "default", ModeDefault.String())
	require.Equal(t, "success", ModeSuccess.String())
	require.Equal(t, "error", ModeError.String())
}
