// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package redeem

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/moongate/internal/keys"
	"github.com/jeranaias/moongate/internal/unlock"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultRedirect is where an accepted key sends the user.
	DefaultRedirect = "/"
	// DefaultDelay is how long the success message stays up before navigating.
	DefaultDelay = 700 * time.Millisecond
)

const (
	MsgEmpty      = "Please enter a key."
	MsgValidating = "Validating key..."
	MsgReused     = "This key was already used in this browser session."
	MsgInvalid    = "Invalid key. Please check and try again."
	MsgAccepted   = "Key accepted, redirecting you now..."
	MsgUnexpected = "An unexpected error occurred. Try again later."
)

// ErrBusy is returned when a submission is already running.
var ErrBusy = errors.New("redeem already in progress")

// =============================================================================
// COLLABORATORS
// =============================================================================

// Mode selects how a form message is styled.
type Mode int

const (
	ModeDefault Mode = iota
	ModeSuccess
	ModeError
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSuccess:
		return "success"
	case ModeError:
		return "error"
	default:
		return "default"
	}
}

// Form is the redeem form UI.
type Form interface {
	SetMessage(text string, mode Mode)
	SetDisabled(disabled bool)
	FocusInput()
}

// Navigator leaves the form for url.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Validator decides the outcome of a raw key.
type Validator interface {
	Validate(ctx context.Context, raw string) (keys.Outcome, error)
}

// =============================================================================
// REDEEMER
// =============================================================================

// Redeemer runs redeem submissions against one form.
type Redeemer struct {
	validator Validator
	form      Form
	nav       Navigator
	session   *unlock.Flag
	redirect  string
	delay     time.Duration
	logger    *log.Logger

	busy atomic.Bool

	mu       sync.Mutex
	lastMode Mode
}

// Option configures a Redeemer.
type Option func(*Redeemer)

// WithSessionFlag marks the session unlocked on success. Nil disables it.
func WithSessionFlag(flag *unlock.Flag) Option {
	return func(r *Redeemer) {
		r.session = flag
	}
}

// WithRedirect sets the destination after success.
func WithRedirect(url string) Option {
	return func(r *Redeemer) {
		if url != "" {
			r.redirect = url
		}
	}
}

// WithDelay sets the pause between the success message and navigation.
func WithDelay(d time.Duration) Option {
	return func(r *Redeemer) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Redeemer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Redeemer.
func New(validator Validator, form Form, nav Navigator, opts ...Option) *Redeemer {
	r := &Redeemer{
		validator: validator,
		form:      form,
		nav:       nav,
		redirect:  DefaultRedirect,
		delay:     DefaultDelay,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redirect returns the configured destination.
func (r *Redeemer) Redirect() string {
	return r.redirect
}

// Submit redeems raw. On acceptance it blocks for the success delay and
// then navigates; the form stays disabled afterwards. The returned error is
// non-nil only for unexpected failures, never for a plain invalid key.
func (r *Redeemer) Submit(ctx context.Context, raw string) (keys.Outcome, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return keys.OutcomeEmpty, ErrBusy
	}
	defer r.busy.Store(false)

	if strings.TrimSpace(raw) == "" {
		r.setMessage(MsgEmpty, ModeError)
		r.form.FocusInput()
		return keys.OutcomeEmpty, nil
	}

	r.form.SetDisabled(true)
	r.setMessage(MsgValidating, ModeDefault)

	outcome, err := r.validator.Validate(ctx, raw)
	if err != nil {
		r.logger.Printf("[redeem] redeem error: %v", err)
		r.setMessage(MsgUnexpected, ModeError)
		r.form.SetDisabled(false)
		return outcome, err
	}

	switch outcome {
	case keys.OutcomeEmpty:
		r.setMessage(MsgEmpty, ModeError)
		r.form.SetDisabled(false)
		r.form.FocusInput()
		return outcome, nil
	case keys.OutcomeReused:
		r.setMessage(MsgReused, ModeError)
		r.form.SetDisabled(false)
		return outcome, nil
	case keys.OutcomeInvalid:
		r.setMessage(MsgInvalid, ModeError)
		r.form.SetDisabled(false)
		r.form.FocusInput()
		return outcome, nil
	}

	r.session.SetUnlocked()
	r.setMessage(MsgAccepted, ModeSuccess)

	if err := r.wait(ctx); err != nil {
		return outcome, err
	}
	if err := r.nav.Navigate(ctx, r.redirect); err != nil {
		r.logger.Printf("[redeem] navigate to %s: %v", r.redirect, err)
		return outcome, fmt.Errorf("navigate to %s: %w", r.redirect, err)
	}
	return outcome, nil
}

// InputChanged clears the message if it is an error.
func (r *Redeemer) InputChanged() {
	r.mu.Lock()
	isErr := r.lastMode == ModeError
	r.mu.Unlock()

	if isErr {
		r.setMessage("", ModeDefault)
	}
}

func (r *Redeemer) setMessage(text string, mode Mode) {
	r.mu.Lock()
	r.lastMode = mode
	r.mu.Unlock()
	r.form.SetMessage(text, mode)
}

func (r *Redeemer) wait(ctx context.Context) error {
	if r.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
