// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/moongate/internal/unlock"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidKey is returned by Submit when the key does not validate.
	ErrInvalidKey = errors.New("key not valid")
	// ErrBusy is returned by Submit while another submission is running.
	ErrBusy = errors.New("unlock already in progress")
	// ErrThrottled is returned by Submit when submissions come too fast.
	ErrThrottled = errors.New("too many attempts")
	// ErrLoadFailed wraps the loader error after a positive unlock.
	ErrLoadFailed = errors.New("failed to load app")
)

// =============================================================================
// STATE
// =============================================================================

// State is the orchestrator state.
type State int

const (
	StateLocked State = iota
	StateUnlocking
	StateUnlocked
	StateUnlockedLoadFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocking:
		return "unlocking"
	case StateUnlocked:
		return "unlocked"
	case StateUnlockedLoadFailed:
		return "unlocked-load-failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Validator decides whether a raw key is accepted.
type Validator interface {
	Validate(raw string) bool
}

// Loader loads the protected payload.
type Loader interface {
	Load(ctx context.Context) error
}

// Messages are the user-facing texts shown in the error region.
type Messages struct {
	InvalidKey string
	LoadFailed string
	Throttled  string
}

// DefaultMessages returns the stock texts.
func DefaultMessages() Messages {
	return Messages{
		InvalidKey: "Key not valid",
		LoadFailed: "Failed to load app, check the log",
		Throttled:  "Too many attempts, wait a moment",
	}
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator runs the unlock flow for one page life.
type Orchestrator struct {
	validator Validator
	flag      *unlock.Flag
	view      View
	loader    Loader

	persistBeforeLoad bool
	limiter           *rate.Limiter
	messages          Messages
	onState           func(State)
	onAccept          func()
	logger            *log.Logger
	debug             bool
	pageID            string

	mu    sync.Mutex
	state State
	busy  atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPersistBeforeLoad selects when the unlock flag is written. true (the
// default) writes it before the payload loads, so a failed load can be
// retried without the key surviving a restart; false writes it only after
// the payload loaded.
func WithPersistBeforeLoad(before bool) Option {
	return func(o *Orchestrator) {
		o.persistBeforeLoad = before
	}
}

// WithRateLimit throttles submissions to r per second with the given burst.
// A zero rate disables throttling.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(o *Orchestrator) {
		if r <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(r, burst)
	}
}

// WithMessages overrides the user-facing texts. Empty fields keep defaults.
func WithMessages(m Messages) Option {
	return func(o *Orchestrator) {
		if m.InvalidKey != "" {
			o.messages.InvalidKey = m.InvalidKey
		}
		if m.LoadFailed != "" {
			o.messages.LoadFailed = m.LoadFailed
		}
		if m.Throttled != "" {
			o.messages.Throttled = m.Throttled
		}
	}
}

// WithStateObserver is called after every state change.
func WithStateObserver(fn func(State)) Option {
	return func(o *Orchestrator) {
		o.onState = fn
	}
}

// WithAcceptHook is called once a key has been accepted, before the payload
// loads. It is not called for a restored unlock.
func WithAcceptHook(fn func()) Option {
	return func(o *Orchestrator) {
		o.onAccept = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDebug enables debug lines.
func WithDebug(debug bool) Option {
	return func(o *Orchestrator) {
		o.debug = debug
	}
}

// WithPageID fixes the page-life identifier used in log lines.
func WithPageID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.pageID = id
		}
	}
}

// New creates an orchestrator in the Locked state. A nil view is replaced
// by one that logs and ignores calls.
func New(validator Validator, flag *unlock.Flag, view View, loader Loader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator:         validator,
		flag:              flag,
		view:              view,
		loader:            loader,
		persistBeforeLoad: true,
		messages:          DefaultMessages(),
		logger:            log.Default(),
		pageID:            uuid.NewString(),
		state:             StateLocked,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.view == nil {
		o.view = &missingView{logger: o.logger}
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// PageID returns the page-life identifier.
func (o *Orchestrator) PageID() string {
	return o.pageID
}

// Start decides the initial state. A persisted unlock skips the gate and
// loads the payload straight away; the gate is only shown if that load
// fails. Otherwise the gate is shown and Start returns Locked.
func (o *Orchestrator) Start(ctx context.Context) (State, error) {
	if o.flag.IsUnlocked() {
		o.debugf("unlock restored from %s", o.flag.Name())
		o.view.Hide()
		return o.load(ctx)
	}
	o.setState(StateLocked)
	o.view.Show()
	return StateLocked, nil
}

// Submit runs one unlock attempt with raw. Validation finishes before any
// state or UI change.
func (o *Orchestrator) Submit(ctx context.Context, raw string) (State, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return o.State(), ErrBusy
	}
	defer o.busy.Store(false)

	if o.limiter != nil && !o.limiter.Allow() {
		o.view.ShowError(o.messages.Throttled)
		return o.State(), ErrThrottled
	}

	if !o.validator.Validate(raw) {
		o.debugf("rejected key")
		o.view.ShowError(o.messages.InvalidKey)
		return o.State(), ErrInvalidKey
	}

	o.view.ClearError()
	o.setState(StateUnlocking)
	if o.persistBeforeLoad {
		o.flag.SetUnlocked()
	}
	o.view.Hide()
	if o.onAccept != nil {
		o.onAccept()
	}
	return o.load(ctx)
}

// InputChanged clears the error: it only ever describes the last attempt.
func (o *Orchestrator) InputChanged() {
	o.view.ClearError()
}

func (o *Orchestrator) load(ctx context.Context) (State, error) {
	o.setState(StateUnlocking)

	if err := o.loader.Load(ctx); err != nil {
		o.logger.Printf("[gate %s] failed to inject app script: %v", o.shortID(), err)
		o.setState(StateUnlockedLoadFailed)
		o.view.ShowError(o.messages.LoadFailed)
		o.view.Show()
		return StateUnlockedLoadFailed, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	if !o.persistBeforeLoad {
		o.flag.SetUnlocked()
	}
	o.setState(StateUnlocked)
	o.debugf("unlocked")
	return StateUnlocked, nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	changed := o.state != s
	o.state = s
	o.mu.Unlock()

	if changed {
		o.debugf("state -> %s", s)
		if o.onState != nil {
			o.onState(s)
		}
	}
}

func (o *Orchestrator) shortID() string {
	if len(o.pageID) > 8 {
		return o.pageID[:8]
	}
	return o.pageID
}

func (o *Orchestrator) debugf(format string, args ...any) {
	if o.debug {
		o.logger.Printf("[gate "+o.shortID()+"] "+format, args...)
	}
}
