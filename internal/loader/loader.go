// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrLoadFailed covers fetch failures and payload exceptions.
	ErrLoadFailed = errors.New("script-load-failed")
	// ErrInsertFailed means the script element was gone at the deadline.
	ErrInsertFailed = errors.New("script-insert-failed")
	// ErrLoadTimeout means neither load nor error was observed by the deadline.
	ErrLoadTimeout = errors.New("script-load-timeout")
	// ErrEntryPointMissing means the payload ran but never defined the
	// configured entry point.
	ErrEntryPointMissing = errors.New("script-entry-point-missing")
)

// =============================================================================
// STATE
// =============================================================================

// LoadState is the lifecycle of the payload within a page life.
type LoadState int

const (
	StateNotRequested LoadState = iota
	StateInFlight
	StateLoaded
	StateFailed
)

// String returns the state name.
func (s LoadState) String() string {
	switch s {
	case StateNotRequested:
		return "not-requested"
	case StateInFlight:
		return "in-flight"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// LOADER
// =============================================================================

// Default configuration values.
const (
	DefaultSrc     = "script.js"
	DefaultMarker  = "data-app-script"
	DefaultTimeout = 3 * time.Second
)

// Config describes the payload.
type Config struct {
	// Src is the payload URL or site-relative path.
	Src string
	// Marker tags the inserted script so later calls can detect it.
	Marker string
	// Timeout is the safety deadline for one attempt.
	Timeout time.Duration
	// EntryPoint, when set, names a global function the payload must define
	// before the attempt counts as loaded.
	EntryPoint string
}

func (c Config) withDefaults() Config {
	if c.Src == "" {
		c.Src = DefaultSrc
	}
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Loader injects the payload into a page at most once per successful load.
type Loader struct {
	page   *Page
	fetch  Fetcher
	cfg    Config
	logger *log.Logger
	debug  bool

	mu       sync.Mutex
	state    LoadState
	current  *attempt
	attempts int
}

// attempt is one insertion. It settles exactly once, under Loader.mu.
type attempt struct {
	script  *Script
	done    chan struct{}
	timer   *time.Timer
	settled bool
	err     error
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for load diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDebug enables per-attempt debug lines.
func WithDebug(debug bool) Option {
	return func(l *Loader) {
		l.debug = debug
	}
}

// New creates a loader for cfg.Src on page.
func New(page *Page, fetch Fetcher, cfg Config, opts ...Option) *Loader {
	l := &Loader{
		page:   page,
		fetch:  fetch,
		cfg:    cfg.withDefaults(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current load state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Attempts returns how many insertions have been made.
func (l *Loader) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// Page returns the page the payload is inserted into.
func (l *Loader) Page() *Page {
	return l.page
}

// Load inserts the payload unless it is already present and waits for the
// attempt to settle. Concurrent callers share one attempt. Cancelling ctx
// stops this caller's wait; the attempt itself keeps its own deadline.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	if a := l.current; a != nil {
		l.mu.Unlock()
		l.debugf("joining in-flight load of %s", l.cfg.Src)
		return wait(ctx, a)
	}
	if l.page.HasMarker(l.cfg.Marker) {
		l.state = StateLoaded
		l.mu.Unlock()
		l.debugf("app script already injected")
		return nil
	}
	a := l.startLocked()
	l.mu.Unlock()

	return wait(ctx, a)
}

func (l *Loader) startLocked() *attempt {
	a := &attempt{
		script: &Script{ID: uuid.NewString(), Src: l.cfg.Src, Marker: l.cfg.Marker},
		done:   make(chan struct{}),
	}
	l.current = a
	l.state = StateInFlight
	l.attempts++

	l.page.Append(a.script)
	a.timer = time.AfterFunc(l.cfg.Timeout, func() { l.deadline(a) })
	go l.run(a)

	l.debugf("injecting %s (attempt %d, script %s)", l.cfg.Src, l.attempts, a.script.ID)
	return a
}

func (l *Loader) run(a *attempt) {
	// The fetch is not bound to the deadline: a late response is simply
	// discarded once the attempt has settled.
	src, err := l.fetch.Fetch(context.Background(), l.cfg.Src)
	if err != nil {
		l.finish(a, fmt.Errorf("%w: %v", ErrLoadFailed, err))
		return
	}
	if l.isSettled(a) || !l.page.Contains(a.script) {
		return
	}
	if err := l.page.Run(l.cfg.Src, src); err != nil {
		l.finish(a, fmt.Errorf("%w: %v", ErrLoadFailed, err))
		return
	}

	if l.cfg.EntryPoint != "" && !l.page.HasFunction(l.cfg.EntryPoint) {
		// Left for the deadline to decide.
		l.debugf("%s loaded but %s() is not defined yet", l.cfg.Src, l.cfg.EntryPoint)
		return
	}
	l.finish(a, nil)
}

func (l *Loader) deadline(a *attempt) {
	if l.isSettled(a) {
		return
	}
	switch {
	case !l.page.Contains(a.script):
		l.finish(a, ErrInsertFailed)
	case l.page.Running():
		if l.finish(a, fmt.Errorf("%w after %s", ErrLoadTimeout, l.cfg.Timeout)) {
			l.page.Interrupt("load timeout")
		}
	case l.cfg.EntryPoint != "":
		if l.page.HasFunction(l.cfg.EntryPoint) {
			l.finish(a, nil)
		} else {
			l.finish(a, fmt.Errorf("%w: %s", ErrEntryPointMissing, l.cfg.EntryPoint))
		}
	default:
		l.finish(a, fmt.Errorf("%w after %s", ErrLoadTimeout, l.cfg.Timeout))
	}
}

// finish settles a. It reports false when a had already settled.
func (l *Loader) finish(a *attempt, err error) bool {
	l.mu.Lock()
	if a.settled {
		l.mu.Unlock()
		return false
	}
	a.settled = true
	a.err = err
	if l.current == a {
		l.current = nil
	}
	if err == nil {
		l.state = StateLoaded
	} else {
		l.state = StateFailed
		l.page.Remove(a.script)
	}
	l.mu.Unlock()

	a.timer.Stop()
	close(a.done)

	if err != nil {
		l.logger.Printf("[loader] failed to load %s: %v", l.cfg.Src, err)
	} else {
		l.debugf("%s loaded", l.cfg.Src)
	}
	return true
}

func (l *Loader) isSettled(a *attempt) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return a.settled
}

func (l *Loader) debugf(format string, args ...any) {
	if l.debug {
		l.logger.Printf("[loader] "+format, args...)
	}
}

func wait(ctx context.Context, a *attempt) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
