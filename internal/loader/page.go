// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
)

// Script is one script element inserted into a Page.
type Script struct {
	ID     string
	Src    string
	Marker string
}

// Page is the document analogue the payload is inserted into.
type Page struct {
	domMu   sync.Mutex
	scripts []*Script
	title   string
	onWrite func(string)
	onTitle func(string)

	// vmMu confines the goja runtime, which is not goroutine-safe.
	vmMu    sync.Mutex
	vm      *goja.Runtime
	running atomic.Bool

	logger *log.Logger
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithWriter receives everything the payload passes to document.write.
func WithWriter(fn func(string)) PageOption {
	return func(p *Page) {
		p.onWrite = fn
	}
}

// WithTitleListener is called whenever the document title changes.
func WithTitleListener(fn func(string)) PageOption {
	return func(p *Page) {
		p.onTitle = fn
	}
}

// WithPageLogger routes payload console output to logger.
func WithPageLogger(logger *log.Logger) PageOption {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTitle sets the initial document title.
func WithTitle(title string) PageOption {
	return func(p *Page) {
		p.title = title
	}
}

// NewPage creates an empty page with a fresh runtime.
func NewPage(opts ...PageOption) *Page {
	p := &Page{
		vm:     goja.New(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.installGlobals()
	return p
}

// =============================================================================
// SCRIPT ELEMENTS
// =============================================================================

// Append inserts s at the end of the page body.
func (p *Page) Append(s *Script) {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	p.scripts = append(p.scripts, s)
}

// Remove detaches s. It reports whether s was present.
func (p *Page) Remove(s *Script) bool {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	for i, cur := range p.scripts {
		if cur == s {
			p.scripts = append(p.scripts[:i], p.scripts[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveMarker detaches every script carrying marker and returns how many
// were removed.
func (p *Page) RemoveMarker(marker string) int {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	kept := p.scripts[:0]
	removed := 0
	for _, s := range p.scripts {
		if s.Marker == marker {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	p.scripts = kept
	return removed
}

// Contains reports whether s is still attached.
func (p *Page) Contains(s *Script) bool {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	for _, cur := range p.scripts {
		if cur == s {
			return true
		}
	}
	return false
}

// HasMarker reports whether any attached script carries marker.
func (p *Page) HasMarker(marker string) bool {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	for _, s := range p.scripts {
		if s.Marker == marker {
			return true
		}
	}
	return false
}

// Scripts returns a snapshot of the attached scripts in document order.
func (p *Page) Scripts() []Script {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	out := make([]Script, len(p.scripts))
	for i, s := range p.scripts {
		out[i] = *s
	}
	return out
}

// Title returns the document title.
func (p *Page) Title() string {
	p.domMu.Lock()
	defer p.domMu.Unlock()
	return p.title
}

// SetTitle sets the document title.
func (p *Page) SetTitle(title string) {
	p.domMu.Lock()
	changed := p.title != title
	p.title = title
	p.domMu.Unlock()

	if changed && p.onTitle != nil {
		p.onTitle(title)
	}
}

// =============================================================================
// RUNTIME
// =============================================================================

// Run compiles and executes src as the script named name.
func (p *Page) Run(name string, src []byte) error {
	program, err := goja.Compile(name, string(src), false)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	p.vmMu.Lock()
	defer p.vmMu.Unlock()
	// A pending interrupt belongs to an attempt that already gave up.
	p.vm.ClearInterrupt()
	p.running.Store(true)
	defer p.running.Store(false)
	defer p.vm.ClearInterrupt()

	if _, err := p.vm.RunProgram(program); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Running reports whether a script is executing right now.
func (p *Page) Running() bool {
	return p.running.Load()
}

// Interrupt stops the script currently executing, if any. Safe to call from
// any goroutine.
func (p *Page) Interrupt(reason string) {
	p.vm.Interrupt(reason)
}

// HasFunction reports whether the global name is a callable function. It
// blocks while a script is executing.
func (p *Page) HasFunction(name string) bool {
	p.vmMu.Lock()
	defer p.vmMu.Unlock()
	_, ok := goja.AssertFunction(p.vm.Get(name))
	return ok
}

// Call invokes the global function name with string arguments.
func (p *Page) Call(name string, args ...string) (string, error) {
	p.vmMu.Lock()
	defer p.vmMu.Unlock()
	fn, ok := goja.AssertFunction(p.vm.Get(name))
	if !ok {
		return "", fmt.Errorf("%s is not a function", name)
	}
	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = p.vm.ToValue(a)
	}
	res, err := fn(goja.Undefined(), values...)
	if err != nil {
		return "", err
	}
	if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
		return "", nil
	}
	return res.String(), nil
}

func (p *Page) installGlobals() {
	vm := p.vm
	vm.Set("window", vm.GlobalObject())

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		level := level
		console.Set(level, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			p.logger.Printf("[payload:%s] %s", level, strings.Join(parts, " "))
			return goja.Undefined()
		})
	}
	vm.Set("console", console)

	document := vm.NewObject()
	document.Set("write", func(call goja.FunctionCall) goja.Value {
		var sb strings.Builder
		for _, a := range call.Arguments {
			sb.WriteString(a.String())
		}
		if p.onWrite != nil {
			p.onWrite(sb.String())
		}
		return goja.Undefined()
	})
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(p.Title())
	})
	setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		p.SetTitle(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = document.DefineAccessorProperty("title", getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
	vm.Set("document", document)
}
