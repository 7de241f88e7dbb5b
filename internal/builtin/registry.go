// Package builtin implements the built-in function library (spec.md
// component H): the ~50 named functions a FunctionCall block dispatches to,
// grounded on the teacher's sync.RWMutex-guarded name→impl registry
// (runtime/decorators/registry.go) and on original_source/src/fun.rs's
// per-function match arms for exact semantics.
package builtin

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

// PropertyTable is the process-wide property store a Context reads/writes;
// satisfied by *config.Properties (kept as an interface here to avoid
// internal/builtin importing internal/config, which would create an import
// cycle once config needs the Bool/Number value model).
type PropertyTable interface {
	Get(key string) (string, bool)
	Set(key, val string)
	All() map[string]string
}

// Func is a built-in's implementation. b is the FunctionCall block: b.Params
// holds its raw, unexpanded argument text and b.Parent is the lexical scope
// the call executes in (where `assign`, `exec`'s capture, etc. write).
type Func func(ctx *Context, b *block.Block, prev value.Value) value.Value

// Context carries the ambient collaborators every built-in may need.
type Context struct {
	Log        *slog.Logger
	Props      PropertyTable
	Stdin      io.Reader
	Stdout     io.Writer
	Version    string
}

// NewContext builds a Context with OS stdio and a default logger.
func NewContext(props PropertyTable, log *slog.Logger, version string) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{Log: log, Props: props, Stdin: os.Stdin, Stdout: os.Stdout, Version: version}
}

// lookupProp adapts Context.Props to value.PropertyLookup.
func (c *Context) lookupProp(name string) (string, bool) {
	if c.Props == nil {
		return "", false
	}
	return c.Props.Get(name)
}

// LookupProp exposes lookupProp for callers outside this package (the
// interpreter's own control-flow evaluation needs the same
// value.PropertyLookup used internally by built-ins).
func (c *Context) LookupProp(name string) (string, bool) {
	return c.lookupProp(name)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Func)
)

// Register binds name to fn in the global built-in registry. Called from
// each file's init() in this package, matching the teacher's
// registry.RegisterDecorator pattern.
func Register(name string, fn Func) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// Lookup returns the built-in bound to name, if any.
func Lookup(name string) (Func, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// Names returns every registered built-in name, for -targethelp-style
// introspection and tests.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
