package shading

import "sync"

// Logger is the subset of the engine logger the shading layer reports
// through. Variant clamping is worth a warning: it silently masks caller
// misconfiguration otherwise.
type Logger interface {
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}

var logMu sync.Mutex
var log Logger = nopLogger{}

// SetLogger installs the logger used by the shading layer. Safe to call at
// any time; nil restores the no-op logger.
func SetLogger(l Logger) {
	logMu.Lock()
	if l == nil {
		log = nopLogger{}
	} else {
		log = l
	}
	logMu.Unlock()
}

func warnf(format string, args ...any) {
	logMu.Lock()
	l := log
	logMu.Unlock()
	l.Warnf(format, args...)
}

// variantCache maps a variant key to its lazily-constructed singleton
// instance. Parameter handles are resolved against one program, so there must
// be exactly one instance per key for the life of the process; Teardown
// releases them all at shutdown.
type variantCache[K comparable, M any] struct {
	mu    sync.Mutex
	build func(K) *M
	items map[K]*M
}

func newVariantCache[K comparable, M any](build func(K) *M) *variantCache[K, M] {
	c := &variantCache[K, M]{build: build, items: map[K]*M{}}
	registerTeardown(c.teardown)
	return c
}

func (c *variantCache[K, M]) get(key K) *M {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.items[key]; ok {
		return m
	}
	m := c.build(key)
	c.items[key] = m
	return m
}

func (c *variantCache[K, M]) teardown() {
	c.mu.Lock()
	c.items = map[K]*M{}
	c.mu.Unlock()
}

var teardownMu sync.Mutex
var teardowns []func()

func registerTeardown(f func()) {
	teardownMu.Lock()
	teardowns = append(teardowns, f)
	teardownMu.Unlock()
}

// Teardown drops every cached material instance. Call once at shutdown, after
// the last frame has been submitted; instances created afterwards are rebuilt
// on demand.
func Teardown() {
	teardownMu.Lock()
	fns := append([]func(){}, teardowns...)
	teardownMu.Unlock()
	for _, f := range fns {
		f()
	}
}

// clampSampleCount maps a requested MSAA sample count onto the supported
// variant set {1,2,4,8}. Unsupported counts fall back to the 8-sample variant
// rather than failing.
func clampSampleCount(requested uint32) uint32 {
	switch requested {
	case 1, 2, 4:
		return requested
	case 8:
		return 8
	default:
		warnf("unsupported MSAA sample count %d, falling back to 8", requested)
		return 8
	}
}

func divideRoundUp(v, d uint32) uint32 {
	return (v + d - 1) / d
}
