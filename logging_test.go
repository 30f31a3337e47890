package halcyon

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon3d/halcyon/render/shading"
)

// testLogger records messages per level.
type testLogger struct {
	mu    sync.Mutex
	debug []string
	warns []string
}

func (l *testLogger) DebugEnabled() bool    { return true }
func (l *testLogger) SetDebug(enabled bool) {}

func (l *testLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *testLogger) Infof(format string, args ...any) {}

func (l *testLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *testLogger) Errorf(format string, args ...any) {}

func TestUseLoggerRoutesShadingWarnings(t *testing.T) {
	log := &testLogger{}
	UseLogger(log)
	defer UseLogger(nil)

	// An unsupported sample count clamps with a warning.
	shading.GetTiledDeferredLightingMat(16)

	require.NotEmpty(t, log.warns)
	assert.Contains(t, log.warns[0], "16")
}

func TestManagerLogsRegistrations(t *testing.T) {
	log := &testLogger{}
	m := NewParticleManager(log)
	c := NewParticleSystem(4).Core()

	m.Register(c)
	m.Unregister(c)

	require.Len(t, log.debug, 2)
	assert.Contains(t, log.debug[0], c.Id())
}
