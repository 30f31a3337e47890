package halcyon

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/halcyon3d/halcyon/render/core"
)

// ParticleSnapshot is one frame's immutable view of a particle system,
// published whole so the render thread never observes a half-updated state.
type ParticleSnapshot struct {
	Count       int
	Material    core.Material
	Orientation ParticleOrientation
	Bounds      AABB

	Positions []mgl32.Vec3
	Rotations []float32
	Colors    [][4]float32
	Sizes     []float32
}

// ParticleSystemCore is the render-thread twin of a ParticleSystem. It holds
// the render-only state (renderer id, latest snapshot) and an immutable copy
// of the owning system's identity. Sync is one-way: the simulation publishes,
// the renderer consumes.
type ParticleSystemCore struct {
	id         string
	rendererId uint32

	latest atomic.Pointer[ParticleSnapshot]
}

func newParticleSystemCore(id string) *ParticleSystemCore {
	return &ParticleSystemCore{id: id}
}

// Id returns the identity copied from the owning system at creation.
func (c *ParticleSystemCore) Id() string { return c.id }

// RendererId returns the dense id assigned by the ParticleManager, or zero
// before registration.
func (c *ParticleSystemCore) RendererId() uint32 { return c.rendererId }

func (c *ParticleSystemCore) setRendererId(id uint32) { c.rendererId = id }

// Latest returns the most recently published snapshot. Never nil once the
// twin exists. Safe to call from any goroutine.
func (c *ParticleSystemCore) Latest() *ParticleSnapshot {
	return c.latest.Load()
}

func (c *ParticleSystemCore) publish(s *ParticleSnapshot) {
	c.latest.Store(s)
}
