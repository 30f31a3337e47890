package halcyon

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/halcyon3d/halcyon/render/core"
)

// ParticleOrientation controls how rendered particles are oriented.
type ParticleOrientation int

const (
	// OrientViewPlane orients all particles parallel to the view plane.
	OrientViewPlane ParticleOrientation = iota
	// OrientViewPosition orients each particle to face the view origin.
	OrientViewPosition
	// OrientAxis orients particles around a fixed world axis.
	OrientAxis
)

// ParticleSystem owns and simulates one set of particles on the simulation
// thread. Emitters and evolvers are exclusively owned: adding transfers
// ownership, removing releases it. Not safe for concurrent use; the render
// thread observes it only through the Core twin.
type ParticleSystem struct {
	id  string
	set *ParticleSet

	emitters []ParticleEmitter
	evolvers []ParticleEvolver

	material    core.Material
	orientation ParticleOrientation

	rng  *rand.Rand
	time float32

	core *ParticleSystemCore
}

// NewParticleSystem creates a system with the given particle capacity and a
// default random seed. The identity is minted once and shared with the twin.
func NewParticleSystem(maxParticles int) *ParticleSystem {
	return &ParticleSystem{
		id:  uuid.NewString(),
		set: NewParticleSet(maxParticles),
		rng: rand.New(rand.NewSource(0)),
	}
}

// Id returns the system's immutable identity.
func (s *ParticleSystem) Id() string { return s.id }

// Set returns the live particle set.
func (s *ParticleSystem) Set() *ParticleSet { return s.set }

// SetRandomSeed resets the random sequence. Two systems with equal
// configuration and equal seeds simulate identically.
func (s *ParticleSystem) SetRandomSeed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// SetOrientation selects how rendered particles face the camera.
func (s *ParticleSystem) SetOrientation(o ParticleOrientation) { s.orientation = o }

func (s *ParticleSystem) Orientation() ParticleOrientation { return s.orientation }

// SetMaterial assigns the render material. The twin picks it up on the next
// simulate step.
func (s *ParticleSystem) SetMaterial(m core.Material) {
	s.material = m
}

func (s *ParticleSystem) Material() core.Material { return s.material }

// AddEmitter appends an emitter; it runs after all previously added emitters.
func (s *ParticleSystem) AddEmitter(e ParticleEmitter) {
	s.emitters = append(s.emitters, e)
}

// RemoveEmitter removes the emitter by identity. Removing an emitter that is
// not present is a no-op; the relative order of the rest is preserved.
func (s *ParticleSystem) RemoveEmitter(e ParticleEmitter) {
	for i, cur := range s.emitters {
		if cur == e {
			s.emitters = append(s.emitters[:i], s.emitters[i+1:]...)
			return
		}
	}
}

// Emitter returns the emitter at the given position, or nil when out of range.
func (s *ParticleSystem) Emitter(idx int) ParticleEmitter {
	if idx < 0 || idx >= len(s.emitters) {
		return nil
	}
	return s.emitters[idx]
}

func (s *ParticleSystem) NumEmitters() int { return len(s.emitters) }

// AddEvolver appends an evolver; it runs after all previously added evolvers.
func (s *ParticleSystem) AddEvolver(e ParticleEvolver) {
	s.evolvers = append(s.evolvers, e)
}

// RemoveEvolver removes the evolver by identity; absent evolvers are a no-op.
func (s *ParticleSystem) RemoveEvolver(e ParticleEvolver) {
	for i, cur := range s.evolvers {
		if cur == e {
			s.evolvers = append(s.evolvers[:i], s.evolvers[i+1:]...)
			return
		}
	}
}

// Evolver returns the evolver at the given position, or nil when out of range.
func (s *ParticleSystem) Evolver(idx int) ParticleEvolver {
	if idx < 0 || idx >= len(s.evolvers) {
		return nil
	}
	return s.evolvers[idx]
}

func (s *ParticleSystem) NumEvolvers() int { return len(s.evolvers) }

// Simulate advances the system by dt seconds: emitters spawn, evolvers mutate,
// positions integrate, expired particles retire, and a fresh snapshot is
// published to the twin. A zero dt changes nothing beyond emitter
// accumulation bookkeeping; negative dt is ignored.
func (s *ParticleSystem) Simulate(dt float32) {
	if dt < 0 {
		return
	}
	s.time += dt

	for _, e := range s.emitters {
		e.Spawn(s.set, dt, s.rng)
	}
	for _, e := range s.evolvers {
		e.Evolve(s.set, dt)
	}

	i := 0
	for i < s.set.count {
		s.set.pos[i] = s.set.pos[i].Add(s.set.vel[i].Mul(dt))
		age := s.set.age[i] + dt
		if age >= s.set.life[i] {
			s.set.Kill(i)
			continue
		}
		s.set.age[i] = age
		i++
	}

	if s.core != nil {
		s.core.publish(s.snapshot())
	}
}

// CalculateBounds returns a box containing every live particle, grown by each
// particle's half size. Empty when no particles are alive.
func (s *ParticleSystem) CalculateBounds() AABB {
	b := EmptyAABB()
	pos := s.set.Positions()
	size := s.set.Sizes()
	var maxSize float32
	for i := range pos {
		b = b.Extend(pos[i])
		if size[i] > maxSize {
			maxSize = size[i]
		}
	}
	return b.Grow(maxSize * 0.5)
}

// Core returns the render-thread twin, creating it on first call. The twin
// copies the identity once; later calls return the same instance.
func (s *ParticleSystem) Core() *ParticleSystemCore {
	if s.core == nil {
		s.core = newParticleSystemCore(s.id)
		s.core.publish(s.snapshot())
	}
	return s.core
}

func (s *ParticleSystem) snapshot() *ParticleSnapshot {
	n := s.set.count
	snap := &ParticleSnapshot{
		Count:       n,
		Material:    s.material,
		Orientation: s.orientation,
		Bounds:      s.CalculateBounds(),

		Positions: append([]mgl32.Vec3(nil), s.set.pos[:n]...),
		Rotations: append([]float32(nil), s.set.rot[:n]...),
		Colors:    append([][4]float32(nil), s.set.color[:n]...),
		Sizes:     append([]float32(nil), s.set.size[:n]...),
	}
	return snap
}
