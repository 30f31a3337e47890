package halcyon

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// ParticleEvolver mutates the attributes of live particles each simulation
// step. Evolvers are exclusively owned by one system and applied in insertion
// order, before position integration and retirement.
type ParticleEvolver interface {
	Evolve(set *ParticleSet, dt float32)
}

// GravityEvolver applies constant downward acceleration.
type GravityEvolver struct {
	Gravity float32 // positive accelerates along -Y, units/sec^2
}

func (e *GravityEvolver) Evolve(set *ParticleSet, dt float32) {
	vel := set.Velocities()
	g := e.Gravity * dt
	for i := range vel {
		vel[i][1] -= g
	}
}

// DragEvolver applies per-second linear velocity damping.
type DragEvolver struct {
	Drag float32
}

func (e *DragEvolver) Evolve(set *ParticleSet, dt float32) {
	factor := 1 - e.Drag*dt
	if factor < 0 {
		factor = 0
	}
	vel := set.Velocities()
	for i := range vel {
		vel[i] = vel[i].Mul(factor)
	}
}

// ColorFadeEvolver blends particle color toward a target over each particle's
// remaining lifetime, reaching the target at retirement.
type ColorFadeEvolver struct {
	Target [4]float32
}

func (e *ColorFadeEvolver) Evolve(set *ParticleSet, dt float32) {
	color := set.Colors()
	age := set.Ages()
	life := set.Lifetimes()
	for i := range color {
		remaining := life[i] - age[i]
		if remaining < dt {
			remaining = dt
		}
		if remaining <= 0 {
			continue
		}
		t := dt / remaining
		for j := 0; j < 4; j++ {
			color[i][j] = lerp(color[i][j], e.Target[j], t)
		}
	}
}

// SizeScaleEvolver grows or shrinks particles at a constant rate. Sizes clamp
// at zero.
type SizeScaleEvolver struct {
	Growth float32 // world units per second, may be negative
}

func (e *SizeScaleEvolver) Evolve(set *ParticleSet, dt float32) {
	size := set.Sizes()
	d := e.Growth * dt
	for i := range size {
		size[i] += d
		if size[i] < 0 {
			size[i] = 0
		}
	}
}

// TurbulenceEvolver perturbs velocities with a smooth noise field sampled at
// each particle's position. The same seed always produces the same field.
type TurbulenceEvolver struct {
	Strength  float32
	Frequency float32

	noise opensimplex.Noise
	time  float64
}

// NewTurbulenceEvolver creates a turbulence evolver over a seeded noise field.
func NewTurbulenceEvolver(seed int64, frequency, strength float32) *TurbulenceEvolver {
	if frequency <= 0 {
		frequency = 1
	}
	return &TurbulenceEvolver{
		Strength:  strength,
		Frequency: frequency,
		noise:     opensimplex.New(seed),
	}
}

func (e *TurbulenceEvolver) Evolve(set *ParticleSet, dt float32) {
	e.time += float64(dt)
	pos := set.Positions()
	vel := set.Velocities()
	f := float64(e.Frequency)
	s := e.Strength * dt
	for i := range vel {
		x := float64(pos[i].X()) * f
		y := float64(pos[i].Y()) * f
		z := float64(pos[i].Z()) * f
		// Three decorrelated samples of the same field, offset far apart.
		n := mgl32.Vec3{
			float32(e.noise.Eval4(x, y, z, e.time)),
			float32(e.noise.Eval4(x+131.7, y+43.1, z+9.2, e.time)),
			float32(e.noise.Eval4(x-57.3, y+88.6, z-220.4, e.time)),
		}
		vel[i] = vel[i].Add(n.Mul(s))
	}
}
