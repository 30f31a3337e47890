package halcyon

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleEmitter spawns new particles into a set. Emitters are exclusively
// owned by one system and invoked in insertion order each simulation step; all
// randomness must come from the supplied source so runs stay deterministic.
type ParticleEmitter interface {
	// Spawn adds particles for a dt-second step and returns how many were
	// actually added (capped by the set's remaining capacity).
	Spawn(set *ParticleSet, dt float32, rng *rand.Rand) int
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func lerpColor(a, b [4]float32, rng *rand.Rand) [4]float32 {
	var c [4]float32
	for i := 0; i < 4; i++ {
		c[i] = lerp(a[i], b[i], rng.Float32())
	}
	return c
}

// spawnAccumulator converts a fractional per-step spawn budget into whole
// particle counts, carrying the remainder between steps.
type spawnAccumulator struct {
	acc float32
}

func (a *spawnAccumulator) count(rate, dt float32) int {
	a.acc += rate * dt
	n := int(a.acc)
	if n > 0 {
		a.acc -= float32(n)
	}
	return n
}

// ConeEmitter spawns particles at a point, directed into a cone around the
// emitter's local up axis.
type ConeEmitter struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat

	Rate         float32 // particles per second
	AngleDegrees float32 // 0 = straight along the up axis

	Lifetime [2]float32 // seconds (min, max)
	Speed    [2]float32 // units/sec (min, max)
	Size     [2]float32 // world units (min, max)
	ColorMin [4]float32
	ColorMax [4]float32

	spawn spawnAccumulator
}

func (e *ConeEmitter) Spawn(set *ParticleSet, dt float32, rng *rand.Rand) int {
	first, n := set.Allocate(e.spawn.count(e.Rate, dt))
	for i := first; i < first+n; i++ {
		set.pos[i] = e.Position

		dir := sampleConeDirection(e.Rotation, e.AngleDegrees, rng)
		set.vel[i] = dir.Mul(lerp(e.Speed[0], e.Speed[1], rng.Float32()))

		set.age[i] = 0
		set.rot[i] = 0
		set.life[i] = lerp(e.Lifetime[0], e.Lifetime[1], rng.Float32())
		set.size[i] = lerp(e.Size[0], e.Size[1], rng.Float32())
		set.color[i] = lerpColor(e.ColorMin, e.ColorMax, rng)
	}
	return n
}

// sampleConeDirection returns a direction uniformly distributed over a cone
// around the local up axis (0,1,0), rotated into world space.
func sampleConeDirection(rot mgl32.Quat, coneDeg float32, rng *rand.Rand) mgl32.Vec3 {
	axis := mgl32.Vec3{0, 1, 0}
	if coneDeg <= 0 {
		return rot.Rotate(axis).Normalize()
	}
	thetaMax := float32(math.Pi) * (coneDeg / 180.0)
	u := rng.Float32()
	v := rng.Float32()
	cosTheta := lerp(float32(math.Cos(float64(thetaMax))), 1.0, u)
	sinTheta := float32(math.Sqrt(float64(1.0 - cosTheta*cosTheta)))
	phi := 2.0 * float32(math.Pi) * v

	local := mgl32.Vec3{
		float32(math.Cos(float64(phi))) * sinTheta,
		cosTheta,
		float32(math.Sin(float64(phi))) * sinTheta,
	}
	return rot.Rotate(local).Normalize()
}

// SphereEmitter spawns particles inside (or on) a sphere, moving radially
// outward.
type SphereEmitter struct {
	Position mgl32.Vec3
	Radius   float32
	Shell    bool // spawn on the surface instead of the volume

	Rate     float32
	Lifetime [2]float32
	Speed    [2]float32
	Size     [2]float32
	ColorMin [4]float32
	ColorMax [4]float32

	spawn spawnAccumulator
}

func (e *SphereEmitter) Spawn(set *ParticleSet, dt float32, rng *rand.Rand) int {
	first, n := set.Allocate(e.spawn.count(e.Rate, dt))
	for i := first; i < first+n; i++ {
		dir := sampleUnitSphere(rng)
		r := e.Radius
		if !e.Shell {
			// Cube root keeps the volume distribution uniform.
			r *= float32(math.Cbrt(float64(rng.Float32())))
		}
		set.pos[i] = e.Position.Add(dir.Mul(r))
		set.vel[i] = dir.Mul(lerp(e.Speed[0], e.Speed[1], rng.Float32()))

		set.age[i] = 0
		set.rot[i] = 0
		set.life[i] = lerp(e.Lifetime[0], e.Lifetime[1], rng.Float32())
		set.size[i] = lerp(e.Size[0], e.Size[1], rng.Float32())
		set.color[i] = lerpColor(e.ColorMin, e.ColorMax, rng)
	}
	return n
}

func sampleUnitSphere(rng *rand.Rand) mgl32.Vec3 {
	z := rng.Float32()*2 - 1
	phi := 2 * float32(math.Pi) * rng.Float32()
	s := float32(math.Sqrt(float64(1 - z*z)))
	return mgl32.Vec3{
		s * float32(math.Cos(float64(phi))),
		s * float32(math.Sin(float64(phi))),
		z,
	}
}
