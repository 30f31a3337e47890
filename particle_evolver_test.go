package halcyon

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setWithParticles(n int) *ParticleSet {
	set := NewParticleSet(n)
	first, got := set.Allocate(n)
	for i := first; i < first+got; i++ {
		set.life[i] = 10
		set.size[i] = 1
		set.color[i] = [4]float32{1, 1, 1, 1}
	}
	return set
}

func TestGravityEvolver(t *testing.T) {
	set := setWithParticles(2)
	set.vel[0] = mgl32.Vec3{1, 0, 0}

	(&GravityEvolver{Gravity: 10}).Evolve(set, 0.5)

	assert.InDelta(t, -5, set.Velocities()[0].Y(), 1e-6)
	assert.InDelta(t, 1, set.Velocities()[0].X(), 1e-6)
	assert.InDelta(t, -5, set.Velocities()[1].Y(), 1e-6)
}

func TestDragEvolverClampsAtZero(t *testing.T) {
	set := setWithParticles(1)
	set.vel[0] = mgl32.Vec3{4, 0, 0}

	(&DragEvolver{Drag: 0.5}).Evolve(set, 1)
	assert.InDelta(t, 2, set.Velocities()[0].X(), 1e-6)

	// Overdamped step must stop the particle, not reverse it.
	(&DragEvolver{Drag: 10}).Evolve(set, 1)
	assert.Equal(t, float32(0), set.Velocities()[0].X())
}

func TestColorFadeEvolverReachesTargetAtRetirement(t *testing.T) {
	set := setWithParticles(1)
	set.life[0] = 1
	fade := &ColorFadeEvolver{Target: [4]float32{0, 0, 0, 0}}

	// Step to the end of the particle's life in equal increments.
	for i := 0; i < 10; i++ {
		fade.Evolve(set, 0.1)
		set.age[0] += 0.1
	}
	for j := 0; j < 4; j++ {
		assert.InDelta(t, 0, set.Colors()[0][j], 0.05)
	}
}

func TestSizeScaleEvolverClampsAtZero(t *testing.T) {
	set := setWithParticles(1)

	(&SizeScaleEvolver{Growth: 2}).Evolve(set, 0.5)
	assert.InDelta(t, 2, set.Sizes()[0], 1e-6)

	(&SizeScaleEvolver{Growth: -100}).Evolve(set, 1)
	assert.Equal(t, float32(0), set.Sizes()[0])
}

func TestTurbulenceEvolverIsDeterministicPerSeed(t *testing.T) {
	run := func(seed int64) mgl32.Vec3 {
		set := setWithParticles(1)
		set.pos[0] = mgl32.Vec3{1, 2, 3}
		e := NewTurbulenceEvolver(seed, 0.5, 3)
		for i := 0; i < 5; i++ {
			e.Evolve(set, 1.0/60.0)
		}
		return set.Velocities()[0]
	}

	require.Equal(t, run(11), run(11))
	assert.NotEqual(t, run(11), run(12))
}
