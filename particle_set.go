package halcyon

import "github.com/go-gl/mathgl/mgl32"

// ParticleSet stores the live particles of one system in struct-of-arrays
// form. Indices are stable between Allocate and Kill only; Kill swap-compacts,
// so iteration during retirement must not advance past a killed index.
type ParticleSet struct {
	pos   []mgl32.Vec3
	vel   []mgl32.Vec3
	color [][4]float32
	size  []float32
	rot   []float32 // billboard rotation, radians
	life  []float32 // total lifetime, seconds
	age   []float32

	count int
}

// NewParticleSet allocates a set with the given fixed capacity.
func NewParticleSet(capacity int) *ParticleSet {
	if capacity < 1 {
		capacity = 1
	}
	return &ParticleSet{
		pos:   make([]mgl32.Vec3, capacity),
		vel:   make([]mgl32.Vec3, capacity),
		color: make([][4]float32, capacity),
		size:  make([]float32, capacity),
		rot:   make([]float32, capacity),
		life:  make([]float32, capacity),
		age:   make([]float32, capacity),
	}
}

// Count returns the number of live particles.
func (s *ParticleSet) Count() int { return s.count }

// Capacity returns the fixed particle capacity.
func (s *ParticleSet) Capacity() int { return len(s.pos) }

// Allocate reserves up to n new particles and returns the index of the first
// one plus the number actually reserved, clamped to the remaining capacity.
// Reserved attributes hold whatever the slot last contained; the caller
// initializes them.
func (s *ParticleSet) Allocate(n int) (first, allocated int) {
	free := s.Capacity() - s.count
	if n > free {
		n = free
	}
	if n <= 0 {
		return s.count, 0
	}
	first = s.count
	s.count += n
	return first, n
}

// Kill retires the particle at index i by swapping the last live particle into
// its slot.
func (s *ParticleSet) Kill(i int) {
	last := s.count - 1
	s.pos[i] = s.pos[last]
	s.vel[i] = s.vel[last]
	s.color[i] = s.color[last]
	s.size[i] = s.size[last]
	s.rot[i] = s.rot[last]
	s.life[i] = s.life[last]
	s.age[i] = s.age[last]
	s.count--
}

// Attribute slices, clipped to the live range. Valid until the next Allocate
// or Kill.

func (s *ParticleSet) Positions() []mgl32.Vec3  { return s.pos[:s.count] }
func (s *ParticleSet) Velocities() []mgl32.Vec3 { return s.vel[:s.count] }
func (s *ParticleSet) Colors() [][4]float32     { return s.color[:s.count] }
func (s *ParticleSet) Sizes() []float32         { return s.size[:s.count] }
func (s *ParticleSet) Rotations() []float32     { return s.rot[:s.count] }
func (s *ParticleSet) Lifetimes() []float32     { return s.life[:s.count] }
func (s *ParticleSet) Ages() []float32          { return s.age[:s.count] }
