package halcyon

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
)

// ParticleManager is the renderer-side registry of particle system twins. It
// hands out dense renderer ids and turns published snapshots into the per-frame
// attribute textures the particle draw path samples.
type ParticleManager struct {
	mu     sync.Mutex
	log    Logger
	nextId uint32
	known  map[*ParticleSystemCore]struct{}
}

// NewParticleManager creates an empty registry. A nil logger defaults to nop.
func NewParticleManager(log Logger) *ParticleManager {
	if log == nil {
		log = NewNopLogger()
	}
	return &ParticleManager{
		log:    log,
		nextId: 1,
		known:  map[*ParticleSystemCore]struct{}{},
	}
}

// Register assigns the twin its renderer id. Registering twice is a no-op and
// keeps the original id.
func (m *ParticleManager) Register(c *ParticleSystemCore) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.known[c]; ok {
		return c.RendererId()
	}
	id := m.nextId
	m.nextId++
	c.setRendererId(id)
	m.known[c] = struct{}{}
	m.log.Debugf("particle system %s registered as renderer id %d", c.Id(), id)
	return id
}

// Unregister forgets the twin. Its renderer id is not reused.
func (m *ParticleManager) Unregister(c *ParticleSystemCore) {
	m.mu.Lock()
	delete(m.known, c)
	m.mu.Unlock()
	m.log.Debugf("particle system %s unregistered", c.Id())
}

// NumRegistered returns the number of registered twins.
func (m *ParticleManager) NumRegistered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.known)
}

// ParticleTexDim returns the side length of the square-ish attribute textures
// needed to hold count particles, one texel each. At least 1.
func ParticleTexDim(count int) uint32 {
	if count < 1 {
		return 1
	}
	return uint32(math.Ceil(math.Sqrt(float64(count))))
}

// BuildTextures uploads one snapshot's attributes into freshly created
// textures, one texel per particle, row-major. Texels beyond the live count
// are zero.
func (m *ParticleManager) BuildTextures(api gpu.RenderAPI, snap *ParticleSnapshot) core.ParticleTextures {
	dim := ParticleTexDim(snap.Count)
	texels := int(dim) * int(dim)

	posRot := make([]byte, texels*16)
	colors := make([]byte, texels*16)
	sizes := make([]byte, texels*4)

	putF32 := func(buf []byte, off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}

	for i := 0; i < snap.Count; i++ {
		p := snap.Positions[i]
		putF32(posRot, i*16, p.X())
		putF32(posRot, i*16+4, p.Y())
		putF32(posRot, i*16+8, p.Z())
		putF32(posRot, i*16+12, snap.Rotations[i])

		for j := 0; j < 4; j++ {
			putF32(colors, i*16+j*4, snap.Colors[i][j])
		}
		putF32(sizes, i*4, snap.Sizes[i])
	}

	return core.ParticleTextures{
		PositionAndRotation: api.CreateTexture(core.TextureDesc{
			Label:  "ParticlePosRot",
			Width:  dim,
			Height: dim,
			Format: core.FormatRGBA32F,
		}, posRot),
		Color: api.CreateTexture(core.TextureDesc{
			Label:  "ParticleColor",
			Width:  dim,
			Height: dim,
			Format: core.FormatRGBA32F,
		}, colors),
		Size: api.CreateTexture(core.TextureDesc{
			Label:  "ParticleSize",
			Width:  dim,
			Height: dim,
			Format: core.FormatR32F,
		}, sizes),
	}
}
