package halcyon

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
)

// recordingAPI implements gpu.RenderAPI for tests, recording resource
// creation without touching a device.
type recordingAPI struct {
	textures []createdTexture
	buffers  []core.BufferDesc
}

type createdTexture struct {
	desc     core.TextureDesc
	dataSize int
}

func (r *recordingAPI) CreateTexture(desc core.TextureDesc, data []byte) *core.Texture {
	r.textures = append(r.textures, createdTexture{desc: desc, dataSize: len(data)})
	if desc.ArraySlices == 0 {
		desc.ArraySlices = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	return &core.Texture{Desc: desc}
}

func (r *recordingAPI) CreateBuffer(desc core.BufferDesc, data []byte) *core.Buffer {
	r.buffers = append(r.buffers, desc)
	return &core.Buffer{Desc: desc}
}

func (r *recordingAPI) WriteBuffer(buf *core.Buffer, offset uint64, data []byte) {}
func (r *recordingAPI) WriteParamBlock(block *gpu.ParamBlockBuffer)             {}
func (r *recordingAPI) DispatchCompute(prog *gpu.ShaderProgram, binds *gpu.Bindings, x, y uint32) {
}
func (r *recordingAPI) DrawScreenQuad(prog *gpu.ShaderProgram, binds *gpu.Bindings, area gpu.ScreenRect) {
}

func TestManagerAssignsDenseIds(t *testing.T) {
	m := NewParticleManager(nil)
	a := NewParticleSystem(8).Core()
	b := NewParticleSystem(8).Core()

	idA := m.Register(a)
	idB := m.Register(b)
	assert.Equal(t, uint32(1), idA)
	assert.Equal(t, uint32(2), idB)
	assert.Equal(t, idA, a.RendererId())

	// Re-registering keeps the original id.
	assert.Equal(t, idA, m.Register(a))
	assert.Equal(t, 2, m.NumRegistered())

	m.Unregister(a)
	assert.Equal(t, 1, m.NumRegistered())
}

func TestParticleTexDim(t *testing.T) {
	assert.Equal(t, uint32(1), ParticleTexDim(0))
	assert.Equal(t, uint32(1), ParticleTexDim(1))
	assert.Equal(t, uint32(2), ParticleTexDim(4))
	assert.Equal(t, uint32(3), ParticleTexDim(5))
	assert.Equal(t, uint32(32), ParticleTexDim(1024))
	assert.Equal(t, uint32(33), ParticleTexDim(1025))
}

func TestBuildTexturesHoldsEveryParticle(t *testing.T) {
	sys := NewParticleSystem(64)
	sys.SetRandomSeed(5)
	sys.AddEmitter(testEmitter(600))
	sys.Simulate(0.1)
	live := sys.Set().Count()
	require.Greater(t, live, 0)

	snap := sys.Core().Latest()
	api := &recordingAPI{}
	textures := NewParticleManager(nil).BuildTextures(api, snap)

	dim := ParticleTexDim(live)
	require.NotNil(t, textures.PositionAndRotation)
	assert.Equal(t, dim, textures.PositionAndRotation.Width())
	assert.Equal(t, dim, textures.PositionAndRotation.Height())
	assert.GreaterOrEqual(t, int(dim*dim), live)

	require.Len(t, api.textures, 3)
	assert.Equal(t, core.FormatRGBA32F, api.textures[0].desc.Format)
	assert.Equal(t, int(dim*dim)*16, api.textures[0].dataSize)
	assert.Equal(t, core.FormatR32F, api.textures[2].desc.Format)
	assert.Equal(t, int(dim*dim)*4, api.textures[2].dataSize)
}

func TestBuildTexturesPacksPositions(t *testing.T) {
	snap := &ParticleSnapshot{
		Count:     2,
		Positions: []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}},
		Rotations: []float32{0.5, 1.5},
		Colors:    [][4]float32{{1, 0, 0, 1}, {0, 1, 0, 1}},
		Sizes:     []float32{0.25, 0.75},
	}
	api := &recordingAPI{}
	NewParticleManager(nil).BuildTextures(api, snap)

	require.Len(t, api.textures, 3)
	assert.Equal(t, uint32(2), api.textures[0].desc.Width)
	// 2x2 texels, 16 bytes each.
	assert.Equal(t, 64, api.textures[0].dataSize)
}
