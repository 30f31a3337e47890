package shading

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
)

type dispatchCall struct {
	prog  *gpu.ShaderProgram
	binds *gpu.Bindings
	x, y  uint32
}

type drawCall struct {
	prog  *gpu.ShaderProgram
	binds *gpu.Bindings
	area  gpu.ScreenRect
}

// fakeAPI records device calls so execute paths can run without a GPU.
type fakeAPI struct {
	dispatches []dispatchCall
	draws      []drawCall
	blocks     map[string][]byte // latest upload per block definition
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{blocks: map[string][]byte{}}
}

func (f *fakeAPI) CreateTexture(desc core.TextureDesc, data []byte) *core.Texture {
	return &core.Texture{Desc: desc}
}
func (f *fakeAPI) CreateBuffer(desc core.BufferDesc, data []byte) *core.Buffer {
	return &core.Buffer{Desc: desc}
}
func (f *fakeAPI) WriteBuffer(buf *core.Buffer, offset uint64, data []byte) {}
func (f *fakeAPI) WriteParamBlock(block *gpu.ParamBlockBuffer) {
	f.blocks[block.Def().Name()] = append([]byte(nil), block.Data()...)
}
func (f *fakeAPI) DispatchCompute(prog *gpu.ShaderProgram, binds *gpu.Bindings, x, y uint32) {
	f.dispatches = append(f.dispatches, dispatchCall{prog, binds, x, y})
}
func (f *fakeAPI) DrawScreenQuad(prog *gpu.ShaderProgram, binds *gpu.Bindings, area gpu.ScreenRect) {
	f.draws = append(f.draws, drawCall{prog, binds, area})
}

func (f *fakeAPI) blockU32(t *testing.T, name string, offset int) uint32 {
	t.Helper()
	data, ok := f.blocks[name]
	require.True(t, ok, "no upload for block %q", name)
	require.GreaterOrEqual(t, len(data), offset+4)
	return binary.LittleEndian.Uint32(data[offset:])
}

func tex(w, h uint32) *core.Texture {
	return &core.Texture{Desc: core.TextureDesc{
		Width: w, Height: h, ArraySlices: 1, SampleCount: 1, Format: core.FormatRGBA16F,
	}}
}

func testView(w, h uint32, settings core.RenderSettings) *RendererView {
	return NewRendererView(RendererViewProperties{
		Target:      ViewRect{Width: w, Height: h},
		ViewProj:    mgl32.Ident4(),
		InvViewProj: mgl32.Ident4(),
	}, settings)
}

func testGBuffer(w, h uint32) core.GBufferTextures {
	return core.GBufferTextures{
		Albedo:     tex(w, h),
		Normals:    tex(w, h),
		RoughMetal: tex(w, h),
		Depth:      tex(w, h),
	}
}

func lightingInputs(w, h uint32) TiledLightingInputs {
	return TiledLightingInputs{
		GBuffer:       testGBuffer(w, h),
		InputTexture:  tex(w, h),
		LightAccumTex: tex(w, h),
	}
}

func TestLightingDispatchGrid(t *testing.T) {
	api := newFakeAPI()
	view := testView(1920, 1080, core.DefaultRenderSettings())
	mat := GetTiledDeferredLightingMat(1)

	mat.Execute(api, view, core.NewVisibleLightData(nil), lightingInputs(1920, 1080))

	require.Len(t, api.dispatches, 1)
	assert.Equal(t, uint32(120), api.dispatches[0].x)
	assert.Equal(t, uint32(68), api.dispatches[0].y)
}

func TestLightingCountsAndStrides(t *testing.T) {
	lights := []core.Light{
		{Type: core.LightDirectional}, {Type: core.LightDirectional},
		{Type: core.LightRadial}, {Type: core.LightRadial}, {Type: core.LightRadial},
		{Type: core.LightSpot},
	}
	settings := core.DefaultRenderSettings()
	settings.EnableShadows = false

	api := newFakeAPI()
	GetTiledDeferredLightingMat(1).Execute(api, testView(640, 480, settings),
		core.NewVisibleLightData(lights), lightingInputs(640, 480))

	// Params layout: framebuffer size at 0, counts at 16, strides at 32.
	counts := [3]uint32{
		api.blockU32(t, "Params", 16),
		api.blockU32(t, "Params", 20),
		api.blockU32(t, "Params", 24),
	}
	assert.Equal(t, [3]uint32{2, 3, 1}, counts)
	assert.Equal(t, uint32(6), api.blockU32(t, "Params", 28), "total count")
	assert.Equal(t, uint32(2), api.blockU32(t, "Params", 32))
	assert.Equal(t, uint32(5), api.blockU32(t, "Params", 36))
}

func TestLightingShadowsSelectUnshadowedCounts(t *testing.T) {
	lights := []core.Light{
		{Type: core.LightDirectional},
		{Type: core.LightDirectional, Shadowed: true},
		{Type: core.LightRadial, Shadowed: true},
	}
	settings := core.DefaultRenderSettings() // shadows enabled

	api := newFakeAPI()
	GetTiledDeferredLightingMat(1).Execute(api, testView(64, 64, settings),
		core.NewVisibleLightData(lights), lightingInputs(64, 64))

	assert.Equal(t, uint32(1), api.blockU32(t, "Params", 16))
	assert.Equal(t, uint32(0), api.blockU32(t, "Params", 20))

	// Strides still span the full type groups, shadowed lights included.
	assert.Equal(t, uint32(2), api.blockU32(t, "Params", 32))
	assert.Equal(t, uint32(3), api.blockU32(t, "Params", 36))
}

func TestLightingStridesSpanShadowedLights(t *testing.T) {
	lights := []core.Light{
		{Type: core.LightDirectional},
		{Type: core.LightDirectional, Shadowed: true},
		{Type: core.LightRadial},
	}
	settings := core.DefaultRenderSettings() // shadows enabled

	api := newFakeAPI()
	GetTiledDeferredLightingMat(1).Execute(api, testView(64, 64, settings),
		core.NewVisibleLightData(lights), lightingInputs(64, 64))

	// Counts cover the unshadowed prefix of each group; strides locate the
	// start of the radial and spot groups in the packed buffer, so indexing
	// never reads a shadowed directional as a radial light.
	assert.Equal(t, uint32(1), api.blockU32(t, "Params", 16))
	assert.Equal(t, uint32(1), api.blockU32(t, "Params", 20))
	assert.Equal(t, uint32(2), api.blockU32(t, "Params", 28), "total count")
	assert.Equal(t, uint32(2), api.blockU32(t, "Params", 32))
	assert.Equal(t, uint32(3), api.blockU32(t, "Params", 36))
}

func TestLightingBindsOutputStorageTexture(t *testing.T) {
	api := newFakeAPI()
	in := lightingInputs(64, 64)
	GetTiledDeferredLightingMat(1).Execute(api, testView(64, 64, core.DefaultRenderSettings()),
		core.NewVisibleLightData(nil), in)

	require.Len(t, api.dispatches, 1)
	var out *core.Texture
	for _, e := range api.dispatches[0].binds.Entries() {
		if e.Decl.Group == 1 && e.Decl.Binding == 5 {
			out = e.Texture
		}
	}
	assert.Same(t, in.LightAccumTex, out)
}

func TestLightingDisabledZeroesCountsButStillDispatches(t *testing.T) {
	lights := []core.Light{{Type: core.LightDirectional}, {Type: core.LightSpot}}
	settings := core.DefaultRenderSettings()
	settings.EnableLighting = false

	api := newFakeAPI()
	GetTiledDeferredLightingMat(1).Execute(api, testView(64, 64, settings),
		core.NewVisibleLightData(lights), lightingInputs(64, 64))

	require.Len(t, api.dispatches, 1, "disabled lighting must still dispatch")
	for off := 16; off < 40; off += 4 {
		assert.Equal(t, uint32(0), api.blockU32(t, "Params", off), "offset %d", off)
	}
}

func TestLightingMSAABindsArrayOutputAndCoverage(t *testing.T) {
	accumArray := &core.Texture{Desc: core.TextureDesc{
		Width: 64, Height: 64, ArraySlices: 4, Format: core.FormatRGBA16F, LoadStore: true,
	}}
	coverage := tex(64, 64)
	in := lightingInputs(64, 64)
	in.LightAccumTex = nil
	in.LightAccumTexArray = accumArray
	in.MSAACoverage = coverage

	api := newFakeAPI()
	mat := GetTiledDeferredLightingMat(4)
	mat.Execute(api, testView(64, 64, core.DefaultRenderSettings()),
		core.NewVisibleLightData(nil), in)

	require.Len(t, api.dispatches, 1)
	assert.Contains(t, api.dispatches[0].prog.PreparedSource(), "const MSAA_COUNT: u32 = 4u;")

	var sawOutput, sawCoverage bool
	for _, e := range api.dispatches[0].binds.Entries() {
		if e.Decl.Group == 1 && e.Decl.Binding == 5 {
			sawOutput = true
			assert.Same(t, accumArray, e.Texture)
		}
		if e.Decl.Group == 1 && e.Decl.Binding == 6 {
			sawCoverage = true
			assert.Same(t, coverage, e.Texture)
		}
	}
	assert.True(t, sawOutput)
	assert.True(t, sawCoverage)
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func TestVariantFallbackTo8Samples(t *testing.T) {
	log := &recordingLogger{}
	SetLogger(log)
	defer SetLogger(nil)

	m16 := GetTiledDeferredLightingMat(16)
	m8 := GetTiledDeferredLightingMat(8)
	assert.Same(t, m8, m16)
	assert.Equal(t, uint32(8), m16.SampleCount())
	require.NotEmpty(t, log.warnings)
	assert.Contains(t, log.warnings[0], "16")

	// Supported counts are distinct variants.
	assert.NotSame(t, GetTiledDeferredLightingMat(1), GetTiledDeferredLightingMat(2))
	assert.NotSame(t, GetTiledDeferredLightingMat(2), GetTiledDeferredLightingMat(4))

	// Same rule for the IBL family.
	assert.Same(t, GetTiledDeferredImageBasedLightingMat(8),
		GetTiledDeferredImageBasedLightingMat(32))
}

func TestVariantCacheReturnsSingletons(t *testing.T) {
	assert.Same(t, GetTiledDeferredLightingMat(1), GetTiledDeferredLightingMat(1))
	assert.Same(t,
		GetClearLoadStoreMat(0, 0, 4),
		GetClearLoadStoreMat(0, 0, 4))
}

func TestTeardownDropsCachedVariants(t *testing.T) {
	before := GetTiledDeferredLightingMat(1)
	Teardown()
	after := GetTiledDeferredLightingMat(1)
	assert.NotSame(t, before, after)
}

func TestViewPerCameraBlockRepacks(t *testing.T) {
	view := testView(64, 64, core.DefaultRenderSettings())
	buf := view.PerViewBuffer()
	assert.Same(t, buf, view.PerViewBuffer())

	props := view.Properties()
	props.ViewOrigin = mgl32.Vec3{1, 2, 3}
	view.SetProperties(props)

	// View origin lives after the two matrices.
	data := buf.Data()
	origin := math.Float32frombits(binary.LittleEndian.Uint32(data[128:]))
	assert.Equal(t, float32(1), origin)
}

func TestArrayToMSAAPreconditions(t *testing.T) {
	mat := GetTextureArrayToMSAATexture()
	target := &core.Texture{Desc: core.TextureDesc{Width: 64, Height: 64, SampleCount: 4}}

	badSlices := &core.Texture{Desc: core.TextureDesc{Width: 64, Height: 64, ArraySlices: 2}}
	assert.Panics(t, func() { mat.Execute(newFakeAPI(), badSlices, target) })

	badSize := &core.Texture{Desc: core.TextureDesc{Width: 32, Height: 64, ArraySlices: 4}}
	assert.Panics(t, func() { mat.Execute(newFakeAPI(), badSize, target) })
}

func TestArrayToMSAADrawsFullScreen(t *testing.T) {
	mat := GetTextureArrayToMSAATexture()
	input := &core.Texture{Desc: core.TextureDesc{Width: 64, Height: 32, ArraySlices: 4}}
	target := &core.Texture{Desc: core.TextureDesc{Width: 64, Height: 32, SampleCount: 4}}

	api := newFakeAPI()
	mat.Execute(api, input, target)

	require.Len(t, api.draws, 1)
	assert.Equal(t, float32(64), api.draws[0].area.Width)
	assert.Equal(t, float32(32), api.draws[0].area.Height)
	assert.False(t, api.draws[0].prog.Compute)
}
