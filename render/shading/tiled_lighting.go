package shading

import (
	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
	"github.com/halcyon3d/halcyon/render/shaders"
)

// TiledLightingTileSize is the pixel footprint of one light-culling tile. Must
// match the workgroup size compiled into the lighting programs.
const TiledLightingTileSize = 16

type tiledLightingParamDef struct {
	def             *gpu.ParamBlockDef
	FramebufferSize gpu.Vec2IParam
	LightCounts     gpu.Vec4IParam
	LightStrides    gpu.Vec2IParam
}

var gTiledLightingParamDef = func() tiledLightingParamDef {
	d := gpu.NewParamBlockDef("Params")
	return tiledLightingParamDef{
		def:             d,
		FramebufferSize: d.AddVec2I(),
		LightCounts:     d.AddVec4I(),
		LightStrides:    d.AddVec2I(),
	}
}()

// gbufferParams holds the resolved G-buffer texture handles shared by the
// tiled lighting programs.
type gbufferParams struct {
	albedo     gpu.TextureParam
	normals    gpu.TextureParam
	roughMetal gpu.TextureParam
	depth      gpu.TextureParam
}

func newGBufferParams(prog *gpu.ShaderProgram) gbufferParams {
	return gbufferParams{
		albedo:     prog.TextureParam("gGBufferATex"),
		normals:    prog.TextureParam("gGBufferBTex"),
		roughMetal: prog.TextureParam("gGBufferCTex"),
		depth:      prog.TextureParam("gDepthBufferTex"),
	}
}

func (g gbufferParams) bind(binds *gpu.Bindings, gb core.GBufferTextures) {
	g.albedo.Set(binds, gb.Albedo)
	g.normals.Set(binds, gb.Normals)
	g.roughMetal.Set(binds, gb.RoughMetal)
	g.depth.Set(binds, gb.Depth)
}

// TiledDeferredLightingMat resolves the analytic lights for one view in a
// single compute dispatch, culling lights per 16x16 pixel tile. One instance
// exists per MSAA sample count.
type TiledDeferredLightingMat struct {
	sampleCount uint32
	prog        *gpu.ShaderProgram

	paramBuffer *gpu.ParamBlockBuffer

	paramsBlock    gpu.BlockParam
	perCameraBlock gpu.BlockParam
	lightsParam    gpu.BufferParam
	gbuffer        gbufferParams
	inColorParam   gpu.TextureParam
	outputParam    gpu.LoadStoreTextureParam
	hasOutput      bool
	coverageParam  gpu.TextureParam
}

var tiledLightingCache = newVariantCache(newTiledDeferredLightingMat)

// GetTiledDeferredLightingMat returns the lighting material variant for the
// given MSAA sample count. Unsupported counts resolve to the 8-sample variant.
func GetTiledDeferredLightingMat(msaaCount uint32) *TiledDeferredLightingMat {
	return tiledLightingCache.get(clampSampleCount(msaaCount))
}

func newTiledDeferredLightingMat(sampleCount uint32) *TiledDeferredLightingMat {
	src := shaders.TiledDeferredLightingWGSL
	decls := []gpu.ParamDecl{
		{Name: "Params", Kind: gpu.KindParamBlock, Group: 0, Binding: 0},
		{Name: "PerCamera", Kind: gpu.KindParamBlock, Group: 0, Binding: 1},
		{Name: "gLights", Kind: gpu.KindBuffer, Group: 0, Binding: 2},
		{Name: "gGBufferATex", Kind: gpu.KindTexture, Group: 1, Binding: 0},
		{Name: "gGBufferBTex", Kind: gpu.KindTexture, Group: 1, Binding: 1},
		{Name: "gGBufferCTex", Kind: gpu.KindTexture, Group: 1, Binding: 2},
		{Name: "gDepthBufferTex", Kind: gpu.KindTexture, Group: 1, Binding: 3},
		{Name: "gInColor", Kind: gpu.KindTexture, Group: 1, Binding: 4},
		{Name: "gOutput", Kind: gpu.KindLoadStoreTexture, Group: 1, Binding: 5},
	}
	if sampleCount > 1 {
		src = shaders.TiledDeferredLightingMSAAWGSL
		decls = append(decls, gpu.ParamDecl{
			Name: "gMSAACoverage", Kind: gpu.KindTexture, Group: 1, Binding: 6,
		})
	}

	prog := gpu.NewComputeProgram("TiledDeferredLighting", src, "main", decls...)
	prog.SetDefine("TILE_SIZE", TiledLightingTileSize)
	if sampleCount > 1 {
		prog.SetDefine("MSAA_COUNT", sampleCount)
	}

	m := &TiledDeferredLightingMat{
		sampleCount: sampleCount,
		prog:        prog,
		paramBuffer: gTiledLightingParamDef.def.CreateBuffer(),

		paramsBlock:    prog.BlockParam("Params"),
		perCameraBlock: prog.BlockParam("PerCamera"),
		lightsParam:    prog.BufferParam("gLights"),
		gbuffer:        newGBufferParams(prog),
		inColorParam:   prog.TextureParam("gInColor"),
	}
	// gOutput is absent from variants that blend into the render target
	// directly instead of writing a storage texture.
	if prog.HasParam("gOutput", gpu.KindLoadStoreTexture) {
		m.outputParam = prog.LoadStoreTextureParam("gOutput")
		m.hasOutput = true
	}
	if sampleCount > 1 {
		m.coverageParam = prog.TextureParam("gMSAACoverage")
	}
	return m
}

// SampleCount returns the MSAA sample count this variant was compiled for.
func (m *TiledDeferredLightingMat) SampleCount() uint32 { return m.sampleCount }

// TiledLightingInputs carries the per-frame resources for one lighting
// dispatch. LightAccumTexArray and MSAACoverage are consumed only by MSAA
// variants; LightAccumTex only by the single-sample variant.
type TiledLightingInputs struct {
	GBuffer            core.GBufferTextures
	InputTexture       *core.Texture
	LightAccumTex      *core.Texture
	LightAccumTexArray *core.Texture
	MSAACoverage       *core.Texture
}

// Execute culls and resolves the visible lights over the view's target rect.
// With lighting disabled in the render settings the dispatch still runs with
// zeroed light counts so the output texture is fully written.
func (m *TiledDeferredLightingMat) Execute(api gpu.RenderAPI, view *RendererView,
	lightData *core.VisibleLightData, in TiledLightingInputs) {

	props := view.Properties()
	width := props.Target.Width
	height := props.Target.Height

	gTiledLightingParamDef.FramebufferSize.Set(m.paramBuffer,
		[2]int32{int32(width), int32(height)})

	var counts [4]int32
	var strides [2]int32
	if view.RenderSettings().EnableLighting {
		allDir := int32(lightData.NumLights(core.LightDirectional))
		allRadial := int32(lightData.NumLights(core.LightRadial))
		allSpot := int32(lightData.NumLights(core.LightSpot))

		var sel [3]int32
		if view.RenderSettings().EnableShadows {
			// Shadowed lights are resolved by the shadowed-light passes;
			// only the unshadowed prefix of each type group is handled here.
			sel = [3]int32{
				int32(lightData.NumUnshadowedLights(core.LightDirectional)),
				int32(lightData.NumUnshadowedLights(core.LightRadial)),
				int32(lightData.NumUnshadowedLights(core.LightSpot)),
			}
		} else {
			sel = [3]int32{allDir, allRadial, allSpot}
		}
		counts = [4]int32{sel[0], sel[1], sel[2], sel[0] + sel[1] + sel[2]}

		// Strides locate the radial and spot groups in the packed light
		// buffer, so they always span the full per-type counts, shadowed
		// lights included.
		strides = [2]int32{allDir, allDir + allRadial}
	}
	gTiledLightingParamDef.LightCounts.Set(m.paramBuffer, counts)
	gTiledLightingParamDef.LightStrides.Set(m.paramBuffer, strides)
	m.paramBuffer.FlushToGPU(api)
	view.PerViewBuffer().FlushToGPU(api)

	binds := gpu.NewBindings()
	m.paramsBlock.Set(binds, m.paramBuffer)
	m.perCameraBlock.Set(binds, view.PerViewBuffer())
	m.lightsParam.Set(binds, lightData.LightBuffer())
	m.gbuffer.bind(binds, in.GBuffer)
	m.inColorParam.Set(binds, in.InputTexture)

	if m.sampleCount > 1 {
		if m.hasOutput {
			m.outputParam.Set(binds, in.LightAccumTexArray, core.CompleteSurface)
		}
		m.coverageParam.Set(binds, in.MSAACoverage)
	} else if m.hasOutput {
		m.outputParam.Set(binds, in.LightAccumTex, core.CompleteSurface)
	}

	groupsX := divideRoundUp(width, TiledLightingTileSize)
	groupsY := divideRoundUp(height, TiledLightingTileSize)
	api.DispatchCompute(m.prog, binds, groupsX, groupsY)
}
