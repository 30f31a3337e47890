package shading

import (
	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
	"github.com/halcyon3d/halcyon/render/shaders"
)

// TiledIBLTileSize is the pixel footprint of one image-based lighting tile.
// Wider than the analytic lighting tile: the pass has no per-tile culling
// loop, so larger groups amortize better.
const TiledIBLTileSize = 32

type iblParamDef struct {
	def             *gpu.ParamBlockDef
	FramebufferSize gpu.Vec2IParam
}

var gIBLParamDef = func() iblParamDef {
	d := gpu.NewParamBlockDef("Params")
	return iblParamDef{
		def:             d,
		FramebufferSize: d.AddVec2I(),
	}
}()

type reflProbeParamDef struct {
	def              *gpu.ParamBlockDef
	NumProbes        gpu.UintParam
	SkyAvailable     gpu.UintParam
	SkyMipCount      gpu.UintParam
	NoReflectionMaps gpu.UintParam
	SkyBrightness    gpu.FloatParam
}

var gReflProbeParamDef = func() reflProbeParamDef {
	d := gpu.NewParamBlockDef("ReflProbeParams")
	return reflProbeParamDef{
		def:              d,
		NumProbes:        d.AddUint(),
		SkyAvailable:     d.AddUint(),
		SkyMipCount:      d.AddUint(),
		NoReflectionMaps: d.AddUint(),
		SkyBrightness:    d.AddFloat(),
	}
}()

func populateReflProbeParams(buffer *gpu.ParamBlockBuffer, skybox *core.Skybox,
	numProbes uint32, capturingReflections bool) {

	var skyAvailable, skyMips uint32
	brightness := float32(1)
	if skybox != nil && skybox.FilteredRadiance != nil {
		skyAvailable = 1
		skyMips = skybox.FilteredRadiance.MipLevels()
		brightness = skybox.Brightness
	}
	var noMaps uint32
	if capturingReflections {
		noMaps = 1
	}

	gReflProbeParamDef.NumProbes.Set(buffer, numProbes)
	gReflProbeParamDef.SkyAvailable.Set(buffer, skyAvailable)
	gReflProbeParamDef.SkyMipCount.Set(buffer, skyMips)
	gReflProbeParamDef.NoReflectionMaps.Set(buffer, noMaps)
	gReflProbeParamDef.SkyBrightness.Set(buffer, brightness)
}

// ImageBasedLightingInputs carries the per-frame resources for one IBL
// dispatch. SceneColorTexArray and MSAACoverage are consumed only by MSAA
// variants; SceneColorTex only by the single-sample variant. With MSAA,
// LightAccumulation is the per-sample accumulation array written by the
// analytic lighting pass.
type ImageBasedLightingInputs struct {
	GBuffer           core.GBufferTextures
	PreIntegratedGF   *core.Texture
	AmbientOcclusion  *core.Texture
	SSR               *core.Texture
	LightAccumulation *core.Texture

	SceneColorTex      *core.Texture
	SceneColorTexArray *core.Texture
	MSAACoverage       *core.Texture
}

// TiledDeferredImageBasedLightingMat adds specular reflections from probes,
// the sky and screen-space traces on top of the analytic lighting result. One
// instance exists per MSAA sample count.
type TiledDeferredImageBasedLightingMat struct {
	sampleCount uint32
	prog        *gpu.ShaderProgram

	paramBuffer     *gpu.ParamBlockBuffer
	reflProbeBuffer *gpu.ParamBlockBuffer

	paramsBlock    gpu.BlockParam
	perCameraBlock gpu.BlockParam
	probeBlock     gpu.BlockParam
	probesParam    gpu.BufferParam
	gbuffer        gbufferParams

	brdfParam     gpu.TextureParam
	cubemapsParam gpu.TextureParam
	skyParam      gpu.TextureParam
	aoParam       gpu.TextureParam
	ssrParam      gpu.TextureParam
	inColorParam  gpu.TextureParam
	outputParam   gpu.LoadStoreTextureParam
	coverageParam gpu.TextureParam
}

var tiledIBLCache = newVariantCache(newTiledDeferredImageBasedLightingMat)

// GetTiledDeferredImageBasedLightingMat returns the IBL material variant for
// the given MSAA sample count. Unsupported counts resolve to the 8-sample
// variant.
func GetTiledDeferredImageBasedLightingMat(msaaCount uint32) *TiledDeferredImageBasedLightingMat {
	return tiledIBLCache.get(clampSampleCount(msaaCount))
}

func newTiledDeferredImageBasedLightingMat(sampleCount uint32) *TiledDeferredImageBasedLightingMat {
	src := shaders.TiledDeferredIBLWGSL
	decls := []gpu.ParamDecl{
		{Name: "Params", Kind: gpu.KindParamBlock, Group: 0, Binding: 0},
		{Name: "PerCamera", Kind: gpu.KindParamBlock, Group: 0, Binding: 1},
		{Name: "ReflProbeParams", Kind: gpu.KindParamBlock, Group: 0, Binding: 2},
		{Name: "gReflProbes", Kind: gpu.KindBuffer, Group: 0, Binding: 3},
		{Name: "gGBufferATex", Kind: gpu.KindTexture, Group: 1, Binding: 0},
		{Name: "gGBufferBTex", Kind: gpu.KindTexture, Group: 1, Binding: 1},
		{Name: "gGBufferCTex", Kind: gpu.KindTexture, Group: 1, Binding: 2},
		{Name: "gDepthBufferTex", Kind: gpu.KindTexture, Group: 1, Binding: 3},
		{Name: "gPreintegratedEnvBRDF", Kind: gpu.KindTexture, Group: 2, Binding: 0},
		{Name: "gReflProbeCubemaps", Kind: gpu.KindTexture, Group: 2, Binding: 1},
		{Name: "gSkyReflectionTex", Kind: gpu.KindTexture, Group: 2, Binding: 2},
		{Name: "gAmbientOcclusionTex", Kind: gpu.KindTexture, Group: 2, Binding: 3},
		{Name: "gSSRTex", Kind: gpu.KindTexture, Group: 2, Binding: 4},
		{Name: "gInColor", Kind: gpu.KindTexture, Group: 2, Binding: 5},
		{Name: "gOutput", Kind: gpu.KindLoadStoreTexture, Group: 2, Binding: 6},
	}
	if sampleCount > 1 {
		src = shaders.TiledDeferredIBLMSAAWGSL
		decls = append(decls, gpu.ParamDecl{
			Name: "gMSAACoverage", Kind: gpu.KindTexture, Group: 2, Binding: 7,
		})
	}

	prog := gpu.NewComputeProgram("TiledDeferredIBL", src, "main", decls...)
	prog.SetDefine("TILE_SIZE", TiledIBLTileSize)
	if sampleCount > 1 {
		prog.SetDefine("MSAA_COUNT", sampleCount)
	}

	m := &TiledDeferredImageBasedLightingMat{
		sampleCount:     sampleCount,
		prog:            prog,
		paramBuffer:     gIBLParamDef.def.CreateBuffer(),
		reflProbeBuffer: gReflProbeParamDef.def.CreateBuffer(),

		paramsBlock:    prog.BlockParam("Params"),
		perCameraBlock: prog.BlockParam("PerCamera"),
		probeBlock:     prog.BlockParam("ReflProbeParams"),
		probesParam:    prog.BufferParam("gReflProbes"),
		gbuffer:        newGBufferParams(prog),

		brdfParam:     prog.TextureParam("gPreintegratedEnvBRDF"),
		cubemapsParam: prog.TextureParam("gReflProbeCubemaps"),
		skyParam:      prog.TextureParam("gSkyReflectionTex"),
		aoParam:       prog.TextureParam("gAmbientOcclusionTex"),
		ssrParam:      prog.TextureParam("gSSRTex"),
		inColorParam:  prog.TextureParam("gInColor"),
		outputParam:   prog.LoadStoreTextureParam("gOutput"),
	}
	if sampleCount > 1 {
		m.coverageParam = prog.TextureParam("gMSAACoverage")
	}
	return m
}

// SampleCount returns the MSAA sample count this variant was compiled for.
func (m *TiledDeferredImageBasedLightingMat) SampleCount() uint32 { return m.sampleCount }

// Execute adds image-based specular on top of the analytic lighting result
// over the view's target rect.
func (m *TiledDeferredImageBasedLightingMat) Execute(api gpu.RenderAPI, view *RendererView,
	sceneInfo *core.SceneInfo, probeData *core.VisibleReflProbeData,
	in ImageBasedLightingInputs) {

	props := view.Properties()
	width := props.Target.Width
	height := props.Target.Height

	gIBLParamDef.FramebufferSize.Set(m.paramBuffer,
		[2]int32{int32(width), int32(height)})
	m.paramBuffer.FlushToGPU(api)

	// A view with the skybox disabled ignores the scene's sky entirely.
	var skybox *core.Skybox
	if view.RenderSettings().EnableSkybox {
		skybox = sceneInfo.Skybox
	}

	populateReflProbeParams(m.reflProbeBuffer, skybox,
		probeData.NumProbes(), props.CapturingReflections)
	m.reflProbeBuffer.FlushToGPU(api)
	view.PerViewBuffer().FlushToGPU(api)

	binds := gpu.NewBindings()
	m.paramsBlock.Set(binds, m.paramBuffer)
	m.perCameraBlock.Set(binds, view.PerViewBuffer())
	m.probeBlock.Set(binds, m.reflProbeBuffer)
	m.probesParam.Set(binds, probeData.ProbeBuffer())
	m.gbuffer.bind(binds, in.GBuffer)

	// Every slot needs a resource even when the flags disable its sampling;
	// the cubemap array and sky texture stand in for each other when absent.
	cubemaps := sceneInfo.ReflProbeCubemaps
	var sky *core.Texture
	if skybox != nil {
		sky = skybox.FilteredRadiance
	}
	if cubemaps == nil {
		cubemaps = sky
	}
	if sky == nil {
		sky = cubemaps
	}

	m.brdfParam.Set(binds, in.PreIntegratedGF)
	m.cubemapsParam.Set(binds, cubemaps)
	m.skyParam.Set(binds, sky)
	m.aoParam.Set(binds, in.AmbientOcclusion)
	m.ssrParam.Set(binds, in.SSR)
	m.inColorParam.Set(binds, in.LightAccumulation)

	if m.sampleCount > 1 {
		m.outputParam.Set(binds, in.SceneColorTexArray, core.CompleteSurface)
		m.coverageParam.Set(binds, in.MSAACoverage)
	} else {
		m.outputParam.Set(binds, in.SceneColorTex, core.CompleteSurface)
	}

	groupsX := divideRoundUp(width, TiledIBLTileSize)
	groupsY := divideRoundUp(height, TiledIBLTileSize)
	api.DispatchCompute(m.prog, binds, groupsX, groupsY)
}
