package shading

import (
	"fmt"
	"math"

	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
	"github.com/halcyon3d/halcyon/render/shaders"
)

// Dispatch footprint of the clear programs: each workgroup is NUM_THREADS
// wide (squared for textures) and every thread clears a TILE_SIZE tile
// (TILE_SIZE^2 elements for buffers).
const (
	ClearNumThreads = 8
	ClearTileSize   = 4
)

type clearParamDef struct {
	def           *gpu.ParamBlockDef
	Size          gpu.Vec2IParam
	FloatClearVal gpu.Vec4Param
	IntClearVal   gpu.Vec4IParam
}

var gClearParamDef = func() clearParamDef {
	d := gpu.NewParamBlockDef("Params")
	return clearParamDef{
		def:           d,
		Size:          d.AddVec2I(),
		FloatClearVal: d.AddVec4(),
		IntClearVal:   d.AddVec4I(),
	}
}()

// ClearLoadStoreMat fills a load-store texture or structured buffer with a
// constant value from compute, for targets render-target clears cannot reach.
// One instance exists per (object type, data type, component count) variant.
type ClearLoadStoreMat struct {
	objType shaders.ClearObjType

	prog        *gpu.ShaderProgram
	paramBuffer *gpu.ParamBlockBuffer

	paramsBlock gpu.BlockParam
	texOutput   gpu.LoadStoreTextureParam
	bufOutput   gpu.BufferParam
}

type clearVariantKey struct {
	obj        shaders.ClearObjType
	data       shaders.ClearDataType
	components uint32
}

var clearLoadStoreCache = newVariantCache(newClearLoadStoreMat)

// GetClearLoadStoreMat returns the clear material for the given object type,
// data type and component count (1 to 4). A component count outside that range
// falls back to 1.
func GetClearLoadStoreMat(objType shaders.ClearObjType, dataType shaders.ClearDataType,
	numComponents uint32) *ClearLoadStoreMat {

	if numComponents < 1 || numComponents > 4 {
		warnf("unsupported clear component count %d, falling back to 1", numComponents)
		numComponents = 1
	}
	return clearLoadStoreCache.get(clearVariantKey{objType, dataType, numComponents})
}

func newClearLoadStoreMat(key clearVariantKey) *ClearLoadStoreMat {
	src := shaders.ClearLoadStoreWGSL(key.obj, key.data, key.components)

	outKind := gpu.KindLoadStoreTexture
	if key.obj == shaders.ClearBuffer {
		outKind = gpu.KindBuffer
	}
	prog := gpu.NewComputeProgram("ClearLoadStore", src, "main",
		gpu.ParamDecl{Name: "Params", Kind: gpu.KindParamBlock, Group: 0, Binding: 0},
		gpu.ParamDecl{Name: "gOutput", Kind: outKind, Group: 0, Binding: 1},
	)
	prog.SetDefine("NUM_THREADS", ClearNumThreads)
	prog.SetDefine("TILE_SIZE", ClearTileSize)

	m := &ClearLoadStoreMat{
		objType:     key.obj,
		prog:        prog,
		paramBuffer: gClearParamDef.def.CreateBuffer(),
		paramsBlock: prog.BlockParam("Params"),
	}
	if key.obj == shaders.ClearBuffer {
		m.bufOutput = prog.BufferParam("gOutput")
	} else {
		m.texOutput = prog.LoadStoreTextureParam("gOutput")
	}
	return m
}

// Execute clears the selected surface of a load-store texture to the given
// value. Integer variants reinterpret the color's bit pattern. Panics on
// block-compressed targets: compute programs cannot store into them.
func (m *ClearLoadStoreMat) Execute(api gpu.RenderAPI, target *core.Texture,
	value core.Color, surface core.TextureSurface) {

	if m.objType == shaders.ClearBuffer {
		panic("clear material was built for buffers, not textures")
	}
	if target.Format().Compressed() {
		panic(fmt.Sprintf("cannot clear texture %q: format is block-compressed",
			target.Desc.Label))
	}

	m.setClearValue(value)
	gClearParamDef.Size.Set(m.paramBuffer,
		[2]int32{int32(target.Width()), int32(target.Height())})
	m.paramBuffer.FlushToGPU(api)

	binds := gpu.NewBindings()
	m.paramsBlock.Set(binds, m.paramBuffer)
	m.texOutput.Set(binds, target, surface)

	groupsX := divideRoundUp(target.Width(), ClearNumThreads*ClearTileSize)
	groupsY := divideRoundUp(target.Height(), ClearNumThreads*ClearTileSize)
	api.DispatchCompute(m.prog, binds, groupsX, groupsY)
}

// ExecuteBuffer clears a structured buffer to the given value.
func (m *ClearLoadStoreMat) ExecuteBuffer(api gpu.RenderAPI, target *core.Buffer,
	value core.Color) {

	if m.objType != shaders.ClearBuffer {
		panic("clear material was built for textures, not buffers")
	}

	m.setClearValue(value)
	gClearParamDef.Size.Set(m.paramBuffer, [2]int32{int32(target.ElementCount()), 1})
	m.paramBuffer.FlushToGPU(api)

	binds := gpu.NewBindings()
	m.paramsBlock.Set(binds, m.paramBuffer)
	m.bufOutput.Set(binds, target)

	groups := divideRoundUp(target.ElementCount(),
		ClearNumThreads*ClearTileSize*ClearTileSize)
	api.DispatchCompute(m.prog, binds, groups, 1)
}

func (m *ClearLoadStoreMat) setClearValue(value core.Color) {
	gClearParamDef.FloatClearVal.Set(m.paramBuffer,
		[4]float32{value.R, value.G, value.B, value.A})
	gClearParamDef.IntClearVal.Set(m.paramBuffer, [4]int32{
		int32(math.Float32bits(value.R)),
		int32(math.Float32bits(value.G)),
		int32(math.Float32bits(value.B)),
		int32(math.Float32bits(value.A)),
	})
}
