package gpu

import "github.com/halcyon3d/halcyon/render/core"

// ScreenRect is a pixel-space rectangle covered by a full-screen draw.
type ScreenRect struct {
	X, Y          float32
	Width, Height float32
}

// RenderAPI is the narrow device contract the lighting materials and particle
// upload path run against. Calls within one execute sequence are strictly
// ordered: all binds complete before the dispatch is submitted. The dispatch
// itself is asynchronous on the device; there is no cancellation.
type RenderAPI interface {
	// CreateTexture allocates a texture and optionally uploads initial
	// texel data.
	CreateTexture(desc core.TextureDesc, data []byte) *core.Texture

	// CreateBuffer allocates a structured buffer and optionally uploads
	// initial contents.
	CreateBuffer(desc core.BufferDesc, data []byte) *core.Buffer

	// WriteBuffer overwrites a region of an existing buffer.
	WriteBuffer(buf *core.Buffer, offset uint64, data []byte)

	// WriteParamBlock uploads a parameter block's CPU mirror.
	WriteParamBlock(block *ParamBlockBuffer)

	// DispatchCompute binds the program and resources, then submits a
	// compute dispatch over the given thread-group grid.
	DispatchCompute(prog *ShaderProgram, binds *Bindings, groupsX, groupsY uint32)

	// DrawScreenQuad binds the program and resources, then draws a
	// full-screen quad covering the given area of the current target.
	DrawScreenQuad(prog *ShaderProgram, binds *Bindings, area ScreenRect)
}
