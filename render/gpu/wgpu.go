package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/halcyon3d/halcyon/render/core"
)

// WgpuAPI implements RenderAPI on a WebGPU device. Native resources are keyed
// by the CPU-side handle pointers; pipelines are compiled once per program and
// reused. Not safe for concurrent use: all calls must come from the render
// submission context.
type WgpuAPI struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	textures map[*core.Texture]*wgpu.Texture
	buffers  map[*core.Buffer]*wgpu.Buffer
	blocks   map[*ParamBlockBuffer]*wgpu.Buffer

	computePipelines map[*ShaderProgram]*wgpu.ComputePipeline
	renderPipelines  map[*ShaderProgram]*wgpu.RenderPipeline

	// target of the next DrawScreenQuad call
	renderTarget *core.Texture
}

// NewWgpuAPI wraps an existing device. The device outlives the API; callers
// release it at shutdown.
func NewWgpuAPI(device *wgpu.Device) *WgpuAPI {
	return &WgpuAPI{
		device:           device,
		queue:            device.GetQueue(),
		textures:         map[*core.Texture]*wgpu.Texture{},
		buffers:          map[*core.Buffer]*wgpu.Buffer{},
		blocks:           map[*ParamBlockBuffer]*wgpu.Buffer{},
		computePipelines: map[*ShaderProgram]*wgpu.ComputePipeline{},
		renderPipelines:  map[*ShaderProgram]*wgpu.RenderPipeline{},
	}
}

// Device returns the underlying WebGPU device.
func (a *WgpuAPI) Device() *wgpu.Device { return a.device }

// SetRenderTarget selects the texture DrawScreenQuad renders into.
func (a *WgpuAPI) SetRenderTarget(t *core.Texture) { a.renderTarget = t }

func (a *WgpuAPI) CreateTexture(desc core.TextureDesc, data []byte) *core.Texture {
	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	if desc.LoadStore {
		usage |= wgpu.TextureUsageStorageBinding
	}
	slices := desc.ArraySlices
	if slices == 0 {
		slices = 1
	}
	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	mips := desc.MipLevels
	if mips == 0 {
		mips = 1
	}

	extent := wgpu.Extent3D{
		Width:              desc.Width,
		Height:             desc.Height,
		DepthOrArrayLayers: slices,
	}
	tex, err := a.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          extent,
		MipLevelCount: mips,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpuFormat(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		panic(err)
	}

	handle := &core.Texture{Desc: desc}
	handle.Desc.ArraySlices = slices
	handle.Desc.SampleCount = samples
	handle.Desc.MipLevels = mips
	a.textures[handle] = tex

	if len(data) > 0 {
		err = a.queue.WriteTexture(
			tex.AsImageCopy(),
			data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  desc.Width * formatTexelSize(desc.Format),
				RowsPerImage: desc.Height,
			},
			&extent,
		)
		if err != nil {
			panic(err)
		}
	}
	return handle
}

func (a *WgpuAPI) CreateBuffer(desc core.BufferDesc, data []byte) *core.Buffer {
	size := uint64(desc.ElementCount) * uint64(desc.ElementSize)
	if size%4 != 0 {
		size += 4 - size%4
	}
	buf, err := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	handle := &core.Buffer{Desc: desc}
	a.buffers[handle] = buf
	if len(data) > 0 {
		a.queue.WriteBuffer(buf, 0, data)
	}
	return handle
}

func (a *WgpuAPI) WriteBuffer(buf *core.Buffer, offset uint64, data []byte) {
	native, ok := a.buffers[buf]
	if !ok {
		panic(fmt.Sprintf("buffer %q was not created by this device", buf.Desc.Label))
	}
	a.queue.WriteBuffer(native, offset, data)
}

func (a *WgpuAPI) WriteParamBlock(block *ParamBlockBuffer) {
	native, ok := a.blocks[block]
	if !ok {
		buf, err := a.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: block.Def().Name(),
			Size:  uint64(block.Def().Size()),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
		a.blocks[block] = buf
		native = buf
	}
	a.queue.WriteBuffer(native, 0, block.Data())
}

func (a *WgpuAPI) DispatchCompute(prog *ShaderProgram, binds *Bindings, groupsX, groupsY uint32) {
	pipeline := a.computePipeline(prog)

	encoder, err := a.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	for group, entries := range a.bindGroupEntries(binds) {
		layout := pipeline.GetBindGroupLayout(group)
		bindGroup, err := a.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  layout,
			Entries: entries,
		})
		layout.Release()
		if err != nil {
			panic(err)
		}
		pass.SetBindGroup(group, bindGroup, nil)
	}
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	a.queue.Submit(cmd)
}

func (a *WgpuAPI) DrawScreenQuad(prog *ShaderProgram, binds *Bindings, area ScreenRect) {
	if a.renderTarget == nil {
		panic("DrawScreenQuad: no render target set")
	}
	target := a.textures[a.renderTarget]
	if target == nil {
		panic("DrawScreenQuad: render target was not created by this device")
	}

	pipeline := a.renderPipeline(prog, a.renderTarget)

	view, err := target.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer view.Release()

	encoder, err := a.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(pipeline)
	for group, entries := range a.bindGroupEntries(binds) {
		layout := pipeline.GetBindGroupLayout(group)
		bindGroup, err := a.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  layout,
			Entries: entries,
		})
		layout.Release()
		if err != nil {
			panic(err)
		}
		pass.SetBindGroup(group, bindGroup, nil)
	}
	pass.SetViewport(area.X, area.Y, area.Width, area.Height, 0, 1)
	// Full-screen triangle; vertices are generated in the vertex stage.
	pass.Draw(3, 1, 0, 0)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	a.queue.Submit(cmd)
}

func (a *WgpuAPI) computePipeline(prog *ShaderProgram) *wgpu.ComputePipeline {
	if p, ok := a.computePipelines[prog]; ok {
		return p
	}
	if !prog.Compute {
		panic(fmt.Sprintf("shader %q is not a compute program", prog.Label))
	}
	module, err := a.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          prog.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: prog.PreparedSource()},
	})
	if err != nil {
		panic(err)
	}
	defer module.Release()

	pipeline, err := a.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: prog.Label,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: prog.Entry,
		},
	})
	if err != nil {
		panic(err)
	}
	a.computePipelines[prog] = pipeline
	return pipeline
}

func (a *WgpuAPI) renderPipeline(prog *ShaderProgram, target *core.Texture) *wgpu.RenderPipeline {
	if p, ok := a.renderPipelines[prog]; ok {
		return p
	}
	if prog.Compute {
		panic(fmt.Sprintf("shader %q is not a screen program", prog.Label))
	}
	module, err := a.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          prog.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: prog.PreparedSource()},
	})
	if err != nil {
		panic(err)
	}
	defer module.Release()

	samples := target.SampleCount()
	pipeline, err := a.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: prog.Label,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: prog.Entry,
			Targets: []wgpu.ColorTargetState{{
				Format:    wgpuFormat(target.Format()),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		panic(err)
	}
	a.renderPipelines[prog] = pipeline
	return pipeline
}

func (a *WgpuAPI) bindGroupEntries(binds *Bindings) map[uint32][]wgpu.BindGroupEntry {
	grouped := map[uint32][]wgpu.BindGroupEntry{}
	if binds == nil {
		return grouped
	}
	for _, e := range binds.Entries() {
		entry := wgpu.BindGroupEntry{Binding: e.Decl.Binding}
		switch e.Decl.Kind {
		case KindTexture, KindLoadStoreTexture:
			tex, ok := a.textures[e.Texture]
			if !ok {
				panic(fmt.Sprintf("texture for parameter %q was not created by this device", e.Decl.Name))
			}
			view, err := tex.CreateView(textureViewDesc(e.Texture, e.Surface))
			if err != nil {
				panic(err)
			}
			entry.TextureView = view
			entry.Size = wgpu.WholeSize
		case KindBuffer:
			buf, ok := a.buffers[e.Buffer]
			if !ok {
				panic(fmt.Sprintf("buffer for parameter %q was not created by this device", e.Decl.Name))
			}
			entry.Buffer = buf
			entry.Size = wgpu.WholeSize
		case KindParamBlock:
			buf, ok := a.blocks[e.Block]
			if !ok {
				// Flush never ran; upload the current mirror now.
				a.WriteParamBlock(e.Block)
				buf = a.blocks[e.Block]
			}
			entry.Buffer = buf
			entry.Size = wgpu.WholeSize
		}
		grouped[e.Decl.Group] = append(grouped[e.Decl.Group], entry)
	}
	return grouped
}

func textureViewDesc(t *core.Texture, s core.TextureSurface) *wgpu.TextureViewDescriptor {
	if s == core.CompleteSurface {
		return nil
	}
	numSlices := s.NumSlices
	if numSlices == 0 {
		numSlices = t.ArraySlices() - s.FirstSlice
	}
	numMips := s.NumMips
	if numMips == 0 {
		numMips = 1
	}
	dim := wgpu.TextureViewDimension2D
	if numSlices > 1 {
		dim = wgpu.TextureViewDimension2DArray
	}
	return &wgpu.TextureViewDescriptor{
		Format:          wgpuFormat(t.Format()),
		Dimension:       dim,
		BaseMipLevel:    s.MipLevel,
		MipLevelCount:   numMips,
		BaseArrayLayer:  s.FirstSlice,
		ArrayLayerCount: numSlices,
	}
}

func wgpuFormat(f core.PixelFormat) wgpu.TextureFormat {
	switch f {
	case core.FormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case core.FormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case core.FormatRGBA32F:
		return wgpu.TextureFormatRGBA32Float
	case core.FormatRG16F:
		return wgpu.TextureFormatRG16Float
	case core.FormatR32F:
		return wgpu.TextureFormatR32Float
	case core.FormatRG11B10F:
		return wgpu.TextureFormatRG11B10Ufloat
	case core.FormatDepth32:
		return wgpu.TextureFormatDepth32Float
	case core.FormatBC1:
		return wgpu.TextureFormatBC1RGBAUnorm
	case core.FormatBC3:
		return wgpu.TextureFormatBC3RGBAUnorm
	case core.FormatBC7:
		return wgpu.TextureFormatBC7RGBAUnorm
	}
	panic(fmt.Sprintf("unmapped pixel format %d", f))
}

func formatTexelSize(f core.PixelFormat) uint32 {
	switch f {
	case core.FormatRGBA8, core.FormatR32F, core.FormatDepth32:
		return 4
	case core.FormatRG16F:
		return 4
	case core.FormatRGBA16F:
		return 8
	case core.FormatRGBA32F:
		return 16
	case core.FormatRG11B10F:
		return 4
	}
	panic(fmt.Sprintf("no texel size for format %d", f))
}
