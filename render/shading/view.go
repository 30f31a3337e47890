package shading

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
)

// ViewRect is the pixel rectangle a view renders into.
type ViewRect struct {
	X, Y          int32
	Width, Height uint32
}

// RendererViewProperties is the per-view state the lighting passes consume.
type RendererViewProperties struct {
	Target      ViewRect
	ViewProj    mgl32.Mat4
	InvViewProj mgl32.Mat4
	ViewOrigin  mgl32.Vec3

	// CapturingReflections is set while rendering a reflection probe
	// capture; image-based lighting must not sample probes recursively.
	CapturingReflections bool
}

type perCameraParamDef struct {
	def         *gpu.ParamBlockDef
	ViewProj    gpu.Mat4Param
	InvViewProj gpu.Mat4Param
	ViewOrigin  gpu.Vec4Param
}

var gPerCameraParamDef = func() perCameraParamDef {
	d := gpu.NewParamBlockDef("PerCamera")
	return perCameraParamDef{
		def:         d,
		ViewProj:    d.AddMat4(),
		InvViewProj: d.AddMat4(),
		ViewOrigin:  d.AddVec4(),
	}
}()

// RendererView is one camera's view of the scene as the renderer sees it.
type RendererView struct {
	props    RendererViewProperties
	settings core.RenderSettings
	perView  *gpu.ParamBlockBuffer
}

// NewRendererView creates a view with the given properties and settings.
func NewRendererView(props RendererViewProperties, settings core.RenderSettings) *RendererView {
	return &RendererView{props: props, settings: settings}
}

func (v *RendererView) Properties() RendererViewProperties { return v.props }
func (v *RendererView) RenderSettings() core.RenderSettings {
	return v.settings
}

// SetProperties replaces the view state; the per-view block is repacked on
// next access.
func (v *RendererView) SetProperties(props RendererViewProperties) {
	v.props = props
	if v.perView != nil {
		v.packPerView()
	}
}

// PerViewBuffer returns the per-camera parameter block, created and packed on
// first access.
func (v *RendererView) PerViewBuffer() *gpu.ParamBlockBuffer {
	if v.perView == nil {
		v.perView = gPerCameraParamDef.def.CreateBuffer()
		v.packPerView()
	}
	return v.perView
}

func (v *RendererView) packPerView() {
	gPerCameraParamDef.ViewProj.Set(v.perView, v.props.ViewProj)
	gPerCameraParamDef.InvViewProj.Set(v.perView, v.props.InvViewProj)
	o := v.props.ViewOrigin
	gPerCameraParamDef.ViewOrigin.Set(v.perView, [4]float32{o.X(), o.Y(), o.Z(), 1})
}
