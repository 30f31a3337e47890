package shading

import (
	"fmt"

	"github.com/halcyon3d/halcyon/render/core"
	"github.com/halcyon3d/halcyon/render/gpu"
	"github.com/halcyon3d/halcyon/render/shaders"
)

// TextureArrayToMSAATexture copies each slice of a texture array into the
// matching sample of an MSAA texture. Compute programs cannot store into
// multisampled textures, so MSAA passes accumulate into an array and convert
// through this full-screen draw afterwards.
type TextureArrayToMSAATexture struct {
	prog       *gpu.ShaderProgram
	inputParam gpu.TextureParam
}

var arrayToMSAACache = newVariantCache(func(struct{}) *TextureArrayToMSAATexture {
	prog := gpu.NewScreenProgram("TextureArrayToMSAA", shaders.ArrayToMSAAWGSL, "fs_main",
		gpu.ParamDecl{Name: "gInput", Kind: gpu.KindTexture, Group: 0, Binding: 0},
	)
	return &TextureArrayToMSAATexture{
		prog:       prog,
		inputParam: prog.TextureParam("gInput"),
	}
})

// GetTextureArrayToMSAATexture returns the shared conversion material.
func GetTextureArrayToMSAATexture() *TextureArrayToMSAATexture {
	return arrayToMSAACache.get(struct{}{})
}

// Execute draws the array into the MSAA target, which must be bound as the
// current render target. The array's slice count must equal the target's
// sample count and the dimensions must match.
func (m *TextureArrayToMSAATexture) Execute(api gpu.RenderAPI, input, target *core.Texture) {
	if input.ArraySlices() != target.SampleCount() {
		panic(fmt.Sprintf("array slice count %d does not match target sample count %d",
			input.ArraySlices(), target.SampleCount()))
	}
	if input.Width() != target.Width() || input.Height() != target.Height() {
		panic(fmt.Sprintf("array size %dx%d does not match target size %dx%d",
			input.Width(), input.Height(), target.Width(), target.Height()))
	}

	binds := gpu.NewBindings()
	m.inputParam.Set(binds, input)

	api.DrawScreenQuad(m.prog, binds, gpu.ScreenRect{
		Width:  float32(target.Width()),
		Height: float32(target.Height()),
	})
}
