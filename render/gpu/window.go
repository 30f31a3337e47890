package gpu

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window wraps the GLFW window the device presents into.
type Window struct {
	glfw   *glfw.Window
	Width  int
	Height int
	Title  string
}

// NewWindow creates the presentation window. Must be called from the main
// goroutine; the OS thread is locked for GLFW.
func NewWindow(width, height int, title string) *Window {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		panic(err)
	}

	return &Window{glfw: win, Width: width, Height: height, Title: title}
}

// ShouldClose reports whether the user requested the window to close.
func (w *Window) ShouldClose() bool { return w.glfw.ShouldClose() }

// Poll pumps the platform event queue.
func (w *Window) Poll() { glfw.PollEvents() }

// NewWindowedAPI brings up a device suitable for presenting into the given
// window and returns the render API wrapping it. Device-creation failures are
// unrecoverable at this level.
func NewWindowedAPI(w *Window) *WgpuAPI {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(w.glfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}

	caps := surface.GetCapabilities(adapter)
	surface.Configure(adapter, device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(w.Width),
		Height:      uint32(w.Height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})

	return NewWgpuAPI(device)
}
