package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ReflectionProbe is a scene-placed environment capture. Box probes use the
// Extents field; sphere probes use Radius.
type ReflectionProbe struct {
	Position     mgl32.Vec3
	Radius       float32
	Extents      mgl32.Vec3
	Box          bool
	CubemapSlice uint32
}

// probeDataSize is the GPU footprint of one packed probe record: position +
// radius, extents + shape flag, cubemap slice + padding.
const probeDataSize = 48

// VisibleReflProbeData holds the probes relevant for a single view, packed for
// the image-based lighting pass. Probes are expected in priority order.
type VisibleReflProbeData struct {
	count  uint32
	packed []byte
	buffer *Buffer
}

// NewVisibleReflProbeData packs the given probes.
func NewVisibleReflProbeData(probes []ReflectionProbe) *VisibleReflProbeData {
	d := &VisibleReflProbeData{count: uint32(len(probes))}
	d.packed = make([]byte, 0, len(probes)*probeDataSize)
	for i := range probes {
		d.packed = append(d.packed, packProbe(&probes[i])...)
	}
	return d
}

// NumProbes returns the number of visible probes.
func (d *VisibleReflProbeData) NumProbes() uint32 { return d.count }

// Upload creates the packed probe buffer on the device.
func (d *VisibleReflProbeData) Upload(alloc BufferAllocator) {
	data := d.packed
	count := d.count
	if count == 0 {
		data = make([]byte, probeDataSize)
		count = 1
	}
	d.buffer = alloc.CreateBuffer(BufferDesc{
		Label:        "ReflProbes",
		ElementCount: count,
		ElementSize:  probeDataSize,
	}, data)
}

// ProbeBuffer returns the uploaded probe buffer, or nil before Upload.
func (d *VisibleReflProbeData) ProbeBuffer() *Buffer { return d.buffer }

// Packed returns the raw packed probe bytes.
func (d *VisibleReflProbeData) Packed() []byte { return d.packed }

func packProbe(p *ReflectionProbe) []byte {
	buf := make([]byte, probeDataSize)

	putF32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}

	putF32(0, p.Position.X())
	putF32(4, p.Position.Y())
	putF32(8, p.Position.Z())
	putF32(12, p.Radius)

	putF32(16, p.Extents.X())
	putF32(20, p.Extents.Y())
	putF32(24, p.Extents.Z())
	if p.Box {
		binary.LittleEndian.PutUint32(buf[28:], 1)
	}

	binary.LittleEndian.PutUint32(buf[32:], p.CubemapSlice)
	return buf
}

// Skybox is the scene environment used for ambient reflections when enabled.
type Skybox struct {
	// FilteredRadiance is the prefiltered specular cubemap, one mip per
	// roughness step.
	FilteredRadiance *Texture
	Brightness       float32
}

// SceneInfo carries the renderer-global scene state consumed by the
// image-based lighting pass.
type SceneInfo struct {
	Skybox *Skybox

	// ReflProbeCubemaps is the cubemap array holding every probe capture,
	// indexed by ReflectionProbe.CubemapSlice.
	ReflProbeCubemaps *Texture
}
