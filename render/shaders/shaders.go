// Package shaders holds the WGSL sources for the deferred lighting pipeline.
// Compile-time dimensions (TILE_SIZE, NUM_THREADS, MSAA_COUNT) are injected by
// the GPU layer as const declarations and must match the values exported by
// the materials exactly.
package shaders

import (
	_ "embed"
	"fmt"
)

//go:embed tiled_deferred_lighting.wgsl
var TiledDeferredLightingWGSL string

//go:embed tiled_deferred_lighting_msaa.wgsl
var TiledDeferredLightingMSAAWGSL string

//go:embed tiled_deferred_ibl.wgsl
var TiledDeferredIBLWGSL string

//go:embed tiled_deferred_ibl_msaa.wgsl
var TiledDeferredIBLMSAAWGSL string

//go:embed array_to_msaa.wgsl
var ArrayToMSAAWGSL string

// ClearObjType selects what kind of object a clear program targets.
type ClearObjType int

const (
	ClearTexture ClearObjType = iota
	ClearTextureArray
	ClearBuffer
)

// ClearDataType selects the storage representation a clear program writes.
type ClearDataType int

const (
	ClearFloat ClearDataType = iota
	ClearInt
)

// ClearLoadStoreWGSL generates the source for one clear-load-store variant.
// The family is too wide to embed per combination, so the source is assembled
// from the variant axes; the dispatch footprint constants are still injected
// by the GPU layer like every other program.
func ClearLoadStoreWGSL(objType ClearObjType, dataType ClearDataType, numComponents uint32) string {
	scalar, format, value := "f32", "r32float", "params.float_clear_val"
	if dataType == ClearInt {
		scalar, format, value = "i32", "r32sint", "params.int_clear_val"
	}
	switch numComponents {
	case 2:
		if dataType == ClearInt {
			format = "rg32sint"
		} else {
			format = "rg32float"
		}
	case 3, 4:
		if dataType == ClearInt {
			format = "rgba32sint"
		} else {
			format = "rgba32float"
		}
	}

	header := `struct Params {
    size: vec2<i32>,
    _pad0: vec2<i32>,
    float_clear_val: vec4<f32>,
    int_clear_val: vec4<i32>,
};

@group(0) @binding(0) var<uniform> params: Params;
`

	switch objType {
	case ClearBuffer:
		elem := scalar
		if numComponents > 1 {
			elem = fmt.Sprintf("vec%d<%s>", min(numComponents, 4), scalar)
		}
		sel := value
		if numComponents == 1 {
			sel = value + ".x"
		} else if numComponents < 4 {
			sel = fmt.Sprintf("%s.%s", value, "xyzw"[:numComponents])
		}
		return header + fmt.Sprintf(`@group(0) @binding(1) var<storage, read_write> output: array<%s>;

@compute @workgroup_size(NUM_THREADS, 1, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let base = i32(gid.x) * i32(TILE_SIZE * TILE_SIZE);
    for (var i = 0; i < i32(TILE_SIZE * TILE_SIZE); i = i + 1) {
        let idx = base + i;
        if (idx < params.size.x) {
            output[idx] = %s;
        }
    }
}
`, elem, sel)

	case ClearTextureArray:
		return header + fmt.Sprintf(`@group(0) @binding(1) var output: texture_storage_2d_array<%s, write>;

@compute @workgroup_size(NUM_THREADS, NUM_THREADS, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let base = vec2<i32>(gid.xy) * i32(TILE_SIZE);
    let layers = i32(textureNumLayers(output));
    for (var y = 0; y < i32(TILE_SIZE); y = y + 1) {
        for (var x = 0; x < i32(TILE_SIZE); x = x + 1) {
            let p = base + vec2<i32>(x, y);
            if (p.x < params.size.x && p.y < params.size.y) {
                for (var l = 0; l < layers; l = l + 1) {
                    textureStore(output, p, l, %s);
                }
            }
        }
    }
}
`, format, value)

	default: // ClearTexture
		return header + fmt.Sprintf(`@group(0) @binding(1) var output: texture_storage_2d<%s, write>;

@compute @workgroup_size(NUM_THREADS, NUM_THREADS, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let base = vec2<i32>(gid.xy) * i32(TILE_SIZE);
    for (var y = 0; y < i32(TILE_SIZE); y = y + 1) {
        for (var x = 0; x < i32(TILE_SIZE); x = x + 1) {
            let p = base + vec2<i32>(x, y);
            if (p.x < params.size.x && p.y < params.size.y) {
                textureStore(output, p, %s);
            }
        }
    }
}
`, format, value)
	}
}
