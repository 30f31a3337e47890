package gpu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/halcyon3d/halcyon/render/core"
)

// ParamKind classifies a shader parameter declaration.
type ParamKind int

const (
	KindTexture ParamKind = iota
	KindLoadStoreTexture
	KindBuffer
	KindParamBlock
)

// ParamDecl maps a string-keyed shader parameter to its bind slot. The name is
// the binding contract with the shader source; declarations must match the
// WGSL exactly.
type ParamDecl struct {
	Name    string
	Kind    ParamKind
	Group   uint32
	Binding uint32
}

// ShaderProgram is the CPU-side description of one compiled program: its WGSL
// source, entry point, compile-time defines and parameter declarations.
// Parameter handles are resolved against it once, at material construction,
// and reused for every execute call.
type ShaderProgram struct {
	Label   string
	Source  string
	Entry   string
	Compute bool // false for full-screen fragment programs

	defines map[string]uint32
	params  map[string]ParamDecl
}

// NewComputeProgram declares a compute program with the given parameters.
func NewComputeProgram(label, source, entry string, decls ...ParamDecl) *ShaderProgram {
	return newProgram(label, source, entry, true, decls)
}

// NewScreenProgram declares a full-screen draw program with the given
// parameters.
func NewScreenProgram(label, source, entry string, decls ...ParamDecl) *ShaderProgram {
	return newProgram(label, source, entry, false, decls)
}

func newProgram(label, source, entry string, compute bool, decls []ParamDecl) *ShaderProgram {
	p := &ShaderProgram{
		Label:   label,
		Source:  source,
		Entry:   entry,
		Compute: compute,
		defines: map[string]uint32{},
		params:  make(map[string]ParamDecl, len(decls)),
	}
	for _, d := range decls {
		if _, dup := p.params[d.Name]; dup {
			panic(fmt.Sprintf("shader %q: duplicate parameter %q", label, d.Name))
		}
		p.params[d.Name] = d
	}
	return p
}

// SetDefine registers a compile-time constant injected into the WGSL source.
// Values must match the dimensions the shader assumes (TILE_SIZE, NUM_THREADS).
func (p *ShaderProgram) SetDefine(name string, value uint32) {
	p.defines[name] = value
}

// PreparedSource returns the WGSL with defines prepended as const declarations.
func (p *ShaderProgram) PreparedSource() string {
	if len(p.defines) == 0 {
		return p.Source
	}
	names := make([]string, 0, len(p.defines))
	for n := range p.defines {
		names = append(names, n)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, n := range names {
		fmt.Fprintf(&sb, "const %s: u32 = %du;\n", n, p.defines[n])
	}
	sb.WriteString(p.Source)
	return sb.String()
}

// HasParam reports whether a parameter with the given name and kind is
// declared. Used for optional feature paths before resolving a handle.
func (p *ShaderProgram) HasParam(name string, kind ParamKind) bool {
	d, ok := p.params[name]
	return ok && d.Kind == kind
}

func (p *ShaderProgram) resolve(name string, kind ParamKind) ParamDecl {
	d, ok := p.params[name]
	if !ok || d.Kind != kind {
		panic(fmt.Sprintf("shader %q has no parameter %q of the requested kind", p.Label, name))
	}
	return d
}

// TextureParam resolves a sampled-texture parameter. Panics if absent: a
// missing required parameter is a programmer error.
func (p *ShaderProgram) TextureParam(name string) TextureParam {
	return TextureParam{p.resolve(name, KindTexture)}
}

// LoadStoreTextureParam resolves a read/write storage-texture parameter.
func (p *ShaderProgram) LoadStoreTextureParam(name string) LoadStoreTextureParam {
	return LoadStoreTextureParam{p.resolve(name, KindLoadStoreTexture)}
}

// BufferParam resolves a structured-buffer parameter.
func (p *ShaderProgram) BufferParam(name string) BufferParam {
	return BufferParam{p.resolve(name, KindBuffer)}
}

// BlockParam resolves a uniform parameter-block slot.
func (p *ShaderProgram) BlockParam(name string) BlockParam {
	return BlockParam{p.resolve(name, KindParamBlock)}
}

// BindingEntry assigns one resource to one declared slot for a single
// dispatch or draw.
type BindingEntry struct {
	Decl    ParamDecl
	Texture *core.Texture
	Surface core.TextureSurface
	Buffer  *core.Buffer
	Block   *ParamBlockBuffer
}

// Bindings collects the resource assignments for one execute call. Entries
// are keyed by slot; assigning a slot twice overwrites the earlier entry.
type Bindings struct {
	entries map[[2]uint32]BindingEntry
}

func NewBindings() *Bindings {
	return &Bindings{entries: make(map[[2]uint32]BindingEntry)}
}

func (b *Bindings) set(e BindingEntry) {
	b.entries[[2]uint32{e.Decl.Group, e.Decl.Binding}] = e
}

// Entries returns the assignments sorted by group then binding.
func (b *Bindings) Entries() []BindingEntry {
	out := make([]BindingEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Decl.Group != out[j].Decl.Group {
			return out[i].Decl.Group < out[j].Decl.Group
		}
		return out[i].Decl.Binding < out[j].Decl.Binding
	})
	return out
}

// Lookup returns the entry bound for the named declaration, if any.
func (b *Bindings) Lookup(d ParamDecl) (BindingEntry, bool) {
	e, ok := b.entries[[2]uint32{d.Group, d.Binding}]
	return e, ok
}

// TextureParam is a resolved handle to a sampled-texture slot.
type TextureParam struct{ decl ParamDecl }

func (p TextureParam) Set(b *Bindings, t *core.Texture) {
	b.set(BindingEntry{Decl: p.decl, Texture: t, Surface: core.CompleteSurface})
}

// LoadStoreTextureParam is a resolved handle to a storage-texture slot.
type LoadStoreTextureParam struct{ decl ParamDecl }

func (p LoadStoreTextureParam) Set(b *Bindings, t *core.Texture, surface core.TextureSurface) {
	b.set(BindingEntry{Decl: p.decl, Texture: t, Surface: surface})
}

// BufferParam is a resolved handle to a structured-buffer slot.
type BufferParam struct{ decl ParamDecl }

func (p BufferParam) Set(b *Bindings, buf *core.Buffer) {
	b.set(BindingEntry{Decl: p.decl, Buffer: buf})
}

// BlockParam is a resolved handle to a uniform-block slot.
type BlockParam struct{ decl ParamDecl }

func (p BlockParam) Set(b *Bindings, block *ParamBlockBuffer) {
	b.set(BindingEntry{Decl: p.decl, Block: block})
}
