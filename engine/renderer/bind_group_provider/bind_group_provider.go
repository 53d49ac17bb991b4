package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// group is the bind group index the provider is bound at, or -1 for geometry providers.
	group int

	// The following fields are GPU allocated resources owned by the provider and freed by Release.

	bindGroup    *wgpu.BindGroup
	buffers      map[int]*wgpu.Buffer
	vertexBuffer *wgpu.Buffer
	skinBuffer   *wgpu.Buffer
	indexBuffer  *wgpu.Buffer

	// bindGroupLayout is shared between pipelines and owned by the backend, so Release leaves it alone.
	bindGroupLayout *wgpu.BindGroupLayout

	dynamic      bool
	slotSize     uint64
	slotCapacity int

	indexCount  int
	indexFormat wgpu.IndexFormat
}

// BindGroupProvider owns the wgpu resources behind one bind group or one geometry.
//
// Uniform providers hold a buffer per binding and the bind group over them. Dynamic providers
// split their buffer into fixed-size slots addressed by a per-draw dynamic offset, and are
// rebuilt larger when the slot capacity is exceeded.
// Geometry providers hold vertex, optional skin, and index buffers.
type BindGroupProvider interface {
	// Release releases every GPU resource owned by the provider. The borrowed layout is kept.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index, or -1 for geometry providers.
	//
	// Returns:
	//   - int: the group index
	Group() int

	// BindGroup returns the bind group, or nil if not created yet.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// SetBindGroup stores the created bind group.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// BindGroupLayout returns the layout the bind group was created against.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the borrowed layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// SetBindGroupLayout stores the layout the bind group will be created against.
	//
	// Parameters:
	//   - bgl: the layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// Buffer returns the uniform buffer of a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores the uniform buffer of a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// Buffers returns every uniform buffer keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: the buffers
	Buffers() map[int]*wgpu.Buffer

	// Dynamic reports whether the provider is bound with a dynamic offset.
	//
	// Returns:
	//   - bool: true for slot-addressed providers
	Dynamic() bool

	// SlotSize returns the byte stride between slots.
	//
	// Returns:
	//   - uint64: the slot size
	SlotSize() uint64

	// SlotCapacity returns the number of slots the current buffer holds.
	//
	// Returns:
	//   - int: the slot capacity
	SlotCapacity() int

	// SetSlots records the slot layout of the current buffer.
	//
	// Parameters:
	//   - size: the slot stride, a multiple of the device's uniform offset alignment
	//   - capacity: the number of slots
	SetSlots(size uint64, capacity int)

	// BufferSize returns the byte size a buffer holding SlotCapacity slots needs.
	//
	// Returns:
	//   - uint64: SlotSize × SlotCapacity
	BufferSize() uint64

	// VertexBuffer returns the geometry vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// SetVertexBuffer stores the geometry vertex buffer.
	SetVertexBuffer(buf *wgpu.Buffer)

	// SkinBuffer returns the geometry skin buffer, or nil for static geometry.
	SkinBuffer() *wgpu.Buffer

	// SetSkinBuffer stores the geometry skin buffer.
	SetSkinBuffer(buf *wgpu.Buffer)

	// IndexBuffer returns the geometry index buffer, or nil.
	IndexBuffer() *wgpu.Buffer

	// SetIndexBuffer stores the geometry index buffer.
	SetIndexBuffer(buf *wgpu.Buffer)

	// IndexCount returns the number of indices to draw.
	IndexCount() int

	// SetIndexCount sets the number of indices to draw.
	SetIndexCount(count int)

	// IndexFormat returns the index element format.
	IndexFormat() wgpu.IndexFormat

	// SetIndexFormat sets the index element format.
	SetIndexFormat(format wgpu.IndexFormat)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:       label,
		group:       -1,
		buffers:     make(map[int]*wgpu.Buffer),
		indexFormat: wgpu.IndexFormatUint32,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) Dynamic() bool {
	return p.dynamic
}

func (p *bindGroupProvider) SlotSize() uint64 {
	return p.slotSize
}

func (p *bindGroupProvider) SlotCapacity() int {
	return p.slotCapacity
}

func (p *bindGroupProvider) SetSlots(size uint64, capacity int) {
	p.slotSize = size
	p.slotCapacity = capacity
}

func (p *bindGroupProvider) BufferSize() uint64 {
	return p.slotSize * uint64(p.slotCapacity)
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SkinBuffer() *wgpu.Buffer {
	return p.skinBuffer
}

func (p *bindGroupProvider) SetSkinBuffer(buf *wgpu.Buffer) {
	p.skinBuffer = buf
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) IndexFormat() wgpu.IndexFormat {
	return p.indexFormat
}

func (p *bindGroupProvider) SetIndexFormat(format wgpu.IndexFormat) {
	p.indexFormat = format
}

func (p *bindGroupProvider) Release() {
	// The bind group references the buffers, so it goes first.
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	for _, buf := range []**wgpu.Buffer{&p.vertexBuffer, &p.skinBuffer, &p.indexBuffer} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
}

// BufferWrite is one queued write of Data into a provider's binding, starting at Offset bytes.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
