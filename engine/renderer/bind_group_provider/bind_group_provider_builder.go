package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithGroup sets the bind group index the provider is bound at.
//
// Parameters:
//   - group: the group index
//
// Returns:
//   - BindGroupProviderOption: a function that sets the group for this provider
func WithGroup(group int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.group = group
	}
}

// WithDynamicSlots marks the provider as dynamic-offset addressed with the given slot layout.
//
// Parameters:
//   - size: the slot stride in bytes
//   - capacity: the initial number of slots
//
// Returns:
//   - BindGroupProviderOption: a function that sets the slot layout for this provider
func WithDynamicSlots(size uint64, capacity int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.dynamic = true
		p.slotSize = size
		p.slotCapacity = capacity
	}
}

// WithBindGroupLayout sets the bind group layout for this provider.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}
