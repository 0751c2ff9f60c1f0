package vm

import (
	"github.com/sarchlab/addrsim/sim/hooking"
)

// Builder can build page tables.
type Builder struct {
	memorySize uint64
	pageSize   uint64
	policy     Policy
	hooks      []hooking.Hook
}

// MakeBuilder creates a new builder with the LRU policy.
func MakeBuilder() Builder {
	return Builder{
		policy: PolicyLRU,
	}
}

// WithMemorySize sets the number of words in the physical memory.
func (b Builder) WithMemorySize(memorySize uint64) Builder {
	b.memorySize = memorySize
	return b
}

// WithPageSize sets the number of words per page.
func (b Builder) WithPageSize(pageSize uint64) Builder {
	b.pageSize = pageSize
	return b
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(policy Policy) Builder {
	b.policy = policy
	return b
}

// WithHook attaches a hook to the page table.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hook)
	return b
}

// Build builds a page table. The page table stays unconfigured if neither
// size is given. It panics if the sizes cannot form a valid table.
func (b Builder) Build(name string) *PageTable {
	t := NewPageTable(name)

	for _, h := range b.hooks {
		t.AcceptHook(h)
	}

	if b.memorySize == 0 && b.pageSize == 0 {
		return t
	}

	err := t.Configure(b.memorySize, b.pageSize, b.policy)
	if err != nil {
		panic(err)
	}

	return t
}
