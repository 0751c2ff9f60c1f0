package cache

import (
	"github.com/sarchlab/addrsim/sim/hooking"
)

// Builder can build caches.
type Builder struct {
	memorySize uint64
	cacheSize  uint64
	blockSize  uint64
	hooks      []hooking.Hook
}

// MakeBuilder creates a new builder. The builder leaves the cache
// unconfigured unless all the sizes are given.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMemorySize sets the number of words in the main memory.
func (b Builder) WithMemorySize(memorySize uint64) Builder {
	b.memorySize = memorySize
	return b
}

// WithCacheSize sets the number of words the cache holds.
func (b Builder) WithCacheSize(cacheSize uint64) Builder {
	b.cacheSize = cacheSize
	return b
}

// WithBlockSize sets the number of words per block.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.blockSize = blockSize
	return b
}

// WithHook attaches a hook to the cache. Hooks are attached before the
// initial configuration so that they observe it.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hook)
	return b
}

// Build builds a cache. It panics if the sizes are given but cannot form a
// valid cache.
func (b Builder) Build(name string) *Comp {
	c := NewComp(name)

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	if b.memorySize == 0 && b.cacheSize == 0 && b.blockSize == 0 {
		return c
	}

	err := c.Configure(b.memorySize, b.cacheSize, b.blockSize)
	if err != nil {
		panic(err)
	}

	return c
}
