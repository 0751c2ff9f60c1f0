// Package cache provides a direct-mapped, write-through cache simulator
// over a simulated main memory.
package cache

import (
	"fmt"

	"github.com/sarchlab/addrsim/mem"
	"github.com/sarchlab/addrsim/mem/addressing"
	"github.com/sarchlab/addrsim/sim/hooking"
	"github.com/sarchlab/addrsim/sim/naming"
)

// A Comp simulates a direct-mapped cache. Every write is committed to the
// memory immediately. A write miss allocates the line; on a line that has
// never been used the rest of the block is not filled from memory.
//
// A Comp is not safe for concurrent use.
type Comp struct {
	hooking.HookableBase
	naming.NamedBase

	geometry Geometry
	memory   *mem.Storage
	lines    *lineArray
	stats    Statistics
}

// NewComp creates a cache that is not configured yet.
func NewComp(name string) *Comp {
	naming.MustBeValid(name)

	return &Comp{NamedBase: naming.MakeNamedBase(name)}
}

// Configure sets the sizes of the memory, the cache, and the blocks. The
// memory is re-seeded and all the lines are invalidated. On error, the
// previous configuration is kept.
func (c *Comp) Configure(memorySize, cacheSize, blockSize uint64) error {
	g := Geometry{
		MemorySize: memorySize,
		CacheSize:  cacheSize,
		BlockSize:  blockSize,
	}

	if err := g.validate(); err != nil {
		return err
	}

	c.geometry = g
	c.memory = mem.NewStorage(memorySize)
	c.lines = newLineArray(g.NumLines(), blockSize)
	c.stats = Statistics{}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosConfigure,
		Item:   g,
	})

	return nil
}

func (g Geometry) validate() error {
	if g.MemorySize == 0 || g.CacheSize == 0 || g.BlockSize == 0 {
		return fmt.Errorf("%w: sizes must be positive, got memory %d, "+
			"cache %d, block %d",
			mem.ErrConfig, g.MemorySize, g.CacheSize, g.BlockSize)
	}

	if g.BlockSize > g.CacheSize {
		return fmt.Errorf("%w: block size %d is greater than cache size %d",
			mem.ErrConfig, g.BlockSize, g.CacheSize)
	}

	if g.CacheSize%g.BlockSize != 0 {
		return fmt.Errorf("%w: cache size %d is not a multiple of "+
			"block size %d",
			mem.ErrConfig, g.CacheSize, g.BlockSize)
	}

	return nil
}

// Configured tells if the cache can serve accesses.
func (c *Comp) Configured() bool {
	return c.lines != nil
}

// Geometry returns the current configuration.
func (c *Comp) Geometry() Geometry {
	return c.geometry
}

// Access reads or writes one word. All the preconditions are checked before
// the state changes, so a failed access leaves the cache and the memory
// untouched.
func (c *Comp) Access(req AccessReq) (AccessResult, error) {
	if err := c.mustAccept(req); err != nil {
		return AccessResult{}, err
	}

	loc, err := addressing.Decode(
		req.Address, c.geometry.CacheSize, c.geometry.BlockSize)
	if err != nil {
		return AccessResult{}, err
	}

	var rsp AccessResult

	switch req.Mode {
	case AccessModeRead:
		rsp = c.read(req, loc)
	case AccessModeWrite:
		rsp = c.write(req, loc)
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item:   req,
		Detail: rsp,
	})

	return rsp, nil
}

// Read is a shorthand for reading the word at the address.
func (c *Comp) Read(address uint64) (AccessResult, error) {
	return c.Access(ReadReq(address))
}

// Write is a shorthand for writing the value to the address.
func (c *Comp) Write(address uint64, value int64) (AccessResult, error) {
	return c.Access(WriteReq(address, value))
}

func (c *Comp) mustAccept(req AccessReq) error {
	if !c.Configured() {
		return mem.ErrNotConfigured
	}

	if req.Address >= c.geometry.MemorySize {
		return fmt.Errorf("%w: address %d, memory size %d",
			mem.ErrOutOfRange, req.Address, c.geometry.MemorySize)
	}

	switch req.Mode {
	case AccessModeRead:
	case AccessModeWrite:
		if !req.HasValue {
			return mem.ErrMissingValue
		}
	default:
		return fmt.Errorf("unknown access mode %s", req.Mode)
	}

	return nil
}

func (c *Comp) read(req AccessReq, loc addressing.Location) AccessResult {
	line, hit := c.lines.Lookup(loc.Index, loc.Tag)

	if hit {
		c.stats.ReadHits++
	} else {
		c.stats.ReadMisses++
		c.lines.Allocate(line, loc.Tag)
		c.fill(line, req.Address)
	}

	return c.result(req, loc, line, hit)
}

func (c *Comp) write(req AccessReq, loc addressing.Location) AccessResult {
	line, hit := c.lines.Lookup(loc.Index, loc.Tag)

	if hit {
		c.stats.WriteHits++
	} else {
		c.stats.WriteMisses++

		previouslyUsed := line.IsValid
		c.lines.Allocate(line, loc.Tag)

		if previouslyUsed {
			c.fill(line, req.Address)
		}
	}

	line.Block[loc.Offset] = req.Value

	err := c.memory.Write(req.Address, req.Value)
	if err != nil {
		panic(err)
	}

	return c.result(req, loc, line, hit)
}

// fill copies the block that holds the address from the memory into the
// line. Words of a block that runs past the end of the memory are zeroed.
func (c *Comp) fill(line *Line, address uint64) {
	base := addressing.BaseOf(address, c.geometry.BlockSize)

	n, err := c.memory.ReadBlock(base, line.Block)
	if err != nil {
		panic(err)
	}

	clear(line.Block[n:])
}

func (c *Comp) result(
	req AccessReq,
	loc addressing.Location,
	line *Line,
	hit bool,
) AccessResult {
	return AccessResult{
		Mode:    req.Mode,
		Address: req.Address,
		Hit:     hit,
		Word:    loc.Offset,
		Index:   loc.Index,
		Tag:     loc.Tag,
		Value:   line.Block[loc.Offset],
	}
}

// Lines returns a copy of all the cache lines.
func (c *Comp) Lines() []Line {
	if !c.Configured() {
		return nil
	}

	return c.lines.Snapshot()
}

// MemoryWords returns a copy of the simulated main memory.
func (c *Comp) MemoryWords() []int64 {
	return c.memory.Words()
}

// ReadMemory returns the word stored in the memory, bypassing the cache.
func (c *Comp) ReadMemory(address uint64) (int64, error) {
	return c.memory.Read(address)
}

// Stats returns the hit and miss counters.
func (c *Comp) Stats() Statistics {
	return c.stats
}
