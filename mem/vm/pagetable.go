// Package vm provides a fully associative page table that translates
// virtual addresses to physical addresses.
package vm

import (
	"fmt"

	"github.com/sarchlab/addrsim/mem"
	"github.com/sarchlab/addrsim/mem/addressing"
	"github.com/sarchlab/addrsim/sim/hooking"
	"github.com/sarchlab/addrsim/sim/naming"
)

// A PageTable is an ordered table of mappings. Valid entries always occupy a
// prefix of the table; the position encodes the insertion order (FIFO) or
// the recency order (LRU). The front entry is the one evicted next.
//
// A PageTable is not safe for concurrent use.
type PageTable struct {
	hooking.HookableBase
	naming.NamedBase

	geometry Geometry
	entries  []Page
	numValid int
	stats    Statistics
}

// NewPageTable creates a page table that is not configured yet.
func NewPageTable(name string) *PageTable {
	naming.MustBeValid(name)

	return &PageTable{NamedBase: naming.MakeNamedBase(name)}
}

// Configure sets the memory size, the page size, and the replacement policy.
// The table gets memorySize / pageSize entries, all unused. On error, the
// previous configuration is kept.
func (t *PageTable) Configure(
	memorySize, pageSize uint64,
	policy Policy,
) error {
	g := Geometry{
		MemorySize: memorySize,
		PageSize:   pageSize,
		Policy:     policy,
	}

	if err := g.validate(); err != nil {
		return err
	}

	t.geometry = g
	t.entries = make([]Page, g.NumEntries())
	t.numValid = 0
	t.stats = Statistics{}

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    HookPosConfigure,
		Item:   g,
	})

	return nil
}

func (g Geometry) validate() error {
	if g.MemorySize == 0 || g.PageSize == 0 {
		return fmt.Errorf("%w: sizes must be positive, got memory %d, page %d",
			mem.ErrConfig, g.MemorySize, g.PageSize)
	}

	if g.NumEntries() == 0 {
		return fmt.Errorf("%w: page size %d is greater than memory size %d",
			mem.ErrConfig, g.PageSize, g.MemorySize)
	}

	if !g.Policy.valid() {
		return fmt.Errorf("%w: unknown replacement policy %s",
			mem.ErrConfig, g.Policy)
	}

	return nil
}

// Configured tells if the page table can serve translations.
func (t *PageTable) Configured() bool {
	return t.entries != nil
}

// Geometry returns the current configuration.
func (t *PageTable) Geometry() Geometry {
	return t.geometry
}

// Translate maps a virtual address. A page that is not in the table causes a
// fault and is inserted, evicting the front entry if the table is full. A
// fault is a valid outcome, not an error.
func (t *PageTable) Translate(vAddr uint64) (TranslationResult, error) {
	if !t.Configured() {
		return TranslationResult{}, mem.ErrNotConfigured
	}

	page, offset := addressing.PageOf(vAddr, t.geometry.PageSize)
	rsp := TranslationResult{
		VirtualAddress: vAddr,
		VirtualPage:    page,
		Offset:         offset,
	}

	idx, found := t.find(page)

	switch {
	case found:
		rsp.Frame = t.hit(idx)
		rsp.PhysicalAddress = rsp.Frame*t.geometry.PageSize + offset
	case t.numValid < len(t.entries):
		rsp.Fault = true
		rsp.Frame = t.occupy(page)
	default:
		rsp.Fault = true
		evicted := t.evict(page)
		rsp.Frame = evicted.Frame
		rsp.Evicted = &evicted
	}

	t.stats.Translations++
	if rsp.Fault {
		t.stats.Faults++
	}

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    HookPosTranslate,
		Item:   vAddr,
		Detail: rsp,
	})

	return rsp, nil
}

func (t *PageTable) find(page uint64) (int, bool) {
	for i := 0; i < t.numValid; i++ {
		if t.entries[i].VirtualPage == page {
			return i, true
		}
	}

	return t.numValid, false
}

// hit reorders the table according to the policy and returns the frame of
// the page.
func (t *PageTable) hit(idx int) uint64 {
	entry := t.entries[idx]

	if t.geometry.Policy == PolicyLRU {
		last := t.numValid - 1
		copy(t.entries[idx:last], t.entries[idx+1:t.numValid])
		t.entries[last] = entry
	}

	return entry.Frame
}

// occupy puts the page into the first unused slot. The frame number of a
// slot filled this way is its position.
func (t *PageTable) occupy(page uint64) uint64 {
	idx := t.numValid
	t.entries[idx] = Page{
		VirtualPage: page,
		Frame:       uint64(idx),
		Valid:       true,
	}
	t.numValid++

	return uint64(idx)
}

// evict drops the front entry, shifts the table forward, and appends the
// page with the frame of the evicted entry.
func (t *PageTable) evict(page uint64) Page {
	evicted := t.entries[0]
	last := len(t.entries) - 1

	copy(t.entries[:last], t.entries[1:])
	t.entries[last] = Page{
		VirtualPage: page,
		Frame:       evicted.Frame,
		Valid:       true,
	}
	t.stats.Evictions++

	t.InvokeHook(hooking.HookCtx{
		Domain: t,
		Pos:    HookPosEvict,
		Item:   evicted,
	})

	return evicted
}

// Entries returns the valid entries, front first.
func (t *PageTable) Entries() []Page {
	entries := make([]Page, t.numValid)
	copy(entries, t.entries[:t.numValid])

	return entries
}

// Table returns all the slots of the table, including the unused ones.
func (t *PageTable) Table() []Page {
	entries := make([]Page, len(t.entries))
	copy(entries, t.entries)

	return entries
}

// Stats returns the translation counters.
func (t *PageTable) Stats() Statistics {
	return t.stats
}
