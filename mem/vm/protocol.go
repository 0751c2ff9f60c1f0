package vm

import (
	"fmt"
	"strings"

	"github.com/sarchlab/addrsim/mem"
	"github.com/sarchlab/addrsim/sim/hooking"
)

// Policy decides how the page table is reordered on a hit and thereby which
// page is evicted when the table is full.
type Policy int

// The replacement policies. The numeric values match the selector used by
// the interactive menu.
const (
	PolicyLRU Policy = iota
	PolicyFIFO
)

func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "LRU"
	case PolicyFIFO:
		return "FIFO"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

func (p Policy) valid() bool {
	return p == PolicyLRU || p == PolicyFIFO
}

// ParsePolicy accepts "lru", "fifo", "0", or "1", case-insensitive.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru", "0":
		return PolicyLRU, nil
	case "fifo", "1":
		return PolicyFIFO, nil
	default:
		return 0, fmt.Errorf("%w: unknown replacement policy %q",
			mem.ErrConfig, s)
	}
}

// MarshalText encodes the policy by its name.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%w: unknown replacement policy %d",
			mem.ErrConfig, int(p))
	}

	return []byte(strings.ToLower(p.String())), nil
}

// UnmarshalText accepts anything ParsePolicy accepts.
func (p *Policy) UnmarshalText(text []byte) error {
	policy, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}

	*p = policy

	return nil
}

// A Page maps a virtual page to a physical frame. Only valid entries carry
// a mapping.
type Page struct {
	VirtualPage uint64 `json:"virtual_page"`
	Frame       uint64 `json:"frame"`
	Valid       bool   `json:"valid"`
}

// A TranslationResult reports the outcome of a translation.
//
// On a fault, PhysicalAddress is not set and the caller must translate again
// to obtain it; Frame is the frame the page has just been given. Evicted is
// set only if the fault pushed a page out of a full table.
type TranslationResult struct {
	VirtualAddress  uint64
	VirtualPage     uint64
	Offset          uint64
	Fault           bool
	PhysicalAddress uint64
	Frame           uint64
	Evicted         *Page
}

// Geometry is the set of sizes a page table is configured with.
type Geometry struct {
	MemorySize uint64 `json:"memory_size"`
	PageSize   uint64 `json:"page_size"`
	Policy     Policy `json:"policy"`
}

// NumEntries returns the capacity of the page table.
func (g Geometry) NumEntries() uint64 {
	if g.PageSize == 0 {
		return 0
	}

	return g.MemorySize / g.PageSize
}

// Statistics counts the outcome of the translations since the last
// configuration.
type Statistics struct {
	Translations uint64 `json:"translations"`
	Faults       uint64 `json:"faults"`
	Evictions    uint64 `json:"evictions"`
}

// Hits returns the number of translations that did not fault.
func (s Statistics) Hits() uint64 {
	return s.Translations - s.Faults
}

// HookPosConfigure marks a successful configuration. The item is the
// Geometry.
var HookPosConfigure = &hooking.HookPos{Name: "PageTableConfigure"}

// HookPosTranslate marks a completed translation. The item is the virtual
// address and the detail is the TranslationResult.
var HookPosTranslate = &hooking.HookPos{Name: "PageTableTranslate"}

// HookPosEvict marks that a page is evicted. The item is the evicted Page.
var HookPosEvict = &hooking.HookPos{Name: "PageTableEvict"}
