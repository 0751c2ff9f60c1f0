package cache

import (
	"fmt"

	"github.com/sarchlab/addrsim/sim/hooking"
)

// AccessMode tells if an access reads from or writes to the cache.
type AccessMode int

// The access modes. The numeric values match the selector used by the
// interactive menu.
const (
	AccessModeRead AccessMode = iota
	AccessModeWrite
)

func (m AccessMode) String() string {
	switch m {
	case AccessModeRead:
		return "read"
	case AccessModeWrite:
		return "write"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// An AccessReq asks the cache to read or write one word.
type AccessReq struct {
	Mode     AccessMode
	Address  uint64
	Value    int64
	HasValue bool
}

// ReadReq creates a request that reads the word at the address.
func ReadReq(address uint64) AccessReq {
	return AccessReq{Mode: AccessModeRead, Address: address}
}

// WriteReq creates a request that writes the value to the address.
func WriteReq(address uint64, value int64) AccessReq {
	return AccessReq{
		Mode:     AccessModeWrite,
		Address:  address,
		Value:    value,
		HasValue: true,
	}
}

// An AccessResult reports what happened during an access. Word is the offset
// in the block, Index is the cache line, and Value is the word held by the
// line after the access.
type AccessResult struct {
	Mode    AccessMode
	Address uint64
	Hit     bool
	Word    uint64
	Index   uint64
	Tag     uint64
	Value   int64
}

// Geometry is the set of sizes a cache simulator is configured with. All the
// sizes are counted in words.
type Geometry struct {
	MemorySize uint64 `json:"memory_size"`
	CacheSize  uint64 `json:"cache_size"`
	BlockSize  uint64 `json:"block_size"`
}

// NumLines returns the number of cache lines.
func (g Geometry) NumLines() uint64 {
	if g.BlockSize == 0 {
		return 0
	}

	return g.CacheSize / g.BlockSize
}

// Statistics counts the outcome of the accesses since the last
// configuration.
type Statistics struct {
	ReadHits    uint64 `json:"read_hits"`
	ReadMisses  uint64 `json:"read_misses"`
	WriteHits   uint64 `json:"write_hits"`
	WriteMisses uint64 `json:"write_misses"`
}

// Accesses returns the total number of accesses.
func (s Statistics) Accesses() uint64 {
	return s.ReadHits + s.ReadMisses + s.WriteHits + s.WriteMisses
}

// HookPosConfigure marks a successful configuration. The item is the
// Geometry.
var HookPosConfigure = &hooking.HookPos{Name: "CacheConfigure"}

// HookPosAccess marks a completed access. The item is the AccessReq and the
// detail is the AccessResult.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}
