// Package addressing splits linear addresses into the fields used to index
// mapping tables.
package addressing

import (
	"fmt"

	"github.com/sarchlab/addrsim/mem"
)

// A Location is the decomposition of an address against a table geometry.
type Location struct {
	Tag    uint64
	Index  uint64
	Offset uint64
}

// Decode splits the address into tag, index, and offset. The tableSize is
// the number of words the table covers and unitSize is the number of words
// per block (or page). Zero sizes yield zero fields rather than a division
// fault.
func Decode(address, tableSize, unitSize uint64) (Location, error) {
	if unitSize > tableSize {
		return Location{}, fmt.Errorf(
			"%w: block size %d is greater than table size %d",
			mem.ErrConfig, unitSize, tableSize)
	}

	loc := Location{}

	if unitSize > 0 {
		loc.Offset = address % unitSize
		loc.Index = (address % tableSize) / unitSize
	}

	if tableSize > 0 {
		loc.Tag = address / tableSize
	}

	return loc, nil
}

// PageOf returns the page number and in-page offset of an address. Fully
// associative tables have no index field, so only a plain division is
// needed.
func PageOf(address, pageSize uint64) (page, offset uint64) {
	if pageSize == 0 {
		return 0, 0
	}

	return address / pageSize, address % pageSize
}

// BaseOf returns the first address of the unit that holds the address.
func BaseOf(address, unitSize uint64) uint64 {
	if unitSize == 0 {
		return address
	}

	return address - address%unitSize
}
