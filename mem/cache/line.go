package cache

// A Line is a row of the direct-mapped cache. The Tag is meaningful only
// when IsValid is set. Block stays nil until the line is first filled and
// keeps its length after that.
type Line struct {
	Tag     uint64
	IsValid bool
	Block   []int64
}

// lineArray holds the lines of the cache, one per index.
type lineArray struct {
	blockSize uint64
	lines     []Line
}

func newLineArray(numLines, blockSize uint64) *lineArray {
	a := &lineArray{
		blockSize: blockSize,
	}

	a.Reset(numLines)

	return a
}

// Lookup tells if the line at the index currently holds the tag.
func (a *lineArray) Lookup(index, tag uint64) (*Line, bool) {
	line := &a.lines[index]

	return line, line.IsValid && line.Tag == tag
}

// Allocate makes sure the line has a block and marks it as holding the tag.
func (a *lineArray) Allocate(line *Line, tag uint64) {
	if line.Block == nil {
		line.Block = make([]int64, a.blockSize)
	}

	line.Tag = tag
	line.IsValid = true
}

// Reset invalidates all the lines.
func (a *lineArray) Reset(numLines uint64) {
	a.lines = make([]Line, numLines)
}

// Snapshot returns a deep copy of the lines.
func (a *lineArray) Snapshot() []Line {
	lines := make([]Line, len(a.lines))
	for i, l := range a.lines {
		lines[i] = Line{Tag: l.Tag, IsValid: l.IsValid}
		if l.Block != nil {
			lines[i].Block = append([]int64(nil), l.Block...)
		}
	}

	return lines
}
