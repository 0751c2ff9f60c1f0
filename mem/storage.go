package mem

import "fmt"

// A Storage is the simulated main memory. It keeps a fixed number of words
// that the simulators read on a miss and write through on a store.
//
// The content is seeded deterministically so that runs are reproducible: the
// word at index i holds size - i.
type Storage struct {
	words []int64
}

// NewStorage creates a storage with the specified number of words.
func NewStorage(size uint64) *Storage {
	s := new(Storage)
	s.words = make([]int64, size)
	s.Seed()

	return s
}

// Seed restores the deterministic initial content.
func (s *Storage) Seed() {
	size := int64(len(s.words))
	for i := range s.words {
		s.words[i] = size - int64(i)
	}
}

// Size returns the number of words in the storage.
func (s *Storage) Size() uint64 {
	if s == nil {
		return 0
	}

	return uint64(len(s.words))
}

func (s *Storage) mustBeAccessible(address uint64) error {
	if s.Size() == 0 {
		return ErrNotConfigured
	}

	if address >= s.Size() {
		return fmt.Errorf("%w: address %d, memory size %d",
			ErrOutOfRange, address, s.Size())
	}

	return nil
}

// Read returns the word at the address.
func (s *Storage) Read(address uint64) (int64, error) {
	if err := s.mustBeAccessible(address); err != nil {
		return 0, err
	}

	return s.words[address], nil
}

// Write stores a word at the address.
func (s *Storage) Write(address uint64, value int64) error {
	if err := s.mustBeAccessible(address); err != nil {
		return err
	}

	s.words[address] = value

	return nil
}

// ReadBlock copies len(dst) words starting at base into dst. Words past the end of
// the storage are not copied and dst keeps its content there. It returns the
// number of words copied.
func (s *Storage) ReadBlock(base uint64, dst []int64) (int, error) {
	if err := s.mustBeAccessible(base); err != nil {
		return 0, err
	}

	return copy(dst, s.words[base:]), nil
}

// Words returns a copy of the storage content.
func (s *Storage) Words() []int64 {
	if s == nil {
		return nil
	}

	words := make([]int64, len(s.words))
	copy(words, s.words)

	return words
}
