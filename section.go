package worldcore

// ChunkSectionData is a fixed-volume, dense array of optional block data —
// every index in [0, SectionVolume) is addressable. This representation is
// load-bearing: a sparse map would change both the on-disk size and the
// iteration order callers observe.
type ChunkSectionData struct {
	data [SectionVolume]*BlockDataInfo
}

// NewChunkSectionData returns an empty section: SectionVolume slots, all
// unoccupied.
func NewChunkSectionData() *ChunkSectionData {
	return &ChunkSectionData{}
}

// Change overwrites the slot at pos, dropping whatever was there before.
func (s *ChunkSectionData) Change(pos ChunkBlockPosition, block *BlockDataInfo) {
	s.data[pos.Linearize()] = block
}

// Insert writes block at pos and returns the value it displaced, if any.
func (s *ChunkSectionData) Insert(pos ChunkBlockPosition, block BlockDataInfo) *BlockDataInfo {
	idx := pos.Linearize()
	old := s.data[idx]
	s.data[idx] = &block
	return old
}

// Get reads the slot at pos.
func (s *ChunkSectionData) Get(pos ChunkBlockPosition) *BlockDataInfo {
	return s.data[pos.Linearize()]
}

// SectionEntry is one non-empty slot surfaced by Iter.
type SectionEntry struct {
	Index uint16
	Block *BlockDataInfo
}

// Iter returns every non-empty slot in ascending linear-index order.
func (s *ChunkSectionData) Iter() []SectionEntry {
	entries := make([]SectionEntry, 0, s.Len())
	for i, b := range s.data {
		if b != nil {
			entries = append(entries, SectionEntry{Index: uint16(i), Block: b})
		}
	}
	return entries
}

// Len returns the count of non-empty slots.
func (s *ChunkSectionData) Len() int {
	n := 0
	for _, b := range s.data {
		if b != nil {
			n++
		}
	}
	return n
}
