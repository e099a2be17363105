package worldcore

import (
	"bytes"
	"fmt"

	"github.com/brilliance-games/worldcore/compressable"
)

// SectionOverflowError is panicked by PushSection once a chunk already holds
// VerticalSections sections. Chunk height is a hard engine limit, not a
// recoverable condition a caller is expected to check for in advance.
type SectionOverflowError struct {
	Max int
}

func (e *SectionOverflowError) Error() string {
	return fmt.Sprintf("worldcore: chunk already holds the maximum of %d sections", e.Max)
}

// SectionOutOfRangeError is panicked by ChangeBlock when addressing a
// section index that hasn't been pushed yet.
type SectionOutOfRangeError struct {
	Index, Len int
}

func (e *SectionOutOfRangeError) Error() string {
	return fmt.Sprintf("worldcore: section index %d out of range (chunk has %d sections)", e.Index, e.Len)
}

// ChunkData is the block-level content of one chunk column: an ordered
// stack of up to VerticalSections sections, bottom to top. Unlike
// ChunkSectionData, the stack itself is sparse in height only in the sense
// that it may be shorter than VerticalSections — a generator that only
// populates the bottom of the world need not allocate sections it will
// never touch.
type ChunkData struct {
	sections []*ChunkSectionData
}

// NewChunkData returns a chunk with no sections pushed yet.
func NewChunkData() *ChunkData {
	return &ChunkData{}
}

// Len returns the number of sections currently pushed.
func (c *ChunkData) Len() int { return len(c.sections) }

// PushSection appends section to the top of the stack. It panics with
// *SectionOverflowError once VerticalSections have already been pushed.
func (c *ChunkData) PushSection(section *ChunkSectionData) {
	if len(c.sections) >= VerticalSections {
		panic(&SectionOverflowError{Max: VerticalSections})
	}
	c.sections = append(c.sections, section)
}

// Section returns the section at index, or nil if it hasn't been pushed.
func (c *ChunkData) Section(index uint8) *ChunkSectionData {
	if int(index) >= len(c.sections) {
		return nil
	}
	return c.sections[index]
}

// ChangeBlock overwrites the block at pos within the given section. It
// panics with *SectionOverflowError if section exceeds VerticalSections, or
// with *SectionOutOfRangeError if that section has not been pushed yet.
func (c *ChunkData) ChangeBlock(section uint8, pos ChunkBlockPosition, block *BlockDataInfo) {
	if int(section) > VerticalSections {
		panic(&SectionOverflowError{Max: VerticalSections})
	}
	if int(section) >= len(c.sections) {
		panic(&SectionOutOfRangeError{Index: int(section), Len: len(c.sections)})
	}
	c.sections[section].Change(pos, block)
}

// GetBlockInfo reads the block at a world-space position, decomposing it
// into a section index and an in-section position. It returns nil both when
// the section hasn't been pushed and when the slot itself is empty.
func (c *ChunkData) GetBlockInfo(pos BlockPosition) *BlockDataInfo {
	section, local := pos.Split()
	if int(section) >= len(c.sections) {
		return nil
	}
	return c.sections[section].Get(local)
}

// sentinel bytes for the per-slot optional fields in the section codec.
const (
	slotAbsent  = 0
	slotPresent = 1
)

// Encode renders the chunk as a deterministic byte stream: a varint section
// count, then each section as SectionVolume fixed-shape slots in linear
// index order. The layout is dense rather than a sparse slot list so the
// on-disk size tracks occupied volume rather than the encoder's traversal
// order, and so decode never needs to distinguish "never written" from
// "written empty".
func (c *ChunkData) Encode() []byte {
	buf := newBuffer()
	buf.WriteVarInt(int64(len(c.sections)))
	for _, s := range c.sections {
		encodeSection(buf, s)
	}
	return buf.Bytes()
}

func encodeSection(buf *buffer, s *ChunkSectionData) {
	for i := 0; i < SectionVolume; i++ {
		block := s.Get(linearToPos(uint16(i)))
		if block == nil {
			buf.WriteU8(slotAbsent)
			continue
		}
		buf.WriteU8(slotPresent)
		buf.WriteUint16(block.ID())
		if face := block.Face(); face != nil {
			buf.WriteU8(1)
			buf.WriteU8(uint8(*face))
		} else {
			buf.WriteU8(0)
		}
		if color := block.Color(); color != nil {
			buf.WriteU8(1)
			buf.WriteU8(*color)
		} else {
			buf.WriteU8(0)
		}
	}
}

// linearToPos inverts ChunkBlockPosition.Linearize.
func linearToPos(idx uint16) ChunkBlockPosition {
	x := idx % ChunkSize
	rest := idx / ChunkSize
	z := rest % ChunkSize
	y := rest / ChunkSize
	return ChunkBlockPosition{X: uint8(x), Y: uint8(y), Z: uint8(z)}
}

// DecodeChunkData parses the byte stream produced by Encode.
func DecodeChunkData(data []byte) (*ChunkData, error) {
	r := newReader(bytes.NewReader(data))
	count, err := r.ReadVarInt()
	if err != nil {
		return nil, &DecodeError{Msg: "section count: " + err.Error()}
	}
	if count < 0 || count > VerticalSections {
		return nil, &DecodeError{Msg: fmt.Sprintf("section count %d out of range", count)}
	}
	c := NewChunkData()
	for i := int64(0); i < count; i++ {
		s, err := decodeSection(r)
		if err != nil {
			return nil, err
		}
		c.sections = append(c.sections, s)
	}
	return c, nil
}

func decodeSection(r *reader) (*ChunkSectionData, error) {
	s := NewChunkSectionData()
	for i := 0; i < SectionVolume; i++ {
		present, err := r.ReadU8()
		if err != nil {
			return nil, &DecodeError{Msg: "slot presence: " + err.Error()}
		}
		if present == slotAbsent {
			continue
		}
		id, err := r.ReadUint16()
		if err != nil {
			return nil, &DecodeError{Msg: "slot id: " + err.Error()}
		}
		block := NewBlockDataInfo(id)
		hasFace, err := r.ReadU8()
		if err != nil {
			return nil, &DecodeError{Msg: "slot face flag: " + err.Error()}
		}
		if hasFace == 1 {
			faceByte, err := r.ReadU8()
			if err != nil {
				return nil, &DecodeError{Msg: "slot face: " + err.Error()}
			}
			block = block.WithFace(BlockFace(faceByte))
		}
		hasColor, err := r.ReadU8()
		if err != nil {
			return nil, &DecodeError{Msg: "slot color flag: " + err.Error()}
		}
		if hasColor == 1 {
			colorByte, err := r.ReadU8()
			if err != nil {
				return nil, &DecodeError{Msg: "slot color: " + err.Error()}
			}
			block = block.WithColor(colorByte)
		}
		s.Change(linearToPos(uint16(i)), &block)
	}
	return s, nil
}

// Compress encodes and zstd-compresses the chunk via the shared
// compressable pipeline.
func (c *ChunkData) Compress() ([]byte, error) {
	return compressable.Compress(chunkEncoder{c})
}

// DecompressChunkData reverses Compress.
func DecompressChunkData(data []byte) (*ChunkData, error) {
	return compressable.Decompress(data, DecodeChunkData)
}

type chunkEncoder struct{ c *ChunkData }

func (e chunkEncoder) Encode() []byte { return e.c.Encode() }
