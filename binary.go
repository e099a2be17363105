package worldcore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// buffer is a helper for writing binary data with convenient typed methods.
// Used to build the chunk wire format: dense, order-sensitive, no
// self-describing framing beyond the varint length prefixes it needs.
type buffer struct {
	bytes.Buffer
}

// newBuffer creates a new buffer.
func newBuffer() *buffer {
	return &buffer{}
}

// WriteInt32 writes an int32 in big-endian format.
func (b *buffer) WriteInt32(v int32) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteUint16 writes a uint16 in big-endian format.
func (b *buffer) WriteUint16(v uint16) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteU8 writes a single byte.
func (b *buffer) WriteU8(v uint8) {
	_ = b.WriteByte(v)
}

// WriteBool writes a boolean as a byte (0 or 1).
func (b *buffer) WriteBool(v bool) {
	if v {
		_ = b.WriteByte(1)
	} else {
		_ = b.WriteByte(0)
	}
}

// WriteVarInt writes a variable-length integer.
func (b *buffer) WriteVarInt(v int64) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, v)
	_, _ = b.Write(buf[:n])
}

// WriteString writes a string with its length as a varint.
func (b *buffer) WriteString(s string) {
	b.WriteVarInt(int64(len(s)))
	_, _ = b.Write([]byte(s))
}

// WriteBytes writes a byte slice with its length as a varint.
func (b *buffer) WriteBytes(data []byte) {
	b.WriteVarInt(int64(len(data)))
	_, _ = b.Write(data)
}

// writeVarInt writes a variable-length integer to a writer.
func writeVarInt(w io.Writer, v int64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, v)
	_, err := w.Write(buf[:n])
	return err
}

// readVarInt reads a variable-length integer from a reader.
func readVarInt(r io.Reader) (int64, error) {
	// Use io.ByteReader interface for binary.ReadVarint
	br, ok := r.(io.ByteReader)
	if !ok {
		// Wrap in a byte reader
		br = &byteReader{r: r}
	}
	v, err := binary.ReadVarint(br)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// byteReader wraps an io.Reader to implement io.ByteReader
type byteReader struct {
	r io.Reader
}

func (br *byteReader) ReadByte() (byte, error) {
	b := make([]byte, 1)
	n, err := br.r.Read(b)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return b[0], nil
}

// reader is a helper for reading binary data with convenient typed methods.
type reader struct {
	r io.Reader
}

// newReader creates a new reader wrapping the given io.Reader.
func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

// ReadInt32 reads an int32 in big-endian format.
func (r *reader) ReadInt32() (int32, error) {
	var v int32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadUint16 reads a uint16 in big-endian format.
func (r *reader) ReadUint16() (uint16, error) {
	var v uint16
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadU8 reads a single byte.
func (r *reader) ReadU8() (uint8, error) {
	return r.ReadByte()
}

// ReadByte reads a single byte.
func (r *reader) ReadByte() (byte, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r.r, b)
	return b[0], err
}

// ReadBool reads a boolean (0 or 1).
func (r *reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadVarInt reads a variable-length integer.
func (r *reader) ReadVarInt() (int64, error) {
	return readVarInt(r.r)
}

// ReadString reads a string with its length as a varint.
func (r *reader) ReadString() (string, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if length < 0 || length > 1<<20 { // 1MB limit
		return "", fmt.Errorf("invalid string length: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadBytes reads a byte slice with its length as a varint.
func (r *reader) ReadBytes() ([]byte, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || length > 1<<24 { // 16MB limit
		return nil, fmt.Errorf("invalid byte array length: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadN reads exactly n bytes.
func (r *reader) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(r.r, buf)
	return buf, err
}
