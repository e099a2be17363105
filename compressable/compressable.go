// Package compressable implements the encode/compress pipeline shared by
// every on-disk value in worldcore: a deterministic byte encoding, entropy
// coded with zstd at a fixed level. Expressed here as a free-function
// pipeline over a minimal Encoder capability rather than a trait with
// default methods, since Go has no mixins.
package compressable

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Level is the fixed zstd compression level the on-disk format commits to.
// It is part of the wire contract: changing it changes every newly written
// blob's bytes (though not readability of old ones, since zstd frames are
// self-describing).
const Level = 7

var encoderLevel = zstd.EncoderLevelFromZstd(Level)

// Encoder is the minimal capability a compressable value must provide: a
// deterministic binary (or self-describing) serialization of itself.
type Encoder interface {
	Encode() []byte
}

// Compress encodes e and entropy-compresses the result with zstd at Level.
// The compressor is entropy-coding only; it never lossily transforms data.
func Compress(e Encoder) ([]byte, error) {
	data := e.Encode()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
	if err != nil {
		return nil, fmt.Errorf("compressable: create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// DecompressError wraps a failure to undo the entropy coding step, distinct
// from a DecodeError in the structural layer above it.
type DecompressError struct {
	Msg string
}

func (e *DecompressError) Error() string { return "decompress: " + e.Msg }

// Decompress reverses Compress, then hands the raw bytes to decode to
// reconstruct the structural value. Decompression failures surface as
// *DecompressError; decode is responsible for its own *DecodeError.
func Decompress[T any](data []byte, decode func([]byte) (T, error)) (T, error) {
	var zero T
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return zero, &DecompressError{Msg: err.Error()}
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return zero, &DecompressError{Msg: err.Error()}
	}
	return decode(raw)
}
