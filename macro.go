package worldcore

import (
	"encoding/json"

	"github.com/brilliance-games/worldcore/compressable"
)

// WorldMacroData is an opaque, world-generator-defined document attached to
// a world: biome tables, structure placement seeds, whatever the generator
// behind the world needs to remember between runs. worldcore never
// interprets its contents.
//
// It shares the chunk codec's compress step but not its encode step: rather
// than the section/chunk dense binary layout, it is encoded as JSON, since
// its shape is generator-defined and self-describing text survives a
// generator upgrade that adds or removes a field. The compress/decompress
// half of the pipeline is unchanged.
type WorldMacroData struct {
	value any
}

// NewWorldMacroData wraps an arbitrary JSON-marshalable value.
func NewWorldMacroData(value any) WorldMacroData {
	return WorldMacroData{value: value}
}

// Value returns the underlying document.
func (m WorldMacroData) Value() any { return m.value }

// Encode renders the document as JSON. It implements compressable.Encoder.
func (m WorldMacroData) Encode() []byte {
	data, err := json.Marshal(m.value)
	if err != nil {
		// value is whatever the caller constructed; a non-marshalable value
		// (a channel, a func) is a programmer error, not a runtime one.
		panic("worldcore: world macro data is not JSON-marshalable: " + err.Error())
	}
	return data
}

// DecodeError wraps a failure to parse an encoded WorldMacroData or
// ChunkData.
type DecodeError struct {
	Msg string
}

func (e *DecodeError) Error() string { return "decode: " + e.Msg }

// DecodeWorldMacroData parses the JSON produced by Encode.
func DecodeWorldMacroData(data []byte) (WorldMacroData, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return WorldMacroData{}, &DecodeError{Msg: err.Error()}
	}
	return WorldMacroData{value: value}, nil
}

// Compress runs WorldMacroData through the same compress pipeline as
// ChunkData, despite the different encoder underneath: both are
// compressable.Encoder values entropy-coded with the same zstd level.
func (m WorldMacroData) Compress() ([]byte, error) {
	return compressable.Compress(m)
}

// DecompressWorldMacroData reverses Compress.
func DecompressWorldMacroData(data []byte) (WorldMacroData, error) {
	return compressable.Decompress(data, DecodeWorldMacroData)
}
