package worldcore

import (
	"reflect"
	"testing"
)

func TestWorldMacroDataEncodeDecodeRoundTrip(t *testing.T) {
	m := NewWorldMacroData(map[string]any{
		"biome_table": []any{"plains", "forest"},
		"seed_offset": float64(17),
	})

	decoded, err := DecodeWorldMacroData(m.Encode())
	if err != nil {
		t.Fatalf("DecodeWorldMacroData() error = %v", err)
	}
	if !reflect.DeepEqual(decoded.Value(), m.Value()) {
		t.Fatalf("decoded value = %#v, want %#v", decoded.Value(), m.Value())
	}
}

func TestWorldMacroDataCompressDecompressRoundTrip(t *testing.T) {
	m := NewWorldMacroData(map[string]any{"structures": []any{"village", "ruins"}})

	compressed, err := m.Compress()
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	decoded, err := DecompressWorldMacroData(compressed)
	if err != nil {
		t.Fatalf("DecompressWorldMacroData() error = %v", err)
	}
	if !reflect.DeepEqual(decoded.Value(), m.Value()) {
		t.Fatalf("decoded value = %#v, want %#v", decoded.Value(), m.Value())
	}
}

func TestDecodeWorldMacroDataRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeWorldMacroData([]byte("{not json"))
	if err == nil {
		t.Fatal("DecodeWorldMacroData() error = nil, want a DecodeError")
	}
	if _, ok := err.(*DecodeError); !ok {
		t.Fatalf("error = %#v, want *DecodeError", err)
	}
}
