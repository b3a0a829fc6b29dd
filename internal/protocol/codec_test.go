package protocol

import (
	"bytes"
	"testing"
)

func TestChunkCodecRoundTrip(t *testing.T) {
	raw := make([]byte, 16*16*64)
	for i := range raw {
		raw[i] = byte(i % 7) // compressible terrain-ish data
	}
	payload := CompressChunk(raw)
	if len(payload) >= len(raw) {
		t.Fatalf("compression did not shrink payload: %d >= %d", len(payload), len(raw))
	}
	got, err := DecompressChunk(payload, len(raw))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("round trip mismatch")
	}
}

func TestDecompressChunkBounds(t *testing.T) {
	raw := make([]byte, 4096)
	payload := CompressChunk(raw)
	if _, err := DecompressChunk(payload, 1024); err == nil {
		t.Fatal("oversized decompression must be rejected")
	}
}

func TestDecodeBaseUnknownTagSurvives(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"SOMETHING_NEW","x":1}`))
	if err != nil {
		t.Fatalf("unknown tags must still decode the envelope: %v", err)
	}
	if m.Type != "SOMETHING_NEW" {
		t.Fatalf("type = %q", m.Type)
	}
	if _, err := DecodeBase([]byte(`{not json`)); err == nil {
		t.Fatal("malformed JSON must error")
	}
}
