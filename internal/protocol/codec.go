package protocol

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Chunk payloads dominate bandwidth, so they ship zstd-compressed inside
// the JSON envelope. Encoder and decoder are stateless (EncodeAll paths)
// and safe for concurrent use.

var (
	chunkEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	chunkDecoder, _ = zstd.NewReader(nil)
)

// CompressChunk compresses a serialized chunk for the wire.
func CompressChunk(raw []byte) []byte {
	return chunkEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4))
}

// DecompressChunk reverses CompressChunk, bounding output to maxSize.
func DecompressChunk(payload []byte, maxSize int) ([]byte, error) {
	out, err := chunkDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk: %w", err)
	}
	if len(out) > maxSize {
		return nil, fmt.Errorf("decompressed chunk exceeds %d bytes", maxSize)
	}
	return out, nil
}
