package statistic

import (
	"auditstat/internal/statistic/interfaces"
	"auditstat/internal/structures"
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// exports larger than this are refused on load
const maxDecodedExport = 1 << 30

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ZstdCodec compresses snapshot exports. One encoder and one decoder are
// shared; EncodeAll and DecodeAll are safe for concurrent use.
type ZstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCodec) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/4)), nil
}

func (z *ZstdCodec) Decompress(val []byte) ([]byte, error) {
	out, err := z.decoder.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

func (z *ZstdCodec) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

// NewZstdCompressor builds the export codec at the configured level.
// An empty level means zstd's default.
func NewZstdCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	level := zstd.SpeedDefault
	if name := conf.Export.Level; name != "" {
		var ok bool
		if ok, level = zstd.EncoderLevelFromString(name); !ok {
			return nil, fmt.Errorf("unknown zstd level %q", name)
		}
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderCRC(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(maxDecodedExport),
	)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCodec{encoder: encoder, decoder: decoder}, nil
}

// isZstd reports whether data starts with a zstd frame header.
func isZstd(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
