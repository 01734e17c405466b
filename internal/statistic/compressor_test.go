package statistic

import (
	"auditstat/internal/structures"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T, level string) *ZstdCodec {
	t.Helper()
	c, err := NewZstdCompressor(&structures.Config{Export: structures.ExportConfig{Level: level}})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c.(*ZstdCodec)
}

func TestZstdCodec_Roundtrip(t *testing.T) {
	for _, level := range []string{"", "fastest", "default", "better", "best"} {
		t.Run("level="+level, func(t *testing.T) {
			c := newCodec(t, level)

			original := []byte(`{"digest":"00000000deadbeef","totals":{"users":3}}`)
			compressed, err := c.Compress(original)
			require.NoError(t, err)
			assert.NotEqual(t, original, compressed)

			decompressed, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, original, decompressed)
		})
	}
}

func TestZstdCodec_UnknownLevel(t *testing.T) {
	_, err := NewZstdCompressor(&structures.Config{Export: structures.ExportConfig{Level: "ludicrous"}})
	assert.Error(t, err)
}

func TestZstdCodec_EmptyData(t *testing.T) {
	c := newCodec(t, "")

	compressed, err := c.Compress([]byte{})
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestZstdCodec_RepetitiveSnapshot(t *testing.T) {
	c := newCodec(t, "")

	original := bytes.Repeat([]byte(`{"date":"2024-03-11","active_users":1},`), 20_000)
	compressed, err := c.Compress(original)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original)/10)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestZstdCodec_DecompressGarbage(t *testing.T) {
	c := newCodec(t, "")

	_, err := c.Decompress([]byte("not valid zstd data"))
	assert.Error(t, err)

	_, err = c.Decompress(append([]byte{0x28, 0xb5, 0x2f, 0xfd}, 0xff, 0x00, 0x01))
	assert.Error(t, err)
}

func TestIsZstd(t *testing.T) {
	c := newCodec(t, "")

	compressed, err := c.Compress([]byte(`{"digest":"abc"}`))
	require.NoError(t, err)
	assert.True(t, isZstd(compressed))
	assert.False(t, isZstd([]byte(`{"digest":"abc"}`)))
	assert.False(t, isZstd(nil))
}
