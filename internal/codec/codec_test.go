package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cyx-darren/go-query-cache/config"
)

func compressionCfg(threshold int64) *config.CompressionCfg {
	cfg := &config.CompressionCfg{Threshold: threshold}
	full := &config.Cache{Store: config.StoreCfg{MaxEntries: 1}, Compression: cfg}
	full.AdjustConfig()
	return cfg
}

// TestEncodeDecode_RoundTrip restores the original value for raw payloads.
func TestEncodeDecode_RoundTrip(t *testing.T) {
	c := New(nil)

	p, err := c.Encode(map[string]any{"rows": []any{"a", "b"}, "total": float64(2)})
	require.NoError(t, err)
	require.False(t, p.IsCompressed())

	v, err := c.Decode(p)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"rows": []any{"a", "b"}, "total": float64(2)}, v)
}

// TestEncode_CompressesAboveThreshold compresses repetitive payloads.
func TestEncode_CompressesAboveThreshold(t *testing.T) {
	c := New(compressionCfg(64))

	value := strings.Repeat("analytics-row|", 1024)
	p, err := c.Encode(value)
	require.NoError(t, err)
	require.True(t, p.IsCompressed())
	require.Less(t, p.Len(), p.RawLen(), "compressed form must be smaller")

	v, err := c.Decode(p)
	require.NoError(t, err)
	require.Equal(t, value, v)
}

// TestEncode_BelowThresholdStaysRaw never compresses small payloads.
func TestEncode_BelowThresholdStaysRaw(t *testing.T) {
	c := New(compressionCfg(1 << 20))

	p, err := c.Encode(strings.Repeat("x", 256))
	require.NoError(t, err)
	require.False(t, p.IsCompressed())
	require.Equal(t, p.RawLen(), p.Len())
}

// TestEncode_IncompressibleStaysRaw keeps the raw form when compression
// does not win by the configured margin.
func TestEncode_IncompressibleStaysRaw(t *testing.T) {
	cfg := compressionCfg(8)
	cfg.MinGain = 0.5
	c := New(cfg)

	// Base64-ish noise compresses only marginally; gzip cannot halve it.
	noise := make([]byte, 0, 2048)
	seed := uint64(0x9e3779b97f4a7c15)
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for i := 0; i < 2048; i++ {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		noise = append(noise, chars[seed%uint64(len(chars))])
	}

	p, err := c.Encode(string(noise))
	require.NoError(t, err)
	require.False(t, p.IsCompressed())
}

// TestEncode_UnserializableValue wraps ErrSerialization.
func TestEncode_UnserializableValue(t *testing.T) {
	c := New(nil)

	_, err := c.Encode(make(chan int))
	require.ErrorIs(t, err, ErrSerialization)
}

// TestDecode_CorruptCompressed wraps ErrDeserialization.
func TestDecode_CorruptCompressed(t *testing.T) {
	c := New(nil)

	_, err := c.Decode(NewCompressed([]byte("not gzip at all"), 100))
	require.ErrorIs(t, err, ErrDeserialization)
}

// TestDecode_CorruptRaw wraps ErrDeserialization.
func TestDecode_CorruptRaw(t *testing.T) {
	c := New(nil)

	_, err := c.Decode(NewRaw([]byte("{truncated")))
	require.ErrorIs(t, err, ErrDeserialization)
}
