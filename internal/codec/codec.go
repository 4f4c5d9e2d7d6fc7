// Package codec converts caller values to storable payloads and back.
// Serialization is JSON (goccy/go-json); payloads at or above the
// configured threshold are gzip-compressed, but the compressed form is
// kept only when it is meaningfully smaller than the raw form.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/cyx-darren/go-query-cache/config"
)

var (
	// ErrSerialization: the value cannot be encoded. The cache degrades
	// the write to a no-op; the caller is unaffected.
	ErrSerialization = errors.New("serialization failed")

	// ErrDeserialization: stored bytes cannot be decoded. The cache
	// treats the entry as a miss and deletes it.
	ErrDeserialization = errors.New("deserialization failed")
)

type Codec struct {
	cfg *config.CompressionCfg
}

func New(cfg *config.CompressionCfg) *Codec {
	return &Codec{cfg: cfg}
}

// Encode serializes v and conditionally compresses the result. The
// compressed form is used only when it is at least cfg.MinGain smaller;
// callers may therefore assume a real size win whenever the payload
// comes back Compressed.
func (c *Codec) Encode(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if !c.cfg.Enabled() || int64(len(raw)) < c.cfg.Threshold {
		return NewRaw(raw), nil
	}

	compressed, err := c.compress(raw)
	if err != nil {
		// Compression is an optimization; fall back to the raw form.
		return NewRaw(raw), nil
	}

	maxUseful := int64(float64(len(raw)) * (1 - c.cfg.MinGain))
	if int64(len(compressed)) > maxUseful {
		return NewRaw(raw), nil
	}
	return NewCompressed(compressed, int64(len(raw))), nil
}

// Decode reverses Encode. Corrupt bytes yield an ErrDeserialization no
// matter which variant carried them.
func (c *Codec) Decode(p Payload) (any, error) {
	data := p.Data()

	switch p.Kind() {
	case Compressed:
		raw, err := c.decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%w: gunzip: %v", ErrDeserialization, err)
		}
		data = raw
	case Raw:
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return v, nil
}

func (c *Codec) compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	level := gzip.DefaultCompression
	if c.cfg.Enabled() && c.cfg.Level != 0 {
		level = c.cfg.Level
	}
	gw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err = gw.Write(raw); err != nil {
		return nil, err
	}
	if err = gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) decompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
