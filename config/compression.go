package config

// CompressionCfg configures conditional payload compression.
//
// A payload is compressed only when it is at least Threshold bytes long
// and the compressed form is at least MinGain smaller than the raw form.
// Payloads that do not compress well are stored raw so reads never pay
// a decompression cost for no benefit.
type CompressionCfg struct {
	// Threshold is the minimum serialized size, in bytes, at which
	// compression is attempted.
	Threshold int64 `yaml:"threshold"`

	// MinGain is the minimum relative size reduction required to keep
	// the compressed form. Defaults to 0.20 (20% smaller).
	MinGain float64 `yaml:"min_gain"`

	// Level is the gzip compression level (1 = best speed, 9 = best
	// compression). Defaults to 6.
	Level int `yaml:"level"`
}

func (cfg *CompressionCfg) Enabled() bool {
	return cfg != nil
}
