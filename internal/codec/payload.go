package codec

// Kind discriminates the stored form of a payload. Decode switches on it
// exhaustively instead of inspecting the bytes.
type Kind uint8

const (
	// Raw bytes are the serialized value as-is.
	Raw Kind = iota

	// Compressed bytes are the serialized value behind gzip framing.
	// A payload is only stored Compressed when compression actually won
	// by the configured margin.
	Compressed
)

// Payload is the storable form of a cached value. Immutable once built;
// entries swap whole payloads rather than mutating one.
type Payload struct {
	kind   Kind
	data   []byte
	rawLen int64
}

func NewRaw(data []byte) Payload {
	return Payload{kind: Raw, data: data, rawLen: int64(len(data))}
}

func NewCompressed(data []byte, rawLen int64) Payload {
	return Payload{kind: Compressed, data: data, rawLen: rawLen}
}

func (p Payload) Kind() Kind         { return p.kind }
func (p Payload) IsCompressed() bool { return p.kind == Compressed }
func (p Payload) Data() []byte       { return p.data }

// Len is the stored size in bytes: exactly what the entry weighs in the
// aggregate size counters.
func (p Payload) Len() int64 { return int64(len(p.data)) }

// RawLen is the serialized size before compression. Equal to Len for Raw
// payloads; used for compression-savings telemetry.
func (p Payload) RawLen() int64 { return p.rawLen }
