package model

import (
	"sync"
	"unsafe"

	"github.com/zeebo/xxh3"
)

// Key addresses an entry by a 64-bit xxh3 hash; the full 128-bit sum is
// kept alongside so hash collisions are detected instead of silently
// serving a different key's payload.
type Key struct {
	v  uint64
	hi uint64
	lo uint64
}

func NewKey(key string) *Key {
	return buildKey(unsafe.Slice(unsafe.StringData(key), len(key)))
}

func (k *Key) Value() uint64 {
	return k.v
}

func (k *Key) IsTheSame(key *Key) bool {
	return k.v == key.v && k.hi == key.hi && k.lo == key.lo
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

func buildKey(key []byte) *Key {
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	_, _ = hasher.Write(key)
	u128 := hasher.Sum128()

	k := &Key{
		v:  hasher.Sum64(),
		hi: u128.Hi,
		lo: u128.Lo,
	}

	hasherPool.Put(hasher)
	return k
}
