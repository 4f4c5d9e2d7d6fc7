// Package persistence writes best-effort snapshots of the entry set and
// restores them on startup. The snapshot is a flat stream of
// length+crc32 framed records, optionally behind gzip framing; it is a
// point-in-time copy, not a transactional log. A snapshot that fails to
// write or load never fails the cache itself.
package persistence

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/cache"
	"github.com/cyx-darren/go-query-cache/internal/cache/db/model"
	"github.com/cyx-darren/go-query-cache/internal/codec"
)

var ErrCorruptSnapshot = errors.New("corrupt snapshot record")

const (
	writeBufSize = 512 * 1024
	readBufSize  = 512 * 1024

	// closeDumpTimeout bounds the final snapshot written on shutdown.
	closeDumpTimeout = 30 * time.Second
)

type Dumper interface {
	Dump(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
}

// record is one persisted entry. CreatedAt is kept verbatim so the
// remaining lifetime survives a restart.
type record struct {
	Key        string   `json:"key"`
	Data       []byte   `json:"data"`
	Compressed bool     `json:"compressed"`
	RawLen     int64    `json:"raw_len"`
	CreatedAt  int64    `json:"created_at"`
	TTL        int64    `json:"ttl"`
	DataType   string   `json:"data_type,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type SnapshotWorker struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.PersistenceCfg
	cache  *cache.Cache
	once   sync.Once
}

// New builds the snapshot worker and starts the periodic loop when an
// interval is configured. Loading the previous snapshot is the caller's
// decision, not a side effect of construction.
func New(ctx context.Context, cfg *config.PersistenceCfg, cache *cache.Cache) Dumper {
	if !cfg.Enabled() {
		return &NoOpDumper{}
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &SnapshotWorker{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		cache:  cache,
	}
	if cfg.Interval > 0 {
		go w.loop()
	}
	return w
}

// Dump writes the whole entry set to a temp file and renames it over the
// snapshot path, so a crash mid-write never clobbers the previous
// snapshot.
func (w *SnapshotWorker) Dump(ctx context.Context) error {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(w.cfg.Path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := w.cfg.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	var (
		writer io.Writer = f
		gw     *gzip.Writer
	)
	if w.cfg.Gzip {
		gw = gzip.NewWriter(f)
		writer = gw
	}
	bw := bufio.NewWriterSize(writer, writeBufSize)

	var written, failures int64
	w.cache.WalkEntries(ctx, func(e *model.Entry) bool {
		if err := writeRecord(bw, e); err != nil {
			failures++
			return true
		}
		written++
		return true
	})

	if err = bw.Flush(); err == nil && gw != nil {
		err = gw.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = os.Rename(tmp, w.cfg.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}

	log.Info().
		Int64("written", written).
		Int64("fails", failures).
		Str("elapsed", time.Since(start).String()).
		Msg("snapshot written")

	if failures > 0 {
		return fmt.Errorf("snapshot finished with %d errors", failures)
	}
	return nil
}

// Load restores the snapshot file into the cache. Records already past
// their TTL are skipped; a corrupt record is skipped, a corrupt stream
// aborts the load with whatever was restored so far kept.
func (w *SnapshotWorker) Load(ctx context.Context) error {
	start := time.Now()

	f, err := os.Open(w.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: nothing to restore.
			return nil
		}
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if w.cfg.Gzip {
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open snapshot gzip stream: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	}

	br := bufio.NewReaderSize(reader, readBufSize)
	now := time.Now().UnixNano()

	var restored, skipped, failures int64
	for {
		if ctx.Err() != nil {
			break
		}
		rec, err := readRecord(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			// Framing is gone; there is no way to resync mid-stream.
			log.Err(err).Str("file", w.cfg.Path).Msg("snapshot load aborted")
			failures++
			break
		}

		if rec.TTL > 0 && now >= rec.CreatedAt+rec.TTL {
			skipped++
			continue
		}

		var p codec.Payload
		if rec.Compressed {
			p = codec.NewCompressed(rec.Data, rec.RawLen)
		} else {
			p = codec.NewRaw(rec.Data)
		}
		if w.cache.Restore(rec.Key, p, rec.CreatedAt, time.Duration(rec.TTL), rec.DataType, rec.Tags) {
			restored++
		} else {
			skipped++
		}
	}

	log.Info().
		Int64("restored", restored).
		Int64("skipped", skipped).
		Int64("fails", failures).
		Str("elapsed", time.Since(start).String()).
		Msg("snapshot restored")

	if failures > 0 {
		return fmt.Errorf("load finished with %d errors", failures)
	}
	return nil
}

// Close stops the periodic loop and writes one final snapshot.
func (w *SnapshotWorker) Close() (err error) {
	w.once.Do(func() {
		w.cancel()
		ctx, cancel := context.WithTimeout(context.Background(), closeDumpTimeout)
		defer cancel()
		err = w.Dump(ctx)
	})
	return err
}

func (w *SnapshotWorker) loop() {
	tick := time.NewTicker(w.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-tick.C:
			if err := w.Dump(w.ctx); err != nil {
				log.Err(err).Str("file", w.cfg.Path).Msg("periodic snapshot failed")
			}
		}
	}
}

func writeRecord(bw *bufio.Writer, e *model.Entry) error {
	p := e.Payload()
	data, err := json.Marshal(record{
		Key:        e.Name(),
		Data:       p.Data(),
		Compressed: p.IsCompressed(),
		RawLen:     p.RawLen(),
		CreatedAt:  e.CreatedAt(),
		TTL:        e.TTL().Nanoseconds(),
		DataType:   e.DataType(),
		Tags:       e.Tags(),
	})
	if err != nil {
		return err
	}

	var metaBuf [8]byte
	binary.LittleEndian.PutUint32(metaBuf[0:4], uint32(len(data)))
	binary.LittleEndian.PutUint32(metaBuf[4:8], crc32.ChecksumIEEE(data))
	if _, err = bw.Write(metaBuf[:]); err != nil {
		return err
	}
	_, err = bw.Write(data)
	return err
}

func readRecord(br *bufio.Reader) (*record, error) {
	var metaBuf [8]byte
	if _, err := io.ReadFull(br, metaBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated frame header", ErrCorruptSnapshot)
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(metaBuf[0:4])
	expCRC := binary.LittleEndian.Uint32(metaBuf[4:8])

	buf := make([]byte, size)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, fmt.Errorf("%w: truncated record body", ErrCorruptSnapshot)
	}
	if crc32.ChecksumIEEE(buf) != expCRC {
		return nil, fmt.Errorf("%w: crc mismatch", ErrCorruptSnapshot)
	}

	rec := &record{}
	if err := json.Unmarshal(buf, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return rec, nil
}
