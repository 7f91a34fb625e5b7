package diskstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

var (
	ErrForceCompactionDisabled = errors.New("forced compaction is not allowed for disk store")
	ErrClosed                  = errors.New("disk store is closed")
	ErrRecordTooLarge          = errors.New("record exceeds max frame size")
)

const (
	segmentExt   = ".log"
	gzipExt      = ".gz"
	tmpExt       = ".tmp"
	bufSize      = 512 * 1024
	segmentPerms = 0o644
)

type segment struct {
	seq  uint64
	path string
	size int64
}

// Stats is a point-in-time view of a disk store.
type Stats struct {
	LiveRecords    int64
	GarbageRecords int64
	SizeBytes      int64
	Segments       int
	CorruptFrames  int64
}

// Store is an append-only oplog of key/value records split into segments.
// Overwritten and deleted records stay on disk as garbage until ForceCompaction rewrites
// the live set into a single sealed segment.
type Store struct {
	mu  sync.Mutex
	cfg config.DiskStoreCfg

	index    map[string][]byte
	segments []*segment
	active   *os.File
	nextSeq  uint64
	garbage  int64
	corrupt  int64
	closed   bool
}

// Open creates the store directory if needed and replays existing segments into the index.
func Open(cfg config.DiskStoreCfg) (*Store, error) {
	if cfg.MaxOplogSizeBytes <= 0 {
		cfg.MaxOplogSizeBytes = config.DefaultMaxOplogSizeBytes
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create disk store dir %s: %w", cfg.Dir, err)
	}

	s := &Store{cfg: cfg, index: make(map[string][]byte), nextSeq: 1}
	if err := s.replay(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string               { return s.cfg.Name }
func (s *Store) AllowForceCompaction() bool { return s.cfg.AllowForceCompaction }
func (s *Store) AutoCompactEnabled() bool   { return s.cfg.AutoCompact }

func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.index[key]
	return v, ok
}

// Put rejects a record whose frame could not be read back on replay.
func (s *Store) Put(key string, value []byte) error {
	if size := payloadPrefixSize + len(key) + len(value); size > maxFrameSize {
		return fmt.Errorf("%w: payload %d bytes, max %d", ErrRecordTooLarge, size, maxFrameSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.append(record{op: opPut, key: key, value: value}); err != nil {
		return err
	}
	if _, ok := s.index[key]; ok {
		s.garbage++
	}
	s.index[key] = append([]byte(nil), value...)
	return nil
}

// Delete writes a tombstone. Both the tombstone and the shadowed record count as garbage.
func (s *Store) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; !ok {
		return false, nil
	}
	if err := s.append(record{op: opDelete, key: key}); err != nil {
		return false, err
	}
	delete(s.index, key)
	s.garbage += 2
	return true, nil
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int64
	for _, seg := range s.segments {
		size += seg.size
	}
	return Stats{
		LiveRecords:    int64(len(s.index)),
		GarbageRecords: s.garbage,
		SizeBytes:      size,
		Segments:       len(s.segments),
		CorruptFrames:  s.corrupt,
	}
}

// ForceCompaction rewrites live records into a new sealed segment and removes the old ones.
// It returns false without touching the disk when there is no garbage to reclaim.
func (s *Store) ForceCompaction(ctx context.Context) (bool, error) {
	if !s.cfg.AllowForceCompaction {
		return false, fmt.Errorf("%w: %s", ErrForceCompactionDisabled, s.cfg.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if s.garbage == 0 && s.corrupt == 0 {
		log.Info().Str("disk_store", s.cfg.Name).Msg("[compaction] nothing to reclaim")
		return false, nil
	}
	return s.compact(ctx, "forced")
}

// AutoCompactionDue reports whether garbage reached CompactionThreshold percent of all records.
func (s *Store) AutoCompactionDue() bool {
	if !s.cfg.AutoCompact {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.dueLocked()
}

// AutoCompact compacts the store if compaction is still due once the lock is held.
func (s *Store) AutoCompact(ctx context.Context) (bool, error) {
	if !s.cfg.AutoCompact {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if !s.dueLocked() {
		return false, nil
	}
	return s.compact(ctx, "auto")
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.closeActive()
}

/**
 * Private API.
 */

func (s *Store) dueLocked() bool {
	if s.garbage == 0 && s.corrupt == 0 {
		return false
	}
	threshold := s.cfg.CompactionThreshold
	if threshold <= 0 {
		threshold = config.DefaultCompactionThreshold
	}
	total := int64(len(s.index)) + s.garbage
	return s.corrupt > 0 || s.garbage*100 >= total*int64(threshold)
}

func (s *Store) compact(ctx context.Context, mode string) (bool, error) {
	start := time.Now()
	if err := s.closeActive(); err != nil {
		return false, err
	}

	var before int64
	for _, seg := range s.segments {
		before += seg.size
	}

	sealed, err := s.writeSealed(ctx)
	if err != nil {
		return false, err
	}

	for _, seg := range s.segments {
		if err = os.Remove(seg.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("file", seg.path).Msg("[compaction] remove old segment error")
		}
	}

	reclaimedRecords := s.garbage
	s.segments = []*segment{sealed}
	s.garbage, s.corrupt = 0, 0

	log.Info().
		Str("disk_store", s.cfg.Name).
		Int64("live", int64(len(s.index))).
		Int64("reclaimed_records", reclaimedRecords).
		Int64("reclaimed_bytes", before-sealed.size).
		Str("mode", mode).
		Str("elapsed", time.Since(start).String()).
		Msg("[compaction] finished")

	return true, nil
}

func (s *Store) writeSealed(ctx context.Context) (*segment, error) {
	seq := s.nextSeq
	s.nextSeq++

	name := s.segmentPath(seq, s.cfg.Gzip)
	tmp := name + tmpExt

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, segmentPerms)
	if err != nil {
		return nil, fmt.Errorf("create sealed segment %s: %w", tmp, err)
	}
	abort := func(cause error) (*segment, error) {
		_ = f.Close()
		_ = os.Remove(tmp)
		return nil, cause
	}

	var (
		writer io.Writer = f
		gw     *gzip.Writer
	)
	if s.cfg.Gzip {
		gw = gzip.NewWriter(f)
		writer = gw
	}
	bw := bufio.NewWriterSize(writer, bufSize)

	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err = ctx.Err(); err != nil {
			return abort(fmt.Errorf("compaction of %s interrupted: %w", s.cfg.Name, err))
		}
		if _, err = bw.Write(encodeFrame(record{op: opPut, key: k, value: s.index[k]})); err != nil {
			return abort(fmt.Errorf("write sealed segment %s: %w", tmp, err))
		}
	}

	if err = bw.Flush(); err != nil {
		return abort(fmt.Errorf("flush sealed segment %s: %w", tmp, err))
	}
	if gw != nil {
		if err = gw.Close(); err != nil {
			return abort(fmt.Errorf("close gzip writer %s: %w", tmp, err))
		}
	}
	if err = f.Sync(); err != nil {
		return abort(fmt.Errorf("sync sealed segment %s: %w", tmp, err))
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("close sealed segment %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("rename sealed segment %s: %w", tmp, err)
	}

	fi, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("stat sealed segment %s: %w", name, err)
	}
	return &segment{seq: seq, path: name, size: fi.Size()}, nil
}

func (s *Store) append(r record) error {
	if s.closed {
		return ErrClosed
	}
	if s.active == nil {
		if err := s.openActive(); err != nil {
			return err
		}
	}

	frame := encodeFrame(r)
	if _, err := s.active.Write(frame); err != nil {
		return fmt.Errorf("append to %s: %w", s.active.Name(), err)
	}

	seg := s.segments[len(s.segments)-1]
	seg.size += int64(len(frame))
	if seg.size >= s.cfg.MaxOplogSizeBytes {
		return s.closeActive()
	}
	return nil
}

func (s *Store) openActive() error {
	seq := s.nextSeq
	path := s.segmentPath(seq, false)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, segmentPerms)
	if err != nil {
		return fmt.Errorf("open active segment %s: %w", path, err)
	}
	s.nextSeq++
	s.active = f
	s.segments = append(s.segments, &segment{seq: seq, path: path})
	return nil
}

func (s *Store) closeActive() error {
	if s.active == nil {
		return nil
	}
	err := s.active.Close()
	s.active = nil
	if err != nil {
		return fmt.Errorf("close active segment: %w", err)
	}
	return nil
}

func (s *Store) segmentPath(seq uint64, gz bool) string {
	name := fmt.Sprintf("%s-oplog-%06d%s", s.cfg.Name, seq, segmentExt)
	if gz {
		name += gzipExt
	}
	return filepath.Join(s.cfg.Dir, name)
}

func (s *Store) replay() error {
	start := time.Now()
	segments, err := s.listSegments()
	if err != nil {
		return err
	}

	var total int64
	for _, seg := range segments {
		n, err := s.replaySegment(seg)
		if err != nil {
			return err
		}
		total += n
		s.segments = append(s.segments, seg)
		if seg.seq >= s.nextSeq {
			s.nextSeq = seg.seq + 1
		}
	}

	if len(segments) > 0 {
		log.Info().
			Str("disk_store", s.cfg.Name).
			Int("segments", len(segments)).
			Int64("records", total).
			Int64("live", int64(len(s.index))).
			Int64("corrupt", s.corrupt).
			Str("elapsed", time.Since(start).String()).
			Msg("[replay] restored disk store")
	}
	return nil
}

func (s *Store) replaySegment(seg *segment) (int64, error) {
	f, err := os.Open(seg.path)
	if err != nil {
		return 0, fmt.Errorf("open segment %s: %w", seg.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat segment %s: %w", seg.path, err)
	}
	seg.size = fi.Size()

	var reader io.Reader = f
	if strings.HasSuffix(seg.path, gzipExt) {
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("open gzip segment %s: %w", seg.path, err)
		}
		defer gzr.Close()
		reader = gzr
	}

	br := bufio.NewReaderSize(reader, bufSize)
	var records int64
	for {
		r, n, err := readFrame(br)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			s.corrupt++
			log.Error().Err(err).Str("file", seg.path).Msg("[replay] frame error")
			if n > 0 {
				continue
			}
			// cannot resync after a broken header
			return records, nil
		}

		records++
		switch r.op {
		case opPut:
			if _, ok := s.index[r.key]; ok {
				s.garbage++
			}
			s.index[r.key] = r.value
		case opDelete:
			if _, ok := s.index[r.key]; ok {
				s.garbage++
				delete(s.index, r.key)
			}
			s.garbage++
		}
	}
}

func (s *Store) listSegments() ([]*segment, error) {
	pattern := filepath.Join(s.cfg.Dir, s.cfg.Name+"-oplog-*"+segmentExt+"*")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list segments %s: %w", pattern, err)
	}

	segments := make([]*segment, 0, len(files))
	for _, file := range files {
		base := filepath.Base(file)
		if strings.HasSuffix(base, tmpExt) {
			// leftover of an interrupted compaction
			_ = os.Remove(file)
			continue
		}
		var seq uint64
		if _, err := fmt.Sscanf(strings.TrimPrefix(base, s.cfg.Name+"-oplog-"), "%d", &seq); err != nil {
			continue
		}
		segments = append(segments, &segment{seq: seq, path: file})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].seq < segments[j].seq })
	return segments, nil
}
