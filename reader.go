// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"sync"
)

// Reader provides read-only access to a parsed DBPF archive.
type Reader struct {
	// ra is the underlying random-access reader used for chunk reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// logger receives parse and scan diagnostics.
	logger *slog.Logger
	// entries stores parsed immutable index entries in file order.
	entries []IndexEntry
	// size is total source size in bytes.
	size int64
	// header stores the decoded fixed header.
	header Header
	// mode is the index mode word.
	mode IndexMode
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens DBPF file by path and parses header/index structures.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens DBPF file by path and parses header/index structures using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReaderFromReaderAtWithOptions(f, size, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses DBPF from existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses DBPF from existing ReaderAt and known size using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	opts.applyDefaults()

	r := &Reader{ra: ra, size: size, logger: opts.Logger}
	if err := r.parse(opts); err != nil {
		return nil, err
	}

	return r, nil
}

// Header returns the decoded archive header.
func (r *Reader) Header() Header {
	return r.header
}

// Mode returns the index mode word.
func (r *Reader) Mode() IndexMode {
	return r.mode
}

// Size returns source size in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Entries returns a copy of parsed entries in index order.
func (r *Reader) Entries() []IndexEntry {
	if r == nil {
		return nil
	}

	entries := make([]IndexEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// FindEntry returns the first entry matching key in index order.
func (r *Reader) FindEntry(key ResourceKey) (IndexEntry, bool) {
	for i := range r.entries {
		if r.entries[i].Key() == key {
			return r.entries[i], true
		}
	}

	return IndexEntry{}, false
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// checkOpen returns ErrNilReader or ErrClosed when reader cannot serve reads.
func (r *Reader) checkOpen() error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// parse reads header and index from ReaderAt.
func (r *Reader) parse(opts ReaderOptions) error {
	header, err := parseHeader(r.ra, r.size)
	if err != nil {
		return err
	}

	if !header.MagicValid() {
		if opts.StrictMagic {
			return fmt.Errorf("%w: %q", ErrInvalidMagic, header.Magic[:])
		}

		r.logger.Warn("archive magic mismatch", slog.String("magic", fmt.Sprintf("%q", header.Magic[:])))
	}
	r.header = header

	mode, entries, err := parseIndex(r.ra, r.size, header)
	if err != nil {
		return err
	}
	r.mode = mode
	r.entries = entries

	r.logger.Debug("index parsed",
		slog.Uint64("major_version", uint64(header.MajorVersion)),
		slog.Uint64("index_offset", uint64(header.IndexOffset)),
		slog.Uint64("mode", uint64(mode)),
		slog.Int("entries", len(entries)),
	)

	return nil
}

// parseHeader decodes the fixed 96-byte header at offset 0.
func parseHeader(ra io.ReaderAt, size int64) (Header, error) {
	var h Header

	buf, err := readAtMost(ra, 0, headerSize, size)
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}

	c := NewCursor(buf, 0)
	magic, err := c.Bytes(len(h.Magic))
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	copy(h.Magic[:], magic)

	fields := []*uint32{
		&h.MajorVersion, &h.MinorVersion,
		&h.Reserved[0], &h.Reserved[1], &h.Reserved[2],
		&h.DateCreated, &h.DateModified,
		&h.IndexMajorVersion, &h.IndexEntryCount, &h.FirstIndexEntryOffset, &h.IndexSize,
		&h.HoleEntryCount, &h.HoleOffset, &h.HoleSize,
		&h.IndexMinorVersion, &h.IndexOffset, &h.Reserved2,
	}
	for _, field := range fields {
		if *field, err = c.U32(); err != nil {
			return h, fmt.Errorf("read header: %w", err)
		}
	}

	reserved, err := c.Bytes(len(h.Reserved3))
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	copy(h.Reserved3[:], reserved)

	return h, nil
}

// parseIndex decodes the mode word, shared values and all index entries.
func parseIndex(ra io.ReaderAt, size int64, h Header) (IndexMode, []IndexEntry, error) {
	indexOffset := int64(h.IndexOffset)

	// The mode word decides the per-entry width, so it is read ahead of the rest.
	modeBuf, err := readAtMost(ra, indexOffset, 4, size)
	if err != nil {
		return 0, nil, fmt.Errorf("read index mode: %w", err)
	}

	raw, err := NewCursor(modeBuf, indexOffset).U32()
	if err != nil {
		return 0, nil, fmt.Errorf("read index mode: %w", err)
	}
	mode := IndexMode(raw)

	shared := bits.OnesCount32(uint32(mode & (IndexModeTypeConstant | IndexModeGroupConstant | IndexModeUnknownConstant)))
	perEntry := int64(indexEntryMaxSize - 4*shared)
	need := 4 + int64(4*shared) + int64(h.IndexEntryCount)*perEntry

	buf, err := readAtMost(ra, indexOffset, need, size)
	if err != nil {
		return 0, nil, fmt.Errorf("read index: %w", err)
	}

	c := NewCursor(buf, indexOffset)
	if err := c.Skip(4); err != nil {
		return 0, nil, fmt.Errorf("read index: %w", err)
	}

	var sharedType, sharedGroup, sharedUnknown uint32
	sharedFields := []struct {
		bit IndexMode
		dst *uint32
	}{
		{IndexModeTypeConstant, &sharedType},
		{IndexModeGroupConstant, &sharedGroup},
		{IndexModeUnknownConstant, &sharedUnknown},
	}
	for _, f := range sharedFields {
		if !mode.Has(f.bit) {
			continue
		}
		if *f.dst, err = c.U32(); err != nil {
			return 0, nil, fmt.Errorf("read index shared value: %w", err)
		}
	}

	entries := make([]IndexEntry, 0, estimateEntryCapacity(h.IndexEntryCount, int64(c.Remaining()), perEntry))
	for i := uint32(0); i < h.IndexEntryCount; i++ {
		entry, err := readIndexEntry(c, mode, sharedType, sharedGroup, sharedUnknown)
		if err != nil {
			return 0, nil, fmt.Errorf("read index entry %d: %w", i, err)
		}

		entries = append(entries, entry)
	}

	return mode, entries, nil
}

// readIndexEntry decodes one entry applying shared-field substitution.
func readIndexEntry(c *Cursor, mode IndexMode, sharedType, sharedGroup, sharedUnknown uint32) (IndexEntry, error) {
	var (
		e   IndexEntry
		v   uint32
		err error
	)

	if mode.Has(IndexModeTypeConstant) {
		e.Type = ResourceType(sharedType)
	} else {
		if v, err = c.U32(); err != nil {
			return e, err
		}
		e.Type = ResourceType(v)
	}

	if mode.Has(IndexModeGroupConstant) {
		e.Group = sharedGroup
	} else if e.Group, err = c.U32(); err != nil {
		return e, err
	}

	if mode.Has(IndexModeUnknownConstant) {
		e.Unknown = sharedUnknown
	} else if e.Unknown, err = c.U32(); err != nil {
		return e, err
	}

	if e.Instance, err = c.U32(); err != nil {
		return e, err
	}
	if e.ChunkOffset, err = c.U32(); err != nil {
		return e, err
	}

	if v, err = c.U32(); err != nil {
		return e, err
	}
	e.DiskSize = v &^ diskSizeFlagBit
	e.DiskSizeFlag = v&diskSizeFlagBit != 0

	if e.MemSize, err = c.U32(); err != nil {
		return e, err
	}
	if e.CompressedFlag, err = c.U16(); err != nil {
		return e, err
	}
	if e.Reserved, err = c.U16(); err != nil {
		return e, err
	}

	return e, nil
}

// estimateEntryCapacity bounds initial entry slice capacity by data actually available.
func estimateEntryCapacity(count uint32, available int64, perEntry int64) int {
	const maxCap = 1 << 16

	fit := available / perEntry
	if int64(count) < fit {
		fit = int64(count)
	}
	if fit > maxCap {
		return maxCap
	}

	return int(fit)
}

// readAtMost reads up to n bytes at off, clipped to source size.
// A short result is not an error; cursor reads over it report truncation offsets.
func readAtMost(ra io.ReaderAt, off int64, n int64, size int64) ([]byte, error) {
	if off >= size || n <= 0 {
		return nil, nil
	}
	if avail := size - off; n > avail {
		n = avail
	}

	buf := make([]byte, n)
	read, err := ra.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return buf[:read], nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open DBPF: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
