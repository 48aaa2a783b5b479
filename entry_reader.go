// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"io"
	"math"

	"github.com/woozymasta/dbpf/refpack"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// OpenEntry opens the resource identified by key for reading.
// Returned stream yields decompressed content for compressed chunks. Stored
// chunks are streamed from the source; compressed chunks are decoded in full
// in the background before the first byte is readable, and decode errors are
// returned from Read.
func (r *Reader) OpenEntry(key ResourceKey) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	entry, ok := r.FindEntry(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, key)
	}

	return r.openEntry(entry)
}

// OpenEntryInfo opens resource stream by already resolved index entry.
func (r *Reader) OpenEntryInfo(entry IndexEntry) (io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	return r.openEntry(entry)
}

// ReadEntry reads full (decompressed) content of the resource identified by key.
func (r *Reader) ReadEntry(key ResourceKey) ([]byte, error) {
	rc, err := r.OpenEntry(key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

// ReadEntryStored reads chunk bytes exactly as stored, without decompression.
func (r *Reader) ReadEntryStored(entry IndexEntry) ([]byte, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	return r.readChunk(entry)
}

// openEntry opens payload stream for entry metadata.
func (r *Reader) openEntry(entry IndexEntry) (io.ReadCloser, error) {
	if err := r.checkChunkBounds(entry); err != nil {
		return nil, err
	}

	sr := io.NewSectionReader(r.ra, int64(entry.ChunkOffset), int64(entry.DiskSize))
	if !entry.IsCompressed() {
		return nopCloser{Reader: sr}, nil
	}

	outLen, err := checkedUint32ToInt(entry.MemSize)
	if err != nil {
		return nil, fmt.Errorf("resolve output size for %s: %w", entry.Key(), err)
	}

	pr, pw := io.Pipe()
	go streamDecompressEntry(entry.Key(), pw, sr, outLen)

	return pr, nil
}

// streamDecompressEntry decodes one compressed chunk into pipe writer.
// The whole chunk and its output are buffered; the pipe only defers errors to Read.
func streamDecompressEntry(key ResourceKey, dst *io.PipeWriter, src io.Reader, outLen int) {
	_, err := refpack.DecompressToWriter(dst, src, outLen)
	if err != nil {
		_ = dst.CloseWithError(fmt.Errorf("decompress entry %s: %w", key, err))
		return
	}

	_ = dst.Close()
}

// readChunk reads stored chunk bytes for entry.
func (r *Reader) readChunk(entry IndexEntry) ([]byte, error) {
	if err := r.checkChunkBounds(entry); err != nil {
		return nil, err
	}

	buf := make([]byte, entry.DiskSize)
	if _, err := r.ra.ReadAt(buf, int64(entry.ChunkOffset)); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read chunk %s: %w", entry.Key(), err)
	}

	return buf, nil
}

// loadEntryData reads the chunk and decompresses it when flagged.
// On decompression failure the stored chunk bytes are returned with the error.
func (r *Reader) loadEntryData(entry IndexEntry) ([]byte, error) {
	stored, err := r.readChunk(entry)
	if err != nil {
		return nil, err
	}
	if !entry.IsCompressed() {
		return stored, nil
	}

	outLen, err := checkedUint32ToInt(entry.MemSize)
	if err != nil {
		return stored, fmt.Errorf("resolve output size for %s: %w", entry.Key(), err)
	}

	data, err := refpack.Decompress(stored, outLen)
	if err != nil {
		return stored, fmt.Errorf("decompress entry %s: %w", entry.Key(), err)
	}

	return data, nil
}

// checkChunkBounds verifies the chunk lies within the source.
func (r *Reader) checkChunkBounds(entry IndexEntry) error {
	end := int64(entry.ChunkOffset) + int64(entry.DiskSize)
	if end > r.size {
		have := max(r.size-int64(entry.ChunkOffset), 0)
		return fmt.Errorf("chunk %s: %w", entry.Key(), &TruncatedError{
			Offset: int64(entry.ChunkOffset),
			Need:   int(entry.DiskSize),
			Have:   int(have),
		})
	}

	return nil
}

// checkedUint32ToInt converts uint32 to int with platform-safe overflow check.
func checkedUint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, ErrSizeOverflow
	}

	return int(v), nil
}
