// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"io"
)

// ReadHeader opens a DBPF file and returns only the fixed header without parsing the index.
func ReadHeader(path string) (Header, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadHeaderFromReaderAt(f, size)
}

// ReadHeaderFromReaderAt reads only the fixed DBPF header from a random-access source.
// Magic is not validated; use Header.MagicValid.
func ReadHeaderFromReaderAt(ra io.ReaderAt, size int64) (Header, error) {
	if ra == nil {
		return Header{}, ErrNilReader
	}

	return parseHeader(ra, size)
}

// ListEntries opens a DBPF file and returns index entries without chunk reads.
func ListEntries(path string) ([]IndexEntry, error) {
	return ListEntriesWithOptions(path, ReaderOptions{}, Selection{})
}

// ListEntriesWithOptions opens a DBPF file and returns selected index entries
// without chunk reads using reader options.
func ListEntriesWithOptions(path string, opts ReaderOptions, sel Selection) ([]IndexEntry, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ListEntriesFromReaderAtWithOptions(f, size, opts, sel)
}

// ListEntriesFromReaderAt parses index entries from a random-access source.
func ListEntriesFromReaderAt(ra io.ReaderAt, size int64) ([]IndexEntry, error) {
	return ListEntriesFromReaderAtWithOptions(ra, size, ReaderOptions{}, Selection{})
}

// ListEntriesFromReaderAtWithOptions parses selected index entries from a random-access source.
func ListEntriesFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions, sel Selection) ([]IndexEntry, error) {
	r, err := NewReaderFromReaderAtWithOptions(ra, size, opts)
	if err != nil {
		return nil, err
	}

	entries, err := SelectEntries(r.entries, sel)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return entries, nil
}
