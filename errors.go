// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"errors"
	"fmt"

	"github.com/woozymasta/dbpf/refpack"
)

// Sentinel errors for DBPF operations. Use errors.Is in callers.
var (
	// ErrTruncatedInput means a read crossed the end of available data.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrInvalidMagic means the archive does not start with "DBPF" (strict mode only).
	ErrInvalidMagic = errors.New("invalid DBPF magic")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrEntryNotFound means no index entry matches the requested key.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrSizeOverflow means a size does not fit platform int.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrInvalidSpecifier means a property record carries an unknown scalar/array specifier.
	ErrInvalidSpecifier = errors.New("invalid property specifier")
	// ErrUnsupportedPropertyType means a property record value type has no decoder.
	ErrUnsupportedPropertyType = errors.New("unsupported property type")
	// ErrUnsupportedTrailingSection means a rules table has data in a section expected to be empty.
	ErrUnsupportedTrailingSection = errors.New("unsupported rules trailing section")
	// ErrUnsupported means the resource format is recognized but not decodable past a point.
	ErrUnsupported = errors.New("unsupported")
	// ErrInvalidIncludeRules means one or more resource selection rules are invalid.
	ErrInvalidIncludeRules = errors.New("invalid include rules")
)

// Codec errors re-exported from refpack.
var (
	// ErrUnsupportedCompressionType means a chunk uses a compression tag other than 0x10.
	ErrUnsupportedCompressionType = refpack.ErrUnsupportedType
	// ErrCorruptStream means a compressed chunk is malformed.
	ErrCorruptStream = refpack.ErrCorrupt
	// ErrSizeMismatch means decompressed length differs from the declared size.
	ErrSizeMismatch = refpack.ErrSizeMismatch
)

// TruncatedError reports the absolute offset where a read ran out of data.
type TruncatedError struct {
	// Offset is absolute byte offset where the failed read started.
	Offset int64
	// Need is number of bytes the read required.
	Need int
	// Have is number of bytes that were still available.
	Have int
}

// Error implements error.
func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// Is matches ErrTruncatedInput.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncatedInput
}

// unsupportedError wraps ErrUnsupported with a reason.
func unsupportedError(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, reason)
}
