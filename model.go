// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"log/slog"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	headerSize        = 96     // fixed DBPF header size in bytes
	indexEntryMaxSize = 32     // per-entry index size with no shared fields
	compressedMarker  = 0xFFFF // IndexEntry.CompressedFlag value for compressed chunks
	diskSizeFlagBit   = 0x80000000
)

// Magic is the expected 4-byte archive tag.
const Magic = "DBPF"

// ResourceType is the 32-bit resource type tag stored in index entries.
type ResourceType uint32

// Known resource type tags.
const (
	// TypeProperties is a typed property list.
	TypeProperties ResourceType = 0x00B1B104
	// TypeRaster is a raster image with mipmaps.
	TypeRaster ResourceType = 0x2F4E681C
	// TypeRules is a binary rules table.
	TypeRules ResourceType = 0x08068AEB
	// TypeJSON is JSON text.
	TypeJSON ResourceType = 0x0A98EAF0
	// TypeScript is raw script source.
	TypeScript ResourceType = 0x024A0E52
)

// String returns short type name or hex tag for unknown types.
func (t ResourceType) String() string {
	switch t {
	case TypeProperties:
		return "properties"
	case TypeRaster:
		return "raster"
	case TypeRules:
		return "rules"
	case TypeJSON:
		return "json"
	case TypeScript:
		return "script"
	default:
		return fmt.Sprintf("0x%08X", uint32(t))
	}
}

// Known reports whether the type tag maps to a resource decoder.
func (t ResourceType) Known() bool {
	switch t {
	case TypeProperties, TypeRaster, TypeRules, TypeJSON, TypeScript:
		return true
	default:
		return false
	}
}

// Extension returns file extension used for extracted resources of this type.
func (t ResourceType) Extension() string {
	switch t {
	case TypeProperties:
		return "prop"
	case TypeRaster:
		return "rast"
	case TypeRules:
		return "rules"
	case TypeJSON:
		return "json"
	case TypeScript:
		return "script"
	default:
		return fmt.Sprintf("%08x", uint32(t))
	}
}

// Header is the fixed 96-byte archive header. Fields are stored little-endian.
type Header struct {
	Magic                 [4]byte   `json:"magic" yaml:"magic"`
	MajorVersion          uint32    `json:"major_version" yaml:"major_version"`
	MinorVersion          uint32    `json:"minor_version" yaml:"minor_version"`
	Reserved              [3]uint32 `json:"-" yaml:"-"`
	DateCreated           uint32    `json:"date_created,omitempty" yaml:"date_created,omitempty"`
	DateModified          uint32    `json:"date_modified,omitempty" yaml:"date_modified,omitempty"`
	IndexMajorVersion     uint32    `json:"index_major_version" yaml:"index_major_version"`
	IndexEntryCount       uint32    `json:"index_entry_count" yaml:"index_entry_count"`
	FirstIndexEntryOffset uint32    `json:"first_index_entry_offset,omitempty" yaml:"first_index_entry_offset,omitempty"`
	IndexSize             uint32    `json:"index_size" yaml:"index_size"`
	HoleEntryCount        uint32    `json:"hole_entry_count,omitempty" yaml:"hole_entry_count,omitempty"`
	HoleOffset            uint32    `json:"hole_offset,omitempty" yaml:"hole_offset,omitempty"`
	HoleSize              uint32    `json:"hole_size,omitempty" yaml:"hole_size,omitempty"`
	IndexMinorVersion     uint32    `json:"index_minor_version" yaml:"index_minor_version"`
	IndexOffset           uint32    `json:"index_offset" yaml:"index_offset"`
	Reserved2             uint32    `json:"-" yaml:"-"`
	Reserved3             [24]byte  `json:"-" yaml:"-"`
}

// MagicValid reports whether the header starts with "DBPF".
func (h *Header) MagicValid() bool {
	return string(h.Magic[:]) == Magic
}

// IndexMode is the 3-bit word at the start of the index.
// A set bit means the field is shared by all entries and stored once.
type IndexMode uint32

// Index mode bits.
const (
	IndexModeTypeConstant    IndexMode = 1 << 0
	IndexModeGroupConstant   IndexMode = 1 << 1
	IndexModeUnknownConstant IndexMode = 1 << 2
)

// Has reports whether bit is set.
func (m IndexMode) Has(bit IndexMode) bool {
	return m&bit == bit
}

// ResourceKey identifies a resource by type, group and instance.
type ResourceKey struct {
	Type     ResourceType `json:"type" yaml:"type"`
	Group    uint32       `json:"group" yaml:"group"`
	Instance uint32       `json:"instance" yaml:"instance"`
}

// String formats the key as TTTTTTTT-GGGGGGGG-IIIIIIII.
func (k ResourceKey) String() string {
	return fmt.Sprintf("%08X-%08X-%08X", uint32(k.Type), k.Group, k.Instance)
}

// IndexEntry describes one resource chunk.
type IndexEntry struct {
	// Type is resource type tag.
	Type ResourceType `json:"type" yaml:"type"`
	// Group is resource group id.
	Group uint32 `json:"group" yaml:"group"`
	// Instance is resource instance id.
	Instance uint32 `json:"instance" yaml:"instance"`
	// Unknown is the third index word (shared when IndexModeUnknownConstant is set); not interpreted.
	Unknown uint32 `json:"unknown,omitempty" yaml:"unknown,omitempty"`
	// ChunkOffset is absolute file offset of stored chunk.
	ChunkOffset uint32 `json:"chunk_offset" yaml:"chunk_offset"`
	// DiskSize is stored chunk size with bit 31 cleared.
	DiskSize uint32 `json:"disk_size" yaml:"disk_size"`
	// MemSize is declared uncompressed size.
	MemSize uint32 `json:"mem_size" yaml:"mem_size"`
	// CompressedFlag is 0xFFFF for compressed chunks.
	CompressedFlag uint16 `json:"compressed_flag" yaml:"compressed_flag"`
	// Reserved follows CompressedFlag in the index.
	Reserved uint16 `json:"reserved,omitempty" yaml:"reserved,omitempty"`
	// DiskSizeFlag keeps bit 31 of the raw disk size word; meaning unidentified.
	DiskSizeFlag bool `json:"disk_size_flag,omitempty" yaml:"disk_size_flag,omitempty"`
}

// IsCompressed reports whether the chunk is RefPack-compressed.
func (e *IndexEntry) IsCompressed() bool {
	return e.CompressedFlag == compressedMarker
}

// Key returns type/group/instance key of the entry.
func (e *IndexEntry) Key() ResourceKey {
	return ResourceKey{Type: e.Type, Group: e.Group, Instance: e.Instance}
}

// ReaderOptions configures archive parse behavior.
type ReaderOptions struct {
	// Logger receives parse diagnostics; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// StrictMagic rejects archives whose magic is not "DBPF".
	// By default the mismatch is logged and reported by Header.MagicValid.
	StrictMagic bool `json:"strict_magic,omitempty" yaml:"strict_magic,omitempty"`
}

// ScanOptions configures Reader.Scan.
type ScanOptions struct {
	// OnResourceDone is called after each resource is decoded, in completion order.
	OnResourceDone func(res DecodedResource) `json:"-" yaml:"-"`
	// Logger receives per-resource diagnostics; nil falls back to reader logger.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// Selection limits scanned entries.
	Selection Selection `json:"selection,omitzero" yaml:"selection,omitzero"`
	// MaxWorkers is number of decode workers (zero means GOMAXPROCS, one is sequential).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// Selection filters index entries before reading chunks.
type Selection struct {
	// Types keeps only listed resource types; empty keeps all.
	Types []ResourceType `json:"types,omitempty" yaml:"types,omitempty"`
	// Include defines ordered path rules over ResourcePath; empty keeps all.
	Include []pathrules.Rule `json:"include,omitempty" yaml:"include,omitempty"`
	// IncludeMatcherOptions control Include rule matching.
	IncludeMatcherOptions pathrules.MatcherOptions `json:"include_matcher_options,omitzero" yaml:"include_matcher_options,omitzero"`
	// MinMemSize drops entries with smaller declared uncompressed size.
	MinMemSize uint32 `json:"min_mem_size,omitempty" yaml:"min_mem_size,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one resource is fully written to disk.
	OnEntryDone func(entry IndexEntry, written int64, outputPath string) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Selection limits extracted entries.
	Selection Selection `json:"selection,omitzero" yaml:"selection,omitzero"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// Stored writes chunks as stored in the archive, without decompression.
	Stored bool `json:"stored,omitempty" yaml:"stored,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// discardLogger returns a logger that drops all records.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
}

// applyDefaults fills zero-valued selection options with defaults.
func (sel *Selection) applyDefaults() {
	if sel.IncludeMatcherOptions == (pathrules.MatcherOptions{}) {
		sel.IncludeMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if sel.IncludeMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		sel.IncludeMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	opts.Selection.applyDefaults()
}

// applyDefaults fills zero-valued scan options with defaults.
func (opts *ScanOptions) applyDefaults(fallback *slog.Logger) {
	if opts.Logger == nil {
		opts.Logger = fallback
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	opts.Selection.applyDefaults()
}
