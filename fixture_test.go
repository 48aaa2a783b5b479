// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// testResource describes one chunk written by buildArchive.
type testResource struct {
	data       []byte
	typ        ResourceType
	group      uint32
	instance   uint32
	unknown    uint32
	memSize    uint32 // zero means len(data)
	compressed bool
	diskFlag   bool
}

// testArchive describes a DBPF file layout: header, chunks, then index.
type testArchive struct {
	magic     string // empty means "DBPF"
	resources []testResource
	mode      IndexMode
	// entryCount overrides IndexEntryCount when non-zero.
	entryCount uint32
	// indexOffset overrides IndexOffset when non-zero.
	indexOffset uint32
}

// buildArchive serializes a into DBPF bytes. Shared index values come from the first resource.
func buildArchive(tb testing.TB, a testArchive) []byte {
	tb.Helper()

	buf := make([]byte, headerSize)
	offsets := make([]uint32, len(a.resources))
	for i, res := range a.resources {
		offsets[i] = uint32(len(buf))
		buf = append(buf, res.data...)
	}

	indexOffset := uint32(len(buf))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(a.mode))

	var first testResource
	if len(a.resources) > 0 {
		first = a.resources[0]
	}
	if a.mode.Has(IndexModeTypeConstant) {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(first.typ))
	}
	if a.mode.Has(IndexModeGroupConstant) {
		buf = binary.LittleEndian.AppendUint32(buf, first.group)
	}
	if a.mode.Has(IndexModeUnknownConstant) {
		buf = binary.LittleEndian.AppendUint32(buf, first.unknown)
	}

	for i, res := range a.resources {
		if !a.mode.Has(IndexModeTypeConstant) {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(res.typ))
		}
		if !a.mode.Has(IndexModeGroupConstant) {
			buf = binary.LittleEndian.AppendUint32(buf, res.group)
		}
		if !a.mode.Has(IndexModeUnknownConstant) {
			buf = binary.LittleEndian.AppendUint32(buf, res.unknown)
		}

		disk := uint32(len(res.data))
		if res.diskFlag {
			disk |= diskSizeFlagBit
		}
		memSize := res.memSize
		if memSize == 0 {
			memSize = uint32(len(res.data))
		}
		var flag uint16
		if res.compressed {
			flag = compressedMarker
		}

		buf = binary.LittleEndian.AppendUint32(buf, res.instance)
		buf = binary.LittleEndian.AppendUint32(buf, offsets[i])
		buf = binary.LittleEndian.AppendUint32(buf, disk)
		buf = binary.LittleEndian.AppendUint32(buf, memSize)
		buf = binary.LittleEndian.AppendUint16(buf, flag)
		buf = binary.LittleEndian.AppendUint16(buf, 0)
	}

	magic := a.magic
	if magic == "" {
		magic = Magic
	}
	copy(buf[0:4], magic)

	entryCount := uint32(len(a.resources))
	if a.entryCount != 0 {
		entryCount = a.entryCount
	}
	if a.indexOffset != 0 {
		indexOffset = a.indexOffset
	}

	binary.LittleEndian.PutUint32(buf[4:], 2)  // major version
	binary.LittleEndian.PutUint32(buf[8:], 0)  // minor version
	binary.LittleEndian.PutUint32(buf[32:], 7) // index major version
	binary.LittleEndian.PutUint32(buf[36:], entryCount)
	binary.LittleEndian.PutUint32(buf[44:], uint32(len(buf))-indexOffset)
	binary.LittleEndian.PutUint32(buf[60:], 3) // index minor version
	binary.LittleEndian.PutUint32(buf[64:], indexOffset)

	return buf
}

// writeArchive writes archive bytes to a temp file and returns its path.
func writeArchive(tb testing.TB, a testArchive) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "test.package")
	if err := os.WriteFile(path, buildArchive(tb, a), 0o600); err != nil {
		tb.Fatalf("write archive: %v", err)
	}

	return path
}

// refpackLiteral encodes data as a literal-only RefPack stream.
func refpackLiteral(data []byte) []byte {
	n := len(data)
	out := []byte{0x10, 0x00, byte(n >> 16), byte(n >> 8), byte(n)}

	for len(data) >= 4 {
		run := min(len(data)&^3, 112)
		out = append(out, byte(0xE0+run/4-1))
		out = append(out, data[:run]...)
		data = data[run:]
	}

	out = append(out, byte(0xFC+len(data)))
	return append(out, data...)
}

// propertyBuilder assembles property list bodies.
type propertyBuilder struct {
	records [][]byte
}

func (b *propertyBuilder) scalar(id uint32, typ PropertyType, value []byte) *propertyBuilder {
	rec := binary.BigEndian.AppendUint32(nil, id)
	rec = binary.BigEndian.AppendUint16(rec, uint16(typ))
	rec = binary.BigEndian.AppendUint16(rec, 0)
	b.records = append(b.records, append(rec, value...))
	return b
}

func (b *propertyBuilder) array(id uint32, typ PropertyType, count int32, itemSize uint32, values []byte) *propertyBuilder {
	rec := binary.BigEndian.AppendUint32(nil, id)
	rec = binary.BigEndian.AppendUint16(rec, uint16(typ))
	rec = binary.BigEndian.AppendUint16(rec, 0x30)
	rec = binary.BigEndian.AppendUint32(rec, uint32(count))
	rec = binary.BigEndian.AppendUint32(rec, itemSize)
	b.records = append(b.records, append(rec, values...))
	return b
}

func (b *propertyBuilder) raw(rec []byte) *propertyBuilder {
	b.records = append(b.records, rec)
	return b
}

func (b *propertyBuilder) bytes() []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(b.records)))
	for _, rec := range b.records {
		out = append(out, rec...)
	}

	return out
}

func be32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func beFloat(v float32) []byte {
	return be32(math.Float32bits(v))
}

func leFloat(v float32) []byte {
	return le32(math.Float32bits(v))
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}
