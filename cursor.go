// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"encoding/binary"
	"math"
)

// Cursor is a bounds-checked sequential reader over an in-memory byte slice.
//
// Methods without suffix return values in stored (little-endian) order;
// BE variants byte-swap, which is how most resource bodies are laid out.
// Every read that would cross the end returns *TruncatedError.
type Cursor struct {
	buf  []byte
	pos  int
	base int64
}

// NewCursor returns a cursor over buf. base is the absolute source offset of buf[0]
// and is only used for error reporting.
func NewCursor(buf []byte, base int64) *Cursor {
	return &Cursor{buf: buf, base: base}
}

// Offset returns absolute offset of the next byte to read.
func (c *Cursor) Offset() int64 {
	return c.base + int64(c.pos)
}

// Pos returns position relative to the start of the buffer.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// take returns the next n bytes and advances.
func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, c.truncated(int64(n))
	}

	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// truncated returns a TruncatedError for a read of need bytes at the current offset.
// need is int64 so that count*size products from untrusted headers cannot overflow.
func (c *Cursor) truncated(need int64) error {
	return &TruncatedError{Offset: c.Offset(), Need: int(min(need, math.MaxInt32)), Have: c.Remaining()}
}

// SkipItems advances over count items of itemSize bytes each.
func (c *Cursor) SkipItems(count uint32, itemSize int) error {
	need := int64(count) * int64(itemSize)
	if need > int64(c.Remaining()) {
		return c.truncated(need)
	}

	return c.Skip(int(need))
}

// Skip advances by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// Bytes returns the next n bytes. The slice aliases the cursor buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	return c.take(n)
}

// U8 reads one byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// U16 reads uint16 in stored order.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// U16BE reads byte-swapped uint16.
func (c *Cursor) U16BE() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

// U32 reads uint32 in stored order.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// U32BE reads byte-swapped uint32.
func (c *Cursor) U32BE() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

// I32BE reads byte-swapped int32.
func (c *Cursor) I32BE() (int32, error) {
	v, err := c.U32BE()
	return int32(v), err //nolint:gosec // bit reinterpretation
}

// F32 reads float32 in stored order.
func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	return math.Float32frombits(v), err
}

// F32BE reads byte-swapped float32.
func (c *Cursor) F32BE() (float32, error) {
	v, err := c.U32BE()
	return math.Float32frombits(v), err
}
