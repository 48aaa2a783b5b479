// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_ByteOrder(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{
		0x01, 0x02, 0x03, 0x04,
		0x01, 0x02, 0x03, 0x04,
		0x00, 0x2A,
		0xFF, 0xFF, 0xFF, 0xFE,
		0x3F, 0x80, 0x00, 0x00,
		0x00, 0x00, 0x80, 0x3F,
	}, 0)

	le, err := c.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), le)

	be, err := c.U32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), be)

	u16, err := c.U16BE()
	require.NoError(t, err)
	assert.Equal(t, uint16(42), u16)

	i32, err := c.I32BE()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	fbe, err := c.F32BE()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fbe, 0)

	fle, err := c.F32()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fle, 0)

	assert.Equal(t, 0, c.Remaining())
}

func TestCursor_TruncatedReportsOffset(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{1, 2, 3, 4, 5, 6}, 100)
	require.NoError(t, c.Skip(4))

	_, err := c.U32()
	require.ErrorIs(t, err, ErrTruncatedInput)

	var te *TruncatedError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, int64(104), te.Offset)
	assert.Equal(t, 4, te.Need)
	assert.Equal(t, 2, te.Have)

	// Failed reads do not advance.
	assert.Equal(t, int64(104), c.Offset())
}

func TestCursor_NegativeLength(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{1, 2}, 0)
	_, err := c.Bytes(-1)
	require.ErrorIs(t, err, ErrTruncatedInput)
}
