// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

/*
Package refpack decodes the LZ77-family compression used for DBPF chunks.

A stream starts with a 5-byte header: compression tag (only 0x10 is
supported), one reserved byte and a 3-byte big-endian size hint. The rest
is a sequence of control bytes; each one emits a literal run copied from
the input and optionally a copy-back of previously produced output:

	control     extra  literal run            copy length               back-offset
	0x00-0x7F   1      b0&3                   (b0&0x1C)>>2 + 3          (b0&0x60)<<3 + b1 + 1
	0x80-0xBF   2      b1>>6                  b0&0x3F + 4               (b1&0x3F)<<8 + b2 + 1
	0xC0-0xDF   3      b0&3                   (b0&0x0C)<<6 + b3 + 5     (b0&0x10)<<12 + b1<<8 + b2 + 1
	0xE0-0xFB   0      (b0&0x1F)<<2 + 4       0
	0xFC-0xFF   0      b0&3 (last step)       0

The caller-declared output size is authoritative: it sizes the output
buffer and the final write count is validated against it.

	data, err := refpack.Decompress(chunk, int(entry.MemSize))
	if err != nil {
	    return err
	}
*/
package refpack
