// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package refpack

import (
	"errors"
	"fmt"
	"io"
)

const (
	// TypeRefPack is the only supported compression tag.
	TypeRefPack = 0x10
	// HeaderSize is the stream header length preceding control bytes.
	HeaderSize = 5

	// maxCopyPerByte bounds output per control stream byte (1028 bytes per
	// 4-byte step, rounded up).
	maxCopyPerByte = 258
)

var (
	// ErrUnsupportedType means the stream tag is not TypeRefPack.
	ErrUnsupportedType = errors.New("refpack: unsupported compression type")
	// ErrCorrupt means the control stream is malformed.
	ErrCorrupt = errors.New("refpack: corrupt stream")
	// ErrSizeMismatch means the stream produced fewer bytes than declared.
	ErrSizeMismatch = fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
)

// SizeHint returns the uncompressed size stored in the stream header.
// The value is informational; callers size output from index metadata.
func SizeHint(src []byte) (uint32, error) {
	if err := checkHeader(src); err != nil {
		return 0, err
	}

	return uint32(src[2])<<16 | uint32(src[3])<<8 | uint32(src[4]), nil
}

// MaxOutput returns the largest output a control stream of n bytes can produce.
// The densest step is a 4-byte 0xC0-0xDF control copying 1028 bytes, plus up
// to 3 literals carried by the terminal control.
func MaxOutput(n int) int64 {
	return int64(n)*maxCopyPerByte + 3
}

// Decompress expands src into a buffer of exactly outLen bytes.
// outLen above MaxOutput of the stream body is rejected with ErrCorrupt before
// allocation. On ErrSizeMismatch the returned slice holds the bytes produced so far.
func Decompress(src []byte, outLen int) ([]byte, error) {
	if outLen < 0 {
		return nil, fmt.Errorf("%w: negative output size %d", ErrCorrupt, outLen)
	}
	if err := checkHeader(src); err != nil {
		return nil, err
	}

	body := src[HeaderSize:]
	if limit := MaxOutput(len(body)); int64(outLen) > limit {
		return nil, fmt.Errorf("%w: declared size %d exceeds %d possible from %d input bytes", ErrCorrupt, outLen, limit, len(body))
	}

	dst := make([]byte, outLen)
	n, err := decode(dst, body)
	if err != nil {
		return dst[:n], err
	}
	if n != outLen {
		return dst[:n], fmt.Errorf("%w: wrote %d of %d bytes", ErrSizeMismatch, n, outLen)
	}

	return dst, nil
}

// DecompressToWriter reads the whole compressed stream from src and writes outLen
// decompressed bytes to dst in a single Write. It returns number of bytes written.
// Both the compressed input and the decompressed output are held in memory;
// nothing is written to dst when decoding fails.
func DecompressToWriter(dst io.Writer, src io.Reader, outLen int) (int, error) {
	compressed, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("read compressed stream: %w", err)
	}

	out, err := Decompress(compressed, outLen)
	if err != nil {
		return 0, err
	}

	return dst.Write(out)
}

// checkHeader validates the tag byte and header length.
func checkHeader(src []byte) error {
	if len(src) > 0 && src[0] != TypeRefPack {
		return fmt.Errorf("%w: 0x%02X", ErrUnsupportedType, src[0])
	}
	if len(src) < HeaderSize {
		return fmt.Errorf("%w: short header (%d bytes)", ErrCorrupt, len(src))
	}

	return nil
}

// decode runs the control loop over body and returns number of bytes written to dst.
func decode(dst, body []byte) (int, error) {
	in, out := 0, 0

	for in < len(body) {
		b0 := body[in]

		var (
			plain, copyLen, offset int
			last                   bool
		)

		switch {
		case b0 < 0x80:
			if in+2 > len(body) {
				return out, corruptf("control 0x%02X at %d: missing operand bytes", b0, in)
			}

			b1 := int(body[in+1])
			plain = int(b0 & 0x03)
			copyLen = int(b0&0x1C)>>2 + 3
			offset = int(b0&0x60)<<3 + b1 + 1
			in += 2
		case b0 < 0xC0:
			if in+3 > len(body) {
				return out, corruptf("control 0x%02X at %d: missing operand bytes", b0, in)
			}

			b1, b2 := int(body[in+1]), int(body[in+2])
			plain = (b1 >> 6) & 0x03
			copyLen = int(b0&0x3F) + 4
			offset = (b1&0x3F)<<8 + b2 + 1
			in += 3
		case b0 < 0xE0:
			if in+4 > len(body) {
				return out, corruptf("control 0x%02X at %d: missing operand bytes", b0, in)
			}

			b1, b2, b3 := int(body[in+1]), int(body[in+2]), int(body[in+3])
			plain = int(b0 & 0x03)
			copyLen = int(b0&0x0C)<<6 + b3 + 5
			offset = int(b0&0x10)<<12 + b1<<8 + b2 + 1
			in += 4
		case b0 < 0xFC:
			plain = int(b0&0x1F)<<2 + 4
			in++
		default:
			plain = int(b0 & 0x03)
			last = true
			in++
		}

		if in+plain > len(body) {
			return out, corruptf("literal run of %d at %d exceeds input", plain, in)
		}
		if out+plain > len(dst) {
			return out, corruptf("literal run of %d at output %d exceeds declared size %d", plain, out, len(dst))
		}

		out += copy(dst[out:], body[in:in+plain])
		in += plain

		if last {
			return out, nil
		}

		if copyLen == 0 {
			continue
		}
		if offset > out {
			return out, corruptf("back-offset %d before output start at %d", offset, out)
		}
		if out+copyLen > len(dst) {
			return out, corruptf("copy of %d at output %d exceeds declared size %d", copyLen, out, len(dst))
		}

		// Source and destination may overlap; copy forward one byte at a time.
		from := out - offset
		for i := range copyLen {
			dst[out+i] = dst[from+i]
		}
		out += copyLen
	}

	return out, nil
}

// corruptf wraps ErrCorrupt with formatted context.
func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
