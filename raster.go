// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import "fmt"

// RasterHeader is the fixed 24-byte header of a raster resource.
type RasterHeader struct {
	Type        uint32 `json:"type" yaml:"type"`
	Width       uint32 `json:"width" yaml:"width"`
	Height      uint32 `json:"height" yaml:"height"`
	MipmapCount uint32 `json:"mipmap_count" yaml:"mipmap_count"`
	PixelWidth  uint32 `json:"pixel_width" yaml:"pixel_width"`
	PixelFormat uint32 `json:"pixel_format" yaml:"pixel_format"`
}

// DecodeRasterHeader decodes the raster header. The mipmap body is not decoded:
// on success the header is returned together with an ErrUnsupported error.
func DecodeRasterHeader(data []byte) (*RasterHeader, error) {
	c := NewCursor(data, 0)

	h := &RasterHeader{}
	for _, field := range []*uint32{&h.Type, &h.Width, &h.Height, &h.MipmapCount, &h.PixelWidth, &h.PixelFormat} {
		v, err := c.U32BE()
		if err != nil {
			return nil, fmt.Errorf("read raster header: %w", err)
		}
		*field = v
	}

	return h, unsupportedError("mipmap body not implemented")
}
