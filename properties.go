// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// PropertyType is the value type of a property record.
type PropertyType uint16

// Supported property value types.
const (
	PropertyBool     PropertyType = 0x01
	PropertyInt32    PropertyType = 0x09
	PropertyUint32   PropertyType = 0x0A
	PropertyFloat    PropertyType = 0x0D
	PropertyString8  PropertyType = 0x12
	PropertyString16 PropertyType = 0x13
	PropertyKey      PropertyType = 0x20
	PropertyVector2  PropertyType = 0x30
	PropertyVector3  PropertyType = 0x31
	PropertyColorRGB PropertyType = 0x32
)

// Specifier bits and array item size mask.
const (
	specifierArrayMask  = 0x30
	specifierInvalidBit = 0x40
	itemSizeReserved    = 0x9C000000
	string16UnitSize    = 2
	colorPaddingSize    = 4
	recordHeaderSize    = 8 // identifier, type, specifier
)

// Vector2 is a pair of floats.
type Vector2 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Vector3 is a triple of floats.
type Vector3 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// ColorRGB is a float colour triple.
type ColorRGB struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
}

// PropertyRecord is one decoded property list variable.
type PropertyRecord struct {
	// Err is set on records that were stepped over instead of decoded.
	Err error `json:"-" yaml:"-"`
	// Values holds decoded elements: bool, int32, uint32, float32, string,
	// ResourceKey, Vector2, Vector3 or ColorRGB depending on Type.
	Values []any `json:"values,omitempty" yaml:"values,omitempty"`
	// Identifier is the property id.
	Identifier uint32 `json:"identifier" yaml:"identifier"`
	// ItemSize is declared per-element byte size for arrays.
	ItemSize uint32 `json:"item_size,omitempty" yaml:"item_size,omitempty"`
	// ArrayLength is element count; 1 for scalars.
	ArrayLength int32 `json:"array_length" yaml:"array_length"`
	// Type is the value type.
	Type PropertyType `json:"type" yaml:"type"`
	// Specifier is the raw scalar/array bit field.
	Specifier uint16 `json:"specifier" yaml:"specifier"`
	// IsArray reports array encoding.
	IsArray bool `json:"is_array,omitempty" yaml:"is_array,omitempty"`
	// Skipped reports an array of unsupported type that was stepped over using ItemSize;
	// Err then wraps ErrUnsupportedPropertyType.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// DecodeProperties decodes a property list body.
// On error it returns records decoded before the failing one.
func DecodeProperties(data []byte) ([]PropertyRecord, error) {
	c := NewCursor(data, 0)

	count, err := c.U32BE()
	if err != nil {
		return nil, fmt.Errorf("read property count: %w", err)
	}

	records := make([]PropertyRecord, 0, min(int(count), c.Remaining()/recordHeaderSize))
	for i := uint32(0); i < count; i++ {
		rec, err := readPropertyRecord(c)
		if err != nil {
			return records, fmt.Errorf("property %d (id 0x%08X): %w", i, rec.Identifier, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

// readPropertyRecord decodes one record header and its values.
func readPropertyRecord(c *Cursor) (PropertyRecord, error) {
	var (
		rec PropertyRecord
		err error
		raw uint16
	)

	if rec.Identifier, err = c.U32BE(); err != nil {
		return rec, err
	}
	if raw, err = c.U16BE(); err != nil {
		return rec, err
	}
	rec.Type = PropertyType(raw)
	if rec.Specifier, err = c.U16BE(); err != nil {
		return rec, err
	}

	rec.ArrayLength = 1
	switch {
	case rec.Specifier&specifierArrayMask == 0:
	case rec.Specifier&specifierInvalidBit == 0:
		rec.IsArray = true
		if rec.ArrayLength, err = c.I32BE(); err != nil {
			return rec, err
		}
		if rec.ItemSize, err = c.U32BE(); err != nil {
			return rec, err
		}
		rec.ItemSize &^= itemSizeReserved

		if rec.ArrayLength < 0 {
			return rec, fmt.Errorf("%w: negative array length %d", ErrInvalidSpecifier, rec.ArrayLength)
		}
	default:
		return rec, fmt.Errorf("%w: 0x%04X", ErrInvalidSpecifier, rec.Specifier)
	}

	if !rec.Type.supported() {
		if !rec.IsArray {
			return rec, fmt.Errorf("%w: 0x%02X", ErrUnsupportedPropertyType, uint16(rec.Type))
		}

		rec.Skipped = true
		rec.Err = fmt.Errorf("%w: 0x%02X array skipped", ErrUnsupportedPropertyType, uint16(rec.Type))
		return rec, c.SkipItems(uint32(rec.ArrayLength), int(rec.ItemSize))
	}

	rec.Values = make([]any, 0, min(int(rec.ArrayLength), c.Remaining()))
	for range rec.ArrayLength {
		v, err := readPropertyValue(c, rec.Type, rec.IsArray)
		if err != nil {
			return rec, err
		}

		rec.Values = append(rec.Values, v)
	}

	return rec, nil
}

// supported reports whether value type has a decoder.
func (t PropertyType) supported() bool {
	switch t {
	case PropertyBool, PropertyInt32, PropertyUint32, PropertyFloat,
		PropertyString8, PropertyString16, PropertyKey,
		PropertyVector2, PropertyVector3, PropertyColorRGB:
		return true
	default:
		return false
	}
}

// readPropertyValue decodes one element of type t.
func readPropertyValue(c *Cursor, t PropertyType, isArray bool) (any, error) {
	switch t {
	case PropertyKey:
		// Keys keep stored byte order.
		var (
			k   ResourceKey
			typ uint32
			err error
		)
		if k.Instance, err = c.U32(); err != nil {
			return nil, err
		}
		if typ, err = c.U32(); err != nil {
			return nil, err
		}
		k.Type = ResourceType(typ)
		if k.Group, err = c.U32(); err != nil {
			return nil, err
		}
		return k, nil
	case PropertyInt32:
		return c.I32BE()
	case PropertyUint32:
		return c.U32BE()
	case PropertyFloat:
		return c.F32()
	case PropertyColorRGB:
		var (
			col ColorRGB
			err error
		)
		if col.R, err = c.F32(); err != nil {
			return nil, err
		}
		if col.G, err = c.F32(); err != nil {
			return nil, err
		}
		if col.B, err = c.F32(); err != nil {
			return nil, err
		}
		if !isArray {
			if err := c.Skip(colorPaddingSize); err != nil {
				return nil, err
			}
		}
		return col, nil
	case PropertyVector2:
		var (
			v   Vector2
			err error
		)
		if v.X, err = c.F32BE(); err != nil {
			return nil, err
		}
		if v.Y, err = c.F32BE(); err != nil {
			return nil, err
		}
		return v, nil
	case PropertyVector3:
		var (
			v   Vector3
			err error
		)
		if v.X, err = c.F32BE(); err != nil {
			return nil, err
		}
		if v.Y, err = c.F32BE(); err != nil {
			return nil, err
		}
		if v.Z, err = c.F32BE(); err != nil {
			return nil, err
		}
		return v, nil
	case PropertyBool:
		b, err := c.U8()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case PropertyString8:
		b, err := readLengthPrefixed(c, 1)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case PropertyString16:
		b, err := readLengthPrefixed(c, string16UnitSize)
		if err != nil {
			return nil, err
		}
		return narrowString16(b)
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedPropertyType, uint16(t))
	}
}

// readLengthPrefixed reads a big-endian character count followed by count*unit bytes.
func readLengthPrefixed(c *Cursor, unit int) ([]byte, error) {
	n, err := c.U32BE()
	if err != nil {
		return nil, err
	}

	need := int64(n) * int64(unit)
	if need > int64(c.Remaining()) {
		return nil, c.truncated(need)
	}

	return c.Bytes(int(need))
}

// narrowString16 keeps the odd-indexed byte of each 2-byte unit and decodes it as Latin-1.
func narrowString16(b []byte) (string, error) {
	narrow := make([]byte, 0, len(b)/string16UnitSize)
	for i := 1; i < len(b); i += string16UnitSize {
		narrow = append(narrow, b[i])
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(narrow)
	if err != nil {
		return "", fmt.Errorf("decode string16: %w", err)
	}

	return string(out), nil
}
