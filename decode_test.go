// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Dispatch(t *testing.T) {
	t.Parallel()

	props := new(propertyBuilder).scalar(1, PropertyUint32, be32(42)).bytes()
	rules := rulesBody([][]byte{rulesRecord(1, 2, 3, 0)}, be32(0), be32(0), be32(0), be32(0))

	testCases := []struct {
		name           string
		data           []byte
		typ            ResourceType
		wantKind       Kind
		wantRecognized bool
		wantErr        bool
	}{
		{name: "properties", typ: TypeProperties, data: props, wantKind: KindProperties, wantRecognized: true},
		{name: "rules", typ: TypeRules, data: rules, wantKind: KindRules, wantRecognized: true},
		{name: "json", typ: TypeJSON, data: []byte(`{"k":"v"}`), wantKind: KindJSON, wantRecognized: true},
		{name: "script", typ: TypeScript, data: []byte("return 1"), wantKind: KindScript, wantRecognized: true},
		{name: "raster header only", typ: TypeRaster, data: make([]byte, 24), wantKind: KindRaw, wantRecognized: true, wantErr: true},
		{name: "broken properties", typ: TypeProperties, data: []byte{0, 0}, wantKind: KindRaw, wantRecognized: true, wantErr: true},
		{name: "unknown type", typ: ResourceType(0xDEADBEEF), data: []byte{1, 2, 3}, wantKind: KindRaw},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := Decode(tc.typ, tc.data)
			assert.Equal(t, tc.wantKind, res.Kind)
			assert.Equal(t, tc.wantRecognized, res.Recognized)
			assert.Equal(t, tc.wantRecognized, tc.typ.Known())

			if tc.wantErr {
				require.Error(t, res.Err)
				assert.False(t, res.Decoded())
			} else {
				require.NoError(t, res.Err)
			}

			if res.Kind == KindRaw {
				assert.Equal(t, tc.data, res.Raw)
			}
		})
	}
}

func TestDecode_Values(t *testing.T) {
	t.Parallel()

	res := Decode(TypeProperties, new(propertyBuilder).scalar(0xABCD, PropertyUint32, be32(42)).bytes())
	require.True(t, res.Decoded())
	require.Len(t, res.Properties, 1)
	assert.Equal(t, []any{uint32(42)}, res.Properties[0].Values)

	res = Decode(TypeJSON, []byte(`{"k":"v"}`))
	assert.Equal(t, `{"k":"v"}`, res.Text)
	assert.Nil(t, res.Raw)

	res = Decode(TypeRaster, concat(be32(0), be32(64), be32(32), be32(1), be32(4), be32(2)))
	require.ErrorIs(t, res.Err, ErrUnsupported)
	require.NotNil(t, res.Raster)
	assert.Equal(t, uint32(64), res.Raster.Width)
}

func TestDecode_PartialRulesKept(t *testing.T) {
	t.Parallel()

	data := rulesBody([][]byte{rulesRecord(9, 1, 2, 0)}, be32(0), be32(0), be32(4), be32(0))

	res := DecodeEntry(IndexEntry{Type: TypeRules, Instance: 5}, data)
	require.ErrorIs(t, res.Err, ErrUnsupportedTrailingSection)
	assert.Equal(t, KindRaw, res.Kind)
	assert.Equal(t, data, res.Raw)
	assert.Equal(t, uint32(5), res.Entry.Instance)
	require.NotNil(t, res.Rules)
	assert.Len(t, res.Rules.Rules, 1)
}

func TestDecode_SkippedPropertyArrayNotDecoded(t *testing.T) {
	t.Parallel()

	data := new(propertyBuilder).
		array(1, PropertyType(0x99), 1, 2, []byte{1, 2}).
		scalar(2, PropertyUint32, be32(42)).
		bytes()

	res := Decode(TypeProperties, data)
	require.NoError(t, res.Err)
	assert.Equal(t, KindProperties, res.Kind)
	assert.Equal(t, 1, res.SkippedProperties())
	assert.False(t, res.Decoded())
	require.ErrorIs(t, res.Properties[0].Err, ErrUnsupportedPropertyType)
}
