// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/pathrules"
)

func filterFixture() []IndexEntry {
	return []IndexEntry{
		{Type: TypeJSON, Group: 0x10, Instance: 1, MemSize: 4},
		{Type: TypeScript, Group: 0x10, Instance: 2, MemSize: 40},
		{Type: TypeRules, Group: 0x20, Instance: 3, MemSize: 400},
		{Type: ResourceType(0xAB), Group: 0x20, Instance: 4, MemSize: 4000},
	}
}

func instances(entries []IndexEntry) []uint32 {
	out := make([]uint32, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Instance)
	}

	return out
}

func TestSelectEntries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		sel  Selection
		want []uint32
	}{
		{name: "empty selection keeps all", want: []uint32{1, 2, 3, 4}},
		{name: "types", sel: Selection{Types: []ResourceType{TypeScript, TypeRules}}, want: []uint32{2, 3}},
		{name: "min size", sel: Selection{MinMemSize: 40}, want: []uint32{2, 3, 4}},
		{
			name: "group rule",
			sel: Selection{Include: []pathrules.Rule{
				{Action: pathrules.ActionInclude, Pattern: "00000020/**"},
			}},
			want: []uint32{3, 4},
		},
		{
			name: "extension rule is case insensitive",
			sel: Selection{Include: []pathrules.Rule{
				{Action: pathrules.ActionInclude, Pattern: "*.JSON"},
				{Action: pathrules.ActionInclude, Pattern: "*.rules"},
			}},
			want: []uint32{1, 3},
		},
		{
			name: "exclude after include",
			sel: Selection{Include: []pathrules.Rule{
				{Action: pathrules.ActionInclude, Pattern: "00000010/**"},
				{Action: pathrules.ActionExclude, Pattern: "*.script"},
			}},
			want: []uint32{1},
		},
		{
			name: "combined filters",
			sel: Selection{
				Types:      []ResourceType{TypeJSON, TypeScript, TypeRules},
				MinMemSize: 10,
				Include:    []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "00000010/*"}},
			},
			want: []uint32{2},
		},
		{
			name: "blank patterns ignored",
			sel:  Selection{Include: []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "  "}}},
			want: []uint32{1, 2, 3, 4},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := SelectEntries(filterFixture(), tc.sel)
			require.NoError(t, err)
			assert.Equal(t, tc.want, instances(got))
		})
	}
}

func TestIncludeMatcher_WindowsPattern(t *testing.T) {
	t.Parallel()

	matcher, err := newIncludeMatcher([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: `.\00000010\*`},
	}, pathrules.MatcherOptions{CaseInsensitive: true, DefaultAction: pathrules.ActionExclude})
	require.NoError(t, err)

	assert.True(t, matcher.Match(IndexEntry{Type: TypeJSON, Group: 0x10, Instance: 1}))
	assert.False(t, matcher.Match(IndexEntry{Type: TypeJSON, Group: 0x11, Instance: 1}))
}

func TestIncludeMatcher_NilIncludesAll(t *testing.T) {
	t.Parallel()

	matcher, err := newIncludeMatcher(nil, pathrules.MatcherOptions{})
	require.NoError(t, err)
	assert.Nil(t, matcher)
	assert.True(t, matcher.Match(IndexEntry{}))
}

func TestIncludeMatcher_InvalidRule(t *testing.T) {
	t.Parallel()

	_, err := newIncludeMatcher([]pathrules.Rule{
		{Action: pathrules.ActionUnknown, Pattern: "*.json"},
	}, pathrules.MatcherOptions{DefaultAction: pathrules.ActionExclude})
	require.ErrorIs(t, err, ErrInvalidIncludeRules)
}
