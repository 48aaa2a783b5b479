// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"slices"

	"github.com/woozymasta/pathrules"
)

// includeMatcher holds compiled resource selection rules.
type includeMatcher struct {
	matcher *pathrules.Matcher
}

// newIncludeMatcher compiles selection path rules. It returns nil when no rules are set.
func newIncludeMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*includeMatcher, error) {
	rules = normalizeIncludeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidIncludeRules, err)
	}

	return &includeMatcher{matcher: matcher}, nil
}

// normalizeIncludeRules normalizes rule patterns and drops empty patterns.
func normalizeIncludeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether entry resource path is included by rules.
// A nil matcher includes everything.
func (m *includeMatcher) Match(entry IndexEntry) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	return m.matcher.Included(ResourcePath(entry), false)
}

// SelectEntries returns entries passing sel, preserving index order.
func SelectEntries(entries []IndexEntry, sel Selection) ([]IndexEntry, error) {
	sel.applyDefaults()

	matcher, err := newIncludeMatcher(sel.Include, sel.IncludeMatcherOptions)
	if err != nil {
		return nil, err
	}

	entries = filterEntriesByTypes(entries, sel.Types)
	entries = filterEntriesByMemSize(entries, sel.MinMemSize)
	return filterEntriesByMatcher(entries, matcher), nil
}

// filterEntriesByTypes keeps entries whose type is listed; empty list keeps all.
func filterEntriesByTypes(entries []IndexEntry, types []ResourceType) []IndexEntry {
	if len(types) == 0 {
		return entries
	}

	out := make([]IndexEntry, 0, len(entries))
	for _, entry := range entries {
		if slices.Contains(types, entry.Type) {
			out = append(out, entry)
		}
	}

	return out
}

// filterEntriesByMemSize keeps entries with declared size at least minSize.
func filterEntriesByMemSize(entries []IndexEntry, minSize uint32) []IndexEntry {
	if minSize == 0 {
		return entries
	}

	out := make([]IndexEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.MemSize < minSize {
			continue
		}

		out = append(out, entry)
	}

	return out
}

// filterEntriesByMatcher keeps entries included by matcher.
func filterEntriesByMatcher(entries []IndexEntry, matcher *includeMatcher) []IndexEntry {
	if matcher == nil {
		return entries
	}

	out := make([]IndexEntry, 0, len(entries))
	for _, entry := range entries {
		if matcher.Match(entry) {
			out = append(out, entry)
		}
	}

	return out
}
