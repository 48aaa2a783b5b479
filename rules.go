// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import "fmt"

// Rules table layout.
const (
	rulesHeaderReserved   = 13  // three reserved words and one reserved byte
	rulesRecordSize       = 160 // fixed part of one rule record
	rulesNameGap          = 32
	rulesStartGap         = 12
	rulesEndGap           = 92
	rulesTailGap          = 8
	rulesExtraBlockSize   = 12
	rulesSectionAItemSize = 0x5C
	rulesSectionBItemSize = 0x70
	rulesExtraSentinel    = 0xFFFF0000 // -65536 as stored
)

// RulesEntry is one fixed-size rule record.
type RulesEntry struct {
	Name        uint32 `json:"name" yaml:"name"`
	StartOffset uint32 `json:"start_offset" yaml:"start_offset"`
	EndOffset   uint32 `json:"end_offset" yaml:"end_offset"`
	ExtraCount  uint32 `json:"extra_count" yaml:"extra_count"`
}

// RulesTable is the decoded part of a rules resource.
type RulesTable struct {
	// Rules are decoded in stored order.
	Rules []RulesEntry `json:"rules" yaml:"rules"`
	// SectionACount is item count of the first trailing section (0x5C bytes per item).
	SectionACount uint32 `json:"section_a_count" yaml:"section_a_count"`
	// SectionBCount is item count of the second trailing section (0x70 bytes per item).
	SectionBCount uint32 `json:"section_b_count" yaml:"section_b_count"`
}

// DecodeRules decodes a rules table. On error the returned table keeps rules decoded so far.
func DecodeRules(data []byte) (*RulesTable, error) {
	c := NewCursor(data, 0)
	table := &RulesTable{}

	if err := c.Skip(rulesHeaderReserved); err != nil {
		return table, fmt.Errorf("read rules header: %w", err)
	}

	count, err := c.U32BE()
	if err != nil {
		return table, fmt.Errorf("read rules count: %w", err)
	}

	table.Rules = make([]RulesEntry, 0, min(int(count), c.Remaining()/rulesRecordSize))
	for i := uint32(0); i < count; i++ {
		rule, err := readRulesEntry(c)
		if err != nil {
			return table, fmt.Errorf("rule %d: %w", i, err)
		}

		table.Rules = append(table.Rules, rule)
	}

	if table.SectionACount, err = readRulesSection(c, rulesSectionAItemSize); err != nil {
		return table, fmt.Errorf("rules section A: %w", err)
	}
	if table.SectionBCount, err = readRulesSection(c, rulesSectionBItemSize); err != nil {
		return table, fmt.Errorf("rules section B: %w", err)
	}

	for _, name := range []string{"C", "D"} {
		n, err := c.U32BE()
		if err != nil {
			return table, fmt.Errorf("rules section %s: %w", name, err)
		}
		if n != 0 {
			return table, fmt.Errorf("%w: section %s has %d items", ErrUnsupportedTrailingSection, name, n)
		}
	}

	return table, nil
}

// readRulesEntry decodes one rule record and skips its extra blocks.
func readRulesEntry(c *Cursor) (RulesEntry, error) {
	var (
		rule RulesEntry
		err  error
	)

	if rule.Name, err = c.U32(); err != nil {
		return rule, err
	}
	if err = c.Skip(rulesNameGap); err != nil {
		return rule, err
	}
	if rule.StartOffset, err = c.U32BE(); err != nil {
		return rule, err
	}
	if err = c.Skip(rulesStartGap); err != nil {
		return rule, err
	}
	if rule.EndOffset, err = c.U32BE(); err != nil {
		return rule, err
	}
	if err = c.Skip(rulesEndGap); err != nil {
		return rule, err
	}
	if rule.ExtraCount, err = c.U32BE(); err != nil {
		return rule, err
	}
	if rule.ExtraCount == rulesExtraSentinel {
		rule.ExtraCount = 0
	}
	if err = c.Skip(rulesTailGap); err != nil {
		return rule, err
	}

	return rule, c.SkipItems(rule.ExtraCount, rulesExtraBlockSize)
}

// readRulesSection reads an item count and skips count*itemSize bytes.
func readRulesSection(c *Cursor, itemSize int) (uint32, error) {
	n, err := c.U32BE()
	if err != nil {
		return 0, err
	}

	return n, c.SkipItems(n, itemSize)
}
