// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test stamp formatting from a fixed clock
func TestNewRunContext_StampFormat(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 5, 33, 0, time.UTC)
	run := newRunContext(now)
	assert.Equal(t, "2025_03_09_14_05", run.Stamp)
}

// Test variant labels used in artifact tags
func TestTimeVariant_Label(t *testing.T) {
	assert.Equal(t, "time", WithTimeSignal.Label())
	assert.Equal(t, "no_time", WithoutTimeSignal.Label())
}

// Test tag assembly for a single cell
func TestGridCell_Tag(t *testing.T) {
	cell := GridCell{Ability: 2, Variant: WithTimeSignal, Stamp: "2025_01_01_00_00"}
	assert.Equal(t, "2_time_2025_01_01_00_00", cell.Tag())
}

// Test the cross product: abilities outer, variants inner
func TestGridCells_CrossProduct(t *testing.T) {
	run := RunContext{Stamp: "2025_06_01_10_30"}
	cells := gridCells([]int{1, 2}, []TimeVariant{WithTimeSignal, WithoutTimeSignal}, run)
	require.Len(t, cells, 4)

	tags := make([]string, 0, len(cells))
	for _, c := range cells {
		tags = append(tags, c.Tag())
	}
	assert.Equal(t, []string{
		"1_time_2025_06_01_10_30",
		"1_no_time_2025_06_01_10_30",
		"2_time_2025_06_01_10_30",
		"2_no_time_2025_06_01_10_30",
	}, tags)
}

// Test a single-variant grid
func TestGridCells_SingleVariant(t *testing.T) {
	run := RunContext{Stamp: "2025_06_01_10_30"}
	cells := gridCells([]int{3}, []TimeVariant{WithoutTimeSignal}, run)
	require.Len(t, cells, 1)
	assert.Equal(t, "3_no_time_2025_06_01_10_30", cells[0].Tag())
	assert.Equal(t, 3, cells[0].Ability)
	assert.False(t, bool(cells[0].Variant))
}

// Test that every cell in a run gets a distinct tag
func TestGridCells_TagsUnique(t *testing.T) {
	run := newRunContext(time.Now())
	cells := gridCells([]int{1, 2, 3}, []TimeVariant{WithTimeSignal, WithoutTimeSignal}, run)
	require.Len(t, cells, 6)

	seen := make(map[string]bool)
	for _, c := range cells {
		assert.False(t, seen[c.Tag()], "duplicate tag %s", c.Tag())
		seen[c.Tag()] = true
	}
}
