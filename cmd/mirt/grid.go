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
	"fmt"
	"time"
)

// stampLayout formats the run timestamp embedded in every artifact
// name of one invocation. Minute resolution: two runs inside one
// minute would collide, which matches the historical layout.
const stampLayout = "2006_01_02_15_04"

// TimeVariant says whether a grid cell's fit uses the response-time
// signal.
type TimeVariant bool

const (
	WithTimeSignal    TimeVariant = true
	WithoutTimeSignal TimeVariant = false
)

// Label returns the tag fragment naming the variant.
func (v TimeVariant) Label() string {
	if v {
		return "time"
	}
	return "no_time"
}

// RunContext carries the single timestamp shared by all artifacts of
// one pipeline invocation. It is computed exactly once, passed by
// value, and never recomputed mid-run, so every grid cell of one
// invocation groups under a common label while later invocations
// produce disjoint artifacts.
type RunContext struct {
	Stamp string
}

func newRunContext(now time.Time) RunContext {
	return RunContext{Stamp: now.Format(stampLayout)}
}

// GridCell is one (ability dimension, time variant) combination
// processed independently within a run.
type GridCell struct {
	Ability int
	Variant TimeVariant
	Stamp   string
}

// Tag derives the cell's artifact name. It is used verbatim as the
// cell's output directory name and as the key under which its
// evaluation curve is reported.
func (c GridCell) Tag() string {
	return fmt.Sprintf("%d_%s_%s", c.Ability, c.Variant.Label(), c.Stamp)
}

// gridCells expands the cross product of ability dimensions and time
// variants, abilities as the outer loop and variants as the inner
// loop, every cell sharing the run's stamp.
func gridCells(abilities []int, variants []TimeVariant, run RunContext) []GridCell {
	cells := make([]GridCell, 0, len(abilities)*len(variants))
	for _, ability := range abilities {
		for _, variant := range variants {
			cells = append(cells, GridCell{Ability: ability, Variant: variant, Stamp: run.Stamp})
		}
	}
	return cells
}
