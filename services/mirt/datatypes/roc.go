// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "sort"

// RocPoint is one point on a receiver operating characteristic curve.
//
// # Description
//
// The evaluator sweeps a decision threshold over predicted correctness
// probabilities and records the resulting true and false positive rates.
// Points are produced in threshold-descending order, so FPR and TPR are
// non-decreasing along the slice.
//
// # Fields
//
//   - Threshold: The probability cutoff that produced this point.
//   - FPR: False positive rate at the cutoff, in [0, 1].
//   - TPR: True positive rate at the cutoff, in [0, 1].
type RocPoint struct {
	Threshold float64 `json:"threshold"`
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
}

// AUC computes the area under the curve by the trapezoid rule.
//
// Points may arrive unsorted (hand-edited .roc files); they are sorted
// by FPR first. Curves with fewer than two points have zero area.
func AUC(points []RocPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	sorted := make([]RocPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].FPR == sorted[j].FPR {
			return sorted[i].TPR < sorted[j].TPR
		}
		return sorted[i].FPR < sorted[j].FPR
	})

	var auc float64
	for i := 1; i < len(sorted); i++ {
		width := sorted[i].FPR - sorted[i-1].FPR
		height := (sorted[i].TPR + sorted[i-1].TPR) / 2
		auc += width * height
	}
	return auc
}
