// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package predict evaluates a fitted model against held-out students
// and turns the pooled predictions into an ROC curve.
//
// Evaluation simulates a real assessment: the first half of a student's
// history is used to estimate their ability, the second half is
// predicted blind. Curves are persisted as .roc files (CSV with header
// threshold,fpr,tpr).
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/responses"
)

// Params configures an evaluation run.
//
// # Fields
//
//   - ModelFile: Path to the checkpoint or model JSON to evaluate.
//   - TestFile: Path to the held-out .responses split.
//   - RocFile: Destination .roc path. Empty skips persistence.
//   - Logger: Optional logger. Nil means slog.Default().
type Params struct {
	ModelFile string
	TestFile  string
	RocFile   string
	Logger    *slog.Logger
}

// Result summarizes an evaluation.
type Result struct {
	// Points is the ROC curve over the pooled predictions.
	Points []datatypes.RocPoint

	// AUC is the area under Points.
	AUC float64

	// Students is the number of students actually evaluated.
	Students int

	// Skipped counts students whose history was too short to halve.
	Skipped int

	// Predictions is the number of pooled (score, label) pairs.
	Predictions int
}

// Evaluate scores a model on the test split.
//
// # Description
//
// Loads the model, reads the split, and walks students in sorted order.
// For each student with at least two responses, the first half of their
// history estimates an ability and the model predicts the second half.
// The pooled predictions become one ROC curve, optionally persisted to
// RocFile.
//
// # Outputs
//
//   - Result: Curve, AUC, and evaluation counts.
//   - error: Non-nil on load/read/write failure, one-sided outcomes,
//     or cancellation.
func Evaluate(ctx context.Context, p Params) (Result, error) {
	var res Result
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model, err := engine.Load(p.ModelFile)
	if err != nil {
		return res, fmt.Errorf("evaluate: %w", err)
	}
	records, err := responses.ReadFile(p.TestFile)
	if err != nil {
		return res, fmt.Errorf("evaluate: %w", err)
	}

	byStudent := datatypes.ByStudent(records)
	students := make([]string, 0, len(byStudent))
	for s := range byStudent {
		students = append(students, s)
	}
	sort.Strings(students)

	var scores []float64
	var labels []bool
	unknown := 0

	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("evaluate: %w", err)
		}

		history := byStudent[student]
		if len(history) < 2 {
			res.Skipped++
			continue
		}
		half := len(history) / 2

		var obs []engine.Observation
		for _, rec := range history[:half] {
			idx, ok := model.ItemIndex(rec.Exercise)
			if !ok {
				unknown++
				continue
			}
			obs = append(obs, engine.Observation{
				ItemIdx: idx,
				Z:       model.NormTime(rec.TimeTaken),
				Correct: rec.Correct,
			})
		}
		theta := model.EstimateAbility(obs)

		predicted := 0
		for _, rec := range history[half:] {
			idx, ok := model.ItemIndex(rec.Exercise)
			if !ok {
				unknown++
				continue
			}
			scores = append(scores, model.Predict(idx, theta, model.NormTime(rec.TimeTaken)))
			labels = append(labels, rec.Correct)
			predicted++
		}
		if predicted > 0 {
			res.Students++
		}
	}

	if unknown > 0 {
		logger.Warn("test split references exercises the model has never seen",
			"count", unknown, "model", p.ModelFile)
	}

	res.Predictions = len(scores)
	res.Points, err = rocPoints(scores, labels)
	if err != nil {
		return res, fmt.Errorf("evaluate %s: %w", p.TestFile, err)
	}
	res.AUC = datatypes.AUC(res.Points)

	if p.RocFile != "" {
		if err := WriteRocFile(p.RocFile, res.Points); err != nil {
			return res, fmt.Errorf("evaluate: %w", err)
		}
	}

	logger.Info("evaluation finished",
		"model", p.ModelFile,
		"students", res.Students,
		"skipped", res.Skipped,
		"predictions", res.Predictions,
		"auc", res.AUC)
	return res, nil
}

// rocPoints sweeps pooled predictions into an ROC curve.
//
// Scores are walked in descending order; each distinct score becomes a
// threshold with the cumulative true and false positive rates at or
// above it. The curve is anchored at (0,0) and ends at (1,1).
func rocPoints(scores []float64, labels []bool) ([]datatypes.RocPoint, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("no predictions to sweep")
	}

	pos, neg := 0, 0
	for _, label := range labels {
		if label {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, fmt.Errorf("one-sided outcomes (%d correct, %d incorrect), curve is undefined", pos, neg)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	points := []datatypes.RocPoint{
		{Threshold: scores[order[0]] + 1, FPR: 0, TPR: 0},
	}
	tp, fp := 0, 0
	for i := 0; i < len(order); {
		threshold := scores[order[i]]
		// Consume the whole tie group before emitting a point
		for i < len(order) && scores[order[i]] == threshold {
			if labels[order[i]] {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, datatypes.RocPoint{
			Threshold: threshold,
			FPR:       float64(fp) / float64(neg),
			TPR:       float64(tp) / float64(pos),
		})
	}
	return points, nil
}
