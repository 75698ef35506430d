// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trainer fits a latent-ability model to a train split and
// writes periodic parameter checkpoints.
//
// Training alternates two steps per epoch: every student's ability is
// re-estimated against the current item parameters (parallel across
// students), then item parameters take a gradient step against the
// re-estimated abilities. The caller judges success by the checkpoints
// the run leaves behind, so Train is strict about its inputs and quiet
// about its outputs.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/responses"
)

const (
	// checkpointEvery is the epoch interval between checkpoints. The
	// final epoch is always checkpointed regardless of the interval.
	checkpointEvery = 10

	// itemRate is the M-step learning rate per response.
	itemRate = 0.05

	// minDiscrimination keeps items identifiable when the gradient
	// would push a discrimination through zero.
	minDiscrimination = 0.05

	// logFloorSeconds guards the log transform of response times.
	logFloorSeconds = 1e-3
)

// Params configures a training run.
//
// # Fields
//
//   - AbilityDim: Latent ability dimensions. Must be >= 1.
//   - Workers: Parallelism of the ability re-estimation step. Must be >= 1.
//   - Epochs: Training epochs. Must be >= 1.
//   - TrainFile: Path to the train split. Must exist.
//   - OutDir: Existing directory that receives checkpoints.
//   - UseTime: Whether the model includes the response-time feature.
//   - Seed: RNG seed for parameter init. Zero means wall clock.
//   - Progress: Optional callback invoked after each epoch.
//   - Logger: Optional logger. Nil means slog.Default().
type Params struct {
	AbilityDim int
	Workers    int
	Epochs     int
	TrainFile  string
	OutDir     string
	UseTime    bool
	Seed       int64
	Progress   func(epoch, total int)
	Logger     *slog.Logger
}

// CheckpointFileName returns the checkpoint file name for an epoch.
// Epoch numbers are zero-padded so the names sort by recency.
func CheckpointFileName(epoch int) string {
	return fmt.Sprintf("params_epoch_%04d.json", epoch)
}

// Train fits a model to the train split.
//
// # Description
//
// Reads and validates the train split, initializes a model over the
// exercises it contains, and runs the epoch loop. A checkpoint lands in
// OutDir every tenth epoch and at the final epoch. The fitted model is
// also returned for callers that want to keep going without a reload.
//
// # Inputs
//
//   - ctx: Cancels the run between epochs and inside the parallel step.
//   - p: Training parameters, validated up front.
//
// # Outputs
//
//   - *engine.Model: The fitted model.
//   - error: Non-nil on invalid params, unreadable split, missing
//     OutDir, checkpoint write failure, or cancellation.
func Train(ctx context.Context, p Params) (*engine.Model, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	records, err := responses.ReadFile(p.TrainFile)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("train: %s holds no records", p.TrainFile)
	}

	rng := rand.New(rand.NewSource(responses.SeedOrNow(p.Seed)))
	model := engine.New(p.AbilityDim, p.UseTime, exerciseNames(records), rng)
	if p.UseTime {
		model.TimeScale = timeScale(records)
	}

	students, obs := observations(model, records)
	thetas := make([][]float64, len(students))

	logger.Info("training started",
		"records", len(records),
		"students", len(students),
		"items", len(model.Items),
		"abilities", p.AbilityDim,
		"epochs", p.Epochs,
		"use_time", p.UseTime)

	for epoch := 1; epoch <= p.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("train epoch %d: %w", epoch, err)
		}

		if err := estimateAll(ctx, model, obs, thetas, p.Workers); err != nil {
			return nil, fmt.Errorf("train epoch %d: %w", epoch, err)
		}
		updateItems(model, students, obs, thetas)

		model.Fit.Epoch = epoch
		model.Fit.LogLikelihood = model.LogLikelihood(records, thetaMap(students, thetas))
		model.Fit.CreatedAt = time.Now().UTC()

		if epoch%checkpointEvery == 0 || epoch == p.Epochs {
			path := filepath.Join(p.OutDir, CheckpointFileName(epoch))
			if err := model.Save(path); err != nil {
				return nil, fmt.Errorf("train epoch %d: %w", epoch, err)
			}
			logger.Debug("checkpoint written",
				"epoch", epoch,
				"path", path,
				"log_likelihood", model.Fit.LogLikelihood)
		}

		if p.Progress != nil {
			p.Progress(epoch, p.Epochs)
		}
	}

	logger.Info("training finished",
		"epochs", p.Epochs,
		"log_likelihood", model.Fit.LogLikelihood)
	return model, nil
}

func (p Params) check() error {
	if p.AbilityDim < 1 {
		return fmt.Errorf("train: ability dimension %d, want >= 1", p.AbilityDim)
	}
	if p.Workers < 1 {
		return fmt.Errorf("train: workers %d, want >= 1", p.Workers)
	}
	if p.Epochs < 1 {
		return fmt.Errorf("train: epochs %d, want >= 1", p.Epochs)
	}
	if p.TrainFile == "" {
		return fmt.Errorf("train: no train file")
	}
	info, err := os.Stat(p.OutDir)
	if err != nil {
		return fmt.Errorf("train: checkpoint dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("train: checkpoint dir %s is not a directory", p.OutDir)
	}
	return nil
}

// exerciseNames collects unique exercise names in first-appearance order.
func exerciseNames(records []datatypes.ResponseRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rec := range records {
		if !seen[rec.Exercise] {
			seen[rec.Exercise] = true
			names = append(names, rec.Exercise)
		}
	}
	return names
}

// timeScale computes the log-time normalization from the train split.
func timeScale(records []datatypes.ResponseRecord) engine.TimeScale {
	logs := make([]float64, len(records))
	for i, rec := range records {
		logs[i] = math.Log(math.Max(rec.TimeTaken, logFloorSeconds))
	}
	mean, std := stat.MeanStdDev(logs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return engine.TimeScale{Mean: mean, Std: std}
}

// observations groups the split into per-student observation slices,
// with the time feature normalized once up front. The student order is
// sorted so runs are reproducible.
func observations(model *engine.Model, records []datatypes.ResponseRecord) ([]string, [][]engine.Observation) {
	byStudent := datatypes.ByStudent(records)
	students := make([]string, 0, len(byStudent))
	for s := range byStudent {
		students = append(students, s)
	}
	sort.Strings(students)

	obs := make([][]engine.Observation, len(students))
	for i, s := range students {
		history := byStudent[s]
		obs[i] = make([]engine.Observation, 0, len(history))
		for _, rec := range history {
			idx, ok := model.ItemIndex(rec.Exercise)
			if !ok {
				continue
			}
			obs[i] = append(obs[i], engine.Observation{
				ItemIdx: idx,
				Z:       model.NormTime(rec.TimeTaken),
				Correct: rec.Correct,
			})
		}
	}
	return students, obs
}

// estimateAll re-estimates every student's ability in parallel.
func estimateAll(ctx context.Context, model *engine.Model, obs [][]engine.Observation, thetas [][]float64, workers int) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range obs {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			thetas[i] = model.EstimateAbility(obs[i])
			return nil
		})
	}
	return g.Wait()
}

// updateItems runs one gradient pass of the item parameters against the
// current ability estimates.
func updateItems(model *engine.Model, students []string, obs [][]engine.Observation, thetas [][]float64) {
	for i := range students {
		theta := thetas[i]
		for _, o := range obs[i] {
			item := &model.Items[o.ItemIdx]
			y := 0.0
			if o.Correct {
				y = 1.0
			}
			e := y - model.Predict(o.ItemIdx, theta, o.Z)

			for d := range item.Discrimination {
				item.Discrimination[d] += itemRate * e * theta[d]
				if item.Discrimination[d] < minDiscrimination {
					item.Discrimination[d] = minDiscrimination
				}
			}
			item.Difficulty -= itemRate * e
			if model.UseTime {
				item.TimeWeight += itemRate * e * o.Z
			}
		}
	}
}

func thetaMap(students []string, thetas [][]float64) map[string][]float64 {
	m := make(map[string][]float64, len(students))
	for i, s := range students {
		m[s] = thetas[i]
	}
	return m
}
