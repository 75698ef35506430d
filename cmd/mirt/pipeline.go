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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/predict"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/responses"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/trainer"
)

// Stage is a pipeline checkpoint. Stages advance monotonically within
// one run; a stage whose flag is off is skipped, never revisited.
type Stage int

const (
	StageIdle Stage = iota
	StageGenerated
	StageSplit
	StageTrained
	StageEvaluated
	StageVisualized
	StageTested
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageGenerated:
		return "generate"
	case StageSplit:
		return "split"
	case StageTrained:
		return "train"
	case StageEvaluated:
		return "evaluate"
	case StageVisualized:
		return "visualize"
	case StageTested:
		return "test"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// The runner talks to the mirt service packages through narrow
// interfaces so pipeline control flow is testable without fitting
// real models.

type generator interface {
	Generate(p responses.GenerateParams) (int, error)
}

type splitter interface {
	Split(dataFile, outDir string, seed int64) (responses.SplitResult, error)
}

type fitter interface {
	Fit(ctx context.Context, p trainer.Params) error
}

type evaluator interface {
	Evaluate(ctx context.Context, checkpointFile, rocFile, testFile string) ([]datatypes.RocPoint, error)
}

type visualizer interface {
	ShowROC(curves map[string][]datatypes.RocPoint, outPath string) error
	ShowExercises(modelFile, outPath string) error
}

type tester interface {
	RunTest(ctx context.Context, modelFile string) error
}

type runnerDeps struct {
	gen   generator
	split splitter
	fit   fitter
	eval  evaluator
	viz   visualizer
	test  tester
}

// =============================================================================
// Runner
// =============================================================================

// CellResult is what one completed grid cell leaves behind.
type CellResult struct {
	Cell       GridCell
	Checkpoint string
	RocFile    string
	Points     []datatypes.RocPoint
}

// Runner drives the selected pipeline stages for one invocation.
// It is single-use: build one per run.
type Runner struct {
	cfg    Config
	run    RunContext
	logger *slog.Logger
	deps   runnerDeps

	// confirm asks the user before an overwrite when --force is off.
	// Nil means nobody is there to ask, so the answer is no.
	confirm func(prompt string) bool

	stage Stage
	cells []CellResult
}

func newRunner(cfg Config, run RunContext, logger *slog.Logger, deps runnerDeps) *Runner {
	return &Runner{cfg: cfg, run: run, logger: logger, deps: deps, stage: StageIdle}
}

func (r *Runner) setStage(s Stage) {
	r.logger.Info("pipeline stage complete", "from", r.stage.String(), "to", s.String())
	r.stage = s
}

// RunSummary is the machine-readable outcome of a run. Fields for
// stages that did not execute stay at their zero values and are
// omitted from JSON output.
type RunSummary struct {
	Stamp            string        `json:"stamp"`
	TimeMode         string        `json:"time_mode"`
	IncludeTime      bool          `json:"include_time"`
	GeneratedRecords int           `json:"generated_records,omitempty"`
	TrainStudents    int           `json:"train_students,omitempty"`
	TestStudents     int           `json:"test_students,omitempty"`
	Cells            []CellSummary `json:"cells,omitempty"`
	ModelFile        string        `json:"model_file,omitempty"`
	RocPlot          string        `json:"roc_plot,omitempty"`
	ExercisePlot     string        `json:"exercise_plot,omitempty"`
	FinalStage       string        `json:"final_stage"`
}

// CellSummary reports one grid cell in the run summary.
type CellSummary struct {
	Tag        string  `json:"tag"`
	Abilities  int     `json:"abilities"`
	UseTime    bool    `json:"use_time"`
	Checkpoint string  `json:"checkpoint"`
	RocFile    string  `json:"roc_file"`
	AUC        float64 `json:"auc"`
	Points     int     `json:"points"`
}

// Run executes the enabled stages in pipeline order and reports what
// happened. The first stage failure aborts the run; partially
// produced artifacts stay on disk for inspection.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		Stamp:       r.run.Stamp,
		TimeMode:    r.cfg.TimeMode,
		IncludeTime: r.cfg.IncludeTimeDefault,
	}

	if r.cfg.Generate {
		if err := r.generate(summary); err != nil {
			return nil, err
		}
		r.setStage(StageGenerated)
	}

	if r.cfg.Train {
		if err := r.train(ctx, summary); err != nil {
			return nil, err
		}
	}

	if r.cfg.Visualize {
		if err := r.visualize(summary); err != nil {
			return nil, err
		}
		r.setStage(StageVisualized)
	}

	if r.cfg.Test {
		if err := r.adaptiveTest(ctx); err != nil {
			return nil, err
		}
		r.setStage(StageTested)
	}

	summary.FinalStage = r.stage.String()
	r.setStage(StageDone)
	return summary, nil
}

func (r *Runner) generate(summary *RunSummary) error {
	if dir := filepath.Dir(r.cfg.DataFile); dir != "." {
		if err := ensureDirs(dir); err != nil {
			return newStageError(StageGenerated, "", err)
		}
	}
	if _, err := os.Stat(r.cfg.DataFile); err == nil && !r.cfg.Force {
		prompt := fmt.Sprintf("%s already exists. Overwrite it?", r.cfg.DataFile)
		if r.confirm == nil || !r.confirm(prompt) {
			return newStageError(StageGenerated, "",
				fmt.Errorf("data file %s exists, pass --force to overwrite", r.cfg.DataFile))
		}
	}
	records, err := r.deps.gen.Generate(responses.GenerateParams{
		Students:  r.cfg.NumStudents,
		Exercises: r.cfg.NumProblems,
		Abilities: r.cfg.Abilities[0],
		Seed:      r.cfg.Seed,
		OutFile:   r.cfg.DataFile,
	})
	if err != nil {
		return newStageError(StageGenerated, "", err)
	}
	summary.GeneratedRecords = records
	r.logger.Info("generated synthetic responses",
		"records", records,
		"students", r.cfg.NumStudents,
		"exercises", r.cfg.NumProblems,
		"file", r.cfg.DataFile)
	return nil
}

// train splits the data once, then fits and evaluates every grid
// cell. The checkpoint of the cell processed last becomes the run's
// selected model and is exported to the configured model path.
func (r *Runner) train(ctx context.Context, summary *RunSummary) error {
	if err := ensureDirs(r.cfg.ModelDir, rocsDir(r.cfg.ModelDir)); err != nil {
		return newStageError(StageSplit, "", err)
	}
	split, err := r.deps.split.Split(r.cfg.DataFile, r.cfg.ModelDir, r.cfg.Seed)
	if err != nil {
		return newStageError(StageSplit, "", err)
	}
	summary.TrainStudents = split.TrainStudents
	summary.TestStudents = split.TestStudents
	r.setStage(StageSplit)
	r.logger.Info("split responses",
		"train_students", split.TrainStudents,
		"test_students", split.TestStudents,
		"train_records", split.TrainRecords,
		"test_records", split.TestRecords)

	for _, cell := range gridCells(r.cfg.Abilities, r.cfg.Variants, r.run) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processCell(ctx, cell); err != nil {
			return err
		}
	}
	r.setStage(StageTrained)

	selected := r.cells[len(r.cells)-1]
	if err := r.exportModel(selected.Checkpoint); err != nil {
		return newStageError(StageTrained, selected.Cell.Tag(), err)
	}
	summary.ModelFile = r.cfg.ModelFile
	summary.Cells = r.cellSummaries()
	r.setStage(StageEvaluated)
	return nil
}

// processCell fits one (ability, variant) combination into its own
// checkpoint directory and evaluates the newest checkpoint against
// the held-out split.
func (r *Runner) processCell(ctx context.Context, cell GridCell) error {
	tag := cell.Tag()
	cellLogger := r.logger.With("tag", tag)
	cellDir := filepath.Join(r.cfg.ModelDir, tag)
	if err := ensureDirs(cellDir); err != nil {
		return newStageError(StageTrained, tag, err)
	}

	cellLogger.Info("fitting cell",
		"abilities", cell.Ability,
		"time_signal", cell.Variant.Label(),
		"epochs", r.cfg.Epochs,
		"workers", r.cfg.Workers)
	err := r.deps.fit.Fit(ctx, trainer.Params{
		AbilityDim: cell.Ability,
		Workers:    r.cfg.Workers,
		Epochs:     r.cfg.Epochs,
		TrainFile:  filepath.Join(r.cfg.ModelDir, datatypes.TrainResponsesFile),
		OutDir:     cellDir,
		UseTime:    bool(cell.Variant),
		Seed:       r.cfg.Seed,
		Logger:     cellLogger,
	})
	if err != nil {
		return newStageError(StageTrained, tag, err)
	}

	checkpoint, err := latestArtifact(cellDir)
	if err != nil {
		return newStageError(StageTrained, tag, err)
	}

	rocFile := filepath.Join(rocsDir(r.cfg.ModelDir), tag+predict.RocFileExt)
	testFile := filepath.Join(r.cfg.ModelDir, datatypes.TestResponsesFile)
	points, err := r.deps.eval.Evaluate(ctx, checkpoint, rocFile, testFile)
	if err != nil {
		return newStageError(StageEvaluated, tag, err)
	}

	r.cells = append(r.cells, CellResult{Cell: cell, Checkpoint: checkpoint, RocFile: rocFile, Points: points})
	cellLogger.Info("cell evaluated",
		"checkpoint", filepath.Base(checkpoint),
		"auc", datatypes.AUC(points))
	return nil
}

func (r *Runner) visualize(summary *RunSummary) error {
	if err := ensureDirs(plotsDir(r.cfg.ModelDir)); err != nil {
		return newStageError(StageVisualized, "", err)
	}
	modelFile, err := r.selectedModel()
	if err != nil {
		return newStageError(StageVisualized, "", err)
	}
	curves, err := r.selectedCurves()
	if err != nil {
		return newStageError(StageVisualized, "", err)
	}

	if len(curves) == 0 {
		r.logger.Warn("no evaluation curves found, skipping the roc plot",
			"dir", rocsDir(r.cfg.ModelDir))
	} else {
		rocPlot := filepath.Join(plotsDir(r.cfg.ModelDir), fmt.Sprintf("roc_%s.png", r.run.Stamp))
		if err := r.deps.viz.ShowROC(curves, rocPlot); err != nil {
			return newStageError(StageVisualized, "", err)
		}
		summary.RocPlot = rocPlot
		r.logger.Info("wrote roc plot", "file", rocPlot, "curves", len(curves))
	}

	exercisePlot := filepath.Join(plotsDir(r.cfg.ModelDir), fmt.Sprintf("exercises_%s.png", r.run.Stamp))
	if err := r.deps.viz.ShowExercises(modelFile, exercisePlot); err != nil {
		return newStageError(StageVisualized, "", err)
	}
	summary.ExercisePlot = exercisePlot
	r.logger.Info("wrote exercise plot", "file", exercisePlot, "model", modelFile)
	return nil
}

func (r *Runner) adaptiveTest(ctx context.Context) error {
	modelFile, err := r.selectedModel()
	if err != nil {
		return newStageError(StageTested, "", err)
	}
	if err := r.deps.test.RunTest(ctx, modelFile); err != nil {
		return newStageError(StageTested, "", err)
	}
	return nil
}

// selectedModel picks the model later stages consume: the checkpoint
// of the last cell this run completed, or the configured model file
// when the run trained nothing.
func (r *Runner) selectedModel() (string, error) {
	if len(r.cells) > 0 {
		return r.cells[len(r.cells)-1].Checkpoint, nil
	}
	if _, err := os.Stat(r.cfg.ModelFile); err != nil {
		return "", fmt.Errorf("no trained cell in this run and model file unavailable: %w", err)
	}
	return r.cfg.ModelFile, nil
}

// selectedCurves picks the curves the roc plot shows. A run that
// trained shows its last cell's curve; otherwise every curve already
// in the rocs directory is loaded, keyed by its tag.
func (r *Runner) selectedCurves() (map[string][]datatypes.RocPoint, error) {
	if len(r.cells) > 0 {
		last := r.cells[len(r.cells)-1]
		return map[string][]datatypes.RocPoint{last.Cell.Tag(): last.Points}, nil
	}

	curves := make(map[string][]datatypes.RocPoint)
	dir := rocsDir(r.cfg.ModelDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return curves, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != predict.RocFileExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		points, err := predict.ReadRocFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading curve %s: %w", path, err)
		}
		curves[strings.TrimSuffix(entry.Name(), predict.RocFileExt)] = points
	}
	return curves, nil
}

// exportModel copies the selected checkpoint to the configured model
// path via a load and save round trip, which also validates the
// checkpoint before it is published.
func (r *Runner) exportModel(checkpoint string) error {
	if dir := filepath.Dir(r.cfg.ModelFile); dir != "." {
		if err := ensureDirs(dir); err != nil {
			return fmt.Errorf("exporting model: %w", err)
		}
	}
	m, err := engine.Load(checkpoint)
	if err != nil {
		return fmt.Errorf("exporting model: %w", err)
	}
	if err := m.Save(r.cfg.ModelFile); err != nil {
		return fmt.Errorf("exporting model: %w", err)
	}
	r.logger.Info("exported selected model", "from", checkpoint, "to", r.cfg.ModelFile)
	return nil
}

func (r *Runner) cellSummaries() []CellSummary {
	out := make([]CellSummary, 0, len(r.cells))
	for _, c := range r.cells {
		out = append(out, CellSummary{
			Tag:        c.Cell.Tag(),
			Abilities:  c.Cell.Ability,
			UseTime:    bool(c.Cell.Variant),
			Checkpoint: c.Checkpoint,
			RocFile:    c.RocFile,
			AUC:        datatypes.AUC(c.Points),
			Points:     len(c.Points),
		})
	}
	return out
}
