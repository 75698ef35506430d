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
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/AleutianMIRT/pkg/ux"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/adaptivetest"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/predict"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/responses"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/trainer"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/visualize"
)

// Production bindings of the runner's collaborator interfaces onto
// the mirt service packages.

func productionDeps(logger *slog.Logger) runnerDeps {
	return runnerDeps{
		gen:   prodGenerator{},
		split: prodSplitter{},
		fit:   prodFitter{logger: logger},
		eval:  prodEvaluator{logger: logger},
		viz:   prodVisualizer{},
		test:  prodTester{logger: logger},
	}
}

type prodGenerator struct{}

func (prodGenerator) Generate(p responses.GenerateParams) (int, error) {
	recs, err := responses.Generate(p)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

type prodSplitter struct{}

func (prodSplitter) Split(dataFile, outDir string, seed int64) (responses.SplitResult, error) {
	return responses.Split(dataFile, outDir, seed)
}

// prodFitter attaches a progress indicator to each fit. The cell tag
// doubles as the checkpoint directory name, so the spinner label is
// recovered from it.
type prodFitter struct {
	logger *slog.Logger
}

func (f prodFitter) Fit(ctx context.Context, p trainer.Params) error {
	progress := newTrainProgress(filepath.Base(p.OutDir), p.Epochs)
	p.Progress = progress.update
	_, err := trainer.Train(ctx, p)
	progress.finish(err)
	return err
}

type prodEvaluator struct {
	logger *slog.Logger
}

func (e prodEvaluator) Evaluate(ctx context.Context, checkpointFile, rocFile, testFile string) ([]datatypes.RocPoint, error) {
	res, err := predict.Evaluate(ctx, predict.Params{
		ModelFile: checkpointFile,
		TestFile:  testFile,
		RocFile:   rocFile,
		Logger:    e.logger,
	})
	if err != nil {
		return nil, err
	}
	return res.Points, nil
}

type prodVisualizer struct{}

func (prodVisualizer) ShowROC(curves map[string][]datatypes.RocPoint, outPath string) error {
	return visualize.ShowROC(curves, outPath)
}

func (prodVisualizer) ShowExercises(modelFile, outPath string) error {
	return visualize.ShowExercises(modelFile, outPath)
}

// prodTester runs an interactive quiz against the selected model on
// the caller's terminal.
type prodTester struct {
	logger *slog.Logger
}

func (t prodTester) RunTest(ctx context.Context, modelFile string) error {
	_, err := adaptivetest.Run(ctx, adaptivetest.Params{
		ModelFile: modelFile,
		Reader:    adaptivetest.NewAnswerReader(),
		Out:       os.Stdout,
		Logger:    t.logger,
	})
	return err
}

// confirmOverwrite asks the user on the terminal before clobbering an
// existing artifact. Non-interactive runs never confirm; they need
// --force instead.
func confirmOverwrite(prompt string) bool {
	if !ux.IsInteractive() {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
