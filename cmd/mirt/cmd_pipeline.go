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
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianMIRT/pkg/logging"
	"github.com/AleutianAI/AleutianMIRT/pkg/ux"
)

// runPipeline is the root command handler. It resolves configuration
// from flags and the optional scenario file, then hands control to
// the stage runner.
func runPipeline(cmd *cobra.Command, args []string) {
	start := time.Now()
	outCfg := OutputConfig{JSON: jsonOut, Compact: compactOut, Quiet: quietOut}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(logLevel),
		LogDir:  logDir,
		Service: "mirt",
		Quiet:   jsonOut || quietOut,
	})

	opts := Options{
		DataFile:    dataFile,
		Abilities:   abilities,
		NumStudents: numStudents,
		NumProblems: numProblems,
		TimeMode:    timeMode,
		Workers:     workers,
		Epochs:      numEpochs,
		ModelDir:    modelDir,
		ModelFile:   modelFile,
		Generate:    genFlag,
		Train:       trainFlag,
		Visualize:   visualizeFlag,
		Test:        testFlag,
		Seed:        seed,
		Force:       force,
	}
	if scenarioPath != "" {
		sc, err := loadScenario(scenarioPath)
		if err != nil {
			finish(logger, OutputResult(outCfg, "pipeline", start, nil, err))
		}
		applyScenario(&opts, sc, cmd.Flags().Changed)
	}

	cfg, err := resolveConfig(opts, logger.Slog())
	if err != nil {
		finish(logger, OutputResult(outCfg, "pipeline", start, nil, err))
	}

	runner := newRunner(cfg, newRunContext(time.Now()), logger.Slog(), productionDeps(logger.Slog()))
	runner.confirm = confirmOverwrite

	summary, err := runner.Run(cmd.Context())
	if err != nil {
		finish(logger, OutputResult(outCfg, "pipeline", start, nil, err))
	}

	if !outCfg.JSON && !outCfg.Quiet {
		printSummary(summary)
	}
	finish(logger, OutputResult(outCfg, "pipeline", start, summary, nil))
}

// finish flushes the log file before exiting, since deferred calls
// do not survive os.Exit.
func finish(logger *logging.Logger, code int) {
	logger.Close()
	os.Exit(code)
}

// printSummary renders the run outcome for a human on stdout.
func printSummary(s *RunSummary) {
	var b strings.Builder
	b.WriteString(ux.Styles.Title.Render("Pipeline run "+s.Stamp) + "\n")
	if s.GeneratedRecords > 0 {
		b.WriteString(fmt.Sprintf("Generated %d responses\n", s.GeneratedRecords))
	}
	if s.TrainStudents > 0 || s.TestStudents > 0 {
		b.WriteString(fmt.Sprintf("Split students %d train / %d test\n", s.TrainStudents, s.TestStudents))
	}
	for _, c := range s.Cells {
		b.WriteString(fmt.Sprintf("  %s  AUC %s\n", c.Tag, ux.Styles.Highlight.Render(fmt.Sprintf("%.3f", c.AUC))))
	}
	if s.ModelFile != "" {
		b.WriteString("Model exported to " + s.ModelFile + "\n")
	}
	if s.RocPlot != "" {
		b.WriteString("ROC plot " + s.RocPlot + "\n")
	}
	if s.ExercisePlot != "" {
		b.WriteString("Exercise plot " + s.ExercisePlot + "\n")
	}
	b.WriteString(ux.Styles.Muted.Render("Finished at stage " + s.FinalStage))
	fmt.Println(b.String())
}
