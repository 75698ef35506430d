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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianMIRT/pkg/ux"
)

var (
	dataFile    string
	abilities   []int
	numStudents int
	numProblems int
	timeMode    string
	workers     int
	numEpochs   int
	modelDir    string
	modelFile   string

	genFlag       bool
	trainFlag     bool
	visualizeFlag bool
	testFlag      bool

	scenarioPath string
	seed         int64
	force        bool

	jsonOut    bool
	compactOut bool
	quietOut   bool

	logLevel         string
	logDir           string
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "mirt",
		Short: "Fit and evaluate latent ability models over student response data",
		Long: `Mirt drives the whole modelling pipeline: generate a synthetic
				response cohort, fit one model per ability count and time variant,
				score every fit against a held-out split, plot the outcome, and
				quiz yourself against the selected model.

				Stages are opt-in. Combine --generate, --train, --visualize and
				--test freely; each stage picks up whatever artifacts the previous
				ones left behind.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
		},
		Run: runPipeline,
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")

	rootCmd.Flags().StringVarP(&dataFile, "data-file", "d", defaultDataFile,
		"Response file to generate into and train from")
	rootCmd.Flags().IntSliceVarP(&abilities, "abilities", "a", []int{1},
		"Ability counts to fit, one model per value")
	rootCmd.Flags().IntVarP(&numStudents, "num-students", "s", defaultStudents,
		"Students in the generated cohort")
	rootCmd.Flags().IntVarP(&numProblems, "num-problems", "p", defaultProblems,
		"Exercises in the generated cohort")
	rootCmd.Flags().StringVarP(&timeMode, "time", "t", defaultTimeMode,
		"Response time handling: with_time, without_time, or with_and_without_time")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", defaultWorkers,
		"Worker goroutines per fit")
	rootCmd.Flags().IntVarP(&numEpochs, "num-epochs", "n", defaultEpochs,
		"Fitting epochs per model")
	rootCmd.Flags().StringVarP(&modelDir, "model-directory", "o", defaultModelDir,
		"Directory that receives checkpoints, curves, and plots")
	rootCmd.Flags().StringVarP(&modelFile, "model", "m", defaultModelFile,
		"Model file to export after training and to fall back on without it")

	rootCmd.Flags().BoolVar(&genFlag, "generate", false,
		"Generate a synthetic response cohort")
	rootCmd.Flags().BoolVar(&trainFlag, "train", false,
		"Split the data and fit every ability/time combination")
	rootCmd.Flags().BoolVar(&visualizeFlag, "visualize", false,
		"Plot evaluation curves and exercise placement")
	rootCmd.Flags().BoolVar(&testFlag, "test", false,
		"Take an adaptive quiz against the selected model")

	rootCmd.Flags().StringVar(&scenarioPath, "config", "",
		"Scenario file with saved run settings (flags win on conflict)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0,
		"RNG seed for generation, splitting, and fitting (0 = wall clock)")
	rootCmd.Flags().BoolVar(&force, "force", false,
		"Overwrite an existing data file without asking")

	rootCmd.Flags().BoolVar(&jsonOut, "json", false,
		"Print the run summary as JSON on stdout")
	rootCmd.Flags().BoolVar(&compactOut, "compact", false,
		"Compact JSON output (no indentation)")
	rootCmd.Flags().BoolVar(&quietOut, "quiet", false,
		"Suppress output, communicate through the exit code")

	rootCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, or error")
	rootCmd.Flags().StringVar(&logDir, "log-dir", "",
		"Directory for the log file (empty = stderr only)")
}
