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
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Time modes accepted on the command line. "both" expands to two grid
// variants per ability dimension.
const (
	TimeModeWith    = "with_time"
	TimeModeWithout = "without_time"
	TimeModeBoth    = "with_and_without_time"
)

const (
	defaultDataFile  = "sample_data/all.responses"
	defaultStudents  = 500
	defaultProblems  = 10
	defaultTimeMode  = TimeModeWithout
	defaultWorkers   = 1
	defaultEpochs    = 100
	defaultModelDir  = "sample_data/models"
	defaultModelFile = "sample_data/models/model.json"
)

// configValidate is the validator instance for resolved pipeline
// configuration.
var configValidate = validator.New()

// Options is the raw, user-facing knob set: flag values plus whatever
// a scenario file merged in. Nothing here is validated or derived yet.
type Options struct {
	DataFile    string
	Abilities   []int
	NumStudents int
	NumProblems int
	TimeMode    string
	Workers     int
	Epochs      int
	ModelDir    string
	ModelFile   string

	Generate  bool
	Train     bool
	Visualize bool
	Test      bool

	Seed  int64
	Force bool
}

// Config is the resolved, validated form the pipeline actually runs
// on. Variants and IncludeTimeDefault are derived from TimeMode during
// resolution so downstream code never re-parses the mode string.
type Config struct {
	DataFile    string `validate:"required"`
	Abilities   []int  `validate:"required,min=1,dive,gt=0"`
	NumStudents int    `validate:"gt=0"`
	NumProblems int    `validate:"gt=0"`
	Workers     int    `validate:"gt=0"`
	Epochs      int    `validate:"gt=0"`
	ModelDir    string `validate:"required"`
	ModelFile   string `validate:"required"`

	// TimeMode is the raw mode string, kept for reporting. Variants is
	// its expansion and is what the grid iterates.
	TimeMode string
	Variants []TimeVariant `validate:"min=1"`

	// IncludeTimeDefault records whether the mode string asked for the
	// time signal, independent of the fallback applied to unrecognized
	// modes. Reporting uses it so summaries reflect the request rather
	// than the recovery.
	IncludeTimeDefault bool

	Generate  bool
	Train     bool
	Visualize bool
	Test      bool

	Seed  int64
	Force bool
}

// resolveConfig derives and validates a runnable Config from raw
// options. Unrecognized time modes degrade to a with-time fit with a
// warning rather than failing the run.
func resolveConfig(opts Options, logger *slog.Logger) (Config, error) {
	cfg := Config{
		DataFile:           opts.DataFile,
		Abilities:          opts.Abilities,
		NumStudents:        opts.NumStudents,
		NumProblems:        opts.NumProblems,
		Workers:            opts.Workers,
		Epochs:             opts.Epochs,
		ModelDir:           opts.ModelDir,
		ModelFile:          opts.ModelFile,
		TimeMode:           opts.TimeMode,
		Variants:           timeVariants(opts.TimeMode, logger),
		IncludeTimeDefault: opts.TimeMode == TimeModeWith || opts.TimeMode == TimeModeBoth,
		Generate:           opts.Generate,
		Train:              opts.Train,
		Visualize:          opts.Visualize,
		Test:               opts.Test,
		Seed:               opts.Seed,
		Force:              opts.Force,
	}
	if err := configValidate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// timeVariants expands a time mode into the grid variants it stands
// for. Unknown modes warn and fall back to fitting with the time
// signal.
func timeVariants(mode string, logger *slog.Logger) []TimeVariant {
	switch mode {
	case TimeModeWith:
		return []TimeVariant{WithTimeSignal}
	case TimeModeWithout:
		return []TimeVariant{WithoutTimeSignal}
	case TimeModeBoth:
		return []TimeVariant{WithTimeSignal, WithoutTimeSignal}
	default:
		logger.Warn("unrecognized time mode, fitting with the time signal", "mode", mode)
		return []TimeVariant{WithTimeSignal}
	}
}

// scenarioFile is the YAML shape of a saved run scenario. Every field
// is a pointer so absence and zero are distinguishable during the
// merge.
type scenarioFile struct {
	DataFile    *string `yaml:"data_file"`
	Abilities   *[]int  `yaml:"abilities"`
	NumStudents *int    `yaml:"num_students"`
	NumProblems *int    `yaml:"num_problems"`
	TimeMode    *string `yaml:"time"`
	Workers     *int    `yaml:"workers"`
	Epochs      *int    `yaml:"num_epochs"`
	ModelDir    *string `yaml:"model_directory"`
	ModelFile   *string `yaml:"model"`
	Generate    *bool   `yaml:"generate"`
	Train       *bool   `yaml:"train"`
	Visualize   *bool   `yaml:"visualize"`
	Test        *bool   `yaml:"test"`
	Seed        *int64  `yaml:"seed"`
}

func loadScenario(path string) (scenarioFile, error) {
	var sc scenarioFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return sc, nil
}

// applyScenario merges scenario values into opts. A scenario value
// applies only where the corresponding flag was not set explicitly on
// the command line, so flags always win over the file.
func applyScenario(opts *Options, sc scenarioFile, flagSet func(name string) bool) {
	if sc.DataFile != nil && !flagSet("data-file") {
		opts.DataFile = *sc.DataFile
	}
	if sc.Abilities != nil && !flagSet("abilities") {
		opts.Abilities = *sc.Abilities
	}
	if sc.NumStudents != nil && !flagSet("num-students") {
		opts.NumStudents = *sc.NumStudents
	}
	if sc.NumProblems != nil && !flagSet("num-problems") {
		opts.NumProblems = *sc.NumProblems
	}
	if sc.TimeMode != nil && !flagSet("time") {
		opts.TimeMode = *sc.TimeMode
	}
	if sc.Workers != nil && !flagSet("workers") {
		opts.Workers = *sc.Workers
	}
	if sc.Epochs != nil && !flagSet("num-epochs") {
		opts.Epochs = *sc.Epochs
	}
	if sc.ModelDir != nil && !flagSet("model-directory") {
		opts.ModelDir = *sc.ModelDir
	}
	if sc.ModelFile != nil && !flagSet("model") {
		opts.ModelFile = *sc.ModelFile
	}
	if sc.Generate != nil && !flagSet("generate") {
		opts.Generate = *sc.Generate
	}
	if sc.Train != nil && !flagSet("train") {
		opts.Train = *sc.Train
	}
	if sc.Visualize != nil && !flagSet("visualize") {
		opts.Visualize = *sc.Visualize
	}
	if sc.Test != nil && !flagSet("test") {
		opts.Test = *sc.Test
	}
	if sc.Seed != nil && !flagSet("seed") {
		opts.Seed = *sc.Seed
	}
}
