// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides shared data structures for the MIRT pipeline.
//
// This file contains the response record type exchanged between the
// generator, splitter, trainer, and evaluator, plus the shared split
// file names. For ROC curve types, see roc.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianMIRT/pkg/validation"
)

// =============================================================================
// Shared File Names
// =============================================================================

const (
	// TrainResponsesFile is the training split written into the model
	// directory. Every training invocation reads from this fixed name,
	// so concurrent pipeline runs sharing a model directory will
	// overwrite each other's splits.
	TrainResponsesFile = "train.responses"

	// TestResponsesFile is the held-out split next to TrainResponsesFile.
	TestResponsesFile = "test.responses"

	// MaxResponseSeconds caps the time_taken column. Values above this
	// are almost always idle-tab artifacts rather than solve time.
	MaxResponseSeconds = 24 * 60 * 60
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// responseValidate is the validator instance for response datatypes.
// Initialized in init() with custom validators.
var responseValidate *validator.Validate

func init() {
	responseValidate = validator.New()

	_ = responseValidate.RegisterValidation("studentid", validateStudentID)
	_ = responseValidate.RegisterValidation("exercisename", validateExerciseName)
}

// validateStudentID bridges the pkg/validation identifier rules into a
// validator tag so struct-level validation catches hostile IDs at the
// same time as range checks.
func validateStudentID(fl validator.FieldLevel) bool {
	return validation.ValidateStudentID(fl.Field().String()) == nil
}

// validateExerciseName mirrors validateStudentID for the exercise column.
func validateExerciseName(fl validator.FieldLevel) bool {
	return validation.ValidateExerciseName(fl.Field().String()) == nil
}

// =============================================================================
// Response Record
// =============================================================================

// ResponseRecord is one observed exercise attempt.
//
// # Description
//
// ResponseRecord is the unit of the `.responses` CSV files: one student
// answering one exercise once, with the wall-clock seconds the attempt
// took and whether it was correct. The generator emits them, the
// splitter partitions them, and the trainer and evaluator consume them.
//
// # Fields
//
//   - Student: Required. Identifier of the responding student.
//     1-64 chars, alphanumeric plus dot/underscore/hyphen.
//   - Exercise: Required. Identifier of the attempted exercise.
//     Same shape as Student; becomes a JSON key in the exported model.
//   - TimeTaken: Required. Seconds spent on the attempt. Must be > 0
//     (the time-aware model takes its logarithm) and below
//     MaxResponseSeconds.
//   - Correct: Whether the attempt was answered correctly.
//
// # Validation
//
// Uses go-playground/validator:
//   - Student: required, custom studentid charset check
//   - Exercise: required, custom exercisename charset check
//   - TimeTaken: > 0, <= MaxResponseSeconds
//
// # Assumptions
//
//   - Repeated (student, exercise) pairs are legal; students retry.
//   - Record order within a file carries no meaning except for the
//     per-student ordering the evaluator relies on when splitting a
//     student's history into observed and predicted halves.
type ResponseRecord struct {
	Student   string  `json:"student" validate:"required,studentid"`
	Exercise  string  `json:"exercise" validate:"required,exercisename"`
	TimeTaken float64 `json:"time_taken" validate:"gt=0,lte=86400"`
	Correct   bool    `json:"correct"`
}

// Validate validates the ResponseRecord fields.
//
// Call it at read boundaries; records constructed by the generator are
// valid by construction.
func (r *ResponseRecord) Validate() error {
	return responseValidate.Struct(r)
}

// ByStudent groups records by student, preserving each student's
// response order. The map iteration order is not deterministic;
// callers that need stable iteration must sort the keys.
func ByStudent(records []ResponseRecord) map[string][]ResponseRecord {
	grouped := make(map[string][]ResponseRecord)
	for _, rec := range records {
		grouped[rec.Student] = append(grouped[rec.Student], rec)
	}
	return grouped
}
