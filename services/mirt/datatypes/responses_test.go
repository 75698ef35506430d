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

import (
	"testing"
)

// =============================================================================
// ResponseRecord Validation Tests
// =============================================================================

func TestResponseRecord_Validate_Success(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		Exercise:  "adding_fractions",
		TimeTaken: 12.5,
		Correct:   true,
	}

	if err := rec.Validate(); err != nil {
		t.Errorf("expected valid record, got error: %v", err)
	}
}

func TestResponseRecord_Validate_MissingStudent(t *testing.T) {
	rec := &ResponseRecord{
		Exercise:  "adding_fractions",
		TimeTaken: 12.5,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for missing student, got nil")
	}
}

func TestResponseRecord_Validate_HostileStudentID(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "../../etc/passwd",
		Exercise:  "adding_fractions",
		TimeTaken: 12.5,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for path-like student id, got nil")
	}
}

func TestResponseRecord_Validate_MissingExercise(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		TimeTaken: 12.5,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for missing exercise, got nil")
	}
}

func TestResponseRecord_Validate_ExerciseWithSpaces(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		Exercise:  "adding fractions",
		TimeTaken: 12.5,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for exercise name with spaces, got nil")
	}
}

func TestResponseRecord_Validate_ZeroTime(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		Exercise:  "adding_fractions",
		TimeTaken: 0,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for zero time_taken, got nil")
	}
}

func TestResponseRecord_Validate_NegativeTime(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		Exercise:  "adding_fractions",
		TimeTaken: -3,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for negative time_taken, got nil")
	}
}

func TestResponseRecord_Validate_ExcessiveTime(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		Exercise:  "adding_fractions",
		TimeTaken: MaxResponseSeconds + 1,
	}

	if err := rec.Validate(); err == nil {
		t.Error("expected error for day-plus time_taken, got nil")
	}
}

func TestResponseRecord_Validate_IncorrectAnswerIsValid(t *testing.T) {
	rec := &ResponseRecord{
		Student:   "student42",
		Exercise:  "adding_fractions",
		TimeTaken: 45,
		Correct:   false,
	}

	if err := rec.Validate(); err != nil {
		t.Errorf("incorrect answers are still valid records, got error: %v", err)
	}
}

// =============================================================================
// ByStudent Tests
// =============================================================================

func TestByStudent_GroupsAndPreservesOrder(t *testing.T) {
	records := []ResponseRecord{
		{Student: "a", Exercise: "e1", TimeTaken: 1, Correct: true},
		{Student: "b", Exercise: "e1", TimeTaken: 2, Correct: false},
		{Student: "a", Exercise: "e2", TimeTaken: 3, Correct: false},
		{Student: "a", Exercise: "e3", TimeTaken: 4, Correct: true},
	}

	grouped := ByStudent(records)

	if len(grouped) != 2 {
		t.Fatalf("expected 2 students, got %d", len(grouped))
	}
	if len(grouped["a"]) != 3 {
		t.Errorf("expected 3 records for student a, got %d", len(grouped["a"]))
	}
	if len(grouped["b"]) != 1 {
		t.Errorf("expected 1 record for student b, got %d", len(grouped["b"]))
	}

	// Per-student response order must survive grouping
	wantOrder := []string{"e1", "e2", "e3"}
	for i, rec := range grouped["a"] {
		if rec.Exercise != wantOrder[i] {
			t.Errorf("student a record %d = %s, want %s", i, rec.Exercise, wantOrder[i])
		}
	}
}

func TestByStudent_Empty(t *testing.T) {
	grouped := ByStudent(nil)
	if len(grouped) != 0 {
		t.Errorf("expected empty map for nil input, got %d entries", len(grouped))
	}
}
