// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package responses

import (
	"path/filepath"
	"reflect"
	"testing"
)

// =============================================================================
// Generation Tests
// =============================================================================

func TestGenerate_Counts(t *testing.T) {
	records, err := Generate(GenerateParams{Students: 7, Exercises: 5, Abilities: 2, Seed: 11})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(records) != 35 {
		t.Fatalf("got %d records, want 35", len(records))
	}

	// Student-major order: the first block belongs to student_0001
	for i := 0; i < 5; i++ {
		if records[i].Student != "student_0001" {
			t.Errorf("record %d student = %q, want student_0001", i, records[i].Student)
		}
	}
	if records[5].Student != "student_0002" {
		t.Errorf("record 5 student = %q, want student_0002", records[5].Student)
	}
}

func TestGenerate_RecordsValid(t *testing.T) {
	records, err := Generate(GenerateParams{Students: 20, Exercises: 6, Abilities: 1, Seed: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			t.Fatalf("record %d invalid: %v", i, err)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	p := GenerateParams{Students: 12, Exercises: 4, Abilities: 3, Seed: 99}

	first, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("same seed should reproduce the same cohort")
	}
}

func TestGenerate_SeedsDiffer(t *testing.T) {
	a, err := Generate(GenerateParams{Students: 10, Exercises: 5, Abilities: 1, Seed: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(GenerateParams{Students: 10, Exercises: 5, Abilities: 1, Seed: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if reflect.DeepEqual(a, b) {
		t.Error("different seeds should produce different cohorts")
	}
}

func TestGenerate_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.responses")

	records, err := Generate(GenerateParams{Students: 5, Exercises: 3, Abilities: 1, Seed: 7, OutFile: path})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(loaded) != len(records) {
		t.Errorf("file holds %d records, want %d", len(loaded), len(records))
	}
}

func TestGenerate_BadParams(t *testing.T) {
	cases := []GenerateParams{
		{Students: 0, Exercises: 5, Abilities: 1},
		{Students: 5, Exercises: 0, Abilities: 1},
		{Students: 5, Exercises: 5, Abilities: 0},
	}

	for i, p := range cases {
		if _, err := Generate(p); err == nil {
			t.Errorf("case %d: expected error, got nil", i)
		}
	}
}

func TestSeedOrNow(t *testing.T) {
	if got := SeedOrNow(42); got != 42 {
		t.Errorf("SeedOrNow(42) = %d, want 42", got)
	}
	if got := SeedOrNow(0); got == 0 {
		t.Error("SeedOrNow(0) should substitute a non-zero seed")
	}
}
