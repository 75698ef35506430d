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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
)

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.responses")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// =============================================================================
// Round Trip Tests
// =============================================================================

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.responses")

	want := []datatypes.ResponseRecord{
		{Student: "student_0001", Exercise: "fractions", TimeTaken: 12.5, Correct: true},
		{Student: "student_0001", Exercise: "exponents", TimeTaken: 48.25, Correct: false},
		{Student: "student_0002", Exercise: "fractions", TimeTaken: 9.333, Correct: true},
	}

	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestWriteFile_HeaderFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.responses")

	if err := WriteFile(path, nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(content), "student,exercise,time_taken,correct\n") {
		t.Errorf("file should begin with the header, got %q", string(content))
	}
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "cohort.responses")

	err := WriteFile(path, nil)
	if err == nil {
		t.Error("expected error for missing parent directory, got nil")
	}
}

// =============================================================================
// Reader Tests
// =============================================================================

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.responses"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestReadFile_Empty(t *testing.T) {
	path := writeRaw(t, "")

	_, err := ReadFile(path)
	if err == nil {
		t.Fatal("expected error for empty file, got nil")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error should mention empty file: %v", err)
	}
}

func TestReadFile_HeaderOnly(t *testing.T) {
	path := writeRaw(t, "student,exercise,time_taken,correct\n")

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestReadFile_WrongHeader(t *testing.T) {
	path := writeRaw(t, "user,problem,seconds,ok\ns1,e1,5,1\n")

	_, err := ReadFile(path)
	if err == nil {
		t.Fatal("expected header error, got nil")
	}
	if !strings.Contains(err.Error(), "header") {
		t.Errorf("error should mention the header: %v", err)
	}
}

func TestReadFile_WrongColumnCount(t *testing.T) {
	path := writeRaw(t, "student,exercise,time_taken,correct\ns1,e1,5\n")

	if _, err := ReadFile(path); err == nil {
		t.Error("expected error for short row, got nil")
	}
}

func TestReadFile_BadTime(t *testing.T) {
	path := writeRaw(t, "student,exercise,time_taken,correct\ns1,e1,fast,1\n")

	_, err := ReadFile(path)
	if err == nil {
		t.Fatal("expected error for unparseable time, got nil")
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("error should name the row: %v", err)
	}
}

func TestReadFile_BadCorrect(t *testing.T) {
	path := writeRaw(t, "student,exercise,time_taken,correct\ns1,e1,5,yes\n")

	if _, err := ReadFile(path); err == nil {
		t.Error("expected error for correct outside {0,1}, got nil")
	}
}

func TestReadFile_HostileIdentifier(t *testing.T) {
	path := writeRaw(t, "student,exercise,time_taken,correct\n../../etc/passwd,e1,5,1\n")

	if _, err := ReadFile(path); err == nil {
		t.Error("expected validation error for hostile student id, got nil")
	}
}

func TestReadFile_NegativeTime(t *testing.T) {
	path := writeRaw(t, "student,exercise,time_taken,correct\ns1,e1,-3,0\n")

	if _, err := ReadFile(path); err == nil {
		t.Error("expected validation error for negative time, got nil")
	}
}
