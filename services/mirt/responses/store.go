// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package responses reads, writes, generates, and splits .responses files.
//
// A .responses file is CSV with the header line
//
//	student,exercise,time_taken,correct
//
// where time_taken is seconds as a float and correct is 0 or 1. Every
// record is validated on read so downstream stages can trust the data.
package responses

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
)

// responseHeader is the required first line of every .responses file.
var responseHeader = []string{"student", "exercise", "time_taken", "correct"}

// ReadFile loads a .responses file.
//
// # Description
//
// Opens the file, checks the header, and parses and validates every row.
// Parsing is strict: exactly four fields per row, correct must be the
// literal 0 or 1.
//
// # Inputs
//
//   - path: Path to the .responses file.
//
// # Outputs
//
//   - []datatypes.ResponseRecord: Records in file order.
//   - error: Non-nil on missing file, bad header, or any invalid row.
func ReadFile(path string) ([]datatypes.ResponseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open responses %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(responseHeader)

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("responses %s: file is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("responses %s: read header: %w", path, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, fmt.Errorf("responses %s: %w", path, err)
	}

	var records []datatypes.ResponseRecord
	row := 1
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("responses %s row %d: %w", path, row, err)
		}

		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("responses %s row %d: %w", path, row, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("responses %s row %d: %w", path, row, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteFile writes records to a .responses file, header first.
//
// The parent directory must already exist. Records are written as-is;
// validation happens on the read side.
func WriteFile(path string, records []datatypes.ResponseRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create responses %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(responseHeader); err != nil {
		f.Close()
		return fmt.Errorf("write responses header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Student,
			rec.Exercise,
			strconv.FormatFloat(rec.TimeTaken, 'f', -1, 64),
			formatCorrect(rec.Correct),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write responses row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush responses %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close responses %s: %w", path, err)
	}
	return nil
}

// checkHeader verifies the header row matches responseHeader exactly,
// modulo surrounding whitespace.
func checkHeader(fields []string) error {
	if len(fields) != len(responseHeader) {
		return fmt.Errorf("header has %d columns, want %d", len(fields), len(responseHeader))
	}
	for i, want := range responseHeader {
		if strings.TrimSpace(fields[i]) != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, fields[i], want)
		}
	}
	return nil
}

func parseRecord(fields []string) (datatypes.ResponseRecord, error) {
	var rec datatypes.ResponseRecord

	rec.Student = strings.TrimSpace(fields[0])
	rec.Exercise = strings.TrimSpace(fields[1])

	seconds, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return rec, fmt.Errorf("time_taken %q: %w", fields[2], err)
	}
	rec.TimeTaken = seconds

	switch strings.TrimSpace(fields[3]) {
	case "1":
		rec.Correct = true
	case "0":
		rec.Correct = false
	default:
		return rec, fmt.Errorf("correct %q: want 0 or 1", fields[3])
	}
	return rec, nil
}

func formatCorrect(correct bool) string {
	if correct {
		return "1"
	}
	return "0"
}
