// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for externally
// supplied identifiers.
//
// Response files are user-provided CSV; the student and exercise columns
// flow into log lines, plot labels, and model JSON keys. Validating them
// at the read boundary keeps malformed or hostile values (path separators,
// control characters) out of everything downstream.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches valid student IDs and exercise names.
// Allows: letters, digits, then dots, underscores, hyphens.
// Max length: 64 characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,63}$`)

// ValidateStudentID validates a student identifier from a response file.
//
// Valid IDs:
//   - 1-64 characters
//   - Letters A-Z a-z
//   - Digits 0-9
//   - Dots (.), underscores (_), hyphens (-) after the first character
//
// Returns an error if the ID is invalid.
//
// Example:
//
//	if err := validation.ValidateStudentID(rec.Student); err != nil {
//	    return fmt.Errorf("row %d: %w", row, err)
//	}
func ValidateStudentID(id string) error {
	if id == "" {
		return fmt.Errorf("student id cannot be empty")
	}

	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("invalid student id: %q (must be 1-64 alphanumeric chars, dots, underscores, or hyphens)", id)
	}

	return nil
}

// ValidateExerciseName validates an exercise name from a response file.
//
// Exercise names follow the same shape as student IDs. They additionally
// end up as plot labels and JSON keys in the exported model, so the same
// charset restrictions apply.
//
// Returns an error if the name is invalid.
func ValidateExerciseName(name string) error {
	if name == "" {
		return fmt.Errorf("exercise name cannot be empty")
	}

	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid exercise name: %q (must be 1-64 alphanumeric chars, dots, underscores, or hyphens)", name)
	}

	return nil
}

// SanitizeExerciseName normalizes and validates an exercise name.
// Returns the lowercase name if valid, or an error if invalid.
//
// Use this when reading hand-edited response files where casing and
// surrounding whitespace vary:
//
//	name, err := validation.SanitizeExerciseName(raw)
//	if err != nil {
//	    return err
//	}
//	// name is lowercase and validated
func SanitizeExerciseName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateExerciseName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
