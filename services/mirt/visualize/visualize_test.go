// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package visualize

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// requirePNG fails the test unless path holds a non-trivial PNG file.
func requirePNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading plot: %v", err)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		t.Fatalf("plot %s is not a PNG", path)
	}
}

func sampleCurve() []datatypes.RocPoint {
	return []datatypes.RocPoint{
		{Threshold: 1.9, FPR: 0, TPR: 0},
		{Threshold: 0.9, FPR: 0, TPR: 0.5},
		{Threshold: 0.6, FPR: 0.5, TPR: 1},
		{Threshold: 0.1, FPR: 1, TPR: 1},
	}
}

// ============================================================
// ShowROC
// ============================================================

func TestShowROC_WritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "roc.png")

	curves := map[string][]datatypes.RocPoint{
		"3_with_time_2025_01_02_03_04": sampleCurve(),
	}
	if err := ShowROC(curves, out); err != nil {
		t.Fatalf("ShowROC: %v", err)
	}
	requirePNG(t, out)
}

func TestShowROC_MultipleCurves(t *testing.T) {
	out := filepath.Join(t.TempDir(), "roc.png")

	curves := map[string][]datatypes.RocPoint{
		"1_no_time_2025_01_02_03_04":   sampleCurve(),
		"1_with_time_2025_01_02_03_04": sampleCurve(),
		"3_no_time_2025_01_02_03_04":   sampleCurve(),
	}
	if err := ShowROC(curves, out); err != nil {
		t.Fatalf("ShowROC: %v", err)
	}
	requirePNG(t, out)
}

func TestShowROC_NoCurves(t *testing.T) {
	out := filepath.Join(t.TempDir(), "roc.png")

	err := ShowROC(map[string][]datatypes.RocPoint{}, out)
	if err == nil {
		t.Fatal("expected error for empty curve set")
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Fatal("no plot should be written on error")
	}
}

func TestShowROC_EmptyCurve(t *testing.T) {
	out := filepath.Join(t.TempDir(), "roc.png")

	curves := map[string][]datatypes.RocPoint{"bad_tag": nil}
	err := ShowROC(curves, out)
	if err == nil {
		t.Fatal("expected error for curve without points")
	}
	if !strings.Contains(err.Error(), "bad_tag") {
		t.Fatalf("error should name the offending tag, got %v", err)
	}
}

func TestShowROC_MissingDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nope", "roc.png")

	curves := map[string][]datatypes.RocPoint{"tag": sampleCurve()}
	if err := ShowROC(curves, out); err == nil {
		t.Fatal("expected error when the parent directory is missing")
	}
}

// ============================================================
// ShowExercises
// ============================================================

func TestShowExercises_WritesPNG(t *testing.T) {
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "model.json")
	out := filepath.Join(dir, "exercises.png")

	rng := rand.New(rand.NewSource(7))
	model := engine.New(2, true, []string{"addition", "fractions", "exponents"}, rng)
	if err := model.Save(modelFile); err != nil {
		t.Fatalf("saving model: %v", err)
	}

	if err := ShowExercises(modelFile, out); err != nil {
		t.Fatalf("ShowExercises: %v", err)
	}
	requirePNG(t, out)
}

func TestShowExercises_MissingModel(t *testing.T) {
	dir := t.TempDir()

	err := ShowExercises(filepath.Join(dir, "absent.json"), filepath.Join(dir, "out.png"))
	if err == nil {
		t.Fatal("expected error for missing model file")
	}
}

func TestShowExercises_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "model.json")

	rng := rand.New(rand.NewSource(7))
	model := engine.New(1, false, []string{"addition"}, rng)
	if err := model.Save(modelFile); err != nil {
		t.Fatalf("saving model: %v", err)
	}

	if err := ShowExercises(modelFile, filepath.Join(dir, "nope", "out.png")); err == nil {
		t.Fatal("expected error when the parent directory is missing")
	}
}
