// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testModel(t *testing.T, abilities int, useTime bool) *Model {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	return New(abilities, useTime, []string{"addition", "fractions", "exponents"}, rng)
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNew_Shapes(t *testing.T) {
	m := testModel(t, 2, true)

	if m.Schema != SchemaVersion {
		t.Errorf("Schema = %d, want %d", m.Schema, SchemaVersion)
	}
	if m.Abilities != 2 {
		t.Errorf("Abilities = %d, want 2", m.Abilities)
	}
	if !m.UseTime {
		t.Error("UseTime = false, want true")
	}
	if len(m.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(m.Items))
	}
	for _, item := range m.Items {
		if len(item.Discrimination) != 2 {
			t.Errorf("item %q discrimination length = %d, want 2", item.Name, len(item.Discrimination))
		}
	}
}

func TestNew_PositiveDiscriminations(t *testing.T) {
	m := testModel(t, 3, false)

	for _, item := range m.Items {
		for d, a := range item.Discrimination {
			if a <= 0 {
				t.Errorf("item %q discrimination[%d] = %v, want > 0", item.Name, d, a)
			}
		}
	}
}

func TestNew_NoTimeWeightWithoutTime(t *testing.T) {
	m := testModel(t, 1, false)

	for _, item := range m.Items {
		if item.TimeWeight != 0 {
			t.Errorf("item %q TimeWeight = %v, want 0 for time-blind model", item.Name, item.TimeWeight)
		}
	}
}

func TestItemIndex(t *testing.T) {
	m := testModel(t, 1, false)

	idx, ok := m.ItemIndex("fractions")
	if !ok {
		t.Fatal("ItemIndex(fractions) not found")
	}
	if m.Items[idx].Name != "fractions" {
		t.Errorf("index points at %q, want fractions", m.Items[idx].Name)
	}

	if _, ok := m.ItemIndex("calculus"); ok {
		t.Error("ItemIndex(calculus) = found, want missing")
	}
}

func TestItemIndex_HandBuiltModel(t *testing.T) {
	// Models assembled without New or Load fall back to a scan
	m := &Model{
		Schema:    SchemaVersion,
		Abilities: 1,
		Items: []Item{
			{Name: "a", Discrimination: []float64{1}},
			{Name: "b", Discrimination: []float64{1}},
		},
	}

	idx, ok := m.ItemIndex("b")
	if !ok || idx != 1 {
		t.Errorf("ItemIndex(b) = (%d, %v), want (1, true)", idx, ok)
	}
}

// =============================================================================
// Prediction Tests
// =============================================================================

func TestSigmoid(t *testing.T) {
	if got := Sigmoid(0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", got)
	}
	if got := Sigmoid(100); got < 0.999 {
		t.Errorf("Sigmoid(100) = %v, want ~1", got)
	}
	if got := Sigmoid(-100); got > 0.001 {
		t.Errorf("Sigmoid(-100) = %v, want ~0", got)
	}
	if Sigmoid(1) <= Sigmoid(0) {
		t.Error("Sigmoid must be increasing")
	}
}

func TestPredict_AbilityRaisesProbability(t *testing.T) {
	m := testModel(t, 1, false)

	low := m.Predict(0, []float64{-2}, 0)
	high := m.Predict(0, []float64{2}, 0)

	if high <= low {
		t.Errorf("P(correct) should rise with ability: low=%v high=%v", low, high)
	}
}

func TestPredict_DifficultyLowersProbability(t *testing.T) {
	m := testModel(t, 1, false)
	theta := []float64{0.5}

	easy := m.Predict(0, theta, 0)
	m.Items[0].Difficulty += 2
	hard := m.Predict(0, theta, 0)

	if hard >= easy {
		t.Errorf("raising difficulty should lower P: easy=%v hard=%v", easy, hard)
	}
}

func TestPredict_TimeFeatureIgnoredWithoutTime(t *testing.T) {
	m := testModel(t, 1, false)
	theta := []float64{0.3}

	p1 := m.Predict(0, theta, 0)
	p2 := m.Predict(0, theta, 3.5)

	if p1 != p2 {
		t.Errorf("time-blind model must ignore z: %v != %v", p1, p2)
	}
}

func TestPredict_TimeFeatureMatters(t *testing.T) {
	m := testModel(t, 1, true)
	m.Items[0].TimeWeight = -0.8 // slow answers predict failure
	theta := []float64{0.3}

	fast := m.Predict(0, theta, -1)
	slow := m.Predict(0, theta, 2)

	if slow >= fast {
		t.Errorf("negative time weight should punish slow answers: fast=%v slow=%v", fast, slow)
	}
}

func TestNormTime(t *testing.T) {
	m := testModel(t, 1, true)
	m.TimeScale = TimeScale{Mean: math.Log(10), Std: 1}

	// 1. Ten seconds sits at the mean
	if z := m.NormTime(10); math.Abs(z) > 1e-9 {
		t.Errorf("NormTime(10) = %v, want 0", z)
	}

	// 2. Faster than the mean is negative
	if z := m.NormTime(1); z >= 0 {
		t.Errorf("NormTime(1) = %v, want negative", z)
	}

	// 3. Non-positive seconds are floored, not NaN
	if z := m.NormTime(0); math.IsNaN(z) || math.IsInf(z, 0) {
		t.Errorf("NormTime(0) = %v, want finite", z)
	}
}

func TestNormTime_TimeBlindModel(t *testing.T) {
	m := testModel(t, 1, false)
	if z := m.NormTime(55); z != 0 {
		t.Errorf("NormTime on time-blind model = %v, want 0", z)
	}
}

func TestNormTime_DegenerateScale(t *testing.T) {
	m := testModel(t, 1, true)
	m.TimeScale = TimeScale{Mean: 2, Std: 0}

	if z := m.NormTime(100); z != 0 {
		t.Errorf("NormTime with zero std = %v, want 0", z)
	}
}

// =============================================================================
// Serialization Tests
// =============================================================================

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	m := testModel(t, 2, true)
	m.Fit.Epoch = 40
	m.Fit.LogLikelihood = -123.5

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Abilities != m.Abilities {
		t.Errorf("Abilities = %d, want %d", loaded.Abilities, m.Abilities)
	}
	if loaded.UseTime != m.UseTime {
		t.Errorf("UseTime = %v, want %v", loaded.UseTime, m.UseTime)
	}
	if len(loaded.Items) != len(m.Items) {
		t.Fatalf("len(Items) = %d, want %d", len(loaded.Items), len(m.Items))
	}
	if loaded.Items[1].Name != m.Items[1].Name {
		t.Errorf("item name = %q, want %q", loaded.Items[1].Name, m.Items[1].Name)
	}
	if loaded.Fit.Epoch != 40 {
		t.Errorf("Fit.Epoch = %d, want 40", loaded.Fit.Epoch)
	}

	// Index must work after load
	if _, ok := loaded.ItemIndex("exponents"); !ok {
		t.Error("loaded model missing item index entry")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestLoad_WrongSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	m := testModel(t, 1, false)
	m.Schema = 99
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected schema error, got nil")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Errorf("error should mention schema: %v", err)
	}
}

func TestLoad_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	m := testModel(t, 2, false)
	m.Items[0].Discrimination = []float64{1} // wrong length
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected dimension error, got nil")
	}
}

func TestLoad_NoItems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	m := &Model{Schema: SchemaVersion, Abilities: 1}
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for empty item set, got nil")
	}
}
