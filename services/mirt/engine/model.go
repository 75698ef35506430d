// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the multidimensional item response model.
//
// The model is a 2PL variant with an optional response-time term. For a
// student with ability vector theta answering item i after z normalized
// log-seconds:
//
//	P(correct) = sigmoid(A_i . theta - B_i + C_i * z)
//
// where A_i is the item's discrimination vector, B_i its difficulty, and
// C_i its time weight (zero for models trained without the time signal).
// The package has no pipeline knowledge: it fits nothing and schedules
// nothing. The trainer drives the updates; evaluation and the adaptive
// test only read.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
)

// SchemaVersion identifies the model JSON layout. Bump on incompatible
// field changes so Load can reject files from other versions.
const SchemaVersion = 1

// minSeconds floors time_taken before taking logarithms.
const minSeconds = 1e-3

// =============================================================================
// Model Types
// =============================================================================

// Item holds the fitted parameters of one exercise.
type Item struct {
	// Name is the exercise identifier from the response files.
	Name string `json:"name"`

	// Discrimination is the per-dimension slope vector. Its length
	// always equals the owning model's ability dimension.
	Discrimination []float64 `json:"discrimination"`

	// Difficulty shifts the curve: higher values lower P(correct)
	// at every ability level.
	Difficulty float64 `json:"difficulty"`

	// TimeWeight couples normalized log response time into the
	// prediction. Zero for models trained without the time signal.
	TimeWeight float64 `json:"time_weight"`
}

// TimeScale carries the normalization constants for the time feature,
// estimated once from the training split.
type TimeScale struct {
	Mean float64 `json:"mean"` // mean of log seconds
	Std  float64 `json:"std"`  // stddev of log seconds
}

// FitInfo records where the iterative fit stood when the model was
// serialized. Checkpoints written mid-fit carry the epoch they
// correspond to.
type FitInfo struct {
	Epoch         int       `json:"epoch"`
	LogLikelihood float64   `json:"log_likelihood"`
	CreatedAt     time.Time `json:"created_at"`
}

// Model is a serializable multidimensional item response model.
//
// # Description
//
// Model is the unit the pipeline moves around: the trainer writes one
// per checkpoint, the runner exports the selected one as the run's
// product, and evaluation and the adaptive test load it back. All
// exported fields round-trip through JSON.
//
// # Thread Safety
//
// A Model is read-only after construction or Load. Concurrent readers
// are safe; the trainer mutates items only between epochs, never while
// ability estimation workers are running.
type Model struct {
	Schema    int       `json:"schema_version"`
	Abilities int       `json:"abilities"`
	UseTime   bool      `json:"use_time"`
	Items     []Item    `json:"items"`
	TimeScale TimeScale `json:"time_scale"`
	Fit       FitInfo   `json:"fit"`

	// index maps item names to Items offsets. Built by New and Load,
	// never serialized.
	index map[string]int
}

// New creates a model with small random item parameters, ready for
// fitting. Discriminations start positive so the fit begins in the
// orientation where higher ability means higher success probability.
func New(abilities int, useTime bool, exercises []string, rng *rand.Rand) *Model {
	m := &Model{
		Schema:    SchemaVersion,
		Abilities: abilities,
		UseTime:   useTime,
		Items:     make([]Item, 0, len(exercises)),
		TimeScale: TimeScale{Mean: 0, Std: 1},
		Fit:       FitInfo{CreatedAt: time.Now().UTC()},
	}

	for _, name := range exercises {
		disc := make([]float64, abilities)
		for d := range disc {
			disc[d] = 0.5 + 0.1*rng.Float64()
		}
		item := Item{
			Name:           name,
			Discrimination: disc,
			Difficulty:     0.1 * rng.NormFloat64(),
		}
		if useTime {
			item.TimeWeight = 0.05 * rng.NormFloat64()
		}
		m.Items = append(m.Items, item)
	}

	m.buildIndex()
	return m
}

// buildIndex populates the name lookup. Called once at construction or
// load time so concurrent readers never mutate the map.
func (m *Model) buildIndex() {
	m.index = make(map[string]int, len(m.Items))
	for i, item := range m.Items {
		m.index[item.Name] = i
	}
}

// ItemIndex returns the offset of the named item, or false when the
// model never saw that exercise. Models built by hand without New or
// Load fall back to a linear scan.
func (m *Model) ItemIndex(name string) (int, bool) {
	if m.index == nil {
		for i, item := range m.Items {
			if item.Name == name {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := m.index[name]
	return i, ok
}

// =============================================================================
// Prediction
// =============================================================================

// Sigmoid is the standard logistic function with the argument clamped
// to keep exp from overflowing.
func Sigmoid(x float64) float64 {
	if x > 30 {
		x = 30
	} else if x < -30 {
		x = -30
	}
	return 1 / (1 + math.Exp(-x))
}

// NormTime converts raw seconds into the normalized log-time feature.
// Models trained without the time signal always see zero.
func (m *Model) NormTime(seconds float64) float64 {
	if !m.UseTime {
		return 0
	}
	if seconds < minSeconds {
		seconds = minSeconds
	}
	std := m.TimeScale.Std
	if std < 1e-9 {
		return 0
	}
	return (math.Log(seconds) - m.TimeScale.Mean) / std
}

// Predict returns P(correct) for the item at offset idx given an
// ability vector and a normalized time feature.
func (m *Model) Predict(idx int, theta []float64, z float64) float64 {
	item := &m.Items[idx]
	logit := floats.Dot(item.Discrimination, theta) - item.Difficulty
	if m.UseTime {
		logit += item.TimeWeight * z
	}
	return Sigmoid(logit)
}

// =============================================================================
// Serialization
// =============================================================================

// Save writes the model as indented JSON. The parent directory must
// already exist; directory provisioning is the caller's concern.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// Load reads a model JSON file and validates its shape.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}

	if err := m.check(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	m.buildIndex()
	return &m, nil
}

// check validates structural invariants after deserialization.
func (m *Model) check() error {
	if m.Schema != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", m.Schema, SchemaVersion)
	}
	if m.Abilities < 1 {
		return fmt.Errorf("ability dimension %d out of range", m.Abilities)
	}
	if len(m.Items) == 0 {
		return fmt.Errorf("model has no items")
	}
	for i, item := range m.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d has no name", i)
		}
		if len(item.Discrimination) != m.Abilities {
			return fmt.Errorf("item %q discrimination length %d, want %d",
				item.Name, len(item.Discrimination), m.Abilities)
		}
	}
	return nil
}
