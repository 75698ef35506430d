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

	"gonum.org/v1/gonum/floats"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
)

// Ability estimation constants. The fixed iteration budget keeps
// estimation deterministic and cheap enough to run once per student
// per epoch inside the trainer's E-step.
const (
	estimateIters = 50
	estimateRate  = 0.25
	ridge         = 1.0
)

// Observation pairs an item offset with one observed outcome. It is
// the input unit for ability estimation: the trainer builds them from
// the training split, the evaluator from the observed half of a test
// student's history, and the adaptive test from answered questions.
type Observation struct {
	ItemIdx int
	Z       float64
	Correct bool
}

// EstimateAbility returns the penalized maximum-likelihood ability
// vector for a set of observations.
//
// # Description
//
// Maximizes sum of Bernoulli log-likelihoods minus a ridge penalty
// (a standard-normal prior on theta) by fixed-step gradient ascent.
// The prior keeps estimates finite for degenerate response sets, such
// as a student who answered everything correctly.
//
// # Outputs
//
//   - []float64: ability vector of length m.Abilities. Zero vector
//     when obs is empty (the prior mean).
func (m *Model) EstimateAbility(obs []Observation) []float64 {
	theta := make([]float64, m.Abilities)
	if len(obs) == 0 {
		return theta
	}

	grad := make([]float64, m.Abilities)
	step := estimateRate / float64(len(obs))

	for it := 0; it < estimateIters; it++ {
		for d := range grad {
			grad[d] = -ridge * theta[d]
		}
		for _, o := range obs {
			p := m.Predict(o.ItemIdx, theta, o.Z)
			y := 0.0
			if o.Correct {
				y = 1
			}
			floats.AddScaled(grad, y-p, m.Items[o.ItemIdx].Discrimination)
		}
		floats.AddScaled(theta, step, grad)
	}

	return theta
}

// ItemInformation returns the Fisher information of one item at the
// given ability point. For the logistic model this is p(1-p) scaled by
// the squared discrimination norm; it peaks where the item's outcome
// is least predictable and drives adaptive question selection.
func (m *Model) ItemInformation(idx int, theta []float64, z float64) float64 {
	p := m.Predict(idx, theta, z)
	disc := m.Items[idx].Discrimination
	return p * (1 - p) * floats.Dot(disc, disc)
}

// ExpectedScore returns the mean predicted success probability over
// all items at the given ability point, ignoring the time feature.
// The adaptive test reports it as the session's headline number.
func (m *Model) ExpectedScore(theta []float64) float64 {
	if len(m.Items) == 0 {
		return 0
	}
	var sum float64
	for i := range m.Items {
		sum += m.Predict(i, theta, 0)
	}
	return sum / float64(len(m.Items))
}

// LogLikelihood scores a response set under the model given per-student
// ability estimates. Records for exercises the model has never seen are
// skipped; stale splits may reference retired exercises.
func (m *Model) LogLikelihood(records []datatypes.ResponseRecord, thetas map[string][]float64) float64 {
	var ll float64
	for _, rec := range records {
		idx, ok := m.ItemIndex(rec.Exercise)
		if !ok {
			continue
		}
		theta, ok := thetas[rec.Student]
		if !ok {
			continue
		}
		p := m.Predict(idx, theta, m.NormTime(rec.TimeTaken))
		p = clampProb(p)
		if rec.Correct {
			ll += math.Log(p)
		} else {
			ll += math.Log(1 - p)
		}
	}
	return ll
}

// clampProb keeps probabilities away from 0 and 1 before logs.
func clampProb(p float64) float64 {
	const eps = 1e-9
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
