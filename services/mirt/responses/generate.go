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
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
)

// Ground-truth constants for the synthetic cohort. Times are lognormal;
// the location drops with proficiency so response time carries a real
// signal about ability, and the haste penalty ties slow noise to wrong
// answers so a time-aware fit has something to find.
const (
	discLogMean  = -0.35
	discLogStd   = 0.4
	timeLogMean  = 3.0 // exp(3.0) is about 20 seconds
	timeLogStd   = 0.5
	profSpeed    = 0.5
	hastePenalty = -0.4
	minSeconds   = 0.1
)

// GenerateParams configures synthetic cohort generation.
//
// # Fields
//
//   - Students: Number of students in the cohort. Must be >= 1.
//   - Exercises: Number of distinct exercises. Must be >= 1.
//   - Abilities: Latent ability dimension of the ground truth. Must be >= 1.
//   - Seed: RNG seed. Zero means derive one from the wall clock.
//   - OutFile: Destination .responses path. Empty skips the write.
type GenerateParams struct {
	Students  int
	Exercises int
	Abilities int
	Seed      int64
	OutFile   string
}

// Generate synthesizes a response cohort.
//
// # Description
//
// Draws ground-truth item parameters and per-student abilities, then has
// every student answer every exercise once. Correctness is Bernoulli in
// the ability logit, response time is lognormal shifted by proficiency.
// The same seed always produces the same records.
//
// # Outputs
//
//   - []datatypes.ResponseRecord: The cohort, student-major order.
//   - error: Non-nil on bad params or a failed write.
func Generate(p GenerateParams) ([]datatypes.ResponseRecord, error) {
	if p.Students < 1 {
		return nil, fmt.Errorf("generate: students %d, want >= 1", p.Students)
	}
	if p.Exercises < 1 {
		return nil, fmt.Errorf("generate: exercises %d, want >= 1", p.Exercises)
	}
	if p.Abilities < 1 {
		return nil, fmt.Errorf("generate: abilities %d, want >= 1", p.Abilities)
	}

	rng := rand.New(rand.NewSource(SeedOrNow(p.Seed)))

	// Ground-truth item bank
	type truthItem struct {
		name           string
		discrimination []float64
		difficulty     float64
	}
	items := make([]truthItem, p.Exercises)
	for e := range items {
		disc := make([]float64, p.Abilities)
		for d := range disc {
			disc[d] = math.Exp(discLogStd*rng.NormFloat64() + discLogMean)
		}
		items[e] = truthItem{
			name:           fmt.Sprintf("exercise_%03d", e+1),
			discrimination: disc,
			difficulty:     rng.NormFloat64(),
		}
	}

	records := make([]datatypes.ResponseRecord, 0, p.Students*p.Exercises)
	theta := make([]float64, p.Abilities)
	for s := 0; s < p.Students; s++ {
		student := fmt.Sprintf("student_%04d", s+1)
		for d := range theta {
			theta[d] = rng.NormFloat64()
		}
		prof := floats.Sum(theta) / float64(len(theta))

		for _, item := range items {
			eps := rng.NormFloat64()
			seconds := math.Exp(timeLogMean - profSpeed*prof + timeLogStd*eps)
			if seconds < minSeconds {
				seconds = minSeconds
			}
			if seconds > datatypes.MaxResponseSeconds {
				seconds = datatypes.MaxResponseSeconds
			}

			logit := floats.Dot(item.discrimination, theta) - item.difficulty + hastePenalty*eps
			records = append(records, datatypes.ResponseRecord{
				Student:   student,
				Exercise:  item.name,
				TimeTaken: math.Round(seconds*1000) / 1000,
				Correct:   rng.Float64() < engine.Sigmoid(logit),
			})
		}
	}

	if p.OutFile != "" {
		if err := WriteFile(p.OutFile, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// SeedOrNow returns the seed unchanged unless it is zero, in which case
// a wall-clock seed is substituted.
func SeedOrNow(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
