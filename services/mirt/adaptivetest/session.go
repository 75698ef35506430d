// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package adaptivetest runs an interactive assessment against a
// trained model.
//
// Each round picks the unasked exercise with the highest Fisher
// information at the current ability estimate, asks the student to
// report whether they solved it, and re-estimates ability from every
// answer so far. The session ends at the question budget, at item
// exhaustion, or when the student quits.
package adaptivetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianMIRT/pkg/ux"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
)

// defaultMaxQuestions bounds a session when the caller does not.
const defaultMaxQuestions = 10

// Params configures one adaptive session.
//
// # Fields
//
//   - ModelFile: Required. Trained model to assess against.
//   - MaxQuestions: Question budget. 0 means defaultMaxQuestions.
//   - Reader: Answer source. Nil picks the production reader for the
//     current stdin.
//   - Out: Where prompts and the summary are written. Nil means
//     os.Stdout.
//   - Now: Clock used to time answers. Nil means time.Now.
//   - Logger: Nil means slog.Default().
type Params struct {
	ModelFile    string
	MaxQuestions int
	Reader       AnswerReader
	Out          io.Writer
	Now          func() time.Time
	Logger       *slog.Logger
}

func (p Params) check() error {
	if p.ModelFile == "" {
		return fmt.Errorf("adaptive test: model file required")
	}
	if p.MaxQuestions < 0 {
		return fmt.Errorf("adaptive test: question budget must not be negative, got %d", p.MaxQuestions)
	}
	return nil
}

// Question records one asked exercise and the student's report.
type Question struct {
	Exercise string
	Correct  bool
	Seconds  float64
}

// Result summarizes a finished session.
type Result struct {
	// SessionID identifies the session in logs and the report.
	SessionID string

	// Questions holds every answered question in ask order.
	Questions []Question

	// Correct counts the questions the student reported solving.
	Correct int

	// Theta is the final ability estimate.
	Theta []float64

	// ExpectedScore is the model's predicted success rate for Theta
	// over the whole item bank.
	ExpectedScore float64
}

// Run executes one adaptive session and prints its score summary.
//
// # Description
//
// Loads the model and loops: select the most informative unasked
// exercise for the current ability estimate, collect a yes/no answer,
// fold it into the estimate. Typing "exit" or "quit", or closing
// input, ends the session early; the summary then covers the answered
// part. Invalid answers reprompt without consuming a question.
//
// # Outputs
//
//   - *Result: The finished session, also summarized on Out.
//   - error: Non-nil when the model cannot load, input fails, or ctx
//     is cancelled.
func Run(ctx context.Context, p Params) (*Result, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reader := p.Reader
	if reader == nil {
		reader = NewAnswerReader()
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	budget := p.MaxQuestions
	if budget == 0 {
		budget = defaultMaxQuestions
	}

	model, err := engine.Load(p.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("adaptive test: %w", err)
	}
	if budget > len(model.Items) {
		budget = len(model.Items)
	}

	sessionID := uuid.NewString()[:8]
	logger.Info("adaptive session started",
		"session", sessionID,
		"model", p.ModelFile,
		"items", len(model.Items),
		"budget", budget)

	fmt.Fprintln(out, ux.Styles.Title.Render("Adaptive assessment "+sessionID))
	fmt.Fprintln(out, ux.Styles.Muted.Render("Answer y or n for each exercise. Type quit to stop."))

	result := &Result{SessionID: sessionID}
	asked := make([]bool, len(model.Items))
	var obs []engine.Observation
	theta := make([]float64, model.Abilities)

	for len(result.Questions) < budget {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := nextItem(model, theta, asked)
		if idx < 0 {
			break
		}
		asked[idx] = true

		prompt := fmt.Sprintf("%d/%d  %s  solved? (y/n): ",
			len(result.Questions)+1, budget, model.Items[idx].Name)
		start := now()

		correct, done, err := collectAnswer(reader, out, prompt)
		if err != nil {
			return nil, fmt.Errorf("adaptive test: reading answer: %w", err)
		}
		if done {
			break
		}
		seconds := now().Sub(start).Seconds()

		z := 0.0
		if model.UseTime {
			z = model.NormTime(seconds)
		}
		obs = append(obs, engine.Observation{ItemIdx: idx, Z: z, Correct: correct})
		theta = model.EstimateAbility(obs)

		result.Questions = append(result.Questions, Question{
			Exercise: model.Items[idx].Name,
			Correct:  correct,
			Seconds:  seconds,
		})
		if correct {
			result.Correct++
			fmt.Fprintln(out, ux.Styles.Success.Render("  recorded: solved"))
		} else {
			fmt.Fprintln(out, ux.Styles.Muted.Render("  recorded: not solved"))
		}
		logger.Debug("answer recorded",
			"session", sessionID,
			"exercise", model.Items[idx].Name,
			"correct", correct,
			"seconds", seconds)
	}

	result.Theta = theta
	result.ExpectedScore = model.ExpectedScore(theta)

	fmt.Fprintln(out, ux.Styles.Box.Render(summaryText(result)))
	logger.Info("adaptive session finished",
		"session", sessionID,
		"asked", len(result.Questions),
		"correct", result.Correct,
		"expected_score", result.ExpectedScore)
	return result, nil
}

// collectAnswer prompts until it gets a parsable answer. done reports
// that the student ended the session (quit command or closed input).
func collectAnswer(reader AnswerReader, out io.Writer, prompt string) (correct, done bool, err error) {
	for {
		if pr, ok := reader.(PromptingAnswerReader); ok {
			pr.SetPrompt(prompt)
		} else {
			fmt.Fprint(out, prompt)
		}
		answer, err := reader.ReadAnswer()
		if err == io.EOF {
			return false, true, nil
		}
		if err != nil {
			return false, false, err
		}
		if answer == "exit" || answer == "quit" {
			return false, true, nil
		}
		if correct, ok := parseAnswer(answer); ok {
			return correct, false, nil
		}
		fmt.Fprintln(out, ux.Styles.Muted.Render("  please answer y or n"))
	}
}

// parseAnswer maps a student's report onto a correctness flag.
func parseAnswer(answer string) (correct, ok bool) {
	switch strings.ToLower(answer) {
	case "y", "yes", "1":
		return true, true
	case "n", "no", "0":
		return false, true
	default:
		return false, false
	}
}

// nextItem returns the unasked item with the highest Fisher
// information at theta, or -1 when every item has been asked. Ties go
// to the lowest index so sessions are reproducible.
func nextItem(m *engine.Model, theta []float64, asked []bool) int {
	best := -1
	bestInfo := math.Inf(-1)
	for i := range m.Items {
		if asked[i] {
			continue
		}
		if info := m.ItemInformation(i, theta, 0); info > bestInfo {
			best = i
			bestInfo = info
		}
	}
	return best
}

// summaryText renders the end-of-session report body.
func summaryText(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", r.SessionID)
	fmt.Fprintf(&b, "Questions answered: %d\n", len(r.Questions))
	fmt.Fprintf(&b, "Reported solved:    %d\n", r.Correct)
	fmt.Fprintf(&b, "Ability estimate:   %s\n", thetaString(r.Theta))
	fmt.Fprintf(&b, "Predicted success:  %.0f%%", 100*r.ExpectedScore)
	return b.String()
}

func thetaString(theta []float64) string {
	parts := make([]string, len(theta))
	for i, v := range theta {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
