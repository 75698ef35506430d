// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("training")
	if s == nil {
		t.Fatal("NewSpinner returned nil")
	}
	if s.message != "training" {
		t.Errorf("message = %q, want training", s.message)
	}
	if s.spinType != SpinnerDots {
		t.Errorf("default type = %v, want SpinnerDots", s.spinType)
	}
}

func TestSpinner_WithType(t *testing.T) {
	s := NewSpinner("loading").WithType(SpinnerCompass)
	if s.spinType != SpinnerCompass {
		t.Errorf("type = %v, want SpinnerCompass", s.spinType)
	}
}

func TestSpinner_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	output := captureStdout(func() {
		s := NewSpinner("fitting model")
		s.Start()
		s.Stop()
	})

	if !strings.Contains(output, "PROGRESS: fitting model") {
		t.Errorf("expected PROGRESS line in machine mode, got %q", output)
	}
}

func TestSpinner_StartStop(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	// 1. Start the spinner, let it animate briefly, then stop.
	// Stop must block until the animation goroutine exits.
	_ = captureStdout(func() {
		s := NewSpinner("working")
		s.Start()
		time.Sleep(120 * time.Millisecond)
		s.Stop()
	})

	// 2. Double-stop must not panic.
	_ = captureStdout(func() {
		s := NewSpinner("working")
		s.Start()
		s.Stop()
		s.Stop()
	})
}

func TestSpinner_DoubleStart(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	_ = captureStdout(func() {
		s := NewSpinner("working")
		s.Start()
		s.Start() // Should be a no-op
		s.Stop()
	})
}

func TestSpinner_UpdateMessage(t *testing.T) {
	s := NewSpinner("epoch 1")
	s.UpdateMessage("epoch 2")
	s.mu.Lock()
	got := s.message
	s.mu.Unlock()
	if got != "epoch 2" {
		t.Errorf("message = %q, want epoch 2", got)
	}
}

func TestWithSpinner_Success(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	var ran bool
	output := captureStdout(func() {
		err := WithSpinner("splitting responses", func() error {
			ran = true
			return nil
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	if !ran {
		t.Error("wrapped function did not run")
	}
	if !strings.Contains(output, "OK: splitting responses") {
		t.Errorf("expected success line, got %q", output)
	}
}

func TestWithSpinner_Error(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)

	wantErr := errors.New("no checkpoints")
	errOutput := captureStderr(func() {
		_ = captureStdout(func() {
			err := WithSpinner("locating checkpoint", func() error {
				return wantErr
			})
			if !errors.Is(err, wantErr) {
				t.Errorf("expected wrapped error returned, got %v", err)
			}
		})
	})

	if !strings.Contains(errOutput, "no checkpoints") {
		t.Errorf("expected error message on stderr, got %q", errOutput)
	}
}

func TestProgressSpinner_SetProgress(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	p := NewProgressSpinner("training", 100)
	p.SetProgress(40)

	p.mu.Lock()
	got := p.message
	p.mu.Unlock()

	if !strings.Contains(got, "[40/100]") {
		t.Errorf("message = %q, want [40/100] suffix", got)
	}
}

func TestProgressSpinner_SetProgress_DoesNotCompound(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	p := NewProgressSpinner("training", 100)
	p.SetProgress(10)
	p.SetProgress(20)
	p.SetProgress(30)

	p.mu.Lock()
	got := p.message
	p.mu.Unlock()

	if got != "training [30/100]" {
		t.Errorf("message = %q, want training [30/100]", got)
	}
}

func TestProgressSpinner_Increment(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)

	p := NewProgressSpinner("cells", 4)
	p.Increment()
	p.Increment()

	p.mu.Lock()
	current := p.current
	got := p.message
	p.mu.Unlock()

	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
	if !strings.Contains(got, "[2/4]") {
		t.Errorf("message = %q, want [2/4] suffix", got)
	}
}
