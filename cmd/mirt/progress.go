// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/AleutianAI/AleutianMIRT/pkg/ux"
)

// trainProgress follows one cell's fit through its epoch callbacks.
type trainProgress interface {
	update(epoch, total int)
	finish(err error)
}

// newTrainProgress returns a spinner-backed indicator when the
// terminal wants one, otherwise a silent indicator so quiet, JSON,
// and non-interactive runs stay clean.
func newTrainProgress(tag string, totalEpochs int) trainProgress {
	if !ux.ShouldShowProgress() {
		return silentProgress{}
	}
	return newSpinnerProgress(tag, totalEpochs)
}

// spinnerProgress renders epoch counts on an animated spinner.
type spinnerProgress struct {
	spinner *ux.ProgressSpinner
	tag     string
}

func newSpinnerProgress(tag string, totalEpochs int) *spinnerProgress {
	sp := ux.NewProgressSpinner(fmt.Sprintf("Fitting %s", tag), totalEpochs)
	sp.Start()
	return &spinnerProgress{spinner: sp, tag: tag}
}

func (s *spinnerProgress) update(epoch, total int) {
	s.spinner.SetProgress(epoch)
}

func (s *spinnerProgress) finish(err error) {
	if err != nil {
		s.spinner.StopWithError(fmt.Sprintf("Fit failed for %s", s.tag))
		return
	}
	s.spinner.StopWithSuccess(fmt.Sprintf("Fitted %s", s.tag))
}

// silentProgress drops all updates.
type silentProgress struct{}

func (silentProgress) update(epoch, total int) {}
func (silentProgress) finish(err error)        {}
