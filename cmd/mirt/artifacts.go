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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoCheckpoints reports a cell directory with nothing to resume
// or evaluate from.
var ErrNoCheckpoints = errors.New("no checkpoint files found")

// ensureDirs creates each path and any missing parents. Existing
// directories are fine.
func ensureDirs(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", p, err)
		}
	}
	return nil
}

// latestArtifact picks the newest checkpoint file in dir, newest
// meaning the lexicographically greatest suffix after the final
// underscore in the file name. Checkpoint writers zero-pad their
// epoch numbers so that lexicographic and numeric order agree; files
// from other tools may sort surprisingly ("9" beats "10") and the
// caller inherits that.
func latestArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", dir, ErrNoCheckpoints)
		}
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%s: %w", dir, ErrNoCheckpoints)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := artifactSuffix(names[i]), artifactSuffix(names[j])
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
	return filepath.Join(dir, names[len(names)-1]), nil
}

// artifactSuffix returns the portion of name after the last
// underscore, or the whole name when there is none.
func artifactSuffix(name string) string {
	if idx := strings.LastIndex(name, "_"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func rocsDir(modelDir string) string {
	return filepath.Join(modelDir, "rocs")
}

func plotsDir(modelDir string) string {
	return filepath.Join(modelDir, "plots")
}
