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
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
)

// trainFraction is the share of students routed to the train split.
const trainFraction = 0.8

// SplitResult summarizes a completed train/test split.
type SplitResult struct {
	TrainFile     string
	TestFile      string
	TrainStudents int
	TestStudents  int
	TrainRecords  int
	TestRecords   int
}

// Split partitions a .responses file into train and test splits.
//
// # Description
//
// The partition is by student: a student's entire history lands in
// exactly one split, so evaluation always sees students the trainer
// never did. Students are shuffled with the seeded RNG and the first
// 80% go to train. With at least two students both splits are
// non-empty. Record order within each split follows the input file.
//
// # Inputs
//
//   - dataFile: Source .responses file.
//   - outDir: Existing directory that receives train.responses and
//     test.responses.
//   - seed: RNG seed. Zero means derive one from the wall clock.
//
// # Outputs
//
//   - SplitResult: Counts and paths of the written splits.
//   - error: Non-nil on read, partition, or write failure.
func Split(dataFile, outDir string, seed int64) (SplitResult, error) {
	var res SplitResult

	records, err := ReadFile(dataFile)
	if err != nil {
		return res, err
	}
	if len(records) == 0 {
		return res, fmt.Errorf("split %s: no records", dataFile)
	}

	byStudent := datatypes.ByStudent(records)
	students := make([]string, 0, len(byStudent))
	for s := range byStudent {
		students = append(students, s)
	}
	sort.Strings(students)

	rng := rand.New(rand.NewSource(SeedOrNow(seed)))
	rng.Shuffle(len(students), func(i, j int) {
		students[i], students[j] = students[j], students[i]
	})

	trainCount := int(trainFraction * float64(len(students)))
	if trainCount < 1 {
		trainCount = 1
	}
	if trainCount == len(students) && len(students) > 1 {
		trainCount--
	}

	inTrain := make(map[string]bool, trainCount)
	for _, s := range students[:trainCount] {
		inTrain[s] = true
	}

	var train, test []datatypes.ResponseRecord
	for _, rec := range records {
		if inTrain[rec.Student] {
			train = append(train, rec)
		} else {
			test = append(test, rec)
		}
	}

	res.TrainFile = filepath.Join(outDir, datatypes.TrainResponsesFile)
	res.TestFile = filepath.Join(outDir, datatypes.TestResponsesFile)
	if err := WriteFile(res.TrainFile, train); err != nil {
		return res, err
	}
	if err := WriteFile(res.TestFile, test); err != nil {
		return res, err
	}

	res.TrainStudents = trainCount
	res.TestStudents = len(students) - trainCount
	res.TrainRecords = len(train)
	res.TestRecords = len(test)
	return res, nil
}
