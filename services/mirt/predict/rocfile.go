// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package predict

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
)

// RocFileExt is the extension of persisted ROC curves.
const RocFileExt = ".roc"

var rocHeader = []string{"threshold", "fpr", "tpr"}

// WriteRocFile persists an ROC curve as CSV. The parent directory must
// already exist.
func WriteRocFile(path string, points []datatypes.RocPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create roc %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rocHeader); err != nil {
		f.Close()
		return fmt.Errorf("write roc header: %w", err)
	}
	for _, pt := range points {
		row := []string{
			strconv.FormatFloat(pt.Threshold, 'g', -1, 64),
			strconv.FormatFloat(pt.FPR, 'g', -1, 64),
			strconv.FormatFloat(pt.TPR, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write roc row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush roc %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close roc %s: %w", path, err)
	}
	return nil
}

// ReadRocFile loads a persisted ROC curve.
func ReadRocFile(path string) ([]datatypes.RocPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roc %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(rocHeader)

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("roc %s: file is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("roc %s: read header: %w", path, err)
	}
	for i, want := range rocHeader {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("roc %s: header column %d is %q, want %q", path, i+1, header[i], want)
		}
	}

	var points []datatypes.RocPoint
	row := 1
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("roc %s row %d: %w", path, row, err)
		}

		var pt datatypes.RocPoint
		if pt.Threshold, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64); err != nil {
			return nil, fmt.Errorf("roc %s row %d: threshold: %w", path, row, err)
		}
		if pt.FPR, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err != nil {
			return nil, fmt.Errorf("roc %s row %d: fpr: %w", path, row, err)
		}
		if pt.TPR, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
			return nil, fmt.Errorf("roc %s row %d: tpr: %w", path, row, err)
		}
		points = append(points, pt)
	}
	return points, nil
}
