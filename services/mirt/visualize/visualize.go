// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package visualize renders pipeline artifacts as PNG plots.
//
// Rendering is non-interactive: plots land next to the run's other
// artifacts instead of opening windows, so the pipeline stays usable
// over SSH and in CI.
package visualize

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/AleutianAI/AleutianMIRT/services/mirt/datatypes"
	"github.com/AleutianAI/AleutianMIRT/services/mirt/engine"
)

// curvePalette cycles across ROC curves when several tags are plotted
// together.
var curvePalette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 200, G: 30, B: 30, A: 255},
	{R: 30, G: 140, B: 60, A: 255},
	{R: 190, G: 120, B: 20, A: 255},
	{R: 120, G: 40, B: 160, A: 255},
	{R: 20, G: 150, B: 150, A: 255},
}

// ShowROC writes an ROC plot with one curve per tag and a dashed
// chance diagonal.
//
// # Inputs
//
//   - curves: Tag to curve points, plotted in sorted tag order.
//   - outPath: Destination PNG. The parent directory must exist.
//
// # Outputs
//
//   - error: Non-nil when curves is empty, a curve has no points, or
//     rendering fails.
func ShowROC(curves map[string][]datatypes.RocPoint, outPath string) error {
	if len(curves) == 0 {
		return fmt.Errorf("roc plot: no curves")
	}

	tags := make([]string, 0, len(curves))
	for tag := range curves {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	p := plot.New()
	p.Title.Text = "ROC"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	for i, tag := range tags {
		points := curves[tag]
		if len(points) == 0 {
			return fmt.Errorf("roc plot: curve %q has no points", tag)
		}
		xys := make(plotter.XYs, len(points))
		for j, pt := range points {
			xys[j] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("roc plot: curve %q: %w", tag, err)
		}
		line.Color = curvePalette[i%len(curvePalette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (AUC %.3f)", tag, datatypes.AUC(points)), line)
	}

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("roc plot: %w", err)
	}
	chance.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	chance.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(chance)
	p.Legend.Add("chance", chance)
	p.Legend.Top = false

	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return fmt.Errorf("roc plot %s: %w", outPath, err)
	}
	return nil
}

// ShowExercises writes a difficulty-versus-discrimination scatter of a
// model's item bank, one labeled point per exercise. Discrimination is
// the Euclidean norm of the item's vector so multidimensional models
// still plot on one axis.
func ShowExercises(modelFile, outPath string) error {
	model, err := engine.Load(modelFile)
	if err != nil {
		return fmt.Errorf("exercise plot: %w", err)
	}

	xys := make(plotter.XYs, len(model.Items))
	names := make([]string, len(model.Items))
	for i, item := range model.Items {
		xys[i] = plotter.XY{
			X: item.Difficulty,
			Y: floats.Norm(item.Discrimination, 2),
		}
		names[i] = item.Name
	}

	p := plot.New()
	p.Title.Text = "Exercise map"
	p.X.Label.Text = "Difficulty"
	p.Y.Label.Text = "Discrimination"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("exercise plot: %w", err)
	}
	scatter.GlyphStyle.Color = curvePalette[0]
	scatter.GlyphStyle.Radius = vg.Points(2.8)
	p.Add(scatter)

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
	if err != nil {
		return fmt.Errorf("exercise plot: %w", err)
	}
	p.Add(labels)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return fmt.Errorf("exercise plot %s: %w", outPath, err)
	}
	return nil
}
