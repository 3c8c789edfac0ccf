// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chart

import (
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Bar is a single labeled value of a bar chart
type Bar struct {
	Label string
	Value float64
}

func writePlot(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// HorizontalBars draws bars from top to bottom in the order of the input.
// It is suitable e.g. for feature importances.
func HorizontalBars(w io.Writer, title, xLabel string, bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptyMatrix
	}
	// plot's Y axis goes upwards
	rev := slices.Clone(bars)
	slices.Reverse(rev)
	values := make(plotter.Values, len(rev))
	names := make([]string, len(rev))
	for i, b := range rev {
		values[i] = b.Value
		names[i] = b.Label
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	bc, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return fmt.Errorf("failed to create bar chart: %w", err)
	}
	bc.Horizontal = true
	p.Add(bc)
	p.NominalY(names...)
	height := max(DefaultHeight, vg.Length(len(bars))*vg.Points(18))
	return writePlot(w, p, DefaultWidth, height)
}

// VerticalBars draws labeled bars from left to right
func VerticalBars(w io.Writer, title, yLabel string, bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptyMatrix
	}
	values := make(plotter.Values, len(bars))
	names := make([]string, len(bars))
	for i, b := range bars {
		values[i] = b.Value
		names[i] = b.Label
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	bc, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to create bar chart: %w", err)
	}
	p.Add(bc)
	p.NominalX(names...)
	return writePlot(w, p, DefaultWidth, DefaultHeight)
}

// Histogram draws a histogram of values with the provided number of bins
func Histogram(w io.Writer, title string, values []float64, bins int) error {
	if len(values) == 0 {
		return ErrEmptyMatrix
	}
	p := plot.New()
	p.Title.Text = title
	h, err := plotter.NewHist(plotter.Values(values), max(bins, 1))
	if err != nil {
		return fmt.Errorf("failed to create histogram: %w", err)
	}
	p.Add(h)
	return writePlot(w, p, DefaultWidth, DefaultHeight)
}
