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
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"sort"
)

var ErrEmptyMatrix = errors.New("empty matrix")

// Matrix represents a 2D slice of float64 values. NaN values
// are undefined and are rendered gray.
type Matrix [][]float64

// ScalingMethod represents the method used for scaling values
type ScalingMethod int

const (
	Linear ScalingMethod = iota
	Percentile
	Logarithmic
)

var undefinedColor = color.RGBA{160, 160, 160, 255}

// Heatmap renders a matrix as a PNG image where each value occupies
// a square cell. Low values are blue, high values are red.
func Heatmap(w io.Writer, matrix Matrix, cellSize int, method ScalingMethod) error {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return ErrEmptyMatrix
	}
	height := len(matrix)
	width := len(matrix[0])
	img := image.NewRGBA(image.Rect(0, 0, width*cellSize, height*cellSize))

	defined := definedValues(matrix)
	sort.Float64s(defined)
	var minVal, maxVal float64
	if len(defined) > 0 {
		minVal, maxVal = defined[0], defined[len(defined)-1]
	}

	for y, row := range matrix {
		for x, val := range row {
			cellColor := undefinedColor
			if !math.IsNaN(val) {
				scaledVal := scaleValue(val, minVal, maxVal, defined, method)
				r := uint8(scaledVal * 255)
				b := uint8((1 - scaledVal) * 255)
				cellColor = color.RGBA{r, 0, b, 255}
			}
			for dy := 0; dy < cellSize; dy++ {
				for dx := 0; dx < cellSize; dx++ {
					img.Set(x*cellSize+dx, y*cellSize+dy, cellColor)
				}
			}
		}
	}
	return png.Encode(w, img)
}

// SaveHeatmap is like Heatmap but it writes the image to a file
func SaveHeatmap(matrix Matrix, filename string, cellSize int, method ScalingMethod) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return Heatmap(f, matrix, cellSize, method)
}

func definedValues(matrix Matrix) []float64 {
	ans := make([]float64, 0, len(matrix)*len(matrix[0]))
	for _, row := range matrix {
		for _, v := range row {
			if !math.IsNaN(v) {
				ans = append(ans, v)
			}
		}
	}
	return ans
}

func scaleValue(val, minVal, maxVal float64, sorted []float64, method ScalingMethod) float64 {
	if maxVal == minVal {
		return 0.5
	}
	switch method {
	case Percentile:
		return percentileScale(val, sorted)
	case Logarithmic:
		return logScale(val, minVal, maxVal)
	default:
		return (val - minVal) / (maxVal - minVal)
	}
}

func percentileScale(val float64, sorted []float64) float64 {
	index := sort.SearchFloat64s(sorted, val)
	return float64(index) / float64(len(sorted)-1)
}

func logScale(val, minVal, maxVal float64) float64 {
	// shift so all the values are positive
	if minVal <= 0 {
		val -= minVal - 1
		maxVal -= minVal - 1
		minVal = 1
	}
	return (math.Log(val) - math.Log(minVal)) / (math.Log(maxVal) - math.Log(minVal))
}
