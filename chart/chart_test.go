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
	"bytes"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmapDimensions(t *testing.T) {
	m := Matrix{{1, 0.5, math.NaN()}, {0.5, 1, -0.2}}
	var buf bytes.Buffer
	require.NoError(t, Heatmap(&buf, m, 4, Linear))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	r, g, b, _ := img.At(9, 1).RGBA()
	assert.Equal(t, uint32(160), r>>8)
	assert.Equal(t, uint32(160), g>>8)
	assert.Equal(t, uint32(160), b>>8)

	r, _, b, _ = img.At(0, 0).RGBA()
	assert.Equal(t, uint32(255), r>>8)
	assert.Equal(t, uint32(0), b>>8)
}

func TestHeatmapScalingMethods(t *testing.T) {
	m := Matrix{{-1, 0}, {1, 2}}
	for _, method := range []ScalingMethod{Linear, Percentile, Logarithmic} {
		var buf bytes.Buffer
		assert.NoError(t, Heatmap(&buf, m, 1, method))
	}
}

func TestHeatmapConstantAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Heatmap(&buf, Matrix{{3, 3}}, 1, Linear))
	assert.ErrorIs(t, Heatmap(&buf, Matrix{}, 1, Linear), ErrEmptyMatrix)
}

func TestSaveHeatmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corr.png")
	require.NoError(t, SaveHeatmap(Matrix{{1}}, path, 10, Linear))
	assert.FileExists(t, path)
}

func TestBarsAndHistogram(t *testing.T) {
	bars := []Bar{{"Idade", 0.4}, {"Horas Extras_Sim", 0.35}, {"Salario", 0.25}}
	var buf bytes.Buffer
	require.NoError(t, HorizontalBars(&buf, "Importance", "", bars))
	_, err := png.Decode(&buf)
	assert.NoError(t, err)

	buf.Reset()
	require.NoError(t, VerticalBars(&buf, "Departures", "count", bars))
	assert.NotZero(t, buf.Len())

	buf.Reset()
	require.NoError(t, Histogram(&buf, "Idade", []float64{21, 25, 33, 40, 41, 58}, 4))
	assert.NotZero(t, buf.Len())

	assert.ErrorIs(t, HorizontalBars(&buf, "", "", nil), ErrEmptyMatrix)
	assert.ErrorIs(t, Histogram(&buf, "", nil, 3), ErrEmptyMatrix)
}
