/*
Copyright © 2016 the malstroem authors.
This file is part of malstroem.

malstroem is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

malstroem is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with malstroem.  If not, see <http://www.gnu.org/licenses/>.
*/

package pourpoint

import (
	"testing"

	"github.com/spatialmodel/malstroem/label"
	"github.com/spatialmodel/malstroem/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMaxAccumulation(t *testing.T) {
	transform := raster.Transform{Dx: 2, Dy: -2}
	labelled := raster.New[int32](2, 2, transform)
	labelled.Data = []int32{1, 1, 1, 1}

	depths := raster.New[float64](2, 2, transform)
	depths.Data = []float64{1, 2, 3, 0.5}

	acc := raster.New[float64](2, 2, transform)
	acc.Data = []float64{4, 1, 10, 2}

	watershedCounts := []int64{0, 100}

	points, err := Extract(MaxAccumulation, depths, labelled, 1, watershedCounts, acc, nil)
	require.NoError(t, err)
	require.Len(t, points, 1)

	p := points[0]
	assert.Equal(t, int32(0), p.BspotID)
	assert.Equal(t, 1, p.Row)
	assert.Equal(t, 0, p.Col)
	assert.Equal(t, 3.0, p.MaxDepth)
	assert.Equal(t, 4*4.0, p.Area)
	assert.Equal(t, (1+2+3+0.5)*4, p.Volume)
	assert.Equal(t, 400.0, p.WatershedArea)
	assert.InDelta(t, 1000*p.Volume/p.WatershedArea, p.FillUpMM, 1e-9)
}

func TestExtractMinFilledNoFlats(t *testing.T) {
	transform := raster.Transform{Dx: 1, Dy: -1}
	labelled := raster.New[int32](2, 2, transform)
	labelled.Data = []int32{1, 1, 1, 1}
	depths := raster.New[float64](2, 2, transform)
	depths.Data = []float64{1, 1, 1, 1}

	filledNoFlats := raster.New[float64](2, 2, transform)
	filledNoFlats.Data = []float64{9, 8, 7, 6}
	watershedCounts := []int64{0, 4}

	points, err := Extract(MinFilledNoFlats, depths, labelled, 1, watershedCounts, nil, filledNoFlats)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].Row)
	assert.Equal(t, 1, points[0].Col)
}

func TestFilterKeepsAboveThreshold(t *testing.T) {
	rawStats := []label.Stats{
		{}, // background
		{Min: 0, Max: 1, Sum: 10, Count: 10},
		{Min: 0, Max: 1, Sum: 1, Count: 1},
	}
	keep := Filter(func(s BluespotStats) bool {
		return s.Area >= 5
	}, 1.0, rawStats)
	require.Len(t, keep, 3)
	assert.False(t, keep[0])
	assert.True(t, keep[1])
	assert.False(t, keep[2])
}
