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

package fill

import (
	"testing"

	"github.com/spatialmodel/malstroem/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demFromRows(rows [][]float32) *raster.Raster[float32] {
	r := raster.New[float32](len(rows), len(rows[0]), raster.Transform{Dx: 1, Dy: -1})
	for row, vals := range rows {
		for col, v := range vals {
			r.Set(row, col, v)
		}
	}
	return r
}

func TestTerrainFillsPit(t *testing.T) {
	dem := demFromRows([][]float32{
		{10, 10, 10, 10, 10},
		{10, 5, 5, 5, 10},
		{10, 5, 1, 5, 10},
		{10, 5, 5, 5, 10},
		{10, 10, 10, 10, 10},
	})
	filled := Terrain(dem)

	for i := range filled.Data {
		require.GreaterOrEqual(t, filled.Data[i], dem.Data[i])
	}
	assert.Equal(t, float32(10), filled.At(2, 2))
}

func TestTerrainMonotonicSlopeIsIdentity(t *testing.T) {
	dem := demFromRows([][]float32{
		{5, 4, 3},
		{4, 3, 2},
		{3, 2, 1},
	})
	filled := Terrain(dem)
	for i := range filled.Data {
		assert.Equal(t, dem.Data[i], filled.Data[i])
	}
}

func TestTerrainIdempotent(t *testing.T) {
	dem := demFromRows([][]float32{
		{10, 10, 10, 10, 10},
		{10, 5, 5, 5, 10},
		{10, 5, 1, 5, 10},
		{10, 5, 5, 5, 10},
		{10, 10, 10, 10, 10},
	})
	filled := Terrain(dem)
	refilled := Terrain(filled)
	assert.Equal(t, filled.Data, refilled.Data)
}

func TestTerrainMaxUnchanged(t *testing.T) {
	dem := demFromRows([][]float32{
		{10, 10, 10, 10, 10},
		{10, 5, 5, 5, 10},
		{10, 5, 1, 5, 10},
		{10, 5, 5, 5, 10},
		{10, 10, 10, 10, 10},
	})
	filled := Terrain(dem)

	maxDem, maxFilled := dem.Data[0], filled.Data[0]
	for _, v := range dem.Data {
		if v > maxDem {
			maxDem = v
		}
	}
	for _, v := range filled.Data {
		if v > maxFilled {
			maxFilled = v
		}
	}
	assert.Equal(t, maxDem, maxFilled)
}

func TestTerrainNoFlatsEnforcesMinimumSlope(t *testing.T) {
	dem := demFromRows([][]float32{
		{10, 10, 10, 10, 10},
		{10, 5, 5, 5, 10},
		{10, 5, 1, 5, 10},
		{10, 5, 5, 5, 10},
		{10, 10, 10, 10, 10},
	})
	short, diag := SafeEpsilon(dem)
	require.Greater(t, short, 0.0)
	require.InDelta(t, short*1.4142135623730951, diag, 1e-12)

	filled := TerrainNoFlats(dem, short, diag)
	for row := 1; row < filled.Rows-1; row++ {
		for col := 1; col < filled.Cols-1; col++ {
			v := filled.At(row, col)
			minStep := short
			stepsOK := false
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					n := filled.At(row+dr, col+dc)
					need := minStep
					if dr != 0 && dc != 0 {
						need = diag
					}
					if n >= v {
						continue
					}
					if v-n >= need-1e-9 {
						stepsOK = true
					}
				}
			}
			require.True(t, stepsOK, "cell (%d,%d) has no sufficiently steep downhill neighbor", row, col)
		}
	}
}
