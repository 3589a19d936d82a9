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

package label

import (
	"testing"

	"github.com/spatialmodel/malstroem/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskFromRows(rows [][]uint8) *raster.Raster[uint8] {
	r := raster.New[uint8](len(rows), len(rows[0]), raster.Transform{Dx: 1, Dy: -1})
	for row, vals := range rows {
		for col, v := range vals {
			r.Set(row, col, v)
		}
	}
	return r
}

func dataFromRows(rows [][]float64) *raster.Raster[float64] {
	r := raster.New[float64](len(rows), len(rows[0]), raster.Transform{Dx: 1, Dy: -1})
	for row, vals := range rows {
		for col, v := range vals {
			r.Set(row, col, v)
		}
	}
	return r
}

func TestConnectDiagonalCellsFormOneComponent(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	labelled, n := Connect(mask)
	require.Equal(t, int32(1), n, "diagonal touch merges into one 8-connected component")
	first := labelled.At(0, 0)
	for row := 0; row < 3; row++ {
		assert.Equal(t, first, labelled.At(row, row))
	}
}

func TestConnectSeparateComponents(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{1, 0, 1},
		{0, 0, 0},
		{1, 0, 1},
	})
	_, n := Connect(mask)
	assert.Equal(t, int32(4), n)
}

func TestConnectBackgroundIsZero(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{0, 0},
		{0, 1},
	})
	labelled, n := Connect(mask)
	assert.Equal(t, int32(1), n)
	assert.Equal(t, int32(0), labelled.At(0, 0))
	assert.NotEqual(t, int32(0), labelled.At(1, 1))
}

func TestComputeStats(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{1, 1},
		{0, 0},
	})
	labelled, n := Connect(mask)
	data := dataFromRows([][]float64{
		{3, 5},
		{100, 100},
	})
	stats := ComputeStats(data, labelled, n)
	require.Len(t, stats, int(n)+1)
	s := stats[labelled.At(0, 0)]
	assert.Equal(t, 3.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 8.0, s.Sum)
	assert.Equal(t, int64(2), s.Count)
}

func TestMinIndexFirstRowMajorWins(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{1, 1},
		{1, 1},
	})
	labelled, n := Connect(mask)
	data := dataFromRows([][]float64{
		{2, 1},
		{1, 2},
	})
	mins := MinIndex(data, labelled, n)
	lbl := labelled.At(0, 0)
	assert.Equal(t, 1.0, mins[lbl].Value)
	assert.Equal(t, 0, mins[lbl].Row)
	assert.Equal(t, 1, mins[lbl].Col)
}

func TestKeepLabelsExcludesBackground(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{1, 0},
		{0, 1},
	})
	labelled, n := Connect(mask)
	keep := make([]bool, n+1)
	for i := range keep {
		keep[i] = true
	}
	kept := KeepLabels(labelled, keep)
	assert.Equal(t, uint8(0), kept.At(0, 1))
	assert.Equal(t, uint8(1), kept.At(0, 0))
	assert.Equal(t, uint8(1), kept.At(1, 1))
}

func TestCount(t *testing.T) {
	mask := maskFromRows([][]uint8{
		{1, 1, 0},
		{0, 0, 1},
	})
	labelled, n := Connect(mask)
	counts := Count(labelled, n)
	total := int64(0)
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, int64(6), total)
}
