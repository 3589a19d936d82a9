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
	"math"

	"github.com/spatialmodel/malstroem/raster"
)

// SafeEpsilon computes the minimum safe (short, diag) elevation steps for
// TerrainNoFlats given the DEM's elevation range, per §4.1's "Minimum safe
// epsilon": short is sized so it is representable at the top of the
// elevation range, short = K * (nextafter(M, +Inf) - M) with K=1024 since
// TerrainNoFlats's output is 64-bit float, and diag = short * sqrt(2).
func SafeEpsilon(dem *raster.Raster[float32]) (short, diag float64) {
	var maxAbs float32
	for _, v := range dem.Data {
		a := v
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
		}
	}
	m := float64(maxAbs)
	next := math.Nextafter(m, math.Inf(1))
	short = (next - m) * 1024
	diag = short * math.Sqrt2
	return short, diag
}

// TerrainNoFlats produces a depressionless DEM in which, additionally,
// every interior cell is strictly greater than at least one neighbor by at
// least short (edge-sharing) or diag (corner-sharing), per §4.1. Output is
// float64 because the epsilon arithmetic needs the extra precision.
func TerrainNoFlats(dem *raster.Raster[float32], short, diag float64) *raster.Raster[float64] {
	filled := initializeNoFlats(dem)
	maxRow, maxCol := dem.Rows-2, dem.Cols-2
	if maxRow < 1 || maxCol < 1 {
		return filled
	}

	for {
		changed := false
		for order := sweepULtoLR; order <= sweepLLtoUR; order++ {
			if sweepNoFlats(dem, filled, order, maxRow, maxCol, short, diag) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return filled
}

func initializeNoFlats(dem *raster.Raster[float32]) *raster.Raster[float64] {
	filled := raster.NewFilled[float64](dem.Rows, dem.Cols, dem.Transform, math.Inf(1))
	rows, cols := dem.Rows, dem.Cols
	for c := 0; c < cols; c++ {
		filled.Set(0, c, float64(dem.At(0, c)))
		filled.Set(rows-1, c, float64(dem.At(rows-1, c)))
	}
	for r := 0; r < rows; r++ {
		filled.Set(r, 0, float64(dem.At(r, 0)))
		filled.Set(r, cols-1, float64(dem.At(r, cols-1)))
	}
	return filled
}

func sweepNoFlats(dem *raster.Raster[float32], filled *raster.Raster[float64], order sweepOrder, maxRow, maxCol int, short, diag float64) bool {
	fromRow, toRow, fromCol, toCol := sweepBounds(order, maxRow, maxCol)
	rowStep, colStep := step(fromRow, toRow), step(fromCol, toCol)

	changed := false
	for r := fromRow; ; r += rowStep {
		for c := fromCol; ; c += colStep {
			if fillCellNoFlats(dem, filled, r, c, short, diag) {
				changed = true
			}
			if c == toCol {
				break
			}
		}
		if r == toRow {
			break
		}
	}
	return changed
}

func fillCellNoFlats(dem *raster.Raster[float32], filled *raster.Raster[float64], row, col int, short, diag float64) bool {
	filledVal := filled.At(row, col)
	demVal := float64(dem.At(row, col))
	if filledVal <= demVal {
		return false
	}

	diagMin := math.Min(
		math.Min(filled.At(row-1, col-1), filled.At(row-1, col+1)),
		math.Min(filled.At(row+1, col-1), filled.At(row+1, col+1)),
	) + diag
	edgeMin := math.Min(
		math.Min(filled.At(row-1, col), filled.At(row, col-1)),
		math.Min(filled.At(row, col+1), filled.At(row+1, col)),
	) + short

	min := math.Min(diagMin, edgeMin)
	min = math.Min(min, filledVal)

	newVal := math.Max(min, demVal)
	if newVal == filledVal {
		return false
	}
	filled.Set(row, col, newVal)
	return true
}
