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

// Package fill produces a depressionless DEM, in both the flat-allowed
// variant (Terrain) and the no-flats variant with an enforced minimum slope
// (TerrainNoFlats), per spec §4.1 (C2).
//
// Grounded on original_source/malstroem/algorithms/fill.py, including its
// documented sweep-count bug (§9): this package ORs the four sweep results
// of a cycle together, fixing that bug, rather than reproducing the
// reference's own loop-continuation flag handling.
package fill

import (
	"math"

	"github.com/spatialmodel/malstroem/raster"
)

// sweepOrder enumerates the four rasterization orders one convergence cycle
// visits the interior in: upper-left to lower-right, the reverse, and the
// two anti-diagonal orders.
type sweepOrder int

const (
	sweepULtoLR sweepOrder = iota
	sweepLRtoUL
	sweepURtoLL
	sweepLLtoUR
)

func sweepBounds(order sweepOrder, maxRow, maxCol int) (fromRow, toRow, fromCol, toCol int) {
	switch order {
	case sweepULtoLR:
		return 1, maxRow, 1, maxCol
	case sweepLRtoUL:
		return maxRow, 1, maxCol, 1
	case sweepURtoLL:
		return 1, maxRow, maxCol, 1
	default: // sweepLLtoUR
		return maxRow, 1, 1, maxCol
	}
}

func step(from, to int) int {
	if to > from {
		return 1
	}
	return -1
}

// Terrain produces a depressionless DEM: every cell gets a non-uphill path
// to the raster edge. Uses the Planchon-Darboux sweep algorithm of §4.1.
func Terrain(dem *raster.Raster[float32]) *raster.Raster[float32] {
	filled := initializeFlatAllowed(dem)
	maxRow, maxCol := dem.Rows-2, dem.Cols-2
	if maxRow < 1 || maxCol < 1 {
		return filled
	}

	for {
		changed := false
		for order := sweepULtoLR; order <= sweepLLtoUR; order++ {
			if sweepFlat(dem, filled, order, maxRow, maxCol) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return filled
}

func initializeFlatAllowed(dem *raster.Raster[float32]) *raster.Raster[float32] {
	filled := raster.NewFilled[float32](dem.Rows, dem.Cols, dem.Transform, float32(math.Inf(1)))
	copyBorder(dem, filled)
	return filled
}

func copyBorder[T raster.Number](dem *raster.Raster[T], filled *raster.Raster[T]) {
	rows, cols := dem.Rows, dem.Cols
	for c := 0; c < cols; c++ {
		filled.Set(0, c, dem.At(0, c))
		filled.Set(rows-1, c, dem.At(rows-1, c))
	}
	for r := 0; r < rows; r++ {
		filled.Set(r, 0, dem.At(r, 0))
		filled.Set(r, cols-1, dem.At(r, cols-1))
	}
}

func sweepFlat(dem, filled *raster.Raster[float32], order sweepOrder, maxRow, maxCol int) bool {
	fromRow, toRow, fromCol, toCol := sweepBounds(order, maxRow, maxCol)
	rowStep, colStep := step(fromRow, toRow), step(fromCol, toCol)

	changed := false
	for r := fromRow; ; r += rowStep {
		for c := fromCol; ; c += colStep {
			if fillCellFlat(dem, filled, r, c) {
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

func fillCellFlat(dem, filled *raster.Raster[float32], row, col int) bool {
	filledVal := filled.At(row, col)
	demVal := dem.At(row, col)
	if filledVal <= demVal {
		return false
	}

	min := filledVal
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if v := filled.At(row+dr, col+dc); v < min {
				min = v
			}
		}
	}

	newVal := demVal
	if min > demVal {
		newVal = min
	}
	if newVal == filledVal {
		return false
	}
	filled.Set(row, col, newVal)
	return true
}
