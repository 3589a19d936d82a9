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

// Package accum computes flow accumulation (C4) from a D8 flow-direction
// raster: for each cell, the number of cells (including itself) that drain
// into it.
//
// Grounded on original_source/malstroem/algorithms/flow.py's
// accumulated_flow/trace_accumulated_flow/upstream_cells: every leaf cell
// (no upstream neighbors) seeds a downstream trace that accumulates sums
// and halts as soon as it meets a cell still missing a resolved upstream
// contribution, leaving that cell for a later leaf's trace to finish.
package accum

import (
	"github.com/spatialmodel/malstroem/flowdir"
	"github.com/spatialmodel/malstroem/raster"
)

// Compute returns the flow accumulation raster for f: cell value is the
// count of cells, including itself, whose flow path passes through it.
func Compute(f *raster.Raster[uint8]) *raster.Raster[float64] {
	accum := raster.New[float64](f.Rows, f.Cols, f.Transform)
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if len(flowdir.Upstream(f, row, col)) == 0 {
				traceAccumulatedFlow(f, accum, row, col)
			}
		}
	}
	return accum
}

// traceAccumulatedFlow walks downstream from (row, col), writing resolved
// accumulation values as it goes, and stops the moment it reaches a cell
// whose upstream neighbors are not all resolved yet.
func traceAccumulatedFlow(f *raster.Raster[uint8], accum *raster.Raster[float64], row, col int) {
	for f.InBounds(row, col) {
		up := flowdir.Upstream(f, row, col)
		sum := 0.0
		if len(up) > 0 {
			resolved, ok := sumResolved(accum, up)
			if !ok {
				return
			}
			sum = resolved
		}
		accum.Set(row, col, sum+1)

		d := flowdir.Dir(f.At(row, col))
		nr, nc, ok := flowdir.Neighbor(row, col, d)
		if !ok {
			return
		}
		row, col = nr, nc
	}
}

func sumResolved(accum *raster.Raster[float64], cells [][2]int) (float64, bool) {
	var sum float64
	for _, c := range cells {
		v := accum.At(c[0], c[1])
		if v <= 0 {
			return 0, false
		}
		sum += v
	}
	return sum, true
}
