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

// Package watershed paints partially-labelled cells with the label of
// their nearest downstream labelled cell (C6), used to delineate the
// catchment area feeding each pour point or stream segment.
//
// Grounded on original_source/malstroem/algorithms/flow.py's
// assign_watersheds_upstream/watersheds_from_labels: an explicit stack of
// (cell, carried-label) pairs is seeded from the raster edges and walked
// upstream against the flow-direction raster, so the whole raster is
// processed without recursion.
package watershed

import (
	"github.com/spatialmodel/malstroem/flowdir"
	"github.com/spatialmodel/malstroem/raster"
)

type workItem struct {
	row, col int
	label    int32
}

// Paint propagates labels upstream along f starting from every raster edge
// cell, assigning unassigned cells (those equal to unassigned in labelled)
// the label of the first labelled cell found downstream of them. labelled
// is modified in place.
func Paint(f *raster.Raster[uint8], labelled *raster.Raster[int32], unassigned int32) {
	var stack []workItem
	for _, edge := range raster.EdgeCells(f.Rows, f.Cols) {
		stack = append(stack, workItem{row: edge[0], col: edge[1], label: unassigned})
	}

	for len(stack) > 0 {
		n := len(stack) - 1
		item := stack[n]
		stack = stack[:n]

		lbl := labelled.At(item.row, item.col)
		if lbl == unassigned {
			labelled.Set(item.row, item.col, item.label)
			lbl = item.label
		}

		for _, up := range flowdir.Upstream(f, item.row, item.col) {
			stack = append(stack, workItem{row: up[0], col: up[1], label: lbl})
		}
	}
}

// FromLabels is a convenience wrapper over Paint that clones labelled so
// the input raster is left untouched.
func FromLabels(f *raster.Raster[uint8], labelled *raster.Raster[int32], unassigned int32) *raster.Raster[int32] {
	out := raster.New[int32](labelled.Rows, labelled.Cols, labelled.Transform)
	copy(out.Data, labelled.Data)
	Paint(f, out, unassigned)
	return out
}
