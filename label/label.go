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

// Package label connects components in a boolean mask (C5) and reduces
// per-cell data to per-label statistics.
//
// Grounded on original_source/malstroem/algorithms/label.py:
// connected_components (8-connectivity union-find), label_stats,
// label_min_index/label_max_index (first-row-major-wins ties), label_count
// and keep_labels. The sum reduction uses gonum/floats.Sum, matching the
// pack's own use of gonum for numeric reductions.
package label

import (
	"math"

	"github.com/spatialmodel/malstroem/raster"
	"gonum.org/v1/gonum/floats"
)

// Connect labels the 8-connected non-zero components of mask. Background
// cells (mask value false) get label 0; components are numbered [1, n].
func Connect(mask *raster.Raster[uint8]) (labelled *raster.Raster[int32], n int32) {
	labelled = raster.New[int32](mask.Rows, mask.Cols, mask.Transform)
	uf := newUnionFind(mask.Rows * mask.Cols)

	for row := 0; row < mask.Rows; row++ {
		for col := 0; col < mask.Cols; col++ {
			if mask.At(row, col) == 0 {
				continue
			}
			idx := mask.Index(row, col)
			for dr := -1; dr <= 0; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc >= 0 {
						continue
					}
					nr, nc := row+dr, col+dc
					if !mask.InBounds(nr, nc) || mask.At(nr, nc) == 0 {
						continue
					}
					uf.union(idx, mask.Index(nr, nc))
				}
			}
		}
	}

	rootLabel := make(map[int]int32)
	var next int32 = 1
	for row := 0; row < mask.Rows; row++ {
		for col := 0; col < mask.Cols; col++ {
			if mask.At(row, col) == 0 {
				continue
			}
			idx := mask.Index(row, col)
			root := uf.find(idx)
			lbl, ok := rootLabel[root]
			if !ok {
				lbl = next
				rootLabel[root] = lbl
				next++
			}
			labelled.Set(row, col, lbl)
		}
	}
	return labelled, next - 1
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// Stats holds per-label reductions of a data raster over a label raster.
type Stats struct {
	Min, Max, Sum float64
	Count         int64
}

// ComputeStats reduces data over labelled, indexed [0, nlabels] (label 0 is
// the background and still gets a (possibly empty) entry).
func ComputeStats(data *raster.Raster[float64], labelled *raster.Raster[int32], nlabels int32) []Stats {
	stats := make([]Stats, nlabels+1)
	sums := make([][]float64, nlabels+1)
	for i := range stats {
		stats[i].Min = math.Inf(1)
		stats[i].Max = math.Inf(-1)
	}
	for row := 0; row < data.Rows; row++ {
		for col := 0; col < data.Cols; col++ {
			val := data.At(row, col)
			lbl := labelled.At(row, col)
			s := &stats[lbl]
			s.Count++
			sums[lbl] = append(sums[lbl], val)
			if val < s.Min {
				s.Min = val
			}
			if val > s.Max {
				s.Max = val
			}
		}
	}
	for lbl := range stats {
		stats[lbl].Sum = floats.Sum(sums[lbl])
	}
	return stats
}

// IndexedValue records a value and the cell it occurred at.
type IndexedValue struct {
	Value    float64
	Row, Col int
}

// MinIndex returns, for each label in [0, nlabels], the minimum data value
// and the first (row-major) cell at which it occurs. Labels with no cells
// get Row = Col = -1 and Value = +Inf.
func MinIndex(data *raster.Raster[float64], labelled *raster.Raster[int32], nlabels int32) []IndexedValue {
	out := make([]IndexedValue, nlabels+1)
	for i := range out {
		out[i] = IndexedValue{Value: math.Inf(1), Row: -1, Col: -1}
	}
	for row := 0; row < data.Rows; row++ {
		for col := 0; col < data.Cols; col++ {
			val := data.At(row, col)
			lbl := labelled.At(row, col)
			if val < out[lbl].Value {
				out[lbl] = IndexedValue{Value: val, Row: row, Col: col}
			}
		}
	}
	return out
}

// MaxIndex is MinIndex's maximum counterpart.
func MaxIndex(data *raster.Raster[float64], labelled *raster.Raster[int32], nlabels int32) []IndexedValue {
	out := make([]IndexedValue, nlabels+1)
	for i := range out {
		out[i] = IndexedValue{Value: math.Inf(-1), Row: -1, Col: -1}
	}
	for row := 0; row < data.Rows; row++ {
		for col := 0; col < data.Cols; col++ {
			val := data.At(row, col)
			lbl := labelled.At(row, col)
			if val > out[lbl].Value {
				out[lbl] = IndexedValue{Value: val, Row: row, Col: col}
			}
		}
	}
	return out
}

// Count returns, for each label in [0, nlabels], the number of cells
// carrying that label.
func Count(labelled *raster.Raster[int32], nlabels int32) []int64 {
	counts := make([]int64, nlabels+1)
	for _, lbl := range labelled.Data {
		counts[lbl]++
	}
	return counts
}

// KeepLabels returns a boolean mask marking cells whose label is flagged
// true in keep. Label 0 (background) is always excluded regardless of keep.
func KeepLabels(labelled *raster.Raster[int32], keep []bool) *raster.Raster[uint8] {
	out := raster.New[uint8](labelled.Rows, labelled.Cols, labelled.Transform)
	for i, lbl := range labelled.Data {
		if lbl != 0 && int(lbl) < len(keep) && keep[lbl] {
			out.Data[i] = 1
		}
	}
	return out
}
