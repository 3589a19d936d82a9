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

// Package flowdir computes D8 steepest-descent flow direction (C3) and
// holds the direction encoding every other stage of the pipeline depends
// on by its literal byte value.
//
// Grounded algorithmically on the eight-direction delta table and
// steepest-descent scan of original_source/malstroem/algorithms/flow.py
// (itself citing the SAGA GIS D8_Flow_Analysis implementation), and on the
// neighbor-delta idiom of the jblindsay-go-spatial raster tools in the
// retrieval pack.
package flowdir

import (
	"fmt"
	"math"

	"github.com/spatialmodel/malstroem/raster"
)

// Dir is a D8 flow direction code. The values are fixed by spec: other
// packages compare against them directly, so they must never be reordered.
type Dir uint8

// The eight compass directions plus NoDir, in code order. Ties in the
// steepest-descent scan resolve to the first of these in iteration order.
const (
	Up Dir = iota
	UpRight
	Right
	DownRight
	Down
	DownLeft
	Left
	UpLeft
	NoDir
)

var names = [...]string{"Up", "UpRight", "Right", "DownRight", "Down", "DownLeft", "Left", "UpLeft", "NoDir"}

func (d Dir) String() string {
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("Dir(%d)", uint8(d))
}

// Opposite returns the direction pointing back the way d came from.
func Opposite(d Dir) Dir {
	return Dir((uint8(d) + 4) % 8)
}

// deltas holds the (row, col) unit step for each direction, in code order.
// NoDir has no delta and is handled separately by Delta.
var deltas = [8][2]int{
	{-1, 0},  // Up
	{-1, 1},  // UpRight
	{0, 1},   // Right
	{1, 1},   // DownRight
	{1, 0},   // Down
	{1, -1},  // DownLeft
	{0, -1},  // Left
	{-1, -1}, // UpLeft
}

// isDiagonal marks the four corner-sharing directions, whose elevation
// difference is divided by sqrt(2) before comparison.
var isDiagonal = [8]bool{false, true, false, true, false, true, false, true}

// Delta returns the (row, col) step for d and true, or (0, 0, false) for
// NoDir or an unknown code.
func Delta(d Dir) (dr, dc int, ok bool) {
	if d >= 8 {
		return 0, 0, false
	}
	return deltas[d][0], deltas[d][1], true
}

// Neighbor returns the cell one step from (row, col) in direction d.
func Neighbor(row, col int, d Dir) (int, int, bool) {
	dr, dc, ok := Delta(d)
	if !ok {
		return 0, 0, false
	}
	return row + dr, col + dc, true
}

const sqrt2 = math.Sqrt2

// Compute derives the D8 flow-direction raster from a filled, no-flats
// terrain model (§4.2). Ties among the eight neighbor slopes resolve to the
// first maximum in code order (Up, UpRight, Right, ...). With
// edgesFlowOutward, boundary cells are hardcoded to point off the raster
// (corners use the matching diagonal code); without it they are left as
// NoDir. Boundary cells are never D8-scanned.
func Compute(terrain *raster.Raster[float64], edgesFlowOutward bool) *raster.Raster[uint8] {
	out := raster.New[uint8](terrain.Rows, terrain.Cols, terrain.Transform)
	for i := range out.Data {
		out.Data[i] = uint8(NoDir)
	}

	for row := 1; row < terrain.Rows-1; row++ {
		for col := 1; col < terrain.Cols-1; col++ {
			out.Set(row, col, uint8(steepest(terrain, row, col)))
		}
	}

	if edgesFlowOutward {
		setEdgesFlowOutward(out)
	}
	return out
}

func steepest(terrain *raster.Raster[float64], row, col int) Dir {
	z := terrain.At(row, col)
	best := NoDir
	bestDz := 0.0
	for d := Dir(0); d < 8; d++ {
		nr, nc, _ := Neighbor(row, col, d)
		dz := z - terrain.At(nr, nc)
		if isDiagonal[d] {
			dz /= sqrt2
		}
		if dz > bestDz {
			bestDz = dz
			best = d
		}
	}
	return best
}

func setEdgesFlowOutward(f *raster.Raster[uint8]) {
	maxR, maxC := f.Rows-1, f.Cols-1
	for c := 0; c <= maxC; c++ {
		f.Set(0, c, uint8(Up))
		f.Set(maxR, c, uint8(Down))
	}
	for r := 0; r <= maxR; r++ {
		f.Set(r, 0, uint8(Left))
		f.Set(r, maxC, uint8(Right))
	}
	f.Set(0, 0, uint8(UpLeft))
	f.Set(0, maxC, uint8(UpRight))
	f.Set(maxR, 0, uint8(DownLeft))
	f.Set(maxR, maxC, uint8(DownRight))
}

// IsUpstream reports whether the neighbor of (row, col) in direction d
// drains into (row, col), i.e. that neighbor's own flow direction is the
// opposite of d.
func IsUpstream(f *raster.Raster[uint8], row, col int, d Dir) bool {
	nr, nc, _ := Neighbor(row, col, d)
	if !f.InBounds(nr, nc) {
		return false
	}
	nd := Dir(f.At(nr, nc))
	if nd == NoDir {
		return false
	}
	return Opposite(d) == nd
}

// Upstream returns the cells that drain directly into (row, col).
func Upstream(f *raster.Raster[uint8], row, col int) [][2]int {
	var up [][2]int
	for d := Dir(0); d < 8; d++ {
		if IsUpstream(f, row, col, d) {
			nr, nc, _ := Neighbor(row, col, d)
			up = append(up, [2]int{nr, nc})
		}
	}
	return up
}

// TraceDownstream walks from (row, col) following flow directions until it
// exits the raster (at NoDir or an edge cell with no further neighbor),
// calling visit for every cell visited, inclusive of the starting cell.
// It stops early if visit returns false.
func TraceDownstream(f *raster.Raster[uint8], row, col int, visit func(row, col int) bool) {
	for f.InBounds(row, col) {
		if !visit(row, col) {
			return
		}
		d := Dir(f.At(row, col))
		nr, nc, ok := Neighbor(row, col, d)
		if !ok {
			return
		}
		row, col = nr, nc
	}
}
