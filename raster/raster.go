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

// Package raster holds the dense 2-D grid type shared by every stage of the
// malstroem hydrology pipeline, along with the affine cell-to-world
// transform and the handful of in-bounds/edge helpers the other packages
// build on.
package raster

import (
	"fmt"
	"math"
)

// Number is the set of element types a Raster can hold across the pipeline:
// float32 DEM input and flat-allowed fill, float64 no-flats fill and
// accumulation, uint8 flow direction codes, int32 labels.
type Number interface {
	~float32 | ~float64 | ~uint8 | ~int32
}

// Transform is the six-coefficient affine transform taking a
// (col+0.5, row+0.5) cell-center coordinate to world coordinates, in the
// same order GDAL geotransforms use: (X0, Dx, Rxy, Y0, Ryx, Dy).
type Transform struct {
	X0, Dx, Rxy float64
	Y0, Ryx, Dy float64
}

// CellCenter returns the world coordinate of the center of cell (row, col).
func (t Transform) CellCenter(row, col int) (x, y float64) {
	c := float64(col) + 0.5
	r := float64(row) + 0.5
	return t.X0 + t.Dx*c + t.Rxy*r, t.Y0 + t.Ryx*c + t.Dy*r
}

// CellSize returns the shared edge length of a (square) cell, returning
// ErrNonSquareCell if the two axis resolutions disagree by more than 1%.
func (t Transform) CellSize() (float64, error) {
	dx, dy := math.Abs(t.Dx), math.Abs(t.Dy)
	if dx == 0 || dy == 0 {
		return 0, fmt.Errorf("malstroem: raster: zero cell dimension (dx=%v, dy=%v)", t.Dx, t.Dy)
	}
	if math.Abs(dx-dy) > 0.01*dx {
		return 0, fmt.Errorf("%w: dx=%v dy=%v", ErrNonSquareCell, t.Dx, t.Dy)
	}
	return dx, nil
}

// ErrNonSquareCell is returned when a Transform's X and Y resolutions are
// not within 1% of each other, violating the "cells are square" assumption
// every stage of the pipeline relies on.
var ErrNonSquareCell = fmt.Errorf("malstroem: raster: cells are not square")

// Raster is a row-major dense grid of Rows x Cols cells of type T, sharing
// one Transform and coordinate reference system across a pipeline run.
type Raster[T Number] struct {
	Rows, Cols int
	Transform  Transform
	CRS        string
	Data       []T
}

// New allocates a zero-valued Raster of the given shape.
func New[T Number](rows, cols int, t Transform) *Raster[T] {
	return &Raster[T]{
		Rows:      rows,
		Cols:      cols,
		Transform: t,
		Data:      make([]T, rows*cols),
	}
}

// NewFilled allocates a Raster of the given shape with every cell set to v.
func NewFilled[T Number](rows, cols int, t Transform, v T) *Raster[T] {
	r := New[T](rows, cols, t)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

// Index returns the flat index of cell (row, col) into Data.
func (r *Raster[T]) Index(row, col int) int {
	return row*r.Cols + col
}

// InBounds reports whether (row, col) is a valid cell index.
func (r *Raster[T]) InBounds(row, col int) bool {
	return row >= 0 && row < r.Rows && col >= 0 && col < r.Cols
}

// At returns the value at (row, col). Only the flat index into Data is
// bounds-checked: it panics if that index is out of range, while an
// out-of-range column inside the data reads a cell of a neighbouring row.
func (r *Raster[T]) At(row, col int) T {
	return r.Data[r.Index(row, col)]
}

// Set assigns the value at (row, col).
func (r *Raster[T]) Set(row, col int, v T) {
	r.Data[r.Index(row, col)] = v
}

// SameShape reports whether two rasters share rows and columns, the
// precondition every multi-raster operation in the pipeline validates
// before it starts (§7 Validation errors: shape mismatch).
func SameShape[A, B Number](a *Raster[A], b *Raster[B]) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols
}

// RequireSameShape returns ErrShapeMismatch if a and b do not share shape.
func RequireSameShape[A, B Number](a *Raster[A], b *Raster[B]) error {
	if !SameShape(a, b) {
		return fmt.Errorf("%w: (%d,%d) vs (%d,%d)", ErrShapeMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return nil
}

// ErrShapeMismatch is returned when two rasters that are expected to share
// shape do not.
var ErrShapeMismatch = fmt.Errorf("malstroem: raster: shape mismatch")

// EdgeCells returns the (row, col) coordinates of every cell on the
// boundary of a rows x cols raster with no duplicates: the top row, then
// the bottom row, then the first and last cell of each middle row.
// It is the seed set the watershed painter (C6) starts from.
func EdgeCells(rows, cols int) [][2]int {
	var cells [][2]int
	if rows == 0 || cols == 0 {
		return cells
	}
	for c := 0; c < cols; c++ {
		cells = append(cells, [2]int{0, c})
	}
	if rows > 1 {
		for c := 0; c < cols; c++ {
			cells = append(cells, [2]int{rows - 1, c})
		}
	}
	for r := 1; r < rows-1; r++ {
		cells = append(cells, [2]int{r, 0})
		if cols > 1 {
			cells = append(cells, [2]int{r, cols - 1})
		}
	}
	return cells
}

// IsEdgeCell reports whether (row, col) lies on the boundary of a
// rows x cols raster.
func IsEdgeCell(rows, cols, row, col int) bool {
	return row == 0 || row == rows-1 || col == 0 || col == cols-1
}
