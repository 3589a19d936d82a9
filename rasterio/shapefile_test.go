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

package rasterio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapefileWriterWritesPointFeatures(t *testing.T) {
	dir := t.TempDir()
	w := ShapefileWriter{Path: filepath.Join(dir, "pourpoints.shp")}

	features := []Feature{
		{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{10.5, 55.5}},
			Properties: map[string]interface{}{"bspot_area": 120.0, "bspot_dmax": 1.5},
		},
		{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{11.0, 56.0}},
			Properties: map[string]interface{}{"bspot_area": 2500.0, "bspot_dmax": 0.25},
		},
	}
	require.NoError(t, w.WriteFeatures(features))
}

func TestShapefileWriterEmptyFeaturesIsNoop(t *testing.T) {
	dir := t.TempDir()
	w := ShapefileWriter{Path: filepath.Join(dir, "empty.shp")}
	assert.NoError(t, w.WriteFeatures(nil))
}

func TestShpFieldFromArrayKeepsFieldName(t *testing.T) {
	field := shpFieldFromArray("area", []float64{0.001, 123456.0})
	assert.Equal(t, "area", field.String())
}
