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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spatialmodel/malstroem/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGobRoundTrip(t *testing.T) {
	r := raster.New[float32](2, 2, raster.Transform{Dx: 1, Dy: -1})
	r.Data = []float32{1, 2, 3, 4}
	r.CRS = "EPSG:25832"

	var buf bytes.Buffer
	require.NoError(t, GobWriter[float32]{W: &buf}.Write(r))

	gr := &GobReader{R: &buf}
	readBack, err := gr.Read()
	require.NoError(t, err)
	assert.Equal(t, r.Rows, readBack.Rows)
	assert.Equal(t, r.Cols, readBack.Cols)
	assert.Equal(t, r.Data, readBack.Data)
	assert.Equal(t, r.CRS, readBack.CRS)

	rows, cols := gr.Shape()
	assert.Equal(t, r.Rows, rows)
	assert.Equal(t, r.Cols, cols)
	assert.Equal(t, r.Transform, gr.Transform())
	assert.Equal(t, r.CRS, gr.CRS())
	_, ok := gr.Nodata()
	assert.False(t, ok)
}

func TestGobReaderSubstitutesNodata(t *testing.T) {
	r := raster.New[float32](1, 3, raster.Transform{Dx: 1, Dy: -1})
	r.Data = []float32{-9999, 2, -9999}

	var buf bytes.Buffer
	require.NoError(t, GobWriter[float32]{W: &buf}.Write(r))

	nodata := -9999.0
	gr := &GobReader{R: &buf, NodataValue: &nodata, Subst: 0}
	readBack, err := gr.Read()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 2, 0}, readBack.Data)

	value, ok := gr.Nodata()
	require.True(t, ok)
	assert.Equal(t, -9999.0, value)
	assert.Equal(t, 0.0, gr.NodataSubst())
}

func TestGobReaderTRoundTripsNonFloat32Types(t *testing.T) {
	r := raster.New[int32](2, 3, raster.Transform{Dx: 2, Dy: -2})
	r.Data = []int32{1, 2, 3, 4, 5, 6}

	var buf bytes.Buffer
	require.NoError(t, GobWriter[int32]{W: &buf}.Write(r))

	readBack, err := GobReaderT[int32]{R: &buf}.Read()
	require.NoError(t, err)
	assert.Equal(t, r.Rows, readBack.Rows)
	assert.Equal(t, r.Cols, readBack.Cols)
	assert.Equal(t, r.Data, readBack.Data)
}

func TestMemReaderRequiresRaster(t *testing.T) {
	_, err := MemReader{}.Read()
	assert.Error(t, err)
}

func TestMemWriterCapturesLastWrite(t *testing.T) {
	w := &MemWriter[int32]{}
	r := raster.New[int32](1, 1, raster.Transform{})
	require.NoError(t, w.Write(r))
	assert.Same(t, r, w.R)
}

func TestGeoJSONWriterEmitsFeatureCollection(t *testing.T) {
	var buf bytes.Buffer
	features := []Feature{
		{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{1, 2}},
			Properties: map[string]interface{}{"bspot_id": 0},
		},
	}
	require.NoError(t, GeoJSONWriter{W: &buf}.WriteFeatures(features))

	var decoded featureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 1)
}

func TestMemVectorWriterCapturesFeatures(t *testing.T) {
	w := &MemVectorWriter{}
	features := []Feature{{Type: "Feature"}}
	require.NoError(t, w.WriteFeatures(features))
	assert.Len(t, w.Features, 1)
}
