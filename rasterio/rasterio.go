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

// Package rasterio defines the reader/writer boundary every pipeline stage
// reads from and writes to, plus in-memory, gob, GeoJSON and shapefile
// implementations of it.
//
// Grounded on the teacher's own persistence idiom: save.go's gob.Encoder/
// gob.Decoder pair for CTMData is adapted here into GobReader/GobWriter for
// rasters, and io.go's Outputter (vector output via ctessum/geom's
// encoding/shp plus jonas-p/go-shp field sizing) becomes ShapefileWriter
// for vector pour point / network output.
package rasterio

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spatialmodel/malstroem/raster"
)

// Reader is the capability set spec.md's raster input contract describes:
// shape, affine transform, CRS, an optional nodata sentinel and the value
// Read() substitutes for it. Interpreting what nodata means beyond
// substitution is the caller's responsibility; implementations only ever
// swap one value for another.
type Reader interface {
	Shape() (rows, cols int)
	Transform() raster.Transform
	CRS() string
	Nodata() (value float64, ok bool)
	NodataSubst() float64
	Read() (*raster.Raster[float32], error)
}

// Writer accepts a raster result of a pipeline stage. T is typically
// float32, float64, uint8 or int32 depending on the stage.
type Writer[T raster.Number] interface {
	Write(r *raster.Raster[T]) error
}

// Feature is one GeoJSON-style vector feature: a geometry plus flat
// properties, the shape assemble_pourpoints/geometric_pourpoint_network
// output is naturally expressed in.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Geometry is a minimal GeoJSON geometry: a type tag and loosely-typed
// coordinates (a point is []float64, a line string is [][]float64).
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// VectorWriter accepts a set of vector features, e.g. pour points or
// stream-network segments.
type VectorWriter interface {
	WriteFeatures(features []Feature) error
}

// MemReader reads a single raster already held in memory, useful for tests
// and for chaining pipeline stages without a round trip through storage.
// NodataValue, if set, names the sentinel Read() replaces with Subst.
type MemReader struct {
	R           *raster.Raster[float32]
	NodataValue *float64
	Subst       float64
}

func (m MemReader) Shape() (rows, cols int) {
	if m.R == nil {
		return 0, 0
	}
	return m.R.Rows, m.R.Cols
}

func (m MemReader) Transform() raster.Transform {
	if m.R == nil {
		return raster.Transform{}
	}
	return m.R.Transform
}

func (m MemReader) CRS() string {
	if m.R == nil {
		return ""
	}
	return m.R.CRS
}

func (m MemReader) Nodata() (value float64, ok bool) {
	if m.NodataValue == nil {
		return 0, false
	}
	return *m.NodataValue, true
}

func (m MemReader) NodataSubst() float64 { return m.Subst }

func (m MemReader) Read() (*raster.Raster[float32], error) {
	if m.R == nil {
		return nil, fmt.Errorf("malstroem: rasterio: MemReader has no raster set")
	}
	return substituteNodata(m.R, m.NodataValue, m.Subst), nil
}

// substituteNodata returns a copy of r with every cell equal to *nodata
// replaced by subst, or r itself when nodata is nil.
func substituteNodata(r *raster.Raster[float32], nodata *float64, subst float64) *raster.Raster[float32] {
	if nodata == nil {
		return r
	}
	nd, sub := float32(*nodata), float32(subst)
	out := &raster.Raster[float32]{
		Rows: r.Rows, Cols: r.Cols, Transform: r.Transform, CRS: r.CRS,
		Data: make([]float32, len(r.Data)),
	}
	for i, v := range r.Data {
		if v == nd {
			v = sub
		}
		out.Data[i] = v
	}
	return out
}

// MemWriter captures the last raster written to it.
type MemWriter[T raster.Number] struct {
	R *raster.Raster[T]
}

func (m *MemWriter[T]) Write(r *raster.Raster[T]) error {
	m.R = r
	return nil
}

// MemVectorWriter captures the last feature set written to it.
type MemVectorWriter struct {
	Features []Feature
}

func (m *MemVectorWriter) WriteFeatures(features []Feature) error {
	m.Features = features
	return nil
}

// gobRaster is the on-wire gob envelope for a raster, carrying its shape
// and transform alongside the flat data slice.
type gobRaster[T raster.Number] struct {
	Rows, Cols int
	Transform  raster.Transform
	CRS        string
	Data       []T
}

// GobWriter gob-encodes a raster to w, the format malstroem uses for
// intermediate results passed between pipeline runs.
type GobWriter[T raster.Number] struct {
	W io.Writer
}

func (g GobWriter[T]) Write(r *raster.Raster[T]) error {
	enc := gob.NewEncoder(g.W)
	payload := gobRaster[T]{Rows: r.Rows, Cols: r.Cols, Transform: r.Transform, CRS: r.CRS, Data: r.Data}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("malstroem: rasterio: gob encode: %w", err)
	}
	return nil
}

// GobReader decodes a gob-encoded float32 raster previously written by
// GobWriter[float32], implementing the Reader capability set. R is
// consumed at most once: the first call to Shape, Transform, CRS or Read
// decodes and caches the payload, so those stay answerable afterward.
// Nodata and NodataSubst answer from the struct fields without decoding.
// NodataValue, if set, names the sentinel Read() replaces with Subst.
type GobReader struct {
	R           io.Reader
	NodataValue *float64
	Subst       float64

	raw *raster.Raster[float32]
}

func (g *GobReader) decode() (*raster.Raster[float32], error) {
	if g.raw != nil {
		return g.raw, nil
	}
	r, err := (GobReaderT[float32]{R: g.R}).Read()
	if err != nil {
		return nil, err
	}
	g.raw = r
	return r, nil
}

func (g *GobReader) Shape() (rows, cols int) {
	r, err := g.decode()
	if err != nil {
		return 0, 0
	}
	return r.Rows, r.Cols
}

func (g *GobReader) Transform() raster.Transform {
	r, err := g.decode()
	if err != nil {
		return raster.Transform{}
	}
	return r.Transform
}

func (g *GobReader) CRS() string {
	r, err := g.decode()
	if err != nil {
		return ""
	}
	return r.CRS
}

func (g *GobReader) Nodata() (value float64, ok bool) {
	if g.NodataValue == nil {
		return 0, false
	}
	return *g.NodataValue, true
}

func (g *GobReader) NodataSubst() float64 { return g.Subst }

func (g *GobReader) Read() (*raster.Raster[float32], error) {
	r, err := g.decode()
	if err != nil {
		return nil, err
	}
	return substituteNodata(r, g.NodataValue, g.Subst), nil
}

// GobReaderT decodes a gob-encoded raster of any numeric element type
// previously written by GobWriter[T]. GobReader is the float32-specific
// case used where the Reader interface is required (e.g. DEM input);
// GobReaderT is for round-tripping the int32/uint8/float64 intermediates
// a pipeline run produces along the way.
type GobReaderT[T raster.Number] struct {
	R io.Reader
}

func (g GobReaderT[T]) Read() (*raster.Raster[T], error) {
	dec := gob.NewDecoder(g.R)
	var payload gobRaster[T]
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("malstroem: rasterio: gob decode: %w", err)
	}
	return &raster.Raster[T]{
		Rows: payload.Rows, Cols: payload.Cols,
		Transform: payload.Transform, CRS: payload.CRS, Data: payload.Data,
	}, nil
}

// GeoJSONWriter writes vector features as a single GeoJSON FeatureCollection.
type GeoJSONWriter struct {
	W io.Writer
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func (g GeoJSONWriter) WriteFeatures(features []Feature) error {
	fc := featureCollection{Type: "FeatureCollection", Features: features}
	enc := json.NewEncoder(g.W)
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("malstroem: rasterio: geojson encode: %w", err)
	}
	return nil
}
