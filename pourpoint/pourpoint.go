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

// Package pourpoint locates one outlet cell per depression (C7) and
// assembles the derived attributes that describe it: bluespot depth/area/
// volume, local watershed area, and the rainfall depth needed to fill it.
//
// Grounded on original_source/malstroem/bluespots.py's
// assemble_pourpoints/BluespotTool.process: the outlet is either the cell
// of maximum accumulated flow (Policy MaxAccumulation) or the cell of
// minimum no-flats-filled elevation (Policy MinFilledNoFlats), matching
// that module's input_accum/input_dem branch.
package pourpoint

import (
	"fmt"

	"github.com/spatialmodel/malstroem/label"
	"github.com/spatialmodel/malstroem/raster"
)

// Policy selects which derived raster locates a depression's outlet cell.
type Policy int

const (
	// MaxAccumulation picks the cell of greatest accumulated flow.
	MaxAccumulation Policy = iota
	// MinFilledNoFlats picks the cell of least no-flats-filled elevation.
	MinFilledNoFlats
)

// PourPoint is one depression's outlet and its derived attributes.
type PourPoint struct {
	BspotID      int32
	Row, Col     int
	MaxDepth     float64 // bspot_dmax
	Area         float64 // bspot_area, square map units
	Volume       float64 // bspot_vol, cubic map units
	WatershedArea float64 // wshed_area, square map units
	FillUpMM     float64 // bspot_fumm: mm rain to fill from local watershed
}

// Extract locates the outlet of every label in [1, nlabels] using policy,
// and assembles each one's derived attributes from depths (the bluespot
// depth raster), watershedCounts (per-label watershed cell counts from
// watershed.Paint + label.Count) and either an accumulation or a no-flats
// filled-terrain raster, selected by policy.
func Extract(policy Policy, depths *raster.Raster[float64], labelled *raster.Raster[int32], nlabels int32,
	watershedCounts []int64, acc *raster.Raster[float64], filledNoFlats *raster.Raster[float64]) ([]PourPoint, error) {

	cellSize, err := labelled.Transform.CellSize()
	if err != nil {
		return nil, fmt.Errorf("malstroem: pourpoint: %w", err)
	}
	cellArea := cellSize * cellSize
	bspotStats := label.ComputeStats(depths, labelled, nlabels)

	var outlets []label.IndexedValue
	switch policy {
	case MaxAccumulation:
		outlets = label.MaxIndex(acc, labelled, nlabels)
	default: // MinFilledNoFlats
		outlets = label.MinIndex(filledNoFlats, labelled, nlabels)
	}

	points := make([]PourPoint, 0, nlabels)
	for lbl := int32(1); lbl <= nlabels; lbl++ {
		o := outlets[lbl]
		s := bspotStats[lbl]
		area := float64(s.Count) * cellArea
		volume := s.Sum * cellArea
		wshedArea := float64(watershedCounts[lbl]) * cellArea

		p := PourPoint{
			BspotID:       lbl - 1,
			Row:           o.Row,
			Col:           o.Col,
			MaxDepth:      s.Max,
			Area:          area,
			Volume:        volume,
			WatershedArea: wshedArea,
		}
		if wshedArea > 0 {
			p.FillUpMM = 1000 * volume / wshedArea
		}
		points = append(points, p)
	}
	return points, nil
}

// FilterFunc reports whether a bluespot described by its raw label stats
// should be kept.
type FilterFunc func(stats BluespotStats) bool

// BluespotStats is the unit-bearing view of a raw label.Stats a FilterFunc
// evaluates against: min/max/sum/count carried through unchanged, plus the
// derived volume and area in map units.
type BluespotStats struct {
	Min, Max, Sum float64
	Count         int64
	Volume, Area  float64
}

// Filter evaluates filterFn against every raw label in [1, nlabels] and
// returns a keep-mask suitable for label.KeepLabels (index 0 always false).
func Filter(filterFn FilterFunc, cellArea float64, rawStats []label.Stats) []bool {
	keep := make([]bool, len(rawStats))
	for lbl := 1; lbl < len(rawStats); lbl++ {
		s := rawStats[lbl]
		bs := BluespotStats{
			Min: s.Min, Max: s.Max, Sum: s.Sum, Count: s.Count,
			Volume: s.Sum * cellArea,
			Area:   float64(s.Count) * cellArea,
		}
		keep[lbl] = filterFn(bs)
	}
	return keep
}
