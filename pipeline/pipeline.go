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

// Package pipeline orchestrates the individual hydrology stages (C2-C9)
// end to end, mirroring the composition of a full run: fill the DEM,
// derive flow direction and accumulation, find bluespots, delineate their
// watersheds, extract pour points, build the stream network, and
// optionally run a rainfall simulation over it.
//
// Grounded on original_source/malstroem/dem.py's DemTool.process and
// bluespots.py's BluespotTool.process: each stage logs its own start and
// returns its results to the caller, which writes them out. The functions
// here write no files and do not release intermediates themselves; the
// rasters they return stay alive as long as the caller holds them.
package pipeline

import (
	"fmt"
	"log"

	"github.com/spatialmodel/malstroem/accum"
	"github.com/spatialmodel/malstroem/fill"
	"github.com/spatialmodel/malstroem/flowdir"
	"github.com/spatialmodel/malstroem/label"
	"github.com/spatialmodel/malstroem/network"
	"github.com/spatialmodel/malstroem/pourpoint"
	"github.com/spatialmodel/malstroem/rain"
	"github.com/spatialmodel/malstroem/raster"
	"github.com/spatialmodel/malstroem/watershed"
)

// TerrainResult holds the outputs of the DEM stage (C2 + C3 [+ C4]).
type TerrainResult struct {
	Filled        *raster.Raster[float32]
	Depths        *raster.Raster[float64]
	FilledNoFlats *raster.Raster[float64]
	FlowDir       *raster.Raster[uint8]
	Accum         *raster.Raster[float64] // nil unless withAccum
}

// RunTerrain fills dem, derives bluespot depths, computes the no-flats
// fill and flow direction, and optionally flow accumulation.
func RunTerrain(dem *raster.Raster[float32], withAccum bool) (*TerrainResult, error) {
	if _, err := dem.Transform.CellSize(); err != nil {
		return nil, fmt.Errorf("malstroem: pipeline: %w", err)
	}

	log.Println("Calculating filled DEM")
	filled := fill.Terrain(dem)

	log.Println("Calculating bluespot depths")
	depths := raster.New[float64](dem.Rows, dem.Cols, dem.Transform)
	for i := range depths.Data {
		depths.Data[i] = float64(filled.Data[i]) - float64(dem.Data[i])
	}

	log.Println("Calculating flow directions")
	short, diag := fill.SafeEpsilon(dem)
	filledNoFlats := fill.TerrainNoFlats(dem, short, diag)
	fd := flowdir.Compute(filledNoFlats, true)

	result := &TerrainResult{
		Filled:        filled,
		Depths:        depths,
		FilledNoFlats: filledNoFlats,
		FlowDir:       fd,
	}

	if withAccum {
		log.Println("Calculating flow accumulation")
		result.Accum = accum.Compute(fd)
	}

	log.Println("Done")
	return result, nil
}

// BluespotResult holds the outputs of the bluespot/watershed/pourpoint
// stage (C5 + C6 + C7).
type BluespotResult struct {
	Labelled        *raster.Raster[int32]
	NLabels         int32
	Watersheds      *raster.Raster[int32]
	WatershedCounts []int64
	PourPoints      []pourpoint.PourPoint
}

// RunBluespots labels depths' connected components, applies filterFn to
// drop insignificant ones, relabels, delineates local watersheds against
// fd, and extracts one pour point per surviving bluespot using policy.
// Only the raster matching policy is read and must be non-nil: acc for
// MaxAccumulation, filledNoFlats for MinFilledNoFlats; the other is ignored.
func RunBluespots(depths *raster.Raster[float64], fd *raster.Raster[uint8],
	filterFn pourpoint.FilterFunc, policy pourpoint.Policy,
	acc *raster.Raster[float64], filledNoFlats *raster.Raster[float64]) (*BluespotResult, error) {

	cellSize, err := depths.Transform.CellSize()
	if err != nil {
		return nil, fmt.Errorf("malstroem: pipeline: %w", err)
	}
	cellArea := cellSize * cellSize

	log.Println("Calculating unfiltered bluespots")
	mask := raster.New[uint8](depths.Rows, depths.Cols, depths.Transform)
	for i, d := range depths.Data {
		if d > 0 {
			mask.Data[i] = 1
		}
	}
	rawLabelled, rawNLabels := label.Connect(mask)
	rawStats := label.ComputeStats(depths, rawLabelled, rawNLabels)
	log.Printf("Number of bluespots found before filtering: %d", rawNLabels)

	log.Println("Calculating filtered bluespots")
	keep := pourpoint.Filter(filterFn, cellArea, rawStats)
	keptMask := label.KeepLabels(rawLabelled, keep)

	labelled, nlabels := label.Connect(keptMask)
	log.Printf("Number of bluespots left after filtering: %d", nlabels)

	log.Println("Calculating watersheds")
	watersheds := watershed.FromLabels(fd, labelled, 0)
	watershedCounts := label.Count(watersheds, nlabels)

	log.Println("Calculating pour points")
	points, err := pourpoint.Extract(policy, depths, labelled, nlabels, watershedCounts, acc, filledNoFlats)
	if err != nil {
		return nil, fmt.Errorf("malstroem: pipeline: %w", err)
	}

	log.Println("Done")
	return &BluespotResult{
		Labelled:        labelled,
		NLabels:         nlabels,
		Watersheds:      watersheds,
		WatershedCounts: watershedCounts,
		PourPoints:      points,
	}, nil
}

// RunNetwork builds the stream network over a bluespot result's pour
// points, tracing against fd and labelled.
func RunNetwork(fd *raster.Raster[uint8], labelled *raster.Raster[int32], nlabels int32, points []pourpoint.PourPoint) []*network.Node {
	refs := make([]network.PourPointRef, len(points))
	for i, p := range points {
		refs[i] = network.PourPointRef{ID: p.BspotID + 1, Pix: [2]int{p.Row, p.Col}}
	}
	bg := int32(0)
	return network.BuildGeometric(fd, labelled, refs, &bg, nlabels+1)
}

// BuildNodeRecords assembles the persisted record for every node: pour
// point nodes carry their bluespot's area/volume/watershed-area (looked up
// by node id, which RunNetwork sets to BspotID+1), junction nodes fall
// back to the record's zero-valued bluespot fields.
func BuildNodeRecords(nodes []*network.Node, points []pourpoint.PourPoint) []network.NodeRecord {
	byID := make(map[int32]pourpoint.PourPoint, len(points))
	for _, p := range points {
		byID[p.BspotID+1] = p
	}
	records := make([]network.NodeRecord, len(nodes))
	for i, n := range nodes {
		p := byID[n.ID]
		records[i] = network.NewNodeRecord(n, p.Area, p.Volume, p.WatershedArea)
	}
	return records
}

// RunRain replays node records into a rain.Tree and simulates mmRain,
// returning one event per node.
func RunRain(records []network.NodeRecord, mmRain float64) map[int32]rain.Event {
	nodes := make([]*network.Node, len(records))
	attrs := make(map[int32]rain.Attributes, len(records))
	for i, r := range records {
		nodes[i] = &network.Node{ID: r.NodeID, DownstreamID: r.DstrNodeID, Pix: [2]int{r.CellRow, r.CellCol}}
		if r.NodeType == "junction" {
			nodes[i].Type = network.Junction
		}
		attrs[r.NodeID] = rain.Attributes{WatershedArea: r.WshedArea, BspotVolume: r.BspotVol}
	}
	tree := rain.NewTree(nodes, attrs)
	return tree.Simulate(mmRain)
}
