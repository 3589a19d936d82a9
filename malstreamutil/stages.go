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

package malstreamutil

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spatialmodel/malstroem/accum"
	"github.com/spatialmodel/malstroem/fill"
	"github.com/spatialmodel/malstroem/filterexpr"
	"github.com/spatialmodel/malstroem/flowdir"
	"github.com/spatialmodel/malstroem/label"
	"github.com/spatialmodel/malstroem/network"
	"github.com/spatialmodel/malstroem/pipeline"
	"github.com/spatialmodel/malstroem/pourpoint"
	"github.com/spatialmodel/malstroem/rain"
	"github.com/spatialmodel/malstroem/raster"
	"github.com/spatialmodel/malstroem/rasterio"
	"github.com/spatialmodel/malstroem/watershed"
	"github.com/spf13/cobra"
)

// attachHandlers assigns each subcommand's RunE, grounded on steadyCmd's
// RunE in the teacher's InitializeConfig: read configuration via cfg,
// validate file options through the checkX helpers, run the stage, write
// its output, log progress.
func attachHandlers(cfg *Cfg) {
	cfg.FilledCmd.RunE = func(cmd *cobra.Command, args []string) error {
		dem, err := readDEM(cfg)
		if err != nil {
			return err
		}
		filled := fill.Terrain(dem)
		return writeRaster(cfg, "filled.gob", filled)
	}

	cfg.DepthsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		dem, err := readDEM(cfg)
		if err != nil {
			return err
		}
		filled := fill.Terrain(dem)
		depths := raster.New[float64](dem.Rows, dem.Cols, dem.Transform)
		for i := range depths.Data {
			depths.Data[i] = float64(filled.Data[i]) - float64(dem.Data[i])
		}
		return writeRaster(cfg, "depths.gob", depths)
	}

	cfg.FlowdirCmd.RunE = func(cmd *cobra.Command, args []string) error {
		dem, err := readDEM(cfg)
		if err != nil {
			return err
		}
		short, diag := fill.SafeEpsilon(dem)
		filledNoFlats := fill.TerrainNoFlats(dem, short, diag)
		fd := flowdir.Compute(filledNoFlats, true)
		if err := writeRaster(cfg, "flowdir.gob", fd); err != nil {
			return err
		}
		if err := writeRaster(cfg, "filledflats.gob", filledNoFlats); err != nil {
			return err
		}
		if cfg.GetBool("WithAccum") {
			log.Println("Calculating flow accumulation")
			return writeRaster(cfg, "accum.gob", accum.Compute(fd))
		}
		return nil
	}

	cfg.AccumCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fd, err := readRaster[uint8](cfg, "flowdir.gob")
		if err != nil {
			return err
		}
		return writeRaster(cfg, "accum.gob", accum.Compute(fd))
	}

	cfg.BspotsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		depths, err := readRaster[float64](cfg, "depths.gob")
		if err != nil {
			return err
		}
		filterFn, err := bluespotFilter(cfg)
		if err != nil {
			return err
		}
		labelled, _, err := computeBluespots(depths, filterFn)
		if err != nil {
			return err
		}
		return writeRaster(cfg, "bspots.gob", labelled)
	}

	cfg.WshedsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fd, err := readRaster[uint8](cfg, "flowdir.gob")
		if err != nil {
			return err
		}
		labelled, err := readRaster[int32](cfg, "bspots.gob")
		if err != nil {
			return err
		}
		wsheds := watershed.FromLabels(fd, labelled, 0)
		return writeRaster(cfg, "wsheds.gob", wsheds)
	}

	cfg.PourptsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		depths, err := readRaster[float64](cfg, "depths.gob")
		if err != nil {
			return err
		}
		fd, err := readRaster[uint8](cfg, "flowdir.gob")
		if err != nil {
			return err
		}
		labelled, err := readRaster[int32](cfg, "bspots.gob")
		if err != nil {
			return err
		}
		wsheds, err := readRaster[int32](cfg, "wsheds.gob")
		if err != nil {
			return err
		}
		points, err := extractPourPoints(cfg, depths, fd, labelled, wsheds)
		if err != nil {
			return err
		}
		return writeVector(cfg, "pourpoints", pourPointFeatures(points), false)
	}

	cfg.NetworkCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fd, err := readRaster[uint8](cfg, "flowdir.gob")
		if err != nil {
			return err
		}
		labelled, err := readRaster[int32](cfg, "bspots.gob")
		if err != nil {
			return err
		}
		depths, err := readRaster[float64](cfg, "depths.gob")
		if err != nil {
			return err
		}
		wsheds, err := readRaster[int32](cfg, "wsheds.gob")
		if err != nil {
			return err
		}
		nlabels := maxLabel(labelled)
		points, err := extractPourPoints(cfg, depths, fd, labelled, wsheds)
		if err != nil {
			return err
		}
		nodes := pipeline.RunNetwork(fd, labelled, nlabels, points)
		records := pipeline.BuildNodeRecords(nodes, points)

		if err := writeNodeRecords(cfg, records); err != nil {
			return err
		}
		return writeVector(cfg, "network", networkFeatures(records), false)
	}

	cfg.RainCmd.RunE = func(cmd *cobra.Command, args []string) error {
		records, err := readNodeRecords(cfg)
		if err != nil {
			return err
		}
		amounts, err := ParseRainAmounts(cfg.GetStringSlice("RainAmountsMM"))
		if err != nil {
			return err
		}
		for _, mm := range amounts {
			events := pipeline.RunRain(records, mm)
			if err := writeVector(cfg, rainOutputName(mm), rainFeatures(records, events, mm), false); err != nil {
				return err
			}
		}
		return nil
	}

	cfg.CompleteCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := CheckOutputDirEmpty(cfg.GetString("OutputDir")); err != nil {
			return err
		}
		dem, err := readDEM(cfg)
		if err != nil {
			return err
		}
		terrain, err := pipeline.RunTerrain(dem, cfg.GetBool("WithAccum"))
		if err != nil {
			return err
		}
		if err := writeRaster(cfg, "filled.gob", terrain.Filled); err != nil {
			return err
		}
		if err := writeRaster(cfg, "depths.gob", terrain.Depths); err != nil {
			return err
		}
		if err := writeRaster(cfg, "flowdir.gob", terrain.FlowDir); err != nil {
			return err
		}

		filterFn, err := bluespotFilter(cfg)
		if err != nil {
			return err
		}
		policy, err := ParsePolicy(cfg.GetString("PourPointPolicy"))
		if err != nil {
			return err
		}
		var acc *raster.Raster[float64]
		if policy == pourpoint.MaxAccumulation {
			if terrain.Accum != nil {
				acc = terrain.Accum
			} else {
				acc = accum.Compute(terrain.FlowDir)
			}
		}
		bspots, err := pipeline.RunBluespots(terrain.Depths, terrain.FlowDir, filterFn, policy, acc, terrain.FilledNoFlats)
		if err != nil {
			return err
		}
		if err := writeRaster(cfg, "bspots.gob", bspots.Labelled); err != nil {
			return err
		}
		if err := writeRaster(cfg, "wsheds.gob", bspots.Watersheds); err != nil {
			return err
		}
		if err := writeVector(cfg, "pourpoints", pourPointFeatures(bspots.PourPoints), false); err != nil {
			return err
		}

		nodes := pipeline.RunNetwork(terrain.FlowDir, bspots.Labelled, bspots.NLabels, bspots.PourPoints)
		records := pipeline.BuildNodeRecords(nodes, bspots.PourPoints)
		if err := writeNodeRecords(cfg, records); err != nil {
			return err
		}
		if err := writeVector(cfg, "network", networkFeatures(records), false); err != nil {
			return err
		}

		amounts, err := ParseRainAmounts(cfg.GetStringSlice("RainAmountsMM"))
		if err != nil {
			return err
		}
		for _, mm := range amounts {
			events := pipeline.RunRain(records, mm)
			if err := writeVector(cfg, rainOutputName(mm), rainFeatures(records, events, mm), false); err != nil {
				return err
			}
		}
		return nil
	}
}

func bluespotFilter(cfg *Cfg) (pourpoint.FilterFunc, error) {
	f, err := filterexpr.Compile(cfg.GetString("FilterExpression"))
	if err != nil {
		return nil, fmt.Errorf("malstroem: %w", err)
	}
	return f.Func(), nil
}

func computeBluespots(depths *raster.Raster[float64], filterFn pourpoint.FilterFunc) (*raster.Raster[int32], int32, error) {
	cellSize, err := depths.Transform.CellSize()
	if err != nil {
		return nil, 0, fmt.Errorf("malstroem: %w", err)
	}
	cellArea := cellSize * cellSize
	mask := raster.New[uint8](depths.Rows, depths.Cols, depths.Transform)
	for i, d := range depths.Data {
		if d > 0 {
			mask.Data[i] = 1
		}
	}
	rawLabelled, rawNLabels := label.Connect(mask)
	rawStats := label.ComputeStats(depths, rawLabelled, rawNLabels)
	keep := pourpoint.Filter(filterFn, cellArea, rawStats)
	keptMask := label.KeepLabels(rawLabelled, keep)
	labelled, nlabels := label.Connect(keptMask)
	return labelled, nlabels, nil
}

func extractPourPoints(cfg *Cfg, depths *raster.Raster[float64], fd *raster.Raster[uint8], labelled, wsheds *raster.Raster[int32]) ([]pourpoint.PourPoint, error) {
	nlabels := maxLabel(labelled)
	counts := label.Count(wsheds, nlabels)
	policy, err := ParsePolicy(cfg.GetString("PourPointPolicy"))
	if err != nil {
		return nil, err
	}
	var acc *raster.Raster[float64]
	var filledNoFlats *raster.Raster[float64]
	if policy == pourpoint.MaxAccumulation {
		acc, err = readRaster[float64](cfg, "accum.gob")
		if err != nil {
			return nil, err
		}
	} else {
		filledNoFlats, err = readRaster[float64](cfg, "filledflats.gob")
		if err != nil {
			return nil, err
		}
	}
	points, err := pourpoint.Extract(policy, depths, labelled, nlabels, counts, acc, filledNoFlats)
	if err != nil {
		return nil, fmt.Errorf("malstroem: %w", err)
	}
	return points, nil
}

func maxLabel(labelled *raster.Raster[int32]) int32 {
	var max int32
	for _, v := range labelled.Data {
		if v > max {
			max = v
		}
	}
	return max
}

func readDEM(cfg *Cfg) (*raster.Raster[float32], error) {
	path, err := CheckInputFile(cfg.GetString("DEMFile"))
	if err != nil {
		return nil, err
	}
	nodata, subst, err := ParseDEMNodata(cfg.GetString("DEMNodata"), cfg.GetString("DEMNodataSubst"))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("malstroem: opening DEM file: %w", err)
	}
	defer f.Close()
	gr := &rasterio.GobReader{R: f, NodataValue: nodata, Subst: subst}
	return gr.Read()
}

func readRaster[T raster.Number](cfg *Cfg, name string) (*raster.Raster[T], error) {
	path := filepath.Join(cfg.GetString("OutputDir"), name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("malstroem: opening %s: %w", path, err)
	}
	defer f.Close()
	return rasterio.GobReaderT[T]{R: f}.Read()
}

func writeRaster[T raster.Number](cfg *Cfg, name string, r *raster.Raster[T]) error {
	path, err := CheckOutputFile(filepath.Join(cfg.GetString("OutputDir"), name))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("malstroem: creating %s: %w", path, err)
	}
	defer f.Close()
	log.Printf("Writing %s", path)
	return rasterio.GobWriter[T]{W: f}.Write(r)
}

func writeVector(cfg *Cfg, baseName string, features []rasterio.Feature, lines bool) error {
	format, err := ParseVectorFormat(cfg.GetString("VectorFormat"))
	if err != nil {
		return err
	}
	switch format {
	case Shapefile:
		path, err := CheckOutputFile(filepath.Join(cfg.GetString("OutputDir"), baseName+".shp"))
		if err != nil {
			return err
		}
		log.Printf("Writing %s", path)
		return rasterio.ShapefileWriter{Path: path, Lines: lines}.WriteFeatures(features)
	default:
		path, err := CheckOutputFile(filepath.Join(cfg.GetString("OutputDir"), baseName+".geojson"))
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("malstroem: creating %s: %w", path, err)
		}
		defer f.Close()
		log.Printf("Writing %s", path)
		return rasterio.GeoJSONWriter{W: f}.WriteFeatures(features)
	}
}

func writeNodeRecords(cfg *Cfg, records []network.NodeRecord) error {
	path, err := CheckOutputFile(filepath.Join(cfg.GetString("OutputDir"), "network.records.gob"))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("malstroem: creating %s: %w", path, err)
	}
	defer f.Close()
	return network.WriteRecords(f, records)
}

func readNodeRecords(cfg *Cfg) ([]network.NodeRecord, error) {
	path := filepath.Join(cfg.GetString("OutputDir"), "network.records.gob")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("malstroem: opening %s: %w", path, err)
	}
	defer f.Close()
	return network.ReadRecords(f)
}

func pourPointFeatures(points []pourpoint.PourPoint) []rasterio.Feature {
	features := make([]rasterio.Feature, len(points))
	for i, p := range points {
		features[i] = rasterio.Feature{
			Type:     "Feature",
			Geometry: rasterio.Geometry{Type: "Point", Coordinates: [2]float64{float64(p.Col), float64(p.Row)}},
			Properties: map[string]interface{}{
				"bspot_id":   p.BspotID,
				"bspot_dmax": p.MaxDepth,
				"bspot_area": p.Area,
				"bspot_vol":  p.Volume,
				"wshed_area": p.WatershedArea,
				"bspot_fumm": p.FillUpMM,
			},
		}
	}
	return features
}

func networkFeatures(records []network.NodeRecord) []rasterio.Feature {
	features := make([]rasterio.Feature, len(records))
	for i, r := range records {
		var dstr interface{}
		if r.DstrNodeID != nil {
			dstr = *r.DstrNodeID
		}
		var bspotID interface{}
		if r.BspotID != nil {
			bspotID = *r.BspotID
		}
		features[i] = rasterio.Feature{
			Type:     "Feature",
			Geometry: rasterio.Geometry{Type: "Point", Coordinates: [2]float64{float64(r.CellCol), float64(r.CellRow)}},
			Properties: map[string]interface{}{
				"nodeid":     r.NodeID,
				"dstrnodeid": dstr,
				"nodetype":   r.NodeType,
				"bspot_id":   bspotID,
				"bspot_area": r.BspotArea,
				"bspot_vol":  r.BspotVol,
				"wshed_area": r.WshedArea,
			},
		}
	}
	return features
}

func rainFeatures(records []network.NodeRecord, events map[int32]rain.Event, mm float64) []rasterio.Feature {
	r := formatRain(mm)
	features := make([]rasterio.Feature, 0, len(records))
	for _, rec := range records {
		ev, ok := events[rec.NodeID]
		if !ok {
			continue
		}
		props := map[string]interface{}{
			"nodeid":      rec.NodeID,
			"rainv_" + r:  ev.RainVol,
			"spillv_" + r: ev.SpillV,
			"v_" + r:      ev.Vol,
		}
		if ev.Pct != nil {
			props["pctv_"+r] = *ev.Pct
		}
		features = append(features, rasterio.Feature{
			Type:       "Feature",
			Geometry:   rasterio.Geometry{Type: "Point", Coordinates: [2]float64{float64(rec.CellCol), float64(rec.CellRow)}},
			Properties: props,
		})
	}
	return features
}

// formatRain names a rainfall amount for attribute suffixes (rainv_R,
// spillv_R, v_R, pctv_R), using the shortest round-trip representation.
func formatRain(mm float64) string {
	return strconv.FormatFloat(mm, 'g', -1, 64)
}

func rainOutputName(mm float64) string {
	return "rain_" + formatRain(mm)
}
