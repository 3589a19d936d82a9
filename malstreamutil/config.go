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

// Package malstreamutil wires the cobra/viper configuration layer the CLI
// uses: a Cfg wrapping *viper.Viper with one registered flag per stage
// option, layered over a config file and MALSTROEM_-prefixed environment
// variables.
//
// Grounded on inmaputil/cmd.go's InitializeConfig/Cfg: the options table
// plus setConfig/PersistentPreRunE pattern is reused verbatim in spirit,
// trimmed to the flag set this domain actually needs (no cloud, grid,
// emissions or chemistry options).
package malstreamutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds the layered configuration for a malstroem CLI invocation.
type Cfg struct {
	*viper.Viper

	inputFiles  []string
	outputFiles []string

	Root, FilledCmd, DepthsCmd, FlowdirCmd, AccumCmd, BspotsCmd,
	WshedsCmd, PourptsCmd, NetworkCmd, RainCmd, CompleteCmd *cobra.Command
}

// InputFiles returns the names of the configuration options that hold
// input file paths.
func (cfg *Cfg) InputFiles() []string { return cfg.inputFiles }

// OutputFiles returns the names of the configuration options that hold
// output file paths.
func (cfg *Cfg) OutputFiles() []string { return cfg.outputFiles }

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
	isInputFile            bool
	isOutputFile           bool
}

// InitializeConfig builds the command tree and configuration surface for
// the malstroem CLI: one subcommand per pipeline stage plus complete,
// sharing a single Cfg.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}
	cfg.SetEnvPrefix("malstroem")
	cfg.AutomaticEnv()

	cfg.Root = &cobra.Command{
		Use:   "malstroem",
		Short: "A surface-water flow-routing and bluespot model.",
		Long: `malstroem fills a digital elevation model, derives flow direction and
accumulation, delineates bluespots (local depressions) and their watersheds,
builds the stream network connecting them, and simulates rainfall events
propagating through that network.

Configuration can be set by command-line flag, by a configuration file
(--config), or by environment variables prefixed MALSTROEM_.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	cfg.FilledCmd = &cobra.Command{
		Use:   "filled",
		Short: "Fill depressions in a DEM.",
		Long:  "filled reads a DEM and writes the depression-filled terrain.",
		DisableAutoGenTag: true,
	}
	cfg.DepthsCmd = &cobra.Command{
		Use:   "depths",
		Short: "Compute bluespot depth (filled minus raw DEM).",
		DisableAutoGenTag: true,
	}
	cfg.FlowdirCmd = &cobra.Command{
		Use:   "flowdir",
		Short: "Derive D8 flow direction from a filled, flat-broken DEM.",
		DisableAutoGenTag: true,
	}
	cfg.AccumCmd = &cobra.Command{
		Use:   "accum",
		Short: "Accumulate upstream cell counts along flow direction.",
		DisableAutoGenTag: true,
	}
	cfg.BspotsCmd = &cobra.Command{
		Use:   "bspots",
		Short: "Label, filter and relabel bluespots.",
		DisableAutoGenTag: true,
	}
	cfg.WshedsCmd = &cobra.Command{
		Use:   "wsheds",
		Short: "Paint each bluespot's local watershed.",
		DisableAutoGenTag: true,
	}
	cfg.PourptsCmd = &cobra.Command{
		Use:   "pourpts",
		Short: "Extract one pour point per bluespot.",
		DisableAutoGenTag: true,
	}
	cfg.NetworkCmd = &cobra.Command{
		Use:   "network",
		Short: "Build the stream network between pour points.",
		DisableAutoGenTag: true,
	}
	cfg.RainCmd = &cobra.Command{
		Use:   "rain",
		Short: "Simulate rainfall events over a stream network.",
		DisableAutoGenTag: true,
	}
	cfg.CompleteCmd = &cobra.Command{
		Use:   "complete",
		Short: "Run the full pipeline end to end.",
		Long: `complete runs every stage in sequence: fill, depths, flow direction,
accumulation, bluespots, watersheds, pour points, network, and (if rain
amounts are configured) rainfall simulation.`,
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.FilledCmd, cfg.DepthsCmd, cfg.FlowdirCmd, cfg.AccumCmd,
		cfg.BspotsCmd, cfg.WshedsCmd, cfg.PourptsCmd, cfg.NetworkCmd, cfg.RainCmd, cfg.CompleteCmd)

	options := []option{
		{
			name: "config", usage: "configuration file path",
			defaultVal: "", flagsets: []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "DEMFile", usage: "input DEM raster (gob-encoded float32)",
			defaultVal: "dem.gob", isInputFile: true,
			flagsets: []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.FilledCmd.Flags(), cfg.DepthsCmd.Flags()},
		},
		{
			name: "OutputDir", usage: "directory intermediate and final rasters/vectors are written to",
			defaultVal: ".", isOutputFile: true,
			flagsets: []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "WithAccum", usage: "also compute flow accumulation while filling",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.FlowdirCmd.Flags()},
		},
		{
			name: "FilterExpression", usage: "bluespot keep expression over min/max/sum/count/area/volume/maxdepth",
			defaultVal: "area > 0",
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.BspotsCmd.Flags()},
		},
		{
			name: "PourPointPolicy", usage: "pour point outlet policy: maxaccumulation or minfillednoflats",
			defaultVal: "maxaccumulation",
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.PourptsCmd.Flags()},
		},
		{
			name: "RainAmountsMM", usage: "comma-separated rainfall amounts in millimeters to simulate",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.RainCmd.Flags()},
		},
		{
			name: "VectorFormat", usage: "vector output format: geojson or shapefile",
			defaultVal: "geojson",
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.PourptsCmd.Flags(), cfg.NetworkCmd.Flags()},
		},
		{
			name: "LogFile", usage: "log file path; stderr if empty",
			defaultVal: "", isOutputFile: true,
			flagsets: []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "DEMNodata", usage: "DEM nodata sentinel value; unset means the DEM has none",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.FilledCmd.Flags(), cfg.DepthsCmd.Flags()},
		},
		{
			name: "DEMNodataSubst", usage: "value substituted for DEMNodata cells",
			defaultVal: "0",
			flagsets:   []*pflag.FlagSet{cfg.CompleteCmd.Flags(), cfg.FilledCmd.Flags(), cfg.DepthsCmd.Flags()},
		},
	}

	for _, o := range options {
		for _, set := range o.flagsets {
			switch v := o.defaultVal.(type) {
			case string:
				if o.shorthand == "" {
					set.String(o.name, v, o.usage)
				} else {
					set.StringP(o.name, o.shorthand, v, o.usage)
				}
			case bool:
				set.Bool(o.name, v, o.usage)
			case []string:
				set.StringSlice(o.name, v, o.usage)
			default:
				panic(fmt.Errorf("malstreamutil: invalid option default type: %T", o.defaultVal))
			}
			cfg.BindPFlag(o.name, set.Lookup(o.name))
		}
		if o.isInputFile {
			cfg.inputFiles = append(cfg.inputFiles, o.name)
		}
		if o.isOutputFile {
			cfg.outputFiles = append(cfg.outputFiles, o.name)
		}
	}

	attachHandlers(cfg)
	return cfg
}

// setConfig loads the config file named by the "config" option, if any,
// into cfg. It runs before every subcommand via PersistentPreRunE.
func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("malstroem: problem reading configuration file: %w", err)
		}
	}
	return nil
}

// CheckOutputFile expands environment variables in path and ensures its
// parent directory exists, creating it if necessary.
func CheckOutputFile(path string) (string, error) {
	path = os.ExpandEnv(path)
	if path == "" {
		return "", nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("malstroem: creating output directory %s: %w", dir, err)
	}
	return path, nil
}

// CheckOutputDirEmpty verifies dir exists and is empty, the precondition
// complete requires before it starts writing a fresh run's worth of
// intermediates into it.
func CheckOutputDirEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("malstroem: output directory %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("malstroem: output directory %s is not empty", dir)
	}
	return nil
}

// CheckInputFile expands environment variables in path and verifies the
// file exists.
func CheckInputFile(path string) (string, error) {
	path = os.ExpandEnv(path)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("malstroem: input file %s: %w", path, err)
	}
	return path, nil
}

// CheckLogFile derives a default log file path alongside outputFile when
// logFile is unset.
func CheckLogFile(logFile, outputFile string) string {
	if logFile != "" {
		return os.ExpandEnv(logFile)
	}
	if outputFile == "" {
		return ""
	}
	ext := filepath.Ext(outputFile)
	return strings.TrimSuffix(outputFile, ext) + ".log"
}

// ParseDEMNodata parses the DEMNodata/DEMNodataSubst string options into a
// nodata sentinel (nil if unset) and its substitution value.
func ParseDEMNodata(nodata, subst string) (*float64, float64, error) {
	substVal, err := strconv.ParseFloat(strings.TrimSpace(subst), 64)
	if err != nil {
		return nil, 0, fmt.Errorf("malstroem: invalid DEMNodataSubst %q: %w", subst, err)
	}
	nodata = strings.TrimSpace(nodata)
	if nodata == "" {
		return nil, substVal, nil
	}
	nd, err := strconv.ParseFloat(nodata, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("malstroem: invalid DEMNodata %q: %w", nodata, err)
	}
	return &nd, substVal, nil
}

// ParseRainAmounts parses a comma-or-slice rainfall amount list into
// float64 millimeters.
func ParseRainAmounts(vals []string) ([]float64, error) {
	amounts := make([]float64, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return nil, fmt.Errorf("malstroem: invalid rain amount %q: %w", v, err)
		}
		amounts = append(amounts, f)
	}
	return amounts, nil
}
