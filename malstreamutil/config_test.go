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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfigBuildsCommandTree(t *testing.T) {
	cfg := InitializeConfig()
	require.NotNil(t, cfg.Root)
	names := make(map[string]bool)
	for _, c := range cfg.Root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"filled", "depths", "flowdir", "accum", "bspots", "wsheds", "pourpts", "network", "rain", "complete"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestInitializeConfigTracksInputAndOutputFiles(t *testing.T) {
	cfg := InitializeConfig()
	assert.Contains(t, cfg.InputFiles(), "DEMFile")
	assert.Contains(t, cfg.OutputFiles(), "OutputDir")
	assert.Contains(t, cfg.OutputFiles(), "LogFile")
}

func TestCheckOutputFileCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.gob")
	got, err := CheckOutputFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestCheckOutputFileEmptyIsNoop(t *testing.T) {
	got, err := CheckOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestCheckOutputDirEmptyAcceptsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckOutputDirEmpty(dir))
}

func TestCheckOutputDirEmptyRejectsNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.gob"), []byte("x"), 0644))
	err := CheckOutputDirEmpty(dir)
	assert.Error(t, err)
}

func TestCheckOutputDirEmptyRejectsMissingDir(t *testing.T) {
	err := CheckOutputDirEmpty(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestCheckInputFileMissingErrors(t *testing.T) {
	_, err := CheckInputFile("/no/such/file-malstroem-test")
	assert.Error(t, err)
}

func TestCheckLogFileDerivesFromOutput(t *testing.T) {
	got := CheckLogFile("", "/tmp/out/network.geojson")
	assert.Equal(t, "/tmp/out/network.log", got)
}

func TestCheckLogFileExplicitWins(t *testing.T) {
	got := CheckLogFile("/var/log/malstroem.log", "/tmp/out/network.geojson")
	assert.Equal(t, "/var/log/malstroem.log", got)
}

func TestParseRainAmounts(t *testing.T) {
	amounts, err := ParseRainAmounts([]string{"10", "25.5", ""})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 25.5}, amounts)
}

func TestParseRainAmountsInvalid(t *testing.T) {
	_, err := ParseRainAmounts([]string{"not-a-number"})
	assert.Error(t, err)
}

func TestParseDEMNodataUnsetReturnsNilSentinel(t *testing.T) {
	nodata, subst, err := ParseDEMNodata("", "0")
	require.NoError(t, err)
	assert.Nil(t, nodata)
	assert.Equal(t, 0.0, subst)
}

func TestParseDEMNodataSetReturnsSentinelAndSubst(t *testing.T) {
	nodata, subst, err := ParseDEMNodata("-9999", "-1")
	require.NoError(t, err)
	require.NotNil(t, nodata)
	assert.Equal(t, -9999.0, *nodata)
	assert.Equal(t, -1.0, subst)
}

func TestParseDEMNodataInvalid(t *testing.T) {
	_, _, err := ParseDEMNodata("not-a-number", "0")
	assert.Error(t, err)

	_, _, err = ParseDEMNodata("", "also-not-a-number")
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("MinFilledNoFlats")
	require.NoError(t, err)
	assert.Equal(t, 1, int(p))

	_, err = ParsePolicy("bogus")
	assert.Error(t, err)
}

func TestParseVectorFormat(t *testing.T) {
	f, err := ParseVectorFormat("shapefile")
	require.NoError(t, err)
	assert.Equal(t, Shapefile, f)

	f, err = ParseVectorFormat("")
	require.NoError(t, err)
	assert.Equal(t, GeoJSON, f)
}
