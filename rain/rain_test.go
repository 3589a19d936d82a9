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

package rain

import (
	"testing"

	"github.com/spatialmodel/malstroem/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(i int32) *int32 { return &i }

func TestSimulateSingleNodeNoOverflow(t *testing.T) {
	nodes := []*network.Node{
		{ID: 1, DownstreamID: nil, Type: network.Pourpoint},
	}
	attrs := map[int32]Attributes{
		1: {WatershedArea: 1000, BspotVolume: 1000},
	}
	tree := NewTree(nodes, attrs)
	events := tree.Simulate(10) // 10mm over 1000 sq units = 10 cubic units

	e := events[1]
	assert.InDelta(t, 10.0, e.RainVol, 1e-9)
	assert.InDelta(t, 10.0, e.Vol, 1e-9)
	assert.InDelta(t, 0.0, e.SpillV, 1e-9)
	require.NotNil(t, e.Pct)
	assert.InDelta(t, 1.0, *e.Pct, 1e-9)
}

func TestSimulateOverflowSpillsDownstream(t *testing.T) {
	nodes := []*network.Node{
		{ID: 1, DownstreamID: nil, Type: network.Pourpoint},
		{ID: 2, DownstreamID: ptr(1), Type: network.Pourpoint},
	}
	attrs := map[int32]Attributes{
		1: {WatershedArea: 0, BspotVolume: 5},
		2: {WatershedArea: 1000, BspotVolume: 5},
	}
	tree := NewTree(nodes, attrs)
	events := tree.Simulate(10) // node 2 catchment vol = 10

	upstream := events[2]
	assert.InDelta(t, 10.0, upstream.RainVol, 1e-9)
	assert.InDelta(t, 5.0, upstream.Vol, 1e-9)
	assert.InDelta(t, 5.0, upstream.SpillV, 1e-9)

	root := events[1]
	assert.InDelta(t, 0.0, root.RainVol, 1e-9)
	assert.InDelta(t, 5.0, root.Vol, 1e-9) // fills from upstream spill alone
	assert.InDelta(t, 0.0, root.SpillV, 1e-9)
}

func TestSimulateZeroCapacityHasNilPct(t *testing.T) {
	nodes := []*network.Node{
		{ID: 1, DownstreamID: nil, Type: network.Junction},
	}
	attrs := map[int32]Attributes{
		1: {WatershedArea: 0, BspotVolume: 0},
	}
	tree := NewTree(nodes, attrs)
	events := tree.Simulate(10)
	assert.Nil(t, events[1].Pct)
}

func TestSimulateConvergingTributaries(t *testing.T) {
	nodes := []*network.Node{
		{ID: 1, DownstreamID: nil, Type: network.Junction},
		{ID: 2, DownstreamID: ptr(1), Type: network.Pourpoint},
		{ID: 3, DownstreamID: ptr(1), Type: network.Pourpoint},
	}
	attrs := map[int32]Attributes{
		1: {WatershedArea: 0, BspotVolume: 0},
		2: {WatershedArea: 1000, BspotVolume: 0},
		3: {WatershedArea: 2000, BspotVolume: 0},
	}
	tree := NewTree(nodes, attrs)
	events := tree.Simulate(1) // 1mm: node2 -> 1 cu, node3 -> 2 cu, both spill fully

	root := events[1]
	assert.InDelta(t, 3.0, root.SpillV, 1e-9)
}
