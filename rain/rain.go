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

// Package rain simulates a rainfall event propagating through a stream
// network (C9): each node fills from its own local catchment plus whatever
// spills down from its upstream neighbors, and once its bluespot capacity
// is exceeded the remainder spills further downstream.
//
// Grounded on original_source/malstroem/network.py's
// Network._calc_node/_calc_stream_tree/rain_event: nodes are visited
// leaves-first (post-order) so every upstream spill volume is known before
// a node's own fill/spill is computed, using an explicit two-stack
// traversal rather than recursion.
package rain

import "github.com/spatialmodel/malstroem/network"

// Attributes is the catchment information a node contributes to a rain
// event: its local watershed area (feeding direct rainfall) and its
// bluespot storage capacity. Junction nodes have neither, and are given
// the zero value.
type Attributes struct {
	WatershedArea float64 // square map units
	BspotVolume   float64 // cubic map units
}

// Event is one node's result for a single rainfall amount.
type Event struct {
	NodeID  int32
	RainVol float64  // rainv: volume falling directly on this node's catchment
	SpillV  float64  // spillv: volume spilled onward to the downstream node
	Vol     float64  // v: volume held in this node's bluespot
	Pct     *float64 // pctv: percent of bspot capacity filled; nil if capacity is zero
}

// Tree is a stream network prepared for repeated rainfall simulation: the
// node set, its child (upstream) adjacency, and attributes per node id.
type Tree struct {
	nodes      map[int32]*network.Node
	upstream   map[int32][]int32
	roots      []int32
	attributes map[int32]Attributes
}

// NewTree indexes nodes and their per-id catchment attributes for
// repeated Simulate calls. Nodes whose DownstreamID is nil are roots.
func NewTree(nodes []*network.Node, attributes map[int32]Attributes) *Tree {
	t := &Tree{
		nodes:      make(map[int32]*network.Node, len(nodes)),
		upstream:   make(map[int32][]int32),
		attributes: attributes,
	}
	for _, n := range nodes {
		t.nodes[n.ID] = n
		if n.DownstreamID == nil {
			t.roots = append(t.roots, n.ID)
			continue
		}
		t.upstream[*n.DownstreamID] = append(t.upstream[*n.DownstreamID], n.ID)
	}
	return t
}

// Simulate computes the Event for every node under a uniform rainfall of
// mmRain millimeters, keyed by node id.
func (t *Tree) Simulate(mmRain float64) map[int32]Event {
	events := make(map[int32]Event, len(t.nodes))
	for _, root := range t.roots {
		t.simulateStreamTree(root, mmRain, events)
	}
	return events
}

// simulateStreamTree orders root's subtree leaves-first, then folds spill
// volumes from leaves up to root by evaluating each node once all of its
// upstream nodes already have an Event recorded.
func (t *Tree) simulateStreamTree(root int32, mmRain float64, events map[int32]Event) {
	var order []int32
	stack := []int32{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		stack = append(stack, t.upstream[n]...)
	}

	for i := len(order) - 1; i >= 0; i-- {
		t.calcNode(order[i], mmRain, events)
	}
}

func (t *Tree) calcNode(nodeID int32, mmRain float64, events map[int32]Event) {
	attrs := t.attributes[nodeID]
	catchmentVol := attrs.WatershedArea * mmRain * 0.001

	var upstreamVol float64
	for _, upID := range t.upstream[nodeID] {
		upstreamVol += events[upID].SpillV
	}

	total := catchmentVol + upstreamVol
	filled := total
	if filled > attrs.BspotVolume {
		filled = attrs.BspotVolume
	}
	spill := total - attrs.BspotVolume
	if spill < 0 {
		spill = 0
	}

	event := Event{NodeID: nodeID, RainVol: catchmentVol, SpillV: spill, Vol: filled}
	if attrs.BspotVolume != 0 {
		pct := 100.0 * filled / attrs.BspotVolume
		event.Pct = &pct
	}
	events[nodeID] = event
}
