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

// Package network builds the stream network connecting pour points (C8):
// who flows into whom, and the pixel geometry of the channel between them.
// Where two or more pour points share a common downstream trace, a
// synthetic junction node is inserted at the point their paths converge, so
// the result is a tree rather than a multi-parent graph.
//
// Grounded on original_source/malstroem/algorithms/net.py:
// next_downstream_label (trace downstream collecting geometry until a
// differently labelled cell is reached), geometric_pourpoint_network
// (groups pour points by shared downstream label) and the
// _split_into_common_flow_groups/_prune_common_flow/_untangle trio that
// peels shared trailing geometry into junction nodes, recursing in case a
// subgroup shares even more of the path.
package network

import (
	"github.com/spatialmodel/malstroem/flowdir"
	"github.com/spatialmodel/malstroem/raster"
)

// NodeType distinguishes an original pour point from a synthetic junction
// inserted where two or more pour points' flow paths converge.
type NodeType int

const (
	Pourpoint NodeType = iota
	Junction
)

// Node is one vertex of the stream-network tree.
type Node struct {
	ID           int32
	DownstreamID *int32 // nil if flow exits the raster before reaching another label
	Type         NodeType
	Pix          [2]int
	Geometry     [][2]int // cell path from Pix to (and including) the first cell of the downstream label, or the downstream junction's Pix
}

// PourPointRef is the minimal input BuildNetwork needs for a pour point:
// its label id and source cell.
type PourPointRef struct {
	ID  int32
	Pix [2]int
}

// NextDownstreamLabel traces downstream from cell, returning the first
// label encountered that differs from cell's own label (skipping cells
// equal to backgroundLabel, if non-nil, rather than stopping on them) and,
// if withGeometry, the path of cells from cell up to and including that
// downstream cell. A nil result means flow exits the raster without
// meeting another label.
func NextDownstreamLabel(f *raster.Raster[uint8], labelled *raster.Raster[int32], cell [2]int, backgroundLabel *int32, withGeometry bool) (downstream *int32, geometry [][2]int) {
	srcLabel := labelled.At(cell[0], cell[1])
	var found *int32
	flowdir.TraceDownstream(f, cell[0], cell[1], func(row, col int) bool {
		lbl := labelled.At(row, col)
		if withGeometry {
			geometry = append(geometry, [2]int{row, col})
		}
		if lbl != srcLabel {
			if backgroundLabel == nil || lbl != *backgroundLabel {
				v := lbl
				found = &v
				return false
			}
		}
		return true
	})
	return found, geometry
}

// BuildGeometric builds the full stream-network tree: one pourpoint node
// per entry in pourPoints, plus synthetic junction nodes wherever two or
// more pour points converge before reaching their next distinct label.
// nextAvailableID must exceed every label present in labelled (junction
// node ids are allocated starting there, matching the labelled raster's id
// space so downstream consumers can treat both uniformly).
func BuildGeometric(f *raster.Raster[uint8], labelled *raster.Raster[int32], pourPoints []PourPointRef, backgroundLabel *int32, nextAvailableID int32) []*Node {
	upstreamByDownstream := make(map[int32][]*Node)
	var noDownstream []*Node

	for _, pp := range pourPoints {
		downLbl, geom := NextDownstreamLabel(f, labelled, pp.Pix, backgroundLabel, true)
		node := &Node{ID: pp.ID, DownstreamID: downLbl, Type: Pourpoint, Pix: pp.Pix, Geometry: geom}
		if downLbl == nil {
			noDownstream = append(noDownstream, node)
			continue
		}
		upstreamByDownstream[*downLbl] = append(upstreamByDownstream[*downLbl], node)
	}
	if len(noDownstream) > 0 {
		upstreamByDownstream[noDownstreamKey] = noDownstream
	}

	var final []*Node
	for _, upstream := range upstreamByDownstream {
		var untangled []*Node
		untangled, nextAvailableID = untangle(upstream, nextAvailableID)
		final = append(final, untangled...)
	}
	return final
}

// noDownstreamKey is never a valid raster label (labels start at 1, 0 is
// background), so it is safe to use as the grouping key for pour points
// whose flow leaves the raster without meeting another label.
const noDownstreamKey = int32(-1)

// splitIntoCommonFlowGroups partitions nodes into groups that share flow
// for at least minCommon trailing geometry cells.
func splitIntoCommonFlowGroups(nodes []*Node, minCommon int) [][]*Node {
	if len(nodes) <= 1 {
		return [][]*Node{nodes}
	}
	var groups [][]*Node
	remaining := append([]*Node{}, nodes...)
	for len(remaining) > 0 {
		this := remaining[0]
		group := []*Node{this}
		remaining = remaining[1:]

		if len(this.Geometry) > minCommon {
			var kept []*Node
			thisKey := this.Geometry[len(this.Geometry)-minCommon]
			for _, other := range remaining {
				if len(other.Geometry) > minCommon && other.Geometry[len(other.Geometry)-minCommon] == thisKey {
					group = append(group, other)
				} else {
					kept = append(kept, other)
				}
			}
			remaining = kept
		}
		groups = append(groups, group)
	}
	return groups
}

// pruneCommonFlow peels the geometry trailing cells shared by every node in
// the group into a new junction node, and repoints the group's nodes to
// flow into it. The group must already share a downstream id and at least
// their last two geometry cells (splitIntoCommonFlowGroups' contract).
func pruneCommonFlow(nodes []*Node, newID int32) (pruned []*Node, junction *Node) {
	downstreamID := nodes[0].DownstreamID
	geoms := make([][][2]int, len(nodes))
	for i, n := range nodes {
		geoms[i] = append([][2]int{}, n.Geometry...)
	}

	var sharedPath [][2]int
	for {
		if len(geoms[0]) == 0 {
			break
		}
		last := geoms[0][len(geoms[0])-1]
		allMatch := true
		for _, g := range geoms {
			if len(g) == 0 || g[len(g)-1] != last {
				allMatch = false
				break
			}
		}
		if !allMatch {
			break
		}
		sharedPath = append(sharedPath, last)
		for i := range geoms {
			geoms[i] = geoms[i][:len(geoms[i])-1]
		}
	}
	for i, j := 0, len(sharedPath)-1; i < j; i, j = i+1, j-1 {
		sharedPath[i], sharedPath[j] = sharedPath[j], sharedPath[i]
	}

	junction = &Node{ID: newID, DownstreamID: downstreamID, Type: Junction, Geometry: sharedPath, Pix: sharedPath[0]}
	for i, n := range nodes {
		n.DownstreamID = &junction.ID
		n.Geometry = append(geoms[i], junction.Pix)
	}
	return nodes, junction
}

// NodeRecord is the persisted form of a Node exchanged between the network
// stage and the rainfall stage: a flat, nullable-field record suitable for
// gob/vector output rather than the in-memory tree shape.
type NodeRecord struct {
	NodeID      int32
	DstrNodeID  *int32
	NodeType    string // "pourpoint" or "junction"
	CellRow     int
	CellCol     int
	BspotID     *int32
	BspotArea   float64
	BspotVol    float64
	WshedArea   float64
}

// NewNodeRecord assembles the persisted record for node n. bspotArea,
// bspotVol and wshedArea are recorded only for pour-point nodes, whose
// BspotID is set to n.ID; junction nodes ignore them and keep zero bluespot
// fields and a nil BspotID.
func NewNodeRecord(n *Node, bspotArea, bspotVol, wshedArea float64) NodeRecord {
	r := NodeRecord{
		NodeID:     n.ID,
		DstrNodeID: n.DownstreamID,
		CellRow:    n.Pix[0],
		CellCol:    n.Pix[1],
	}
	switch n.Type {
	case Pourpoint:
		r.NodeType = "pourpoint"
		id := n.ID
		r.BspotID = &id
		r.BspotArea = bspotArea
		r.BspotVol = bspotVol
		r.WshedArea = wshedArea
	case Junction:
		r.NodeType = "junction"
	}
	return r
}

// untangle recursively inserts junction nodes until no remaining group of
// nodes shares a trailing path, returning every node produced (pour points
// unchanged or repointed, plus any new junctions) and the next unused id.
func untangle(nodes []*Node, nextID int32) ([]*Node, int32) {
	var result []*Node
	for _, group := range splitIntoCommonFlowGroups(nodes, 2) {
		if len(group) > 1 {
			untangledNodes, junction := pruneCommonFlow(group, nextID)
			nextID++
			result = append(result, junction)
			var sub []*Node
			sub, nextID = untangle(untangledNodes, nextID)
			result = append(result, sub...)
		} else {
			result = append(result, group[0])
		}
	}
	return result, nextID
}
