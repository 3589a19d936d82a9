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

package network

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRecordsRoundTrip(t *testing.T) {
	id := int32(3)
	records := []NodeRecord{
		{NodeID: 1, DstrNodeID: &id, NodeType: "pourpoint", CellRow: 2, CellCol: 5, BspotID: &id, BspotArea: 100, BspotVol: 50, WshedArea: 400},
		{NodeID: id, NodeType: "junction", CellRow: 1, CellCol: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records))

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].NodeID, got[0].NodeID)
	assert.Equal(t, *records[0].DstrNodeID, *got[0].DstrNodeID)
	assert.Equal(t, "junction", got[1].NodeType)
	assert.Nil(t, got[1].DstrNodeID)
}
