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
	"encoding/gob"
	"fmt"
	"io"
)

// WriteRecords gob-encodes records to w, the intermediate form the
// network stage hands to the rainfall stage (one run's output vector
// features are a lossy view of the same records).
//
// Grounded on the teacher's save.go gob.Encoder usage for CTMData.
func WriteRecords(w io.Writer, records []NodeRecord) error {
	if err := gob.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("malstroem: network: gob encode node records: %w", err)
	}
	return nil
}

// ReadRecords decodes node records previously written by WriteRecords.
func ReadRecords(r io.Reader) ([]NodeRecord, error) {
	var records []NodeRecord
	if err := gob.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("malstroem: network: gob decode node records: %w", err)
	}
	return records, nil
}
