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
	"strings"

	"github.com/spatialmodel/malstroem/pourpoint"
)

// ParsePolicy maps the PourPointPolicy config string onto a pourpoint.Policy.
func ParsePolicy(s string) (pourpoint.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maxaccumulation", "":
		return pourpoint.MaxAccumulation, nil
	case "minfillednoflats":
		return pourpoint.MinFilledNoFlats, nil
	default:
		return 0, fmt.Errorf("malstroem: unknown PourPointPolicy %q", s)
	}
}

// VectorFormat selects the vector writer backend a command uses for
// pour point / network output.
type VectorFormat int

const (
	GeoJSON VectorFormat = iota
	Shapefile
)

// ParseVectorFormat maps the VectorFormat config string onto a VectorFormat.
func ParseVectorFormat(s string) (VectorFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geojson", "":
		return GeoJSON, nil
	case "shapefile", "shp":
		return Shapefile, nil
	default:
		return 0, fmt.Errorf("malstroem: unknown VectorFormat %q", s)
	}
}
