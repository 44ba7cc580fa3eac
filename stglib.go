/*
Copyright © 2018 the stglib authors.
This file is part of stglib.

stglib is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

stglib is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with stglib.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package stglib converts raw oceanographic instrument output into
// EPIC/CMG-convention NetCDF files. This package holds the pieces shared by
// the instrument-specific packages: deployment metadata, global attributes,
// and time series NetCDF input and output.
package stglib

// Version gives the version number.
const Version = "0.3.0"

// Attribute is a named NetCDF attribute. Value must be a string, a float64,
// an int, or a []float64.
type Attribute struct {
	Name  string
	Value interface{}
}

// cdfValue converts an attribute value into one of the types
// accepted by the NetCDF library. ok is false for unsupported types.
func cdfValue(v interface{}) (o interface{}, ok bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			// Empty CHAR attributes can't be written.
			return " ", true
		}
		return t, true
	case float64:
		return []float64{t}, true
	case float32:
		return []float32{t}, true
	case int:
		return []int32{int32(t)}, true
	case int32:
		return []int32{t}, true
	case []float64:
		if len(t) == 0 {
			return nil, false
		}
		return t, true
	case []int32:
		if len(t) == 0 {
			return nil, false
		}
		return t, true
	default:
		return nil, false
	}
}
