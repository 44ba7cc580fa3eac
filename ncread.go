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

package stglib

import (
	"fmt"
	"math"

	"github.com/ctessum/cdf"
)

// ReadVariable reads floating point variable v from a NetCDF file.
// Values equal to the variable's _FillValue are replaced with NaN.
func ReadVariable(nc *cdf.File, v string) ([]float64, error) {
	if len(nc.Header.Lengths(v)) == 0 {
		return nil, fmt.Errorf("stglib: variable %s not in file", v)
	}
	r := nc.Reader(v, nil, nil)
	dataI := r.Zero(-1)
	if _, err := r.Read(dataI); err != nil {
		return nil, fmt.Errorf("stglib: reading variable %s: %v", v, err)
	}
	var data []float64
	switch d := dataI.(type) {
	case []float64:
		data = d
	case []float32:
		data = make([]float64, len(d))
		for i, val := range d {
			data[i] = float64(val)
		}
	case []int32:
		data = make([]float64, len(d))
		for i, val := range d {
			data[i] = float64(val)
		}
	case []int16:
		data = make([]float64, len(d))
		for i, val := range d {
			data[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("stglib: variable %s has non-numeric type %T", v, dataI)
	}

	noData, ok, err := FloatAttribute(nc, v, "_FillValue")
	if err != nil {
		return nil, err
	}
	if ok {
		for i, d := range data {
			if d == noData {
				data[i] = math.NaN()
			}
		}
	}
	return data, nil
}

// FloatAttribute returns the first value of numeric attribute a of
// variable v. ok is false if the attribute doesn't exist.
func FloatAttribute(nc *cdf.File, v, a string) (val float64, ok bool, err error) {
	attI := nc.Header.GetAttribute(v, a)
	if attI == nil {
		return 0, false, nil
	}
	switch att := attI.(type) {
	case []float64:
		if len(att) > 0 {
			return att[0], true, nil
		}
	case []float32:
		if len(att) > 0 {
			return float64(att[0]), true, nil
		}
	case []int32:
		if len(att) > 0 {
			return float64(att[0]), true, nil
		}
	case []int16:
		if len(att) > 0 {
			return float64(att[0]), true, nil
		}
	}
	return 0, false, fmt.Errorf("stglib: invalid type for attribute %s:%s: %T", v, a, attI)
}
