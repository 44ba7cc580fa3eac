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

package aqd

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/stglib/stglib"
)

// outVar is a variable to be written to an output file.
type outVar struct {
	name string
	dims []string
	data []float64
}

// binDim returns the name of the second dimension of two-dimensional
// velocity arrays.
func (d *Dataset) binDim() string {
	if d.Mode == Wave {
		return "sample"
	}
	return "bindist"
}

// outputVars returns the variables of d that will be written, in order.
// Variables that haven't been computed are skipped.
func (d *Dataset) outputVars() ([]outVar, error) {
	if d.U == nil {
		return nil, fmt.Errorf("aqd: dataset has not been transformed to Earth coordinates")
	}
	if len(d.BinDist) == 0 || d.Matrix.IsZero() {
		return nil, fmt.Errorf("aqd: dataset orientation has not been resolved")
	}
	vars := []outVar{
		{"time", []string{"time"}, stglib.EpochSeconds(d.Time)},
		{"lat", []string{"lat"}, []float64{d.Attrs.Latitude}},
		{"lon", []string{"lon"}, []float64{d.Attrs.Longitude}},
		{"bindist", []string{"bindist"}, d.BinDist},
		{"depth", []string{"bindist"}, d.Depth},
		{"TransMatrix", []string{"Tmatrix", "Tmatrix"}, d.Matrix.Matrix().Flat()},
	}
	for _, v := range []outVar{
		{name: "Heading", data: d.Heading},
		{name: "Pitch", data: d.Pitch},
		{name: "Roll", data: d.Roll},
		{name: "Temperature", data: d.Temperature},
		{name: "Pressure", data: d.Pressure},
		{name: "Pressure_ac", data: d.PressureAC},
		{name: "Battery", data: d.Battery},
		{name: "SoundSpeed", data: d.SoundSpeed},
		{name: "cellpos", data: d.CellPos},
	} {
		if v.data == nil {
			continue
		}
		if len(v.data) != d.NT() {
			return nil, fmt.Errorf("aqd: %s has length %d; expected %d", v.name, len(v.data), d.NT())
		}
		vars = append(vars, outVar{v.name, []string{"time"}, v.data})
	}
	for _, v := range []struct {
		name string
		dim  string
		a    *sparse.DenseArray
	}{
		{"U", d.binDim(), d.U},
		{"V", d.binDim(), d.V},
		{"W", d.binDim(), d.W},
		{"AMP1", d.binDim(), d.Amp1},
		{"AMP2", d.binDim(), d.Amp2},
		{"AMP3", d.binDim(), d.Amp3},
		{"AGC_1202", d.binDim(), d.AGC},
		{"BurstPressure", "sample", d.BurstPressure},
		{"bin_depth", "bindist", d.BinDepth},
	} {
		if v.a == nil {
			continue
		}
		if err := checkShapes(d.NT(), []string{v.name}, v.a); err != nil {
			return nil, err
		}
		vars = append(vars, outVar{v.name, []string{"time", v.dim}, v.a.Elements})
	}
	return vars, nil
}

// dimLengths returns the lengths of the output dimensions.
func (d *Dataset) dimLengths() (dims []string, lengths []int) {
	dims = []string{"time", "bindist", "lat", "lon", "Tmatrix"}
	lengths = []int{d.NT(), len(d.BinDist), 1, 1, 3}
	if d.Mode == Wave {
		dims = append(dims, "sample")
		lengths = append(lengths, d.U.Shape[1])
	}
	return dims, lengths
}

// GlobalAttrs returns the global attributes of the output file: the
// standardized attributes, followed by the instrument metadata and the
// deployment metadata.
func (d *Dataset) GlobalAttrs() []stglib.Attribute {
	attrs := d.Attrs.List()
	attrs = append(attrs, d.Meta.Attrs()...)
	if d.Deployment != nil {
		attrs = append(attrs, d.Deployment.Attrs...)
	}
	return stglib.GlobalAttrs(attrs, d.HistoryString())
}

// WriteNC writes the processed dataset to a NetCDF classic file at path.
func (d *Dataset) WriteNC(path string) error {
	vars, err := d.outputVars()
	if err != nil {
		return err
	}
	h := cdf.NewHeader(d.dimLengths())
	ann := d.annotations()
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		if v.name == "time" {
			stglib.AddAttributes(h, v.name, []stglib.Attribute{
				{Name: "units", Value: stglib.TimeUnits},
				{Name: "standard_name", Value: "time"},
				{Name: "axis", Value: "T"},
			})
			continue
		}
		if v.name == "lat" || v.name == "lon" {
			continue
		}
		stglib.AddAttributes(h, v.name, ann[v.name])
	}
	stglib.AddAttributes(h, "lat", []stglib.Attribute{
		{Name: "units", Value: "degree_north"},
		{Name: "long_name", Value: "Latitude"},
		{Name: "epic_code", Value: 500},
	})
	stglib.AddAttributes(h, "lon", []stglib.Attribute{
		{Name: "units", Value: "degree_east"},
		{Name: "long_name", Value: "Longitude"},
		{Name: "epic_code", Value: 502},
	})
	stglib.AddAttributes(h, "", d.GlobalAttrs())
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("aqd: creating netcdf file %s: %v", path, errs[0])
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("aqd: creating netcdf file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("aqd: creating netcdf file %s: %v", path, err)
	}
	for _, v := range vars {
		if err := stglib.WriteVariable(f, v.name, v.data); err != nil {
			ff.Close()
			return fmt.Errorf("aqd: writing variable %s to %s: %v", v.name, path, err)
		}
	}
	d.Log.WithField("file", path).Info("wrote netcdf file")
	return ff.Close()
}
