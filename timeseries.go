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
	"io"
	"math"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/google/uuid"
)

// TimeUnits are the units of the time variable in output files.
const TimeUnits = "seconds since 1970-01-01 00:00:00 UTC"

// Variable is a single time-indexed channel of a TimeSeries.
type Variable struct {
	Name     string
	Units    string
	LongName string
	Data     []float64
	Attrs    []Attribute
}

// TimeSeries is a set of variables sharing a single time axis, as recorded
// by a single-point instrument such as an EXO sonde or an RBR logger.
type TimeSeries struct {
	Time []time.Time
	Vars []*Variable

	// Attrs are global attributes.
	Attrs []Attribute
}

// Var returns the variable with the given name, or nil if there is none.
func (ts *TimeSeries) Var(name string) *Variable {
	for _, v := range ts.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Check makes sure that every variable is the same length as the time axis.
func (ts *TimeSeries) Check() error {
	for _, v := range ts.Vars {
		if len(v.Data) != len(ts.Time) {
			return fmt.Errorf("stglib: variable %s has length %d but there are %d time steps",
				v.Name, len(v.Data), len(ts.Time))
		}
	}
	return nil
}

// EpochSeconds converts times to seconds since the Unix epoch.
func EpochSeconds(t []time.Time) []float64 {
	o := make([]float64, len(t))
	for i, tt := range t {
		o[i] = float64(tt.UnixNano()) / 1e9
	}
	return o
}

// FromEpochSeconds converts seconds since the Unix epoch to times.
func FromEpochSeconds(s []float64) []time.Time {
	o := make([]time.Time, len(s))
	for i, ss := range s {
		sec, frac := math.Modf(ss)
		o[i] = time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
	}
	return o
}

// AddAttributes adds attrs to variable v of header h (or to the global
// attributes if v is ""), skipping values that can't be represented.
func AddAttributes(h *cdf.Header, v string, attrs []Attribute) {
	seen := make(map[string]struct{})
	for _, a := range attrs {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		val, ok := cdfValue(a.Value)
		if !ok {
			continue
		}
		seen[a.Name] = struct{}{}
		h.AddAttribute(v, a.Name, val)
	}
}

// GlobalAttrs returns attrs followed by the attributes every output file
// carries.
func GlobalAttrs(attrs []Attribute, history string) []Attribute {
	o := append([]Attribute{}, attrs...)
	o = append(o,
		Attribute{Name: "Conventions", Value: "CF-1.6"},
		Attribute{Name: "uuid", Value: uuid.New().String()},
		Attribute{Name: "stglib_version", Value: Version},
	)
	if history != "" {
		o = append(o, Attribute{Name: "history", Value: history})
	}
	return o
}

// WriteCDF writes the time series to a NetCDF classic file at path.
// latitude and longitude give the deployment location and may be NaN.
func (ts *TimeSeries) WriteCDF(path string, latitude, longitude float64) error {
	if err := ts.Check(); err != nil {
		return err
	}
	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{len(ts.Time), 1, 1})

	h.AddVariable("time", []string{"time"}, []float64{0})
	AddAttributes(h, "time", []Attribute{
		{Name: "units", Value: TimeUnits},
		{Name: "standard_name", Value: "time"},
		{Name: "axis", Value: "T"},
	})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	AddAttributes(h, "lat", []Attribute{
		{Name: "units", Value: "degree_north"},
		{Name: "long_name", Value: "Latitude"},
		{Name: "epic_code", Value: 500},
	})
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	AddAttributes(h, "lon", []Attribute{
		{Name: "units", Value: "degree_east"},
		{Name: "long_name", Value: "Longitude"},
		{Name: "epic_code", Value: 502},
	})
	for _, v := range ts.Vars {
		h.AddVariable(v.Name, []string{"time"}, []float64{0})
		attrs := v.Attrs
		if v.Units != "" {
			attrs = append([]Attribute{{Name: "units", Value: v.Units}}, attrs...)
		}
		if v.LongName != "" {
			attrs = append([]Attribute{{Name: "long_name", Value: v.LongName}}, attrs...)
		}
		AddAttributes(h, v.Name, attrs)
	}
	AddAttributes(h, "", GlobalAttrs(ts.Attrs, ""))
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("stglib: creating netcdf file %s: %v", path, err)
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stglib: creating netcdf file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("stglib: creating netcdf file %s: %v", path, err)
	}
	data := map[string][]float64{
		"time": EpochSeconds(ts.Time),
		"lat":  {latitude},
		"lon":  {longitude},
	}
	for _, v := range ts.Vars {
		data[v.Name] = v.Data
	}
	for _, name := range append([]string{"time", "lat", "lon"}, varNames(ts.Vars)...) {
		d := data[name]
		if len(d) == 0 {
			continue
		}
		if err := WriteVariable(f, name, d); err != nil {
			ff.Close()
			return fmt.Errorf("stglib: writing variable %s to %s: %v", name, path, err)
		}
	}
	return ff.Close()
}

// WriteVariable writes data to variable name of f, starting at the origin.
// Writers of fixed-size variables return io.EOF once the variable is
// full, which is not an error when all of data was written.
func WriteVariable(f *cdf.File, name string, data []float64) error {
	w := f.Writer(name, nil, nil)
	if w == nil {
		return fmt.Errorf("variable %s not in file", name)
	}
	n, err := w.Write(data)
	if err == io.EOF && n == len(data) {
		return nil
	}
	if err == nil && n != len(data) {
		return fmt.Errorf("wrote %d of %d values", n, len(data))
	}
	return err
}

func varNames(vars []*Variable) []string {
	o := make([]string, len(vars))
	for i, v := range vars {
		o[i] = v.Name
	}
	return o
}
