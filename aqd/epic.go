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

	"github.com/stglib/stglib"
)

// varInfo holds the EPIC/CF description of an output variable.
type varInfo struct {
	units, longName string
	genericName     string
	epicCode        int
	note            string
}

func (v varInfo) attrs() []stglib.Attribute {
	var o []stglib.Attribute
	add := func(name, val string) {
		if val != "" {
			o = append(o, stglib.Attribute{Name: name, Value: val})
		}
	}
	add("units", v.units)
	add("long_name", v.longName)
	add("generic_name", v.genericName)
	if v.epicCode != 0 {
		o = append(o, stglib.Attribute{Name: "epic_code", Value: v.epicCode})
	}
	add("note", v.note)
	return o
}

// scalarInfo describes the variables that have only a time dimension.
var scalarInfo = map[string]varInfo{
	"Temperature": {units: "C", longName: "Temperature", genericName: "temp", epicCode: 1211},
	"Pressure": {units: "dbar", longName: "Pressure", genericName: "press", epicCode: 1,
		note: "Raw pressure from instrument, not corrected for changes in atmospheric pressure"},
	"Pressure_ac": {units: "dbar", longName: "Corrected pressure", genericName: "press", epicCode: 1,
		note: "Corrected for variations in atmospheric pressure"},
	"Battery":    {units: "Volts", longName: "Battery Voltage"},
	"SoundSpeed": {units: "m s-1", longName: "Speed of Sound"},
	"Heading":    {units: "degrees", longName: "Instrument Heading", epicCode: 1215},
	"Pitch":      {units: "degrees", longName: "Instrument Pitch", epicCode: 1216},
	"Roll":       {units: "degrees", longName: "Instrument Roll", epicCode: 1217},
	"cellpos":    {units: "m", longName: "Cell position"},
}

// velocityInfo returns descriptions of the Earth velocities.
func velocityInfo(mode Mode) map[string]varInfo {
	veltxt := "current velocity"
	if mode == Wave {
		veltxt = "wave-burst velocity"
	}
	return map[string]varInfo{
		"U": {units: "m s-1", longName: "Eastward " + veltxt, epicCode: 1205},
		"V": {units: "m s-1", longName: "Northward " + veltxt, epicCode: 1206},
		"W": {units: "m s-1", longName: "Vertical " + veltxt, epicCode: 1204},
	}
}

// binAttrs are attributes added to variables that have a bin dimension.
func (a *Attributes) binAttrs() []stglib.Attribute {
	return []stglib.Attribute{
		{Name: "bin_size", Value: a.BinSize},
		{Name: "center_first_bin", Value: a.CenterFirstBin},
		{Name: "bin_count", Value: a.BinCount},
		{Name: "transducer_offset_from_bottom", Value: a.TransducerOffsetFromBottom},
	}
}

// annotations returns the attributes of every output variable of d.
func (d *Dataset) annotations() map[string][]stglib.Attribute {
	o := make(map[string][]stglib.Attribute)
	for name, info := range scalarInfo {
		o[name] = info.attrs()
	}
	datum := "magnetic north"
	if d.TrueNorth {
		datum = "true north"
	}
	o["Heading"] = append(o["Heading"], stglib.Attribute{Name: "datum", Value: datum})
	for name, info := range velocityInfo(d.Mode) {
		o[name] = append(info.attrs(), stglib.Attribute{Name: "transducer_offset_from_bottom",
			Value: d.Attrs.TransducerOffsetFromBottom})
	}
	for n := 1; n <= 3; n++ {
		o[fmt.Sprintf("AMP%d", n)] = []stglib.Attribute{
			{Name: "long_name", Value: fmt.Sprintf("Beam %d Echo Amplitude", n)},
			{Name: "units", Value: "counts"},
			{Name: "Type", Value: "scalar"},
			{Name: "transducer_offset_from_bottom", Value: d.Attrs.TransducerOffsetFromBottom},
		}
	}
	o["AGC_1202"] = []stglib.Attribute{
		{Name: "long_name", Value: "Average Echo Intensity"},
		{Name: "units", Value: "counts"},
		{Name: "generic_name", Value: "AGC"},
		{Name: "epic_code", Value: 1202},
	}
	o["bindist"] = append([]stglib.Attribute{
		{Name: "units", Value: "m"},
		{Name: "long_name", Value: "distance from transducer head"},
	}, d.Attrs.binAttrs()...)
	depthNote := "uplooking bin depths = WATER_DEPTH - transducer_offset_from_bottom - bindist"
	if d.Orientation == Down {
		depthNote = "downlooking bin depths = WATER_DEPTH - transducer_offset_from_bottom + bindist"
	}
	o["depth"] = append([]stglib.Attribute{
		{Name: "units", Value: "m"},
		{Name: "long_name", Value: "mean water depth"},
		{Name: "positive", Value: "down"},
		{Name: "note", Value: depthNote},
	}, d.Attrs.binAttrs()...)
	o["bin_depth"] = []stglib.Attribute{
		{Name: "units", Value: "m"},
		{Name: "long_name", Value: "bin depth"},
		{Name: "note", Value: "Actual depth time series of velocity bins. Calculated as pressure - bindist."},
	}
	o["BurstPressure"] = []stglib.Attribute{
		{Name: "units", Value: "dbar"},
		{Name: "long_name", Value: "Wave burst pressure"},
		{Name: "generic_name", Value: "press"},
	}
	o["TransMatrix"] = []stglib.Attribute{
		{Name: "long_name", Value: "Transformation Matrix for this Aquadopp"},
	}
	return o
}
