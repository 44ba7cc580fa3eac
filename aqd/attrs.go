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
	"math"

	"github.com/ctessum/unit"
	"github.com/stglib/stglib"
)

// InstType is the instrument type label written to every file.
const InstType = "Nortek Aquadopp Profiler"

// Mode specifies whether a dataset holds current profiles or wave bursts.
type Mode int

const (
	// Profile is the current profile mode.
	Profile Mode = iota
	// Wave is the wave burst mode.
	Wave
)

func (m Mode) String() string {
	if m == Wave {
		return "wave"
	}
	return "profile"
}

// Attributes are the standardized (EPIC/CMG) dataset attributes derived
// from the instrument metadata and the deployment metadata, so that
// different profilers use the same attribute wording.
type Attributes struct {
	WaterDepth                 float64 // m
	InitialInstrumentHeight    float64 // m
	NominalSensorDepth         float64 // m
	TransducerOffsetFromBottom float64 // m

	SerialNumber string

	BinCount         int
	BinSize          float64 // m
	BlankingDistance float64 // m
	CenterFirstBin   float64 // m

	SalinitySetByUser string
	Frequency         float64 // kHz
	BeamWidth         float64 // degrees
	BeamPattern       string
	BeamAngle         float64 // degrees

	// Orientation, TrimMethod and CoordSystem hold the raw configuration
	// values. They are validated by the processing steps that use them.
	Orientation string
	TrimMethod  string
	CoordSystem string

	MagneticVariation       *float64 // degrees
	MagneticVariationAtSite *float64 // degrees
	Latitude, Longitude     float64

	DeltaT float64 // s
}

// centimeter is the length of one cm.
var centimeter = unit.New(0.01, unit.Meter)

// profileBins returns the bin size and the distance from the transducer to
// the center of the first bin for a cell size given in cm and a blanking
// distance given in m. Nortek lists the distance to the center of the
// first bin as the blanking distance plus one cell size.
func profileBins(cellSizeCM, blanking float64) (size, centerFirst *unit.Unit) {
	size = unit.Mul(unit.New(cellSizeCM, unit.Dimless), centimeter)
	centerFirst = unit.Add(unit.New(blanking, unit.Meter), size)
	return size, centerFirst
}

// CheckAttrs maps instrument metadata to the standardized dataset
// attributes, filling in deployment information from md.
// In wave mode CenterFirstBin is left as NaN; it is set from the
// measured cell position when the orientation is resolved.
func CheckAttrs(meta *InstrumentMetadata, md *stglib.Metadata, mode Mode) *Attributes {
	a := &Attributes{
		WaterDepth:              md.WaterDepth,
		InitialInstrumentHeight: md.InitialInstrumentHeight,
		SerialNumber:            meta.SerialNumber,
		BlankingDistance:        meta.BlankingDistance, // already in m
		CenterFirstBin:          math.NaN(),
		SalinitySetByUser:       meta.Salinity,
		Frequency:               meta.Frequency,
		BeamWidth:               meta.BeamWidth,
		BeamPattern:             meta.BeamPattern,
		BeamAngle:               meta.BeamAngle,
		Orientation:             md.Orientation,
		TrimMethod:              md.TrimMethod,
		CoordSystem:             meta.CoordinateSystem,
		MagneticVariation:       md.MagneticVariation,
		MagneticVariationAtSite: md.MagneticVariationAtSite,
		Latitude:                md.Latitude,
		Longitude:               md.Longitude,
		DeltaT:                  math.NaN(),
	}
	if md.CoordSystem != "" {
		a.CoordSystem = md.CoordSystem
	}
	if math.IsNaN(a.InitialInstrumentHeight) {
		a.InitialInstrumentHeight = 0
	}
	a.NominalSensorDepth = a.WaterDepth - a.InitialInstrumentHeight
	a.TransducerOffsetFromBottom = a.InitialInstrumentHeight

	switch mode {
	case Profile:
		a.BinCount = int(meta.NumberOfCells)
		size, center := profileBins(meta.CellSize, a.BlankingDistance)
		a.BinSize, a.CenterFirstBin = size.Value(), center.Value()
	case Wave:
		a.BinCount = 1
		a.BinSize = meta.WaveCellSize // already in m
	}
	return a
}

// List returns the attributes as NetCDF global attributes.
// Missing values are skipped.
func (a *Attributes) List() []stglib.Attribute {
	var o []stglib.Attribute
	addF := func(name string, v float64) {
		if !math.IsNaN(v) {
			o = append(o, stglib.Attribute{Name: name, Value: v})
		}
	}
	addS := func(name, v string) {
		if v != "" {
			o = append(o, stglib.Attribute{Name: name, Value: v})
		}
	}
	addF("WATER_DEPTH", a.WaterDepth)
	addF("initial_instrument_height", a.InitialInstrumentHeight)
	addS("nominal_sensor_depth_note", "WATER_DEPTH - initial_instrument_height")
	addF("nominal_sensor_depth", a.NominalSensorDepth)
	addF("transducer_offset_from_bottom", a.TransducerOffsetFromBottom)
	addS("serial_number", a.SerialNumber)
	o = append(o, stglib.Attribute{Name: "bin_count", Value: a.BinCount})
	addF("bin_size", a.BinSize)
	addF("blanking_distance", a.BlankingDistance)
	addF("center_first_bin", a.CenterFirstBin)
	addS("salinity_set_by_user", a.SalinitySetByUser)
	addS("salinity_set_by_user_units", "ppt")
	addF("frequency", a.Frequency)
	addF("beam_width", a.BeamWidth)
	addS("beam_pattern", a.BeamPattern)
	addF("beam_angle", a.BeamAngle)
	addS("orientation", a.Orientation)
	addS("trim_method", a.TrimMethod)
	addS("INST_TYPE", InstType)
	addF("DELTA_T", a.DeltaT)
	return o
}
