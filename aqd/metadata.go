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

	"github.com/stglib/stglib"
)

// TransMatrix is the beam to XYZ transformation matrix of an
// instrument head.
type TransMatrix [3][3]float64

// Rows returns the matrix as a slice of rows.
func (t TransMatrix) Rows() [][]float64 {
	o := make([][]float64, 3)
	for i := range t {
		o[i] = []float64{t[i][0], t[i][1], t[i][2]}
	}
	return o
}

// Flat returns the matrix in row-major order.
func (t TransMatrix) Flat() []float64 {
	o := make([]float64, 0, 9)
	for i := range t {
		o = append(o, t[i][:]...)
	}
	return o
}

// InstrumentMetadata holds the instrument settings read from an Aquadopp
// header file. Numeric values that were not in the header are NaN
// and text values are empty.
type InstrumentMetadata struct {
	// User setup.
	ProfileInterval       float64 // s
	NumberOfCells         float64
	CellSize              float64 // cm
	AverageInterval       float64 // s
	MeasurementLoad       float64 // %
	TransmitPulseLength   float64 // m
	BlankingDistance      float64 // m
	CompassUpdateRate     float64 // s
	WaveMeasurements      string
	WavePower             string
	WaveInterval          float64 // s
	WaveNumberOfSamples   float64
	WaveSampleRate        string  // e.g. "2 Hz"
	WaveCellSize          float64 // m
	AnalogInput1          string
	AnalogInput2          string
	AnalogPowerOutput     string
	PowerLevel            string
	CoordinateSystem      string
	SoundSpeed            string
	Salinity              string
	NumberOfBeams         float64
	NumberOfPingsPerBurst string
	SoftwareVersion       string
	DeploymentName        string
	DeploymentTime        string
	Comments              string

	// Hardware configuration.
	SerialNumber     string
	HardwareRevision string
	RevisionNumber   string
	RecorderSize     string
	FirmwareVersion  string
	VelocityRange    string
	AnalogInputCal1  string
	AnalogInputCal2  string
	SyncOutDelay     string
	SyncPowerDelay   string

	// Head configuration.
	PressureSensor   string
	Compass          string
	Tilt             string
	Frequency        float64 // kHz
	NumBeams         float64
	HeadSerialNumber string
	TransMatrix      TransMatrix
	PressureCal      string

	// Inferred from the head frequency.
	BeamWidth   float64 // degrees
	BeamPattern string
	BeamAngle   float64 // degrees
}

// newInstrumentMetadata returns metadata with every numeric field set to NaN.
func newInstrumentMetadata() *InstrumentMetadata {
	m := new(InstrumentMetadata)
	for _, section := range headerSections {
		for _, f := range section.fields {
			if f.num != nil {
				*f.num(m) = math.NaN()
			}
		}
	}
	m.BeamWidth = math.NaN()
	m.BeamAngle = math.NaN()
	return m
}

// beamWidths are the nominal beam widths [degrees] for each Aquadopp head
// frequency [kHz].
var beamWidths = map[float64]float64{
	400:  3.7,
	600:  3.0,
	1000: 3.4,
	2000: 1.7,
}

// BeamWidth returns the nominal beam width for a head frequency in kHz,
// or NaN for an unknown frequency.
func BeamWidth(frequency float64) float64 {
	if w, ok := beamWidths[frequency]; ok {
		return w
	}
	return math.NaN()
}

// Attrs returns the metadata as global attributes, named the way the
// Aquadopp processing routines have always named them. Missing values are
// skipped. The transformation matrix is not included; it is stored as a
// variable.
func (m *InstrumentMetadata) Attrs() []stglib.Attribute {
	var o []stglib.Attribute
	seen := make(map[string]struct{})
	mm := *m
	for _, section := range headerSections {
		for _, f := range section.fields {
			if f.attr == "" {
				continue
			}
			if _, ok := seen[f.attr]; ok {
				continue
			}
			seen[f.attr] = struct{}{}
			switch {
			case f.num != nil:
				if v := *f.num(&mm); !math.IsNaN(v) {
					o = append(o, stglib.Attribute{Name: f.attr, Value: v})
				}
			case f.text != nil:
				if v := *f.text(&mm); v != "" {
					o = append(o, stglib.Attribute{Name: f.attr, Value: v})
				}
			}
		}
	}
	if !math.IsNaN(m.BeamWidth) {
		o = append(o, stglib.Attribute{Name: "AQDBeamWidth", Value: m.BeamWidth})
	}
	if m.BeamPattern != "" {
		o = append(o, stglib.Attribute{Name: "AQDBeamPattern", Value: m.BeamPattern})
	}
	if !math.IsNaN(m.BeamAngle) {
		o = append(o, stglib.Attribute{Name: "AQDBeamAngle", Value: m.BeamAngle})
	}
	return o
}
