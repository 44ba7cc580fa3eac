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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// valueColumn is the column where values start in a header line.
const valueColumn = 38

type fieldKind int

const (
	textField fieldKind = iota
	numberField
	matrixField
)

// headerField describes a single labelled line in a header file.
type headerField struct {
	label   string
	atStart bool // the label must begin the line
	kind    fieldKind

	// term ends a numeric value. If it is empty the value runs
	// to the end of the line.
	term string

	attr string // global attribute name
	num  func(*InstrumentMetadata) *float64
	text func(*InstrumentMetadata) *string
}

func (f headerField) matches(row string) bool {
	if f.atStart {
		return strings.HasPrefix(row, f.label)
	}
	return strings.Contains(row, f.label)
}

// headerSection is a block of header lines ending with the
// sentinel line.
type headerSection struct {
	sentinel string

	// fields are checked in order and the first match is used, so
	// more specific labels must come before labels they contain.
	fields []headerField
}

func num(label, term, attr string, p func(*InstrumentMetadata) *float64) headerField {
	return headerField{label: label, kind: numberField, term: term, attr: attr, num: p}
}

func text(label, attr string, p func(*InstrumentMetadata) *string) headerField {
	return headerField{label: label, kind: textField, attr: attr, text: p}
}

var headerSections = []headerSection{
	{
		sentinel: "Hardware configuration",
		fields: []headerField{
			num("Profile interval", " sec", "AQDProfileInterval", func(m *InstrumentMetadata) *float64 { return &m.ProfileInterval }),
			num("Number of cells", "", "AQDNumberOfCells", func(m *InstrumentMetadata) *float64 { return &m.NumberOfCells }),
			{label: "Cell size", atStart: true, kind: numberField, term: " cm", attr: "AQDCellSize",
				num: func(m *InstrumentMetadata) *float64 { return &m.CellSize }},
			num("Average interval", " sec", "AQDAverageInterval", func(m *InstrumentMetadata) *float64 { return &m.AverageInterval }),
			num("Measurement load", " %", "AQDMeasurementLoad", func(m *InstrumentMetadata) *float64 { return &m.MeasurementLoad }),
			num("Transmit pulse length", " m", "AQDTransmitPulseLength", func(m *InstrumentMetadata) *float64 { return &m.TransmitPulseLength }),
			num("Blanking distance", " m", "AQDBlankingDistance", func(m *InstrumentMetadata) *float64 { return &m.BlankingDistance }),
			num("Compass update rate", " sec", "AQDCompassUpdateRate", func(m *InstrumentMetadata) *float64 { return &m.CompassUpdateRate }),
			text("Wave measurements", "WaveMeasurements", func(m *InstrumentMetadata) *string { return &m.WaveMeasurements }),
			text("Wave - Powerlevel", "WavePower", func(m *InstrumentMetadata) *string { return &m.WavePower }),
			num("Wave - Interval", " sec", "WaveInterval", func(m *InstrumentMetadata) *float64 { return &m.WaveInterval }),
			num("Wave - Number of samples", "", "WaveNumberOfSamples", func(m *InstrumentMetadata) *float64 { return &m.WaveNumberOfSamples }),
			text("Wave - Sampling rate", "WaveSampleRate", func(m *InstrumentMetadata) *string { return &m.WaveSampleRate }),
			num("Wave - Cell size", " m", "WaveCellSize", func(m *InstrumentMetadata) *float64 { return &m.WaveCellSize }),
			text("Analog input 1", "AQDAnalogInput1", func(m *InstrumentMetadata) *string { return &m.AnalogInput1 }),
			text("Analog input 2", "AQDAnalogInput2", func(m *InstrumentMetadata) *string { return &m.AnalogInput2 }),
			text("Power output", "AQDAnalogPowerOutput", func(m *InstrumentMetadata) *string { return &m.AnalogPowerOutput }),
			text("Powerlevel", "AQDPowerLevel", func(m *InstrumentMetadata) *string { return &m.PowerLevel }),
			text("Coordinate system", "AQDCoordinateSystem", func(m *InstrumentMetadata) *string { return &m.CoordinateSystem }),
			text("Sound speed", "AQDSoundSpeed", func(m *InstrumentMetadata) *string { return &m.SoundSpeed }),
			text("Salinity", "AQDSalinity", func(m *InstrumentMetadata) *string { return &m.Salinity }),
			num("Number of beams", "", "AQDNumberOfBeams", func(m *InstrumentMetadata) *float64 { return &m.NumberOfBeams }),
			text("Number of pings per burst", "AQDNumberOfPingsPerBurst", func(m *InstrumentMetadata) *string { return &m.NumberOfPingsPerBurst }),
			text("Software version", "AQDSoftwareVersion", func(m *InstrumentMetadata) *string { return &m.SoftwareVersion }),
			text("Deployment name", "AQDDeploymentName", func(m *InstrumentMetadata) *string { return &m.DeploymentName }),
			text("Deployment time", "AQDDeploymentTime", func(m *InstrumentMetadata) *string { return &m.DeploymentTime }),
			text("Comments", "AQDComments", func(m *InstrumentMetadata) *string { return &m.Comments }),
		},
	},
	{
		sentinel: "Head configuration",
		fields: []headerField{
			text("Serial number", "AQDSerial_Number", func(m *InstrumentMetadata) *string { return &m.SerialNumber }),
			text("Hardware revision", "AQDHardwareRevision", func(m *InstrumentMetadata) *string { return &m.HardwareRevision }),
			text("Revision number", "AQDRevisionNumber", func(m *InstrumentMetadata) *string { return &m.RevisionNumber }),
			text("Recorder size", "AQDRecorderSize", func(m *InstrumentMetadata) *string { return &m.RecorderSize }),
			text("Firmware version", "AQDFirmwareVersion", func(m *InstrumentMetadata) *string { return &m.FirmwareVersion }),
			text("Velocity range", "AQDVelocityRange", func(m *InstrumentMetadata) *string { return &m.VelocityRange }),
			text("Power output", "AQDAnalogPowerOutput", func(m *InstrumentMetadata) *string { return &m.AnalogPowerOutput }),
			text("Analog input #1 calibration (a0, a1)", "AQDAnalogInputCal1", func(m *InstrumentMetadata) *string { return &m.AnalogInputCal1 }),
			text("Analog input #2 calibration (a0, a1)", "AQDAnalogInputCal2", func(m *InstrumentMetadata) *string { return &m.AnalogInputCal2 }),
			text("Sync signal data out delay", "AQDSyncOutDelay", func(m *InstrumentMetadata) *string { return &m.SyncOutDelay }),
			text("Sync signal power down delay", "AQDSyncPowerDelay", func(m *InstrumentMetadata) *string { return &m.SyncPowerDelay }),
		},
	},
	{
		sentinel: "Current profile cell center distance from head",
		fields: []headerField{
			text("Pressure sensor calibration", "AQDPressureCal", func(m *InstrumentMetadata) *string { return &m.PressureCal }),
			text("Pressure sensor", "AQDPressureSensor", func(m *InstrumentMetadata) *string { return &m.PressureSensor }),
			text("Compass", "AQDCompass", func(m *InstrumentMetadata) *string { return &m.Compass }),
			text("Tilt sensor", "AQDTilt", func(m *InstrumentMetadata) *string { return &m.Tilt }),
			num("Head frequency", " kHz", "AQDFrequency", func(m *InstrumentMetadata) *float64 { return &m.Frequency }),
			num("Number of beams", "", "AQDNumBeams", func(m *InstrumentMetadata) *float64 { return &m.NumBeams }),
			text("Serial number", "AQDHeadSerialNumber", func(m *InstrumentMetadata) *string { return &m.HeadSerialNumber }),
			{label: "Transformation matrix", kind: matrixField},
		},
	},
}

// headerScanner reads header lines and keeps track of line numbers.
type headerScanner struct {
	s    *bufio.Scanner
	line int
	row  string
}

func (h *headerScanner) next() bool {
	if !h.s.Scan() {
		return false
	}
	h.line++
	h.row = strings.TrimRight(h.s.Text(), " \t\r\n")
	return true
}

func (h *headerScanner) errorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Line: h.line, Text: h.row, Msg: fmt.Sprintf(format, args...)}
}

// value returns the part of the current line starting at the value column.
func (h *headerScanner) value() string {
	if len(h.row) <= valueColumn {
		return ""
	}
	return h.row[valueColumn:]
}

// number parses the numeric value on the current line, which ends
// at term.
func (h *headerScanner) number(term string) (float64, error) {
	v := h.value()
	if term != "" {
		i := strings.Index(v, term)
		if i < 0 {
			return 0, h.errorf("missing %q after value", strings.TrimSpace(term))
		}
		v = v[:i]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, h.errorf("invalid number %q", strings.TrimSpace(v))
	}
	return f, nil
}

// matrixRow parses three whitespace-separated values from the
// current line.
func (h *headerScanner) matrixRow() ([3]float64, error) {
	var o [3]float64
	fields := strings.Fields(h.value())
	if len(fields) != 3 {
		return o, h.errorf("transformation matrix row has %d values; expected 3", len(fields))
	}
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return o, h.errorf("invalid transformation matrix value %q", s)
		}
		o[i] = f
	}
	return o, nil
}

// ReadHeader reads instrument metadata from the text of an
// Aquadopp header (.hdr) file.
func ReadHeader(r io.Reader) (*InstrumentMetadata, error) {
	m := newInstrumentMetadata()
	h := &headerScanner{s: bufio.NewScanner(r)}
	h.s.Buffer(make([]byte, 64*1024), 1024*1024)

	for _, section := range headerSections {
		found := false
		for h.next() {
			if strings.Contains(h.row, section.sentinel) {
				found = true
				break
			}
			for _, f := range section.fields {
				if !f.matches(h.row) {
					continue
				}
				switch f.kind {
				case textField:
					*f.text(m) = h.value()
				case numberField:
					v, err := h.number(f.term)
					if err != nil {
						return nil, err
					}
					*f.num(m) = v
				case matrixField:
					for i := 0; i < 3; i++ {
						if i > 0 && !h.next() {
							return nil, h.errorf("header ended inside the transformation matrix")
						}
						row, err := h.matrixRow()
						if err != nil {
							return nil, err
						}
						m.TransMatrix[i] = row
					}
				}
				break
			}
		}
		if err := h.s.Err(); err != nil {
			return nil, &ParseError{Line: h.line, Msg: err.Error()}
		}
		if !found {
			return nil, &ParseError{Msg: fmt.Sprintf("header ended before %q", section.sentinel)}
		}
	}

	// Infer some things based on the Aquadopp brochure.
	m.BeamWidth = BeamWidth(m.Frequency)
	m.BeamPattern = "convex"
	m.BeamAngle = 25
	return m, nil
}

// ReadHeaderFile reads instrument metadata from the header file basefile + ".hdr".
func ReadHeaderFile(basefile string) (*InstrumentMetadata, error) {
	f, err := os.Open(basefile + ".hdr")
	if err != nil {
		return nil, fmt.Errorf("aqd: opening header file: %v", err)
	}
	defer f.Close()
	return ReadHeader(f)
}
