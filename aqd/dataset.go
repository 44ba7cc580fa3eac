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

// Package aqd processes data from Nortek Aquadopp current profilers: it
// parses instrument headers, rotates velocities to Earth coordinates, applies
// corrections and writes EPIC-convention NetCDF files.
package aqd

import (
	"fmt"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/stglib/stglib"
)

// Dataset holds the state of an Aquadopp dataset as it moves through
// processing. Two-dimensional arrays have shape [time, bin] in profile mode
// and [burst, sample] in wave mode.
type Dataset struct {
	Mode Mode

	Time []time.Time

	Heading, Pitch, Roll []float64 // degrees
	Pressure             []float64 // dbar
	PressureAC           []float64 // atmospherically corrected pressure, dbar; nil if not corrected
	Temperature          []float64 // °C
	Battery              []float64 // V
	SoundSpeed           []float64 // m/s

	// CellPos is the measured cell position of each wave burst, m.
	CellPos []float64

	// BurstPressure is the pressure of each wave burst sample, dbar.
	BurstPressure *sparse.DenseArray

	// Vel1, Vel2 and Vel3 are the velocities as recorded, in the
	// instrument coordinate system, m/s.
	Vel1, Vel2, Vel3 *sparse.DenseArray

	// U, V and W are the East, North and Up velocities, m/s.
	U, V, W *sparse.DenseArray

	// Amp1, Amp2 and Amp3 are the beam amplitudes, counts.
	Amp1, Amp2, Amp3 *sparse.DenseArray

	// AGC is the average of the beam amplitudes, counts.
	AGC *sparse.DenseArray

	// BinDist, DepthArray and Depth are set by CheckOrientation.
	BinDist    []float64
	DepthArray []float64
	Depth      []float64

	// BinDepth is the depth of each bin below the water surface estimated
	// from pressure, m.
	BinDepth *sparse.DenseArray

	Orientation Orientation
	Matrix      OrientedMatrix

	// TrueNorth is set when headings have been corrected for
	// magnetic declination.
	TrueNorth bool

	Meta       *InstrumentMetadata
	Deployment *stglib.Metadata
	Attrs      *Attributes

	// History holds processing notes, newest first.
	History []string

	// Log receives processing messages.
	Log logrus.FieldLogger
}

// DatasetManipulator is a class of functions that operate on a Dataset.
type DatasetManipulator func(d *Dataset) error

// Apply runs funcs on d in order, stopping at the first error.
func (d *Dataset) Apply(funcs ...DatasetManipulator) error {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	for _, f := range funcs {
		if err := f(d); err != nil {
			return err
		}
	}
	return nil
}

// NT returns the number of time steps (or bursts).
func (d *Dataset) NT() int { return len(d.Time) }

// addHistory prepends a processing note.
func (d *Dataset) addHistory(format string, args ...interface{}) {
	d.History = append([]string{fmt.Sprintf(format, args...)}, d.History...)
}

// HistoryString returns the processing notes as a single attribute value.
func (d *Dataset) HistoryString() string {
	return strings.Join(d.History, "; ")
}

// waterLevel returns the pressure to use as a water level reference and
// the name of the variable it came from.
func (d *Dataset) waterLevel() ([]float64, string) {
	if d.PressureAC != nil {
		return d.PressureAC, "Pressure_ac"
	}
	return d.Pressure, "Pressure"
}

// checkShapes makes sure that arrays all have shape [n, m] for the same m.
func checkShapes(n int, names []string, arrays ...*sparse.DenseArray) error {
	var shape []int
	for i, a := range arrays {
		if a == nil {
			return fmt.Errorf("aqd: %s is missing", names[i])
		}
		if len(a.Shape) != 2 {
			return fmt.Errorf("aqd: %s has %d dimensions; expected 2", names[i], len(a.Shape))
		}
		if a.Shape[0] != n {
			return fmt.Errorf("aqd: %s has %d time steps; expected %d", names[i], a.Shape[0], n)
		}
		if shape == nil {
			shape = a.Shape
		} else if a.Shape[1] != shape[1] {
			return fmt.Errorf("aqd: %s has shape %v but %s has shape %v",
				names[i], a.Shape, names[0], shape)
		}
	}
	return nil
}
