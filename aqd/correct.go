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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
)

// Declination returns the magnetic declination for a dataset in degrees,
// preferring the site-specific value. ok is false if neither is set.
func (a *Attributes) Declination() (dec float64, ok bool) {
	switch {
	case a.MagneticVariationAtSite != nil:
		return *a.MagneticVariationAtSite, true
	case a.MagneticVariation != nil:
		return *a.MagneticVariation, true
	default:
		return 0, false
	}
}

// RotateHeading adds the declination dec to heading (degrees), wrapping
// the result into [0, 360).
func RotateHeading(heading []float64, dec float64) []float64 {
	o := make([]float64, len(heading))
	for i, h := range heading {
		x := math.Mod(h+dec, 360)
		if x < 0 {
			x += 360
		}
		if x >= 360 {
			x = 0
		}
		o[i] = x
	}
	return o
}

// RotateHorizontal rotates East and North velocities u and v by the
// declination dec (degrees).
func RotateHorizontal(u, v *sparse.DenseArray, dec float64) (uu, vv *sparse.DenseArray) {
	s, c := math.Sincos(dec * deg2rad)
	uu = u.Copy()
	vv = v.Copy()
	for i := range u.Elements {
		uu.Elements[i] = u.Elements[i]*c + v.Elements[i]*s
		vv.Elements[i] = -u.Elements[i]*s + v.Elements[i]*c
	}
	return uu, vv
}

// MagvarCorrect returns a function that corrects headings and horizontal
// velocities for magnetic declination. If no declination is set, a warning
// is logged and a declination of 0 is used.
func MagvarCorrect() DatasetManipulator {
	return func(d *Dataset) error {
		dec, ok := d.Attrs.Declination()
		if !ok {
			d.Log.Warn("no magnetic variation information; using 0")
		}
		if d.U == nil || d.V == nil {
			return fmt.Errorf("aqd: velocities must be in Earth coordinates before magnetic correction")
		}
		if err := checkShapes(d.NT(), []string{"U", "V"}, d.U, d.V); err != nil {
			return err
		}
		d.Heading = RotateHeading(d.Heading, dec)
		d.U, d.V = RotateHorizontal(d.U, d.V, dec)
		d.TrueNorth = true
		d.Log.WithField("declination", dec).Info("rotated heading and horizontal velocities")
		d.addHistory("Rotated heading and horizontal velocities by %g degrees", dec)
		return nil
	}
}

// TimeShift returns the shift that moves time stamps from the start to the
// center of each averaging interval (profile mode) or burst (wave mode).
func TimeShift(meta *InstrumentMetadata, mode Mode) (*unit.Unit, error) {
	switch mode {
	case Wave:
		period, err := samplePeriod(meta.WaveSampleRate)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(meta.WaveNumberOfSamples) {
			return nil, &ConfigurationError{Attr: "WaveNumberOfSamples", Msg: "missing from header"}
		}
		return unit.Mul(unit.New(meta.WaveNumberOfSamples, unit.Dimless), period, half), nil
	default:
		if math.IsNaN(meta.AverageInterval) {
			return nil, &ConfigurationError{Attr: "AQDAverageInterval", Msg: "missing from header"}
		}
		return unit.Mul(unit.New(meta.AverageInterval, unit.Second), half), nil
	}
}

var half = unit.New(0.5, unit.Dimless)

// rateUnits are the units a wave sampling rate may be given in. A rate
// without units is in Hz.
var rateUnits = map[string]unit.Dimensions{
	"":    unit.Herz,
	"Hz":  unit.Herz,
	"s":   unit.Second,
	"sec": unit.Second,
}

// samplePeriod parses a wave sampling rate such as "2 Hz", or a sampling
// period such as "0.5 s", and returns the time between samples.
func samplePeriod(s string) (*unit.Unit, error) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil, &ConfigurationError{Attr: "WaveSampleRate", Msg: "missing from header"}
	}
	v, err := strconv.ParseFloat(f[0], 64)
	if err != nil || v <= 0 {
		return nil, &ConfigurationError{Attr: "WaveSampleRate", Value: s, Msg: "invalid sampling rate"}
	}
	var u string
	if len(f) > 1 {
		u = f[1]
	}
	dims, ok := rateUnits[u]
	if !ok {
		return nil, &ConfigurationError{Attr: "WaveSampleRate", Value: s, Msg: "unknown sampling rate units"}
	}
	rate := unit.New(v, dims)
	if rate.Check(unit.Herz) == nil {
		return unit.Div(unit.New(1, unit.Dimless), rate), nil
	}
	return rate, nil
}

// ShiftTime returns a function that shifts time stamps to the center of
// each sampling interval. Shifts that aren't a whole number of seconds
// are skipped with a warning.
func ShiftTime() DatasetManipulator {
	return func(d *Dataset) error {
		shift, err := TimeShift(d.Meta, d.Mode)
		if err != nil {
			return err
		}
		if err := shift.Check(unit.Second); err != nil {
			return err
		}
		s := shift.Value()
		if s != math.Trunc(s) {
			d.Log.WithField("shift", s).Warn("time shift is not a whole number of seconds; not shifting times")
			return nil
		}
		dt := time.Duration(s) * time.Second
		t := make([]time.Time, len(d.Time))
		for i, tt := range d.Time {
			t[i] = tt.Add(dt)
		}
		d.Time = t
		d.Log.WithField("shift", dt).Info("shifted times to the center of the sampling interval")
		d.addHistory("Time shifted to middle of sampling interval by %g s", s)
		return nil
	}
}

// TrimMethod is a method for removing velocities above the water surface.
type TrimMethod int

const (
	// NoTrim leaves the data unchanged.
	NoTrim TrimMethod = iota
	// WaterLevel removes bins beyond the water level.
	WaterLevel
	// WaterLevelSidelobe removes bins beyond the water level scaled by the
	// cosine of the beam angle, which also removes sidelobe interference.
	WaterLevelSidelobe
)

func (m TrimMethod) String() string {
	switch m {
	case WaterLevel:
		return "water level"
	case WaterLevelSidelobe:
		return "water level sl"
	default:
		return "none"
	}
}

// ParseTrimMethod parses a trim method. ok is false for unrecognized
// methods, which parse as NoTrim.
func ParseTrimMethod(s string) (m TrimMethod, ok bool) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "water level":
		return WaterLevel, true
	case "water level sl":
		return WaterLevelSidelobe, true
	case "", "none":
		return NoTrim, true
	default:
		return NoTrim, false
	}
}

// Trim masks values of arrays (shape [n, m], the first of which is used to
// find invalid bins) where the bin distance is at or beyond the water level,
// and then drops every bin from the first bin that is invalid at all times.
// A missing water level masks the whole time step. It is an error for the
// first bin to be invalid at all times.
func Trim(method TrimMethod, level, bindist []float64, beamAngle float64, arrays ...*sparse.DenseArray) ([]*sparse.DenseArray, int, error) {
	if method == NoTrim {
		return arrays, len(bindist), nil
	}
	n, m := len(level), len(bindist)
	names := make([]string, len(arrays))
	for i := range names {
		names[i] = fmt.Sprintf("array %d", i)
	}
	if err := checkShapes(n, names, arrays...); err != nil {
		return nil, 0, err
	}
	if len(arrays) > 0 && arrays[0].Shape[1] != m {
		return nil, 0, fmt.Errorf("aqd: arrays have %d bins but there are %d bin distances", arrays[0].Shape[1], m)
	}
	scale := 1.
	if method == WaterLevelSidelobe {
		scale = math.Cos(beamAngle * deg2rad)
	}

	out := make([]*sparse.DenseArray, 0, len(arrays))
	for _, a := range arrays {
		b := a.Copy()
		for i := 0; i < n; i++ {
			lim := level[i] * scale
			for j := 0; j < m; j++ {
				if !(bindist[j] < lim) {
					b.Elements[i*m+j] = math.NaN()
				}
			}
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return out, m, nil
	}

	nbins := firstInvalidBin(out[0])
	if nbins == 0 && m > 0 {
		return nil, 0, fmt.Errorf("aqd: every bin is at or beyond the water level")
	}
	if nbins < m {
		for i, a := range out {
			out[i] = truncateBins(a, nbins)
		}
	}
	return out, nbins, nil
}

// firstInvalidBin returns the index of the first bin of a that is NaN at
// every time step, or the number of bins if there is none.
func firstInvalidBin(a *sparse.DenseArray) int {
	n, m := a.Shape[0], a.Shape[1]
	for j := 0; j < m; j++ {
		allNaN := true
		for i := 0; i < n; i++ {
			if !math.IsNaN(a.Elements[i*m+j]) {
				allNaN = false
				break
			}
		}
		if allNaN && n > 0 {
			return j
		}
	}
	return m
}

// truncateBins returns the first nbins bins of a.
func truncateBins(a *sparse.DenseArray, nbins int) *sparse.DenseArray {
	n, m := a.Shape[0], a.Shape[1]
	o := sparse.ZerosDense(n, nbins)
	for i := 0; i < n; i++ {
		copy(o.Elements[i*nbins:(i+1)*nbins], a.Elements[i*m:i*m+nbins])
	}
	return o
}

// TrimVelocity returns a function that removes velocities and amplitudes
// beyond the water surface using the dataset's trim method.
func TrimVelocity() DatasetManipulator {
	return func(d *Dataset) error {
		method, ok := ParseTrimMethod(d.Attrs.TrimMethod)
		if !ok {
			d.Log.WithField("trim_method", d.Attrs.TrimMethod).Warn("unrecognized trim method; not trimming")
		}
		if method == NoTrim {
			return nil
		}
		if d.Mode == Wave {
			d.Log.Info("wave data are not trimmed")
			return nil
		}
		level, name := d.waterLevel()
		if len(level) != d.NT() {
			return fmt.Errorf("aqd: %s has length %d; expected %d", name, len(level), d.NT())
		}
		d.Log.WithFields(logrus.Fields{
			"method":    method,
			"reference": name,
		}).Info("trimming velocities")

		if d.U == nil {
			return fmt.Errorf("aqd: velocities must be in Earth coordinates before trimming")
		}
		// U must come first; it decides which bins are dropped.
		var targets []**sparse.DenseArray
		var in []*sparse.DenseArray
		for _, p := range []**sparse.DenseArray{&d.U, &d.V, &d.W, &d.Amp1, &d.Amp2, &d.Amp3, &d.AGC} {
			if *p != nil {
				targets = append(targets, p)
				in = append(in, *p)
			}
		}
		arrays, nbins, err := Trim(method, level, d.BinDist, d.Attrs.BeamAngle, in...)
		if err != nil {
			return err
		}
		for i, p := range targets {
			*p = arrays[i]
		}
		if nbins < len(d.BinDist) {
			d.BinDist = d.BinDist[:nbins]
			d.DepthArray, d.Depth = depths(d.BinDist, d.Orientation, d.Attrs.Geometry())
			if d.BinDepth != nil {
				d.BinDepth = truncateBins(d.BinDepth, nbins)
			}
		}
		switch method {
		case WaterLevel:
			d.addHistory("Trimmed velocity data using %s", name)
		case WaterLevelSidelobe:
			d.addHistory("Trimmed velocity data using %s and sidelobe interference", name)
		}
		return nil
	}
}

// MakeBinDepth returns a function that estimates the depth of each bin below
// the water surface from the water level.
func MakeBinDepth() DatasetManipulator {
	return func(d *Dataset) error {
		level, _ := d.waterLevel()
		if len(level) != d.NT() {
			return fmt.Errorf("aqd: pressure has length %d; expected %d", len(level), d.NT())
		}
		m := len(d.BinDist)
		bd := sparse.ZerosDense(len(level), m)
		for i, p := range level {
			for j, b := range d.BinDist {
				bd.Elements[i*m+j] = p - b
			}
		}
		d.BinDepth = bd
		return nil
	}
}

// AddDeltaT returns a function that sets the sampling interval attribute.
func AddDeltaT() DatasetManipulator {
	return func(d *Dataset) error {
		switch d.Mode {
		case Wave:
			d.Attrs.DeltaT = d.Meta.WaveInterval
		default:
			d.Attrs.DeltaT = d.Meta.ProfileInterval
		}
		return nil
	}
}
