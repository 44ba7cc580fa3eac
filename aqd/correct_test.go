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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func denseOf(n, m int, v ...float64) *sparse.DenseArray {
	a := sparse.ZerosDense(n, m)
	copy(a.Elements, v)
	return a
}

func TestDeclination(t *testing.T) {
	site, general := 3.5, -14.5
	for _, test := range []struct {
		a    Attributes
		want float64
		ok   bool
	}{
		{Attributes{MagneticVariationAtSite: &site, MagneticVariation: &general}, 3.5, true},
		{Attributes{MagneticVariation: &general}, -14.5, true},
		{Attributes{}, 0, false},
	} {
		dec, ok := test.a.Declination()
		if dec != test.want || ok != test.ok {
			t.Errorf("have %g, %v; want %g, %v", dec, ok, test.want, test.ok)
		}
	}
}

func TestRotateHeading(t *testing.T) {
	have := RotateHeading([]float64{350, 5, 180, 0}, 15)
	want := []float64{5, 20, 195, 15}
	if !cmp.Equal(have, want, approx) {
		t.Errorf("have %v, want %v", have, want)
	}
	have = RotateHeading([]float64{5, 359}, -10)
	want = []float64{355, 349}
	if !cmp.Equal(have, want, approx) {
		t.Errorf("negative: have %v, want %v", have, want)
	}
	// -1e-15 + 360 rounds to 360.
	have = RotateHeading([]float64{0, 360}, -1e-15)
	for i, h := range have {
		if h < 0 || h >= 360 {
			t.Errorf("%d: have %v, want a heading in [0, 360)", i, h)
		}
	}
}

func TestRotateHorizontal(t *testing.T) {
	u := denseOf(1, 2, 1, 0)
	v := denseOf(1, 2, 0, 1)
	uu, vv := RotateHorizontal(u, v, 90)
	for i, want := range []float64{0, 1} {
		if math.Abs(uu.Elements[i]-want) > 1e-12 {
			t.Errorf("u[%d]: have %g, want %g", i, uu.Elements[i], want)
		}
	}
	for i, want := range []float64{-1, 0} {
		if math.Abs(vv.Elements[i]-want) > 1e-12 {
			t.Errorf("v[%d]: have %g, want %g", i, vv.Elements[i], want)
		}
	}
	if u.Elements[0] != 1 {
		t.Error("input was modified")
	}
}

func TestMagvarCorrect(t *testing.T) {
	dec := 10.
	log, _ := logtest.NewNullLogger()
	d := &Dataset{
		Time:    make([]time.Time, 1),
		Heading: []float64{355},
		U:       denseOf(1, 1, 1),
		V:       denseOf(1, 1, 0),
		Attrs:   &Attributes{MagneticVariation: &dec},
		Log:     log,
	}
	if err := d.Apply(MagvarCorrect()); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(d.Heading, []float64{5}, approx) {
		t.Errorf("heading: have %v", d.Heading)
	}
	if !d.TrueNorth {
		t.Error("TrueNorth should be set")
	}
}

func TestMagvarCorrect_missing(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.WarnLevel)
	d := &Dataset{
		Time:    make([]time.Time, 1),
		Heading: []float64{42},
		U:       denseOf(1, 1, 1),
		V:       denseOf(1, 1, 2),
		Attrs:   &Attributes{},
		Log:     log,
	}
	if err := d.Apply(MagvarCorrect()); err != nil {
		t.Fatal(err)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("expected a warning about missing magnetic variation; have %v", e)
	}
	if d.Heading[0] != 42 || d.U.Elements[0] != 1 || d.V.Elements[0] != 2 {
		t.Errorf("a declination of 0 should leave values unchanged")
	}
}

func TestTimeShift(t *testing.T) {
	s, err := TimeShift(&InstrumentMetadata{AverageInterval: 120}, Profile)
	if err != nil {
		t.Fatal(err)
	}
	if s.Value() != 60 {
		t.Errorf("profile: have %g, want 60", s.Value())
	}
	s, err = TimeShift(&InstrumentMetadata{WaveNumberOfSamples: 1024, WaveSampleRate: "2 Hz"}, Wave)
	if err != nil {
		t.Fatal(err)
	}
	if s.Value() != 256 {
		t.Errorf("wave: have %g, want 256", s.Value())
	}
	if err := s.Check(unit.Second); err != nil {
		t.Error(err)
	}
	s, err = TimeShift(&InstrumentMetadata{WaveNumberOfSamples: 1024, WaveSampleRate: "0.5 s"}, Wave)
	if err != nil {
		t.Fatal(err)
	}
	if s.Value() != 256 || s.Check(unit.Second) != nil {
		t.Errorf("wave period: have %v, want 256 s", s)
	}
	var cerr *ConfigurationError
	for _, rate := range []string{"", "2 knots", "-2 Hz"} {
		_, err = TimeShift(&InstrumentMetadata{WaveNumberOfSamples: 1024, WaveSampleRate: rate}, Wave)
		if !errors.As(err, &cerr) {
			t.Errorf("%q: have error %v, want *ConfigurationError", rate, err)
		}
	}
	_, err = TimeShift(&InstrumentMetadata{AverageInterval: math.NaN()}, Profile)
	if !errors.As(err, &cerr) {
		t.Errorf("have error %v, want *ConfigurationError", err)
	}
}

func TestShiftTime(t *testing.T) {
	t0 := time.Date(2015, 6, 9, 12, 0, 0, 0, time.UTC)

	t.Run("whole", func(t *testing.T) {
		log, _ := logtest.NewNullLogger()
		d := &Dataset{Time: []time.Time{t0}, Meta: &InstrumentMetadata{AverageInterval: 120}, Log: log}
		if err := d.Apply(ShiftTime()); err != nil {
			t.Fatal(err)
		}
		if want := t0.Add(time.Minute); !d.Time[0].Equal(want) {
			t.Errorf("have %v, want %v", d.Time[0], want)
		}
		if len(d.History) != 1 {
			t.Errorf("history: have %v", d.History)
		}
	})

	t.Run("fractional", func(t *testing.T) {
		log, hook := logtest.NewNullLogger()
		d := &Dataset{Time: []time.Time{t0}, Meta: &InstrumentMetadata{AverageInterval: 121}, Log: log}
		if err := d.Apply(ShiftTime()); err != nil {
			t.Fatal(err)
		}
		if !d.Time[0].Equal(t0) {
			t.Errorf("times should not be shifted: have %v", d.Time[0])
		}
		e := hook.LastEntry()
		if e == nil || e.Level != logrus.WarnLevel {
			t.Errorf("expected a warning; have %v", e)
		}
		if len(d.History) != 0 {
			t.Errorf("history: have %v", d.History)
		}
	})
}

func TestParseTrimMethod(t *testing.T) {
	for _, test := range []struct {
		s    string
		want TrimMethod
		ok   bool
	}{
		{"water level", WaterLevel, true},
		{"Water  Level", WaterLevel, true},
		{"water level sl", WaterLevelSidelobe, true},
		{"", NoTrim, true},
		{"none", NoTrim, true},
		{"bottom track", NoTrim, false},
	} {
		m, ok := ParseTrimMethod(test.s)
		if m != test.want || ok != test.ok {
			t.Errorf("%q: have %v, %v; want %v, %v", test.s, m, ok, test.want, test.ok)
		}
	}
}

func TestTrim(t *testing.T) {
	nan := math.NaN()
	bindist := []float64{1, 1.5, 2, 2.5}

	t.Run("water level", func(t *testing.T) {
		u := denseOf(3, 4,
			1, 2, 3, 4,
			5, 6, 7, 8,
			9, 10, 11, 12)
		out, nbins, err := Trim(WaterLevel, []float64{2.2, 1.8, 2.4}, bindist, 25, u)
		if err != nil {
			t.Fatal(err)
		}
		if nbins != 3 {
			t.Errorf("nbins: have %d, want 3", nbins)
		}
		want := []float64{
			1, 2, 3,
			5, 6, nan,
			9, 10, 11,
		}
		if !cmp.Equal(out[0].Elements, want, approx) {
			t.Errorf("have %v, want %v", out[0].Elements, want)
		}
		if u.Elements[3] != 4 {
			t.Error("input was modified")
		}
	})

	t.Run("no fully invalid bin", func(t *testing.T) {
		u := denseOf(2, 4,
			1, 2, 3, 4,
			5, 6, 7, 8)
		out, nbins, err := Trim(WaterLevel, []float64{2.2, 3}, bindist, 25, u)
		if err != nil {
			t.Fatal(err)
		}
		if nbins != 4 {
			t.Errorf("nbins: have %d, want 4", nbins)
		}
		want := []float64{
			1, 2, 3, nan,
			5, 6, 7, 8,
		}
		if !cmp.Equal(out[0].Elements, want, approx) {
			t.Errorf("have %v, want %v", out[0].Elements, want)
		}
	})

	t.Run("missing level", func(t *testing.T) {
		u := denseOf(3, 4,
			1, 2, 3, 4,
			5, 6, 7, 8,
			9, 10, 11, 12)
		out, nbins, err := Trim(WaterLevel, []float64{2.2, nan, 2.4}, bindist, 25, u)
		if err != nil {
			t.Fatal(err)
		}
		if nbins != 3 {
			t.Errorf("nbins: have %d, want 3", nbins)
		}
		want := []float64{
			1, 2, 3,
			nan, nan, nan,
			9, 10, 11,
		}
		if !cmp.Equal(out[0].Elements, want, approx) {
			t.Errorf("have %v, want %v", out[0].Elements, want)
		}
	})

	t.Run("all dry", func(t *testing.T) {
		u := denseOf(2, 4,
			1, 2, 3, 4,
			5, 6, 7, 8)
		if _, _, err := Trim(WaterLevel, []float64{0.5, nan}, bindist, 25, u); err == nil {
			t.Error("expected an error when no bin is ever below the water level")
		}
	})

	t.Run("sidelobe", func(t *testing.T) {
		u := denseOf(1, 4, 1, 2, 3, 4)
		amp := denseOf(1, 4, 10, 20, 30, 40)
		// 2.4·cos(25°) ≈ 2.175
		out, nbins, err := Trim(WaterLevelSidelobe, []float64{2.4}, bindist, 25, u, amp)
		if err != nil {
			t.Fatal(err)
		}
		if nbins != 3 {
			t.Errorf("nbins: have %d, want 3", nbins)
		}
		if !cmp.Equal(out[1].Elements, []float64{10, 20, 30}, approx) {
			t.Errorf("amplitude: have %v", out[1].Elements)
		}
	})

	t.Run("none", func(t *testing.T) {
		u := denseOf(1, 4, 1, 2, 3, 4)
		out, nbins, err := Trim(NoTrim, []float64{0}, bindist, 25, u)
		if err != nil {
			t.Fatal(err)
		}
		if nbins != 4 || out[0] != u {
			t.Error("NoTrim should return the input")
		}
	})

	t.Run("shape", func(t *testing.T) {
		u := denseOf(1, 3, 1, 2, 3)
		if _, _, err := Trim(WaterLevel, []float64{2}, bindist, 25, u); err == nil {
			t.Error("expected an error for mismatched bins")
		}
	})
}

func TestTrimVelocity(t *testing.T) {
	newDataset := func(method string) (*Dataset, *logtest.Hook) {
		log, hook := logtest.NewNullLogger()
		d := &Dataset{
			Time:     make([]time.Time, 2),
			Pressure: []float64{2.2, 1.8},
			U:        denseOf(2, 4, 1, 2, 3, 4, 5, 6, 7, 8),
			V:        denseOf(2, 4, 1, 2, 3, 4, 5, 6, 7, 8),
			W:        denseOf(2, 4, 1, 2, 3, 4, 5, 6, 7, 8),
			AGC:      denseOf(2, 4, 1, 2, 3, 4, 5, 6, 7, 8),
			BinDist:  []float64{1, 1.5, 2, 2.5},
			Attrs: &Attributes{TrimMethod: method, BinCount: 4, BinSize: 0.5,
				CenterFirstBin: 1, WaterDepth: 3, TransducerOffsetFromBottom: 0.5, BeamAngle: 25},
			Orientation: Up,
			Log:         log,
		}
		return d, hook
	}

	d, _ := newDataset("water level")
	if err := d.Apply(TrimVelocity()); err != nil {
		t.Fatal(err)
	}
	if d.U.Shape[1] != 3 || d.AGC.Shape[1] != 3 {
		t.Errorf("shape: have %v and %v, want 3 bins", d.U.Shape, d.AGC.Shape)
	}
	if want := []float64{2, 1.5, 1}; !cmp.Equal(d.DepthArray, want, approx) {
		t.Errorf("DepthArray: have %v, want %v", d.DepthArray, want)
	}
	if want := []float64{1, 2, 3, 5, 6, math.NaN()}; !cmp.Equal(d.V.Elements, want, approx) {
		t.Errorf("V: have %v, want %v", d.V.Elements, want)
	}
	if len(d.BinDist) != 3 || len(d.Depth) != 3 {
		t.Errorf("bins: have %v and %v", d.BinDist, d.Depth)
	}
	if d.Attrs.BinCount != 4 {
		t.Errorf("BinCount should be unchanged: have %d", d.Attrs.BinCount)
	}

	d, hook := newDataset("bottom track")
	if err := d.Apply(TrimVelocity()); err != nil {
		t.Fatal(err)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("expected a warning; have %v", e)
	}
	if d.U.Shape[1] != 4 {
		t.Error("unrecognized methods should not trim")
	}

	d, _ = newDataset("water level")
	d.PressureAC = []float64{3, 3}
	if err := d.Apply(TrimVelocity()); err != nil {
		t.Fatal(err)
	}
	if d.U.Shape[1] != 4 {
		t.Error("corrected pressure should be used as the water level")
	}
	if want := "Trimmed velocity data using Pressure_ac"; d.HistoryString() != want {
		t.Errorf("history: have %q, want %q", d.HistoryString(), want)
	}

	d, _ = newDataset("water level")
	d.Pressure = []float64{0.2, 0.1}
	if err := d.Apply(TrimVelocity()); err == nil {
		t.Error("expected an error when every bin is above the water level")
	}

	d, _ = newDataset("water level")
	d.Mode = Wave
	if err := d.Apply(TrimVelocity()); err != nil {
		t.Fatal(err)
	}
	if d.U.Shape[1] != 4 {
		t.Error("wave data should not be trimmed")
	}
}

func TestMakeBinDepth(t *testing.T) {
	d := &Dataset{
		Time:     make([]time.Time, 2),
		Pressure: []float64{3, 4},
		BinDist:  []float64{1, 1.5},
	}
	if err := d.Apply(MakeBinDepth()); err != nil {
		t.Fatal(err)
	}
	if want := []float64{2, 1.5, 3, 2.5}; !cmp.Equal(d.BinDepth.Elements, want, approx) {
		t.Errorf("have %v, want %v", d.BinDepth.Elements, want)
	}
}
