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
	"testing"

	"github.com/ctessum/unit"
	"github.com/stglib/stglib"
)

func TestProfileBins(t *testing.T) {
	size, center := profileBins(75, 0.4)
	if math.Abs(size.Value()-0.75) > 1e-12 || math.Abs(center.Value()-1.15) > 1e-12 {
		t.Errorf("have %v, %v; want 0.75 m, 1.15 m", size, center)
	}
	for _, u := range []*unit.Unit{size, center} {
		if err := u.Check(unit.Meter); err != nil {
			t.Error(err)
		}
	}
	if centimeter.Value() != 0.01 {
		t.Errorf("profileBins should not modify centimeter: have %v", centimeter)
	}
}

func TestCheckAttrs(t *testing.T) {
	meta, err := ReadHeaderFile("testdata/AQD1")
	if err != nil {
		t.Fatal(err)
	}
	md, err := stglib.NewMetadata([]stglib.Attribute{
		{Name: "WATER_DEPTH", Value: 10.0},
		{Name: "initial_instrument_height", Value: 0.3},
		{Name: "orientation", Value: "UP"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("profile", func(t *testing.T) {
		a := CheckAttrs(meta, md, Profile)
		for _, test := range []struct {
			name       string
			have, want float64
		}{
			{"NominalSensorDepth", a.NominalSensorDepth, 9.7},
			{"TransducerOffsetFromBottom", a.TransducerOffsetFromBottom, 0.3},
			{"BinSize", a.BinSize, 0.5},
			{"BlankingDistance", a.BlankingDistance, 0.5},
			{"CenterFirstBin", a.CenterFirstBin, 1},
			{"BeamWidth", a.BeamWidth, 1.7},
		} {
			if math.Abs(test.have-test.want) > 1e-12 {
				t.Errorf("%s: have %g, want %g", test.name, test.have, test.want)
			}
		}
		if a.BinCount != 4 {
			t.Errorf("BinCount: have %d, want 4", a.BinCount)
		}
		if a.CoordSystem != "BEAM" {
			t.Errorf("CoordSystem: have %q, want BEAM", a.CoordSystem)
		}
	})

	t.Run("wave", func(t *testing.T) {
		a := CheckAttrs(meta, md, Wave)
		if a.BinCount != 1 || a.BinSize != 0.75 || !math.IsNaN(a.CenterFirstBin) {
			t.Errorf("have %d bins of %g m starting at %g", a.BinCount, a.BinSize, a.CenterFirstBin)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		md2, err := stglib.NewMetadata([]stglib.Attribute{
			{Name: "WATER_DEPTH", Value: 10.0},
			{Name: "coord_system", Value: "ENU"},
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		a := CheckAttrs(meta, md2, Profile)
		if a.InitialInstrumentHeight != 0 || a.NominalSensorDepth != 10 {
			t.Errorf("missing initial height should be 0: have %g, %g", a.InitialInstrumentHeight, a.NominalSensorDepth)
		}
		if a.CoordSystem != "ENU" {
			t.Errorf("configured coordinate system should take precedence: have %q", a.CoordSystem)
		}
	})
}

func TestAttributesList(t *testing.T) {
	a := &Attributes{
		WaterDepth:                 10,
		BinCount:                   4,
		BinSize:                    0.5,
		CenterFirstBin:             math.NaN(),
		BlankingDistance:           math.NaN(),
		Frequency:                  math.NaN(),
		BeamWidth:                  math.NaN(),
		BeamAngle:                  math.NaN(),
		DeltaT:                     math.NaN(),
		InitialInstrumentHeight:    math.NaN(),
		NominalSensorDepth:         math.NaN(),
		TransducerOffsetFromBottom: math.NaN(),
	}
	attrs := make(map[string]interface{})
	for _, att := range a.List() {
		attrs[att.Name] = att.Value
	}
	if _, ok := attrs["center_first_bin"]; ok {
		t.Error("NaN attributes should be skipped")
	}
	if attrs["bin_count"] != 4 {
		t.Errorf("bin_count: have %v", attrs["bin_count"])
	}
	if attrs["INST_TYPE"] != InstType {
		t.Errorf("INST_TYPE: have %v", attrs["INST_TYPE"])
	}
	if attrs["WATER_DEPTH"] != 10.0 {
		t.Errorf("WATER_DEPTH: have %v", attrs["WATER_DEPTH"])
	}
}
