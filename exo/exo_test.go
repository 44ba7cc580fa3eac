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

package exo

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stglib/stglib"
	"github.com/tealeg/xlsx"
)

// writeTestFile writes a KOR-style export with skiprows preamble rows.
func writeTestFile(t *testing.T, skiprows int) string {
	f := xlsx.NewFile()
	s, err := f.AddSheet("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < skiprows; i++ {
		s.AddRow().AddCell().SetString("KOR Export File")
	}
	heading := s.AddRow()
	for _, h := range []string{DateColumn, TimeColumn, "Site Name", "Temp °C", "Sal psu", "Depth m"} {
		heading.AddCell().SetString(h)
	}
	for _, r := range []struct {
		date, clock, site string
		vals              []float64
	}{
		{"06/09/2015", "12:00:00", "CB", []float64{15.5, 30.1, 1.2}},
		{"06/09/2015", "12:15:00", "CB", []float64{15.6, 30.2, math.NaN()}},
		{"06/09/2015", "12:30:00", "CB", []float64{15.7, 30.3, 1.3}},
	} {
		row := s.AddRow()
		row.AddCell().SetString(r.date)
		row.AddCell().SetString(r.clock)
		row.AddCell().SetString(r.site)
		for _, v := range r.vals {
			c := row.AddCell()
			if !math.IsNaN(v) {
				c.SetFloat(v)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "exo.xlsx")
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead(t *testing.T) {
	path := writeTestFile(t, 3)
	ts, err := Read(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts.Time) != 3 {
		t.Fatalf("have %d records, want 3", len(ts.Time))
	}
	if want := time.Date(2015, 6, 9, 12, 15, 0, 0, time.UTC); !ts.Time[1].Equal(want) {
		t.Errorf("time: have %v, want %v", ts.Time[1], want)
	}
	if ts.Var("Site_Name") != nil {
		t.Error("text columns should be dropped")
	}
	temp := ts.Var("Temp")
	if temp == nil {
		t.Fatalf("missing Temp; have %v", ts.Vars)
	}
	if temp.Units != "°C" || temp.LongName != "Temp °C" {
		t.Errorf("have units %q and long name %q", temp.Units, temp.LongName)
	}
	depth := ts.Var("Depth")
	if depth == nil {
		t.Fatal("missing Depth")
	}
	if want := []float64{1.2, math.NaN(), 1.3}; !cmp.Equal(depth.Data, want, cmpopts.EquateNaNs()) {
		t.Errorf("Depth: have %v, want %v", depth.Data, want)
	}

	if _, err := Read(path, 10); err == nil {
		t.Error("expected an error when skipping every row")
	}
	if _, err := Read(path, 1); err == nil {
		t.Error("expected an error for a missing heading row")
	}
}

func TestOpenExport(t *testing.T) {
	path := writeTestFile(t, 0)
	f1, err := openExport(path)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := openExport(path)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Error("a repeated open should return the cached spreadsheet")
	}
	if _, err := openExport(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSplitHeading(t *testing.T) {
	for h, want := range map[string][2]string{
		"Temp °C":       {"Temp", "°C"},
		"Turbidity FNU": {"Turbidity", "FNU"},
		"Depth":         {"Depth", ""},
		"pH mV":         {"pH", "mV"},
		"ODO % sat":     {"ODO___sat", ""},
	} {
		name, units := splitHeading(h)
		if name != want[0] || units != want[1] {
			t.Errorf("%q: have %q, %q; want %q, %q", h, name, units, want[0], want[1])
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2015, 6, 9, 12, 0, 0, 0, time.UTC)
	for _, test := range []struct{ date, clock string }{
		{"06/09/2015", "12:00:00"},
		{"42164", "0.5"},
		{"42164", "12:00:00"},
	} {
		have, err := parseTime(test.date, test.clock, false)
		if err != nil {
			t.Errorf("%v: %v", test, err)
			continue
		}
		if !have.Equal(want) {
			t.Errorf("%v: have %v, want %v", test, have, want)
		}
	}
	if _, err := parseTime("June 9", "12:00:00", false); err == nil {
		t.Error("expected an error for an invalid date")
	}
	if _, err := parseTime("06/09/2015", "noon", false); err == nil {
		t.Error("expected an error for an invalid time")
	}
}

func TestToNC(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	path := writeTestFile(t, 2)
	md, err := stglib.NewMetadata([]stglib.Attribute{
		{Name: "MOORING", Value: "1076"},
		{Name: "latitude", Value: 38.1},
		{Name: "longitude", Value: -75.3},
		{Name: "skiprows", Value: 2.0},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "exo.nc")
	if err := ToNC(path, md, out, log); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	sal, err := stglib.ReadVariable(nc, "Sal")
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(sal, []float64{30.1, 30.2, 30.3}) {
		t.Errorf("Sal: have %v", sal)
	}
	if have := nc.Header.GetAttribute("", "INST_TYPE"); have != InstType {
		t.Errorf("INST_TYPE: have %v", have)
	}
}
