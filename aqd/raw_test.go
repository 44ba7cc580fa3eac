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
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReadSensor(t *testing.T) {
	const sen = ` 6  9 2015 12  0 30.5 00000000 00110000  13.2 1508.2  10.0  1.1 -0.4  2.200  15.02     0     0

 6  9 2015 12 10  0 00000000 00110000  13.2 1508.1  20.0  1.0 -0.5  1.800  15.01     0     0
`
	s, err := ReadSensor(strings.NewReader(sen))
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2015, 6, 9, 12, 0, 30, 5e8, time.UTC); !s.Time[0].Equal(want) {
		t.Errorf("time: have %v, want %v", s.Time[0], want)
	}
	if !cmp.Equal(s.Heading, []float64{10, 20}) || !cmp.Equal(s.Temperature, []float64{15.02, 15.01}) {
		t.Errorf("have heading %v and temperature %v", s.Heading, s.Temperature)
	}
	if _, err := ReadSensor(strings.NewReader("1 2 3\n")); err == nil {
		t.Error("expected an error for a short row")
	}
	if _, err := ReadSensor(strings.NewReader(strings.Replace(sen, "13.2", "x", 1))); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestReadProfile(t *testing.T) {
	a, err := ReadProfile(strings.NewReader("1 2 3\n4 5 6\n"), 3)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(a.Shape, []int{2, 3}) || a.Get(1, 0) != 4 {
		t.Errorf("have shape %v and elements %v", a.Shape, a.Elements)
	}
	if _, err := ReadProfile(strings.NewReader("1 2 3 4\n"), 3); err == nil {
		t.Error("expected an error for a row with too many cells")
	}
}

func TestReadWaveData(t *testing.T) {
	const wad = `1 1 2.0 0.1 0.2 0.3 10 11 12
1 2 2.2 0.4 0.5 0.6 13 14 15
7 1 2.4 0.7 0.8 0.9 16 17 18
`
	w, err := ReadWaveData(strings.NewReader(wad), []int{7, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	nan := math.NaN()
	if want := []float64{2.4, nan, nan, 2.0, 2.2, nan}; !cmp.Equal(w.Pressure.Elements, want, approx) {
		t.Errorf("pressure: have %v, want %v", w.Pressure.Elements, want)
	}
	if want := []float64{18, nan, nan, 12, 15, nan}; !cmp.Equal(w.Amp3.Elements, want, approx) {
		t.Errorf("amplitude: have %v, want %v", w.Amp3.Elements, want)
	}
	if _, err := ReadWaveData(strings.NewReader(wad), []int{1}, 3); err == nil {
		t.Error("expected an error for a burst missing from the header")
	}
	if _, err := ReadWaveData(strings.NewReader(wad), []int{7, 1}, 1); err == nil {
		t.Error("expected an error for an ensemble beyond the number of samples")
	}
	if want := []float64{2.4, 2.1}; !cmp.Equal(rowMeans(w.Pressure), want, approx) {
		t.Errorf("means: have %v, want %v", rowMeans(w.Pressure), want)
	}
}
