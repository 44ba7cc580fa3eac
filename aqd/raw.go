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
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// readColumns reads whitespace-delimited numeric rows, each of which
// must have at least minCols columns.
func readColumns(r io.Reader, minCols int) ([][]float64, error) {
	var rows [][]float64
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < minCols {
			return nil, fmt.Errorf("line %d has %d columns; expected at least %d", line, len(fields), minCols)
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %v", line, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// readColumnsFile opens path and reads it with readColumns.
func readColumnsFile(path string, minCols int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aqd: %v", err)
	}
	defer f.Close()
	rows, err := readColumns(f, minCols)
	if err != nil {
		return nil, fmt.Errorf("aqd: reading %s: %v", path, err)
	}
	return rows, nil
}

// rowTime converts month, day, year, hour, minute and second columns to a
// UTC time.
func rowTime(c []float64) time.Time {
	sec, frac := math.Modf(c[5])
	return time.Date(int(c[2]), time.Month(int(c[0])), int(c[1]), int(c[3]), int(c[4]),
		int(sec), int(math.Round(frac*1e9)), time.UTC)
}

// column returns column c of rows.
func column(rows [][]float64, c int) []float64 {
	o := make([]float64, len(rows))
	for i, r := range rows {
		o[i] = r[c]
	}
	return o
}

// SensorData holds the contents of a profile sensor (.sen) file.
type SensorData struct {
	Time                 []time.Time
	ErrorCode            []float64
	StatusCode           []float64
	Battery              []float64 // V
	SoundSpeed           []float64 // m/s
	Heading, Pitch, Roll []float64 // degrees
	Pressure             []float64 // dbar
	Temperature          []float64 // °C
	Analog1, Analog2     []float64 // counts
}

// ReadSensor reads a .sen file, which has one row per profile with columns
// month, day, year, hour, minute, second, error code, status code, battery,
// sound speed, heading, pitch, roll, pressure, temperature, analog input 1 and
// analog input 2.
func ReadSensor(r io.Reader) (*SensorData, error) {
	rows, err := readColumns(r, 17)
	if err != nil {
		return nil, fmt.Errorf("aqd: reading sensor data: %v", err)
	}
	return newSensorData(rows), nil
}

func newSensorData(rows [][]float64) *SensorData {
	s := &SensorData{Time: make([]time.Time, len(rows))}
	for i, r := range rows {
		s.Time[i] = rowTime(r)
	}
	s.ErrorCode = column(rows, 6)
	s.StatusCode = column(rows, 7)
	s.Battery = column(rows, 8)
	s.SoundSpeed = column(rows, 9)
	s.Heading = column(rows, 10)
	s.Pitch = column(rows, 11)
	s.Roll = column(rows, 12)
	s.Pressure = column(rows, 13)
	s.Temperature = column(rows, 14)
	s.Analog1 = column(rows, 15)
	s.Analog2 = column(rows, 16)
	return s
}

// ReadProfile reads a velocity (.v1, .v2, .v3) or amplitude (.a1, .a2, .a3)
// file, which has one row per profile and one column per cell, into an
// array of shape [profile, cell].
func ReadProfile(r io.Reader, ncells int) (*sparse.DenseArray, error) {
	rows, err := readColumns(r, ncells)
	if err != nil {
		return nil, fmt.Errorf("aqd: reading profile data: %v", err)
	}
	return profileArray(rows, ncells)
}

func profileArray(rows [][]float64, ncells int) (*sparse.DenseArray, error) {
	o := sparse.ZerosDense(len(rows), ncells)
	for i, r := range rows {
		if len(r) != ncells {
			return nil, fmt.Errorf("aqd: profile %d has %d cells; expected %d", i+1, len(r), ncells)
		}
		copy(o.Elements[i*ncells:(i+1)*ncells], r)
	}
	return o, nil
}

// WaveHeader holds the contents of a wave burst header (.whd) file.
type WaveHeader struct {
	Time                     []time.Time
	Burst                    []int
	NSamples                 []int
	CellPos                  []float64 // m
	Battery                  []float64 // V
	SoundSpeed               []float64 // m/s
	Heading, Pitch, Roll     []float64 // degrees
	MinPressure, MaxPressure []float64 // dbar
	Temperature              []float64 // °C
}

// ReadWaveHeader reads a .whd file, which has one row per burst with
// columns month, day, year, hour, minute, second, burst counter, number of
// samples, cell position, battery, sound speed, heading, pitch, roll,
// minimum pressure, maximum pressure and temperature, followed by columns
// that are ignored.
func ReadWaveHeader(r io.Reader) (*WaveHeader, error) {
	rows, err := readColumns(r, 17)
	if err != nil {
		return nil, fmt.Errorf("aqd: reading wave header: %v", err)
	}
	return newWaveHeader(rows), nil
}

func newWaveHeader(rows [][]float64) *WaveHeader {
	w := &WaveHeader{
		Time:     make([]time.Time, len(rows)),
		Burst:    make([]int, len(rows)),
		NSamples: make([]int, len(rows)),
	}
	for i, r := range rows {
		w.Time[i] = rowTime(r)
		w.Burst[i] = int(r[6])
		w.NSamples[i] = int(r[7])
	}
	w.CellPos = column(rows, 8)
	w.Battery = column(rows, 9)
	w.SoundSpeed = column(rows, 10)
	w.Heading = column(rows, 11)
	w.Pitch = column(rows, 12)
	w.Roll = column(rows, 13)
	w.MinPressure = column(rows, 14)
	w.MaxPressure = column(rows, 15)
	w.Temperature = column(rows, 16)
	return w
}

// WaveData holds wave burst samples, each of shape [burst, sample].
// Samples missing from a burst are NaN.
type WaveData struct {
	Pressure         *sparse.DenseArray
	Vel1, Vel2, Vel3 *sparse.DenseArray
	Amp1, Amp2, Amp3 *sparse.DenseArray
}

// ReadWaveData reads a .wad file, which has one row per sample with columns
// burst counter, ensemble counter, pressure and any analog inputs,
// followed by three velocity and three amplitude columns. bursts lists the
// burst counters in the order they appear in the wave header.
func ReadWaveData(r io.Reader, bursts []int, nsamples int) (*WaveData, error) {
	rows, err := readColumns(r, 9)
	if err != nil {
		return nil, fmt.Errorf("aqd: reading wave data: %v", err)
	}
	return newWaveData(rows, bursts, nsamples)
}

func newWaveData(rows [][]float64, bursts []int, nsamples int) (*WaveData, error) {
	if nsamples <= 0 {
		return nil, fmt.Errorf("aqd: invalid number of wave samples %d", nsamples)
	}
	index := make(map[int]int, len(bursts))
	for i, b := range bursts {
		index[b] = i
	}
	n := len(bursts)
	nan := func() *sparse.DenseArray {
		a := sparse.ZerosDense(n, nsamples)
		for i := range a.Elements {
			a.Elements[i] = math.NaN()
		}
		return a
	}
	w := &WaveData{Pressure: nan(),
		Vel1: nan(), Vel2: nan(), Vel3: nan(),
		Amp1: nan(), Amp2: nan(), Amp3: nan()}
	for k, r := range rows {
		i, ok := index[int(r[0])]
		if !ok {
			return nil, fmt.Errorf("aqd: wave data row %d is in burst %d, which is not in the wave header", k+1, int(r[0]))
		}
		j := int(r[1]) - 1
		if j < 0 || j >= nsamples {
			return nil, fmt.Errorf("aqd: wave data row %d has ensemble %d; expected 1 to %d", k+1, j+1, nsamples)
		}
		c := len(r) - 6
		e := i*nsamples + j
		w.Pressure.Elements[e] = r[2]
		w.Vel1.Elements[e] = r[c]
		w.Vel2.Elements[e] = r[c+1]
		w.Vel3.Elements[e] = r[c+2]
		w.Amp1.Elements[e] = r[c+3]
		w.Amp2.Elements[e] = r[c+4]
		w.Amp3.Elements[e] = r[c+5]
	}
	return w, nil
}

// rowMeans returns the mean of each row of a, ignoring NaNs.
func rowMeans(a *sparse.DenseArray) []float64 {
	n, m := a.Shape[0], a.Shape[1]
	o := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		var c int
		for _, v := range a.Elements[i*m : (i+1)*m] {
			if !math.IsNaN(v) {
				sum += v
				c++
			}
		}
		if c == 0 {
			o[i] = math.NaN()
		} else {
			o[i] = sum / float64(c)
		}
	}
	return o
}

// averageArrays returns the element-wise mean of arrays, which must
// share a shape.
func averageArrays(arrays ...*sparse.DenseArray) *sparse.DenseArray {
	o := sparse.ZerosDense(append([]int{}, arrays[0].Shape...)...)
	for _, a := range arrays {
		for i, v := range a.Elements {
			o.Elements[i] += v
		}
	}
	for i := range o.Elements {
		o.Elements[i] /= float64(len(arrays))
	}
	return o
}
