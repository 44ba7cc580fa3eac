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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/stglib/stglib"
)

// Load reads the header and ASCII export files that share basefile as a
// prefix and returns a dataset with normalized attributes. Profile mode reads
// .sen, .v1-3 and .a1-3 files; wave mode reads .whd and .wad files.
func Load(basefile string, mode Mode, md *stglib.Metadata, log logrus.FieldLogger) (*Dataset, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	meta, err := ReadHeaderFile(basefile)
	if err != nil {
		return nil, err
	}
	d := &Dataset{
		Mode:       mode,
		Meta:       meta,
		Deployment: md,
		Attrs:      CheckAttrs(meta, md, mode),
		Log:        log.WithFields(logrus.Fields{"basefile": basefile, "mode": mode}),
	}
	switch mode {
	case Wave:
		err = d.loadWaves(basefile)
	default:
		err = d.loadProfiles(basefile)
	}
	if err != nil {
		return nil, err
	}
	d.AGC = averageArrays(d.Amp1, d.Amp2, d.Amp3)
	d.Log.WithField("records", d.NT()).Info("loaded raw data")
	return d, nil
}

func (d *Dataset) loadProfiles(basefile string) error {
	rows, err := readColumnsFile(basefile+".sen", 17)
	if err != nil {
		return err
	}
	sen := newSensorData(rows)
	d.Time = sen.Time
	d.Heading, d.Pitch, d.Roll = sen.Heading, sen.Pitch, sen.Roll
	d.Pressure = sen.Pressure
	d.Temperature = sen.Temperature
	d.Battery = sen.Battery
	d.SoundSpeed = sen.SoundSpeed

	ncells := d.Attrs.BinCount
	if ncells <= 0 {
		return &ConfigurationError{Attr: "AQDNumberOfCells", Msg: "missing from header"}
	}
	read := func(ext string) (*sparse.DenseArray, error) {
		rows, err := readColumnsFile(basefile+ext, ncells)
		if err != nil {
			return nil, err
		}
		a, err := profileArray(rows, ncells)
		if err != nil {
			return nil, fmt.Errorf("%v in %s", err, basefile+ext)
		}
		if a.Shape[0] != len(d.Time) {
			return nil, fmt.Errorf("aqd: %s has %d profiles but %s.sen has %d",
				basefile+ext, a.Shape[0], basefile, len(d.Time))
		}
		return a, nil
	}
	for _, f := range []struct {
		ext string
		p   **sparse.DenseArray
	}{
		{".v1", &d.Vel1}, {".v2", &d.Vel2}, {".v3", &d.Vel3},
		{".a1", &d.Amp1}, {".a2", &d.Amp2}, {".a3", &d.Amp3},
	} {
		if *f.p, err = read(f.ext); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) loadWaves(basefile string) error {
	rows, err := readColumnsFile(basefile+".whd", 17)
	if err != nil {
		return err
	}
	whd := newWaveHeader(rows)
	d.Time = whd.Time
	d.Heading, d.Pitch, d.Roll = whd.Heading, whd.Pitch, whd.Roll
	d.Temperature = whd.Temperature
	d.Battery = whd.Battery
	d.SoundSpeed = whd.SoundSpeed
	d.CellPos = whd.CellPos

	nsamples := 0
	if !math.IsNaN(d.Meta.WaveNumberOfSamples) {
		nsamples = int(d.Meta.WaveNumberOfSamples)
	}
	for _, n := range whd.NSamples {
		if n > nsamples {
			nsamples = n
		}
	}
	rows, err = readColumnsFile(basefile+".wad", 9)
	if err != nil {
		return err
	}
	wad, err := newWaveData(rows, whd.Burst, nsamples)
	if err != nil {
		return err
	}
	d.BurstPressure = wad.Pressure
	d.Pressure = rowMeans(wad.Pressure)
	d.Vel1, d.Vel2, d.Vel3 = wad.Vel1, wad.Vel2, wad.Vel3
	d.Amp1, d.Amp2, d.Amp3 = wad.Amp1, wad.Amp2, wad.Amp3
	return nil
}

// AtmosphericCorrection returns a function that subtracts atmospheric
// pressure read from the variable "atmpres" in the NetCDF file at path,
// adding back the value of its "offset" attribute, to create the corrected
// pressure.
func AtmosphericCorrection(path string) DatasetManipulator {
	return func(d *Dataset) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("aqd: opening atmospheric pressure file: %v", err)
		}
		defer f.Close()
		nc, err := cdf.Open(f)
		if err != nil {
			return fmt.Errorf("aqd: opening atmospheric pressure file %s: %v", path, err)
		}
		atm, err := stglib.ReadVariable(nc, "atmpres")
		if err != nil {
			return err
		}
		offset, _, err := stglib.FloatAttribute(nc, "atmpres", "offset")
		if err != nil {
			return err
		}
		pac, err := CorrectPressure(d.Pressure, atm, offset)
		if err != nil {
			return err
		}
		d.PressureAC = pac
		if d.BurstPressure != nil {
			bp := d.BurstPressure.Copy()
			m := bp.Shape[1]
			for i := range pac {
				for j := 0; j < m; j++ {
					bp.Elements[i*m+j] += offset - atm[i]
				}
			}
			d.BurstPressure = bp
		}
		d.Log.WithFields(logrus.Fields{"file": path, "offset": offset}).
			Info("corrected pressure for atmospheric pressure")
		d.addHistory("Atmospheric pressure correction applied using %s", path)
		return nil
	}
}

// CorrectPressure returns p − atm + offset. p and atm must have the same length.
func CorrectPressure(p, atm []float64, offset float64) ([]float64, error) {
	if len(p) != len(atm) {
		return nil, fmt.Errorf("aqd: pressure has %d values but atmospheric pressure has %d", len(p), len(atm))
	}
	o := make([]float64, len(p))
	for i := range p {
		o[i] = p[i] - atm[i] + offset
	}
	return o, nil
}

// Process runs the full processing pipeline on d. If atmpres is not empty it
// names a NetCDF file holding atmospheric pressure.
func Process(d *Dataset, atmpres string) error {
	funcs := []DatasetManipulator{CheckOrientation()}
	if atmpres != "" {
		funcs = append(funcs, AtmosphericCorrection(atmpres))
	}
	funcs = append(funcs,
		TransformToEarth(),
		MagvarCorrect(),
		ShiftTime(),
		TrimVelocity(),
		MakeBinDepth(),
		AddDeltaT(),
	)
	return d.Apply(funcs...)
}
