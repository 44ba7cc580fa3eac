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
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Orientation is the pointing direction of the instrument head.
type Orientation int

const (
	// Up means the head points toward the surface.
	Up Orientation = iota + 1
	// Down means the head points toward the bed.
	Down
)

func (o Orientation) String() string {
	switch o {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ParseOrientation parses an orientation attribute value.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return Up, nil
	case "DOWN":
		return Down, nil
	case "":
		return 0, &ConfigurationError{Attr: "orientation", Msg: "missing; must be UP or DOWN"}
	default:
		return 0, &ConfigurationError{Attr: "orientation", Value: s, Msg: "must be UP or DOWN"}
	}
}

// OrientedMatrix is a transformation matrix adjusted for the instrument
// orientation. It can only be created by Orient, so the adjustment is
// applied exactly once to a parsed matrix.
type OrientedMatrix struct {
	t TransMatrix
	o Orientation
}

// Orient returns raw adjusted for orientation o. For Down, rows 2 and 3
// are negated. raw itself is not modified.
func Orient(raw TransMatrix, o Orientation) OrientedMatrix {
	t := raw
	if o == Down {
		for i := 1; i < 3; i++ {
			for j := 0; j < 3; j++ {
				t[i][j] = -t[i][j]
			}
		}
	}
	return OrientedMatrix{t: t, o: o}
}

// Matrix returns the adjusted matrix.
func (m OrientedMatrix) Matrix() TransMatrix { return m.t }

// Orientation returns the orientation the matrix was adjusted for.
func (m OrientedMatrix) Orientation() Orientation { return m.o }

// IsZero reports whether m was never oriented.
func (m OrientedMatrix) IsZero() bool { return m.o == 0 }

// BinGeometry describes the distances of the measurement bins from the
// transducer.
type BinGeometry struct {
	BinCount         int
	BinSize          float64 // m
	CenterFirstBin   float64 // m
	TransducerOffset float64 // height of the transducer above the bed, m
	WaterDepth       float64 // m
}

// Geometry returns the bin geometry described by a.
func (a *Attributes) Geometry() BinGeometry {
	return BinGeometry{
		BinCount:         a.BinCount,
		BinSize:          a.BinSize,
		CenterFirstBin:   a.CenterFirstBin,
		TransducerOffset: a.TransducerOffsetFromBottom,
		WaterDepth:       a.WaterDepth,
	}
}

// BinDistances returns the distance of each bin center from the
// transducer, in order of increasing distance.
func (g BinGeometry) BinDistances() ([]float64, error) {
	if g.BinCount <= 0 {
		return nil, &ConfigurationError{Attr: "bin_count", Value: fmt.Sprint(g.BinCount),
			Msg: "must be positive"}
	}
	if math.IsNaN(g.CenterFirstBin) || math.IsNaN(g.BinSize) {
		return nil, &ConfigurationError{Attr: "center_first_bin", Msg: "bin geometry is incomplete"}
	}
	o := make([]float64, g.BinCount)
	if g.BinCount == 1 {
		o[0] = g.CenterFirstBin
		return o, nil
	}
	floats.Span(o, g.CenterFirstBin, g.CenterFirstBin+float64(g.BinCount-1)*g.BinSize)
	return o, nil
}

// Resolution holds the orientation-dependent products of
// ResolveOrientation.
type Resolution struct {
	Matrix OrientedMatrix

	// BinDist is the distance of each bin from the transducer, in
	// order of increasing distance.
	BinDist []float64

	// DepthArray holds the bin distances listed from the bin nearest
	// the surface to the bin nearest the bed.
	DepthArray []float64

	// Depth is the depth of each bin below the water surface, in the
	// same order as BinDist.
	Depth []float64
}

// ResolveOrientation adjusts the transformation matrix for orientation o and
// computes the bin distance and depth arrays. In wave mode the single bin is
// at cellPosition; otherwise bins are evenly spaced according to g.
func ResolveOrientation(raw TransMatrix, o Orientation, g BinGeometry, mode Mode, cellPosition float64) (*Resolution, error) {
	if o != Up && o != Down {
		return nil, &ConfigurationError{Attr: "orientation", Value: o.String(), Msg: "must be UP or DOWN"}
	}
	r := &Resolution{Matrix: Orient(raw, o)}

	switch mode {
	case Wave:
		r.BinDist = []float64{cellPosition}
	default:
		var err error
		r.BinDist, err = g.BinDistances()
		if err != nil {
			return nil, err
		}
	}
	r.DepthArray, r.Depth = depths(r.BinDist, o, g)
	return r, nil
}

// depths returns the surface-first depth array and the water-referenced
// depth of each bin.
func depths(bindist []float64, o Orientation, g BinGeometry) (depthArray, depth []float64) {
	depthArray = make([]float64, len(bindist))
	copy(depthArray, bindist)
	if o == Up {
		for i, j := 0, len(depthArray)-1; i < j; i, j = i+1, j-1 {
			depthArray[i], depthArray[j] = depthArray[j], depthArray[i]
		}
	}
	ref := g.WaterDepth - g.TransducerOffset
	depth = make([]float64, len(bindist))
	for i, b := range bindist {
		if o == Up {
			depth[i] = ref - b
		} else {
			depth[i] = ref + b
		}
	}
	return depthArray, depth
}

// CheckOrientation returns a function that resolves the orientation of d,
// setting its oriented matrix and bin arrays. The matrix is always derived
// from the parsed header, so running it more than once gives the same result.
func CheckOrientation() DatasetManipulator {
	return func(d *Dataset) error {
		o, err := ParseOrientation(d.Attrs.Orientation)
		if err != nil {
			return err
		}
		cellPos := math.NaN()
		if d.Mode == Wave {
			if len(d.CellPos) == 0 {
				return fmt.Errorf("aqd: wave dataset has no cell position")
			}
			cellPos = d.CellPos[0]
			d.Attrs.CenterFirstBin = cellPos
		}
		r, err := ResolveOrientation(d.Meta.TransMatrix, o, d.Attrs.Geometry(), d.Mode, cellPos)
		if err != nil {
			return err
		}
		d.Orientation = o
		d.Matrix = r.Matrix
		d.BinDist = r.BinDist
		d.DepthArray = r.DepthArray
		d.Depth = r.Depth
		d.Log.WithFields(logrus.Fields{
			"orientation": o,
			"bins":        len(r.BinDist),
		}).Info("resolved instrument orientation")
		return nil
	}
}
