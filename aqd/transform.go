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
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// CoordSystem is the coordinate system velocities are recorded in.
type CoordSystem int

const (
	// ENU is Earth coordinates: East, North, Up.
	ENU CoordSystem = iota + 1
	// XYZ is instrument coordinates.
	XYZ
	// BEAM is along-beam coordinates.
	BEAM
)

func (c CoordSystem) String() string {
	switch c {
	case ENU:
		return "ENU"
	case XYZ:
		return "XYZ"
	case BEAM:
		return "BEAM"
	default:
		return fmt.Sprintf("CoordSystem(%d)", int(c))
	}
}

// ParseCoordSystem parses a coordinate system tag.
func ParseCoordSystem(s string) (CoordSystem, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENU":
		return ENU, nil
	case "XYZ":
		return XYZ, nil
	case "BEAM":
		return BEAM, nil
	default:
		return 0, &UnsupportedCoordinateSystemError{System: s}
	}
}

const deg2rad = math.Pi / 180

// headingMatrix returns the heading rotation for a heading in degrees.
func headingMatrix(heading float64) *mat.Dense {
	hh := (heading - 90) * deg2rad
	return mat.NewDense(3, 3, []float64{
		math.Cos(hh), math.Sin(hh), 0,
		-math.Sin(hh), math.Cos(hh), 0,
		0, 0, 1,
	})
}

// tiltMatrix returns the tilt rotation for pitch and roll in degrees.
func tiltMatrix(pitch, roll float64) *mat.Dense {
	pp := pitch * deg2rad
	rr := roll * deg2rad
	return mat.NewDense(3, 3, []float64{
		math.Cos(pp), -math.Sin(pp) * math.Sin(rr), -math.Cos(rr) * math.Sin(pp),
		0, math.Cos(rr), -math.Sin(rr),
		math.Sin(pp), math.Sin(rr) * math.Cos(pp), math.Cos(pp) * math.Cos(rr),
	})
}

// rotation returns R = H·P·T for a single time step.
func rotation(t *mat.Dense, heading, pitch, roll float64) *mat.Dense {
	var r mat.Dense
	r.Product(headingMatrix(heading), tiltMatrix(pitch, roll), t)
	return &r
}

// CoordTransform converts velocities vel1, vel2 and vel3 of shape [n, m]
// from coordinate system cs to Earth coordinates, using heading, pitch
// and roll (degrees, length n) and the oriented transformation matrix t.
// ENU velocities are returned unchanged.
func CoordTransform(vel1, vel2, vel3 *sparse.DenseArray, heading, pitch, roll []float64,
	t OrientedMatrix, cs CoordSystem, log logrus.FieldLogger) (u, v, w *sparse.DenseArray, err error) {

	switch cs {
	case ENU:
		log.Info("data already in Earth coordinates; doing nothing")
		return vel1, vel2, vel3, nil
	case XYZ:
		return nil, nil, nil, &UnsupportedCoordinateSystemError{System: cs.String()}
	case BEAM:
	default:
		return nil, nil, nil, &UnsupportedCoordinateSystemError{System: cs.String()}
	}

	if t.IsZero() {
		return nil, nil, nil, fmt.Errorf("aqd: transformation matrix has not been oriented")
	}
	if vel1 == nil || len(vel1.Shape) != 2 {
		return nil, nil, nil, fmt.Errorf("aqd: velocities must be 2-dimensional")
	}
	n, m := vel1.Shape[0], vel1.Shape[1]
	if err := checkShapes(n, []string{"vel1", "vel2", "vel3"}, vel1, vel2, vel3); err != nil {
		return nil, nil, nil, err
	}
	for name, a := range map[string][]float64{"heading": heading, "pitch": pitch, "roll": roll} {
		if len(a) != n {
			return nil, nil, nil, fmt.Errorf("aqd: %s has length %d; expected %d", name, len(a), n)
		}
	}

	log.WithFields(logrus.Fields{
		"from":        cs,
		"orientation": t.Orientation(),
	}).Info("transforming velocities to Earth coordinates")

	tm := mat.NewDense(3, 3, t.Matrix().Flat())
	u = sparse.ZerosDense(n, m)
	v = sparse.ZerosDense(n, m)
	w = sparse.ZerosDense(n, m)

	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < n; i += nprocs {
				r := rotation(tm, heading[i], pitch[i], roll[i]).RawMatrix().Data
				for j := 0; j < m; j++ {
					k := i*m + j
					b1, b2, b3 := vel1.Elements[k], vel2.Elements[k], vel3.Elements[k]
					u.Elements[k] = r[0]*b1 + r[1]*b2 + r[2]*b3
					v.Elements[k] = r[3]*b1 + r[4]*b2 + r[5]*b3
					w.Elements[k] = r[6]*b1 + r[7]*b2 + r[8]*b3
				}
			}
		}(pp)
	}
	wg.Wait()
	return u, v, w, nil
}

// TransformToEarth returns a function that converts the recorded
// velocities of a dataset to Earth coordinates, setting U, V and W.
func TransformToEarth() DatasetManipulator {
	return func(d *Dataset) error {
		cs, err := ParseCoordSystem(d.Attrs.CoordSystem)
		if err != nil {
			return err
		}
		u, v, w, err := CoordTransform(d.Vel1, d.Vel2, d.Vel3, d.Heading, d.Pitch, d.Roll,
			d.Matrix, cs, d.Log)
		if err != nil {
			return err
		}
		d.U, d.V, d.W = u, v, w
		if cs != ENU {
			d.addHistory("Converted from %s to ENU coordinates", cs)
		}
		return nil
	}
}
