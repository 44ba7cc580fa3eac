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

package stglib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DefaultEXOSkipRows is the number of preamble rows in an EXO KOR export
// before the column header row.
const DefaultEXOSkipRows = 25

// Metadata holds deployment information supplied by the user through a
// global attributes file and an instrument configuration file.
// Numeric fields that were not supplied are NaN; optional values whose
// absence matters are pointers.
type Metadata struct {
	WaterDepth              float64 // m
	InitialInstrumentHeight float64 // m above the bed
	Latitude, Longitude     float64 // degrees

	// MagneticVariation and MagneticVariationAtSite give the local
	// declination in degrees. The site-specific value takes precedence.
	MagneticVariation       *float64
	MagneticVariationAtSite *float64

	Orientation string // "UP" or "DOWN"
	TrimMethod  string
	CoordSystem string // overrides the coordinate system in the instrument header

	Basefile string // path of the raw instrument files, without extension
	Filename string // output file name, without extension
	SkipRows int    // EXO preamble rows

	// Attrs holds every supplied value, in the order supplied, for
	// inclusion as global attributes.
	Attrs []Attribute
}

// Attr returns the value of the attribute with the given name
// and whether it exists.
func (m *Metadata) Attr(name string) (interface{}, bool) {
	for _, a := range m.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// ReadGlobalAtts reads a global attributes file, where each line is
// formatted as `NAME; value`. Blank lines and lines starting with `#` are
// skipped. Values that can be parsed as numbers are returned as float64,
// except for MOORING, which is always a string.
func ReadGlobalAtts(r io.Reader) ([]Attribute, error) {
	var o []Attribute
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		row := strings.TrimSpace(s.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		i := strings.Index(row, ";")
		if i < 0 {
			return nil, fmt.Errorf("stglib: global attributes line %d: missing ';' in %q", line, row)
		}
		name := strings.TrimSpace(row[:i])
		val := strings.TrimSpace(row[i+1:])
		if name == "" {
			return nil, fmt.Errorf("stglib: global attributes line %d: empty attribute name", line)
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil && name != "MOORING" {
			o = append(o, Attribute{Name: name, Value: f})
		} else {
			o = append(o, Attribute{Name: name, Value: val})
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("stglib: reading global attributes: %v", err)
	}
	return o, nil
}

// ReadConfig reads a YAML instrument configuration file.
// Environment variables in the file are expanded.
func ReadConfig(r io.Reader) (map[string]interface{}, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stglib: reading instrument configuration: %v", err)
	}
	o := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &o); err != nil {
		return nil, fmt.Errorf("stglib: parsing instrument configuration: %v", err)
	}
	return o, nil
}

// NewMetadata merges global attributes and configuration values (the
// configuration takes precedence) and converts the values that the
// processing routines rely on into their typed fields.
func NewMetadata(gatts []Attribute, config map[string]interface{}) (*Metadata, error) {
	m := &Metadata{
		WaterDepth:              math.NaN(),
		InitialInstrumentHeight: math.NaN(),
		Latitude:                math.NaN(),
		Longitude:               math.NaN(),
		SkipRows:                DefaultEXOSkipRows,
	}
	index := make(map[string]int)
	set := func(name string, v interface{}) {
		if i, ok := index[name]; ok {
			m.Attrs[i].Value = v
			return
		}
		index[name] = len(m.Attrs)
		m.Attrs = append(m.Attrs, Attribute{Name: name, Value: v})
	}
	for _, a := range gatts {
		set(a.Name, a.Value)
	}
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, attrValue(config[k]))
	}

	var err error
	for _, a := range m.Attrs {
		switch a.Name {
		case "WATER_DEPTH":
			m.WaterDepth, err = cast.ToFloat64E(a.Value)
		case "initial_instrument_height":
			m.InitialInstrumentHeight, err = cast.ToFloat64E(a.Value)
		case "latitude":
			m.Latitude, err = cast.ToFloat64E(a.Value)
		case "longitude":
			m.Longitude, err = cast.ToFloat64E(a.Value)
		case "magnetic_variation":
			m.MagneticVariation, err = float64Ptr(a.Value)
		case "magnetic_variation_at_site":
			m.MagneticVariationAtSite, err = float64Ptr(a.Value)
		case "orientation":
			m.Orientation, err = cast.ToStringE(a.Value)
		case "trim_method":
			m.TrimMethod, err = cast.ToStringE(a.Value)
		case "coord_system":
			m.CoordSystem, err = cast.ToStringE(a.Value)
		case "basefile":
			m.Basefile, err = cast.ToStringE(a.Value)
		case "filename":
			m.Filename, err = cast.ToStringE(a.Value)
		case "skiprows":
			m.SkipRows, err = cast.ToIntE(a.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("stglib: metadata attribute %s: %v", a.Name, err)
		}
	}
	return m, nil
}

// LoadMetadata reads the global attributes file at gattsPath and the YAML
// configuration file at configPath and merges them.
func LoadMetadata(gattsPath, configPath string) (*Metadata, error) {
	f, err := os.Open(gattsPath)
	if err != nil {
		return nil, fmt.Errorf("stglib: opening global attributes file: %v", err)
	}
	defer f.Close()
	gatts, err := ReadGlobalAtts(f)
	if err != nil {
		return nil, err
	}
	var config map[string]interface{}
	if configPath != "" {
		c, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("stglib: opening instrument configuration file: %v", err)
		}
		defer c.Close()
		if config, err = ReadConfig(c); err != nil {
			return nil, err
		}
	}
	return NewMetadata(gatts, config)
}

// attrValue converts a decoded YAML value to an attribute value.
func attrValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return t
	case int, int64, float32, float64:
		return cast.ToFloat64(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func float64Ptr(v interface{}) (*float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return &f, nil
}
