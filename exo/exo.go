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

// Package exo reads data exported from YSI EXO water-quality sondes.
package exo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/stglib/stglib"
	"github.com/tealeg/xlsx"
)

// Column headings of the date and time columns.
const (
	DateColumn = "Date (MM/DD/YYYY)"
	TimeColumn = "Time (HH:MM:SS)"
)

// InstType is the instrument type label written to every file.
const InstType = "YSI EXO"

// knownUnits are units that end EXO column headings.
var knownUnits = map[string]bool{
	"°C": true, "°F": true, "µS/cm": true, "mS/cm": true, "psu": true, "ppt": true,
	"%": true, "mg/L": true, "FNU": true, "NTU": true, "RFU": true, "µg/L": true,
	"V": true, "m": true, "psi": true, "psia": true, "mV": true, "kg/L": true, "mmHg": true,
}

// exports caches parsed KOR exports by path. A conversion opens one
// export, so only a few are kept.
var exports = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
	path := req.(string)
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("exo: opening KOR export %s: %v", path, err)
	}
	return f, nil
}, 1, requestcache.Deduplicate(), requestcache.Memory(4))

// openExport returns the parsed spreadsheet at path.
func openExport(path string) (*xlsx.File, error) {
	f, err := exports.NewRequest(context.Background(), path, path).Result()
	if err != nil {
		return nil, err
	}
	return f.(*xlsx.File), nil
}

// Read reads the first sheet of an EXO KOR export at path. The column
// headings are in the row after the first skiprows rows.
func Read(path string, skiprows int) (*stglib.TimeSeries, error) {
	f, err := openExport(path)
	if err != nil {
		return nil, err
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("exo: %s has no sheets", path)
	}
	ts, err := readSheet(f.Sheets[0], skiprows, f.Date1904)
	if err != nil {
		return nil, fmt.Errorf("exo: reading %s: %v", path, err)
	}
	return ts, nil
}

// readSheet reads the data in s.
func readSheet(s *xlsx.Sheet, skiprows int, date1904 bool) (*stglib.TimeSeries, error) {
	if len(s.Rows) <= skiprows {
		return nil, fmt.Errorf("sheet %s has %d rows; can't skip %d", s.Name, len(s.Rows), skiprows)
	}
	headings := make([]string, len(s.Rows[skiprows].Cells))
	dateCol, timeCol := -1, -1
	for i, c := range s.Rows[skiprows].Cells {
		headings[i] = strings.TrimSpace(c.Value)
		switch headings[i] {
		case DateColumn:
			dateCol = i
		case TimeColumn:
			timeCol = i
		}
	}
	if dateCol < 0 || timeCol < 0 {
		return nil, fmt.Errorf("missing %q or %q column in row %d", DateColumn, TimeColumn, skiprows+1)
	}

	ts := new(stglib.TimeSeries)
	cols := make([][]float64, len(headings))
	numeric := make([]bool, len(headings))
	for i := range numeric {
		numeric[i] = i != dateCol && i != timeCol && headings[i] != ""
	}
	for r, row := range s.Rows[skiprows+1:] {
		value := func(c int) string {
			if c < len(row.Cells) {
				return strings.TrimSpace(row.Cells[c].Value)
			}
			return ""
		}
		if value(dateCol) == "" {
			continue
		}
		t, err := parseTime(value(dateCol), value(timeCol), date1904)
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", r+skiprows+2, err)
		}
		ts.Time = append(ts.Time, t)
		for c := range headings {
			if !numeric[c] {
				continue
			}
			v := math.NaN()
			if str := value(c); str != "" {
				var err error
				if v, err = strconv.ParseFloat(str, 64); err != nil {
					// Text columns such as the site name are not data.
					numeric[c] = false
					continue
				}
			}
			cols[c] = append(cols[c], v)
		}
	}
	for c, h := range headings {
		if !numeric[c] {
			continue
		}
		name, units := splitHeading(h)
		ts.Vars = append(ts.Vars, &stglib.Variable{
			Name:     name,
			Units:    units,
			LongName: h,
			Data:     cols[c],
		})
	}
	return ts, ts.Check()
}

// splitHeading splits a column heading such as "Temp °C" into a variable
// name and units.
func splitHeading(h string) (name, units string) {
	f := strings.Fields(h)
	if len(f) > 1 && knownUnits[f[len(f)-1]] {
		units = f[len(f)-1]
		f = f[:len(f)-1]
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, strings.Join(f, "_"))
	return name, units
}

// parseTime combines a date cell and a time cell. Cells may hold
// spreadsheet serial numbers or text.
func parseTime(date, clock string, date1904 bool) (time.Time, error) {
	var day time.Time
	if v, err := strconv.ParseFloat(date, 64); err == nil {
		day = xlsx.TimeFromExcelTime(math.Floor(v), date1904)
	} else {
		day, err = time.Parse("01/02/2006", date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", date)
		}
	}
	var tod time.Duration
	if v, err := strconv.ParseFloat(clock, 64); err == nil {
		_, frac := math.Modf(v)
		tod = time.Duration(math.Round(frac*86400)) * time.Second
	} else if clock != "" {
		c, err := time.Parse("15:04:05", clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q", clock)
		}
		tod = time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute +
			time.Duration(c.Second())*time.Second
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(tod), nil
}

// ToNC reads the EXO export at path and writes it to a NetCDF file at out,
// with global attributes from md. md.SkipRows gives the number of preamble
// rows.
func ToNC(path string, md *stglib.Metadata, out string, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ts, err := Read(path, md.SkipRows)
	if err != nil {
		return err
	}
	ts.Attrs = append([]stglib.Attribute{{Name: "INST_TYPE", Value: InstType}}, md.Attrs...)
	log.WithFields(logrus.Fields{
		"file":      path,
		"records":   len(ts.Time),
		"variables": len(ts.Vars),
	}).Info("read EXO data")
	if err := ts.WriteCDF(out, md.Latitude, md.Longitude); err != nil {
		return err
	}
	log.WithField("file", out).Info("wrote netcdf file")
	return nil
}
