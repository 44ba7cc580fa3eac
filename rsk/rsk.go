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

// Package rsk reads RBR instrument data files (.rsk), which are SQLite
// databases.
package rsk

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/stglib/stglib"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Channel describes a single measured channel.
type Channel struct {
	ID        int
	ShortName string
	LongName  string
	Units     string
}

// column returns the name of the data table column holding the channel.
func (c Channel) column() string {
	return fmt.Sprintf("channel%02d", c.ID)
}

// varName returns a NetCDF variable name for the channel.
func (c Channel) varName() string {
	name := c.LongName
	if name == "" {
		name = c.ShortName
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
}

// Instrument identifies the logger that recorded a file.
type Instrument struct {
	SerialID string
	Model    string
	Firmware string
}

// Open opens the .rsk file at path.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("rsk: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("rsk: opening %s: %v", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("rsk: opening %s: %v", path, err)
	}
	return db, nil
}

// Channels returns the channels in a file, ordered by ID.
func Channels(ctx context.Context, db *sql.DB) ([]Channel, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT channelID, shortName, longName, units FROM channels ORDER BY channelID")
	if err != nil {
		return nil, fmt.Errorf("rsk: reading channels: %v", err)
	}
	defer rows.Close()
	var o []Channel
	for rows.Next() {
		var c Channel
		var short, long, units sql.NullString
		if err := rows.Scan(&c.ID, &short, &long, &units); err != nil {
			return nil, fmt.Errorf("rsk: reading channels: %v", err)
		}
		c.ShortName, c.LongName, c.Units = short.String, long.String, units.String
		o = append(o, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rsk: reading channels: %v", err)
	}
	return o, nil
}

// ReadInstrument returns the instrument that recorded a file.
func ReadInstrument(ctx context.Context, db *sql.DB) (*Instrument, error) {
	var serial, model, fw sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT serialID, model, firmwareVersion FROM instruments LIMIT 1").Scan(&serial, &model, &fw)
	if err != nil {
		return nil, fmt.Errorf("rsk: reading instrument: %v", err)
	}
	return &Instrument{SerialID: serial.String, Model: model.String, Firmware: fw.String}, nil
}

// ReadData returns the time stamps and the values of each channel. Missing
// values are NaN.
func ReadData(ctx context.Context, db *sql.DB, channels []Channel) ([]time.Time, [][]float64, error) {
	cols := make([]string, len(channels)+1)
	cols[0] = "tstamp"
	for i, c := range channels {
		cols[i+1] = c.column()
	}
	rows, err := db.QueryContext(ctx, "SELECT "+strings.Join(cols, ", ")+" FROM data ORDER BY tstamp")
	if err != nil {
		return nil, nil, fmt.Errorf("rsk: reading data: %v", err)
	}
	defer rows.Close()

	var t []time.Time
	data := make([][]float64, len(channels))
	var tstamp int64
	vals := make([]sql.NullFloat64, len(channels))
	dest := make([]interface{}, len(channels)+1)
	dest[0] = &tstamp
	for i := range vals {
		dest[i+1] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("rsk: reading data: %v", err)
		}
		// Time stamps are milliseconds since the Unix epoch.
		t = append(t, time.Unix(0, tstamp*int64(time.Millisecond)).UTC())
		for i, v := range vals {
			if v.Valid {
				data[i] = append(data[i], v.Float64)
			} else {
				data[i] = append(data[i], math.NaN())
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rsk: reading data: %v", err)
	}
	return t, data, nil
}

// Read reads every channel of the .rsk file at path.
func Read(ctx context.Context, path string) (*stglib.TimeSeries, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	channels, err := Channels(ctx, db)
	if err != nil {
		return nil, err
	}
	t, data, err := ReadData(ctx, db, channels)
	if err != nil {
		return nil, err
	}
	ts := &stglib.TimeSeries{Time: t}
	used := make(map[string]int)
	for i, c := range channels {
		name := c.varName()
		if n := used[name]; n > 0 {
			used[name]++
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			used[name] = 1
		}
		ts.Vars = append(ts.Vars, &stglib.Variable{
			Name:     name,
			Units:    c.Units,
			LongName: c.LongName,
			Data:     data[i],
		})
	}
	if inst, err := ReadInstrument(ctx, db); err == nil {
		ts.Attrs = append(ts.Attrs,
			stglib.Attribute{Name: "serial_number", Value: inst.SerialID},
			stglib.Attribute{Name: "INST_TYPE", Value: "RBR " + inst.Model},
			stglib.Attribute{Name: "firmware_version", Value: inst.Firmware},
		)
	}
	return ts, ts.Check()
}

// ToNC reads the .rsk file at path and writes it to a NetCDF file at out,
// with global attributes from md.
func ToNC(ctx context.Context, path string, md *stglib.Metadata, out string, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ts, err := Read(ctx, path)
	if err != nil {
		return err
	}
	ts.Attrs = append(ts.Attrs, md.Attrs...)
	log.WithFields(logrus.Fields{
		"file":      path,
		"records":   len(ts.Time),
		"variables": len(ts.Vars),
	}).Info("read RSK data")
	if err := ts.WriteCDF(out, md.Latitude, md.Longitude); err != nil {
		return err
	}
	log.WithField("file", out).Info("wrote netcdf file")
	return nil
}
