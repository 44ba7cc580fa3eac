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

import "fmt"

// ParseError is returned when an instrument header is malformed or
// truncated.
type ParseError struct {
	Line int    // 1-based line number, or 0 if the error is not tied to a line
	Text string // offending line
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "aqd: parsing header: " + e.Msg
	}
	return fmt.Sprintf("aqd: parsing header line %d (%q): %s", e.Line, e.Text, e.Msg)
}

// ConfigurationError is returned when a required deployment attribute is
// missing or invalid.
type ConfigurationError struct {
	Attr  string
	Value string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("aqd: configuration attribute %s: %s", e.Attr, e.Msg)
	}
	return fmt.Sprintf("aqd: configuration attribute %s=%q: %s", e.Attr, e.Value, e.Msg)
}

// UnsupportedCoordinateSystemError is returned for velocity data in a
// coordinate system that can't be transformed to Earth coordinates.
type UnsupportedCoordinateSystemError struct {
	System string
}

func (e *UnsupportedCoordinateSystemError) Error() string {
	return fmt.Sprintf("aqd: unsupported coordinate system %q", e.System)
}
