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

package stglibutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stglib/stglib"
)

func expand(s string) string { return os.ExpandEnv(s) }

// loadMetadata reads the global attributes and instrument configuration
// files named in the configuration.
func loadMetadata() (*stglib.Metadata, error) {
	gatts := expand(Cfg.GetString("gatts"))
	if gatts == "" {
		return nil, fmt.Errorf(`you need to specify a global attributes file (for example: --gatts="gatts.txt")`)
	}
	return stglib.LoadMetadata(gatts, expand(Cfg.GetString("instconfig")))
}

// checkInputFile makes sure that the input file named by the configuration
// variable varName is specified and exists, and expands any environment
// variables.
func checkInputFile(f, varName string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("you need to specify the %s configuration variable", varName)
	}
	f = expand(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("stglib: %s: %v", varName, err)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables. If f is empty,
// the file name is built from the "filename" metadata value and kind.
func checkOutputFile(f string, md *stglib.Metadata, kind string) (string, error) {
	if f == "" {
		if md.Filename == "" {
			return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc") or a "filename" in the instrument configuration`)
		}
		f = fmt.Sprintf("%s-%s.nc", md.Filename, kind)
	}
	f = expand(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("stglib: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
