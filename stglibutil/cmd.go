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

// Package stglibutil contains the stglib command-line interface.
package stglibutil

import (
	"context"
	"fmt"
	"time"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stglib/stglib"
	"github.com/stglib/stglib/aqd"
	"github.com/stglib/stglib/exo"
	"github.com/stglib/stglib/rsk"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to stglib.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum level of log messages
              to print: one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "gatts",
			usage: `
              gatts specifies the location of the global attributes file,
              where each line is formatted as "NAME; value".`,
			shorthand:  "g",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ncCmd.Flags(), exoCmd.Flags(), rskCmd.Flags()},
		},
		{
			name: "instconfig",
			usage: `
              instconfig specifies the location of the YAML instrument
              configuration file. Values in it override values in the
              global attributes file.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ncCmd.Flags(), exoCmd.Flags(), rskCmd.Flags()},
		},
		{
			name: "waves",
			usage: `
              waves specifies whether to process wave-burst data (.whd and .wad
              files) instead of current profiles.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{ncCmd.Flags()},
		},
		{
			name: "atmpres",
			usage: `
              atmpres specifies the location of a NetCDF file holding an
              "atmpres" variable used to correct pressure for changes in
              atmospheric pressure. It must have the same number of
              records as the instrument data.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ncCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the NetCDF file to write.
              If it is empty, the "filename" value from the instrument
              configuration is used.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ncCmd.Flags(), exoCmd.Flags(), rskCmd.Flags()},
		},
		{
			name: "exofile",
			usage: `
              exofile specifies the location of the .xlsx file exported
              from KOR.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{exoCmd.Flags()},
		},
		{
			name: "rskfile",
			usage: `
              rskfile specifies the location of the RBR .rsk file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rskCmd.Flags()},
		},
	}

	Cfg = viper.New()
	Cfg.SetEnvPrefix("STGLIB")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 {
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	Root.AddCommand(versionCmd, aqdCmd, exoCmd, rskCmd)
	aqdCmd.AddCommand(hdrCmd, ncCmd)
}

// setConfig reads in the configuration file if one is specified and
// configures logging.
func setConfig() error {
	Cfg.AutomaticEnv()
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("stglib: problem reading configuration file: %v", err)
		}
	}
	return setLogging(Cfg.GetString("LogLevel"))
}

func setLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("stglib: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "stglib",
	Short: "Process oceanographic instrument data.",
	Long: `stglib converts data from oceanographic instruments to EPIC-compliant
NetCDF files. Use the subcommands specified below to access the
functionality.

Configuration can be specified with command-line flags, a configuration file
given with the --config flag, or environment variables prefixed with
"STGLIB_".`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return setConfig()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of stglib.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stglib v%s\n", stglib.Version)
	},
	DisableAutoGenTag: true,
}

var aqdCmd = &cobra.Command{
	Use:   "aqd",
	Short: "Process Nortek Aquadopp data.",
	Long: `aqd processes data exported from Nortek Aquadopp profilers with the
Nortek software as ASCII files that share a common base file name.`,
	DisableAutoGenTag: true,
}

var hdrCmd = &cobra.Command{
	Use:   "hdr basefile",
	Short: "Print the instrument metadata in an Aquadopp header file.",
	Long: `hdr parses basefile.hdr and prints the instrument metadata
it contains.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := aqd.ReadHeaderFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%# v\n", pretty.Formatter(meta))
		return nil
	},
	DisableAutoGenTag: true,
}

var ncCmd = &cobra.Command{
	Use:   "nc",
	Short: "Convert Aquadopp data to a NetCDF file.",
	Long: `nc reads the Aquadopp files named by the "basefile" configuration
value, transforms velocities to Earth coordinates, applies magnetic,
time, and water-level corrections, and writes an EPIC-compliant NetCDF
file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := loadMetadata()
		if err != nil {
			return err
		}
		mode := aqd.Profile
		if Cfg.GetBool("waves") {
			mode = aqd.Wave
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"), md, mode.String())
		if err != nil {
			return err
		}
		return AQDToNC(md, mode, expand(Cfg.GetString("atmpres")), out)
	},
	DisableAutoGenTag: true,
}

// AQDToNC loads the Aquadopp dataset described by md, processes it, and
// writes it to out.
func AQDToNC(md *stglib.Metadata, mode aqd.Mode, atmpres, out string) error {
	if md.Basefile == "" {
		return fmt.Errorf("stglib: the basefile configuration value is required")
	}
	d, err := aqd.Load(md.Basefile, mode, md, logrus.StandardLogger())
	if err != nil {
		return err
	}
	if err := aqd.Process(d, atmpres); err != nil {
		return err
	}
	return d.WriteNC(out)
}

var exoCmd = &cobra.Command{
	Use:   "exo",
	Short: "Convert YSI EXO data to a NetCDF file.",
	Long: `exo reads a spreadsheet exported from the YSI KOR software and writes
each numeric column to a NetCDF file. The "skiprows" configuration value
gives the number of rows before the column headings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := loadMetadata()
		if err != nil {
			return err
		}
		in, err := checkInputFile(Cfg.GetString("exofile"), "exofile")
		if err != nil {
			return err
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"), md, "exo")
		if err != nil {
			return err
		}
		return exo.ToNC(in, md, out, logrus.StandardLogger())
	},
	DisableAutoGenTag: true,
}

var rskCmd = &cobra.Command{
	Use:   "rsk",
	Short: "Convert RBR data to a NetCDF file.",
	Long: `rsk reads every channel of an RBR .rsk file and writes it to a
NetCDF file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := loadMetadata()
		if err != nil {
			return err
		}
		in, err := checkInputFile(Cfg.GetString("rskfile"), "rskfile")
		if err != nil {
			return err
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"), md, "rsk")
		if err != nil {
			return err
		}
		return rsk.ToNC(context.Background(), in, md, out, logrus.StandardLogger())
	},
	DisableAutoGenTag: true,
}
