// MIT License
//
// Copyright (c) 2025 EASE lab
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vhive-serverless/roofline/config"
	"github.com/vhive-serverless/roofline/export"
	"github.com/vhive-serverless/roofline/lg"
	"github.com/vhive-serverless/roofline/render"
	"github.com/vhive-serverless/roofline/report"
	"github.com/vhive-serverless/roofline/roofline"
)

type options struct {
	metricsFile string
	flopsFile   string
	memFile     string
	workload    string
	output      string
	caption     string
	csvFile     string
	breakdown   string
	influxAddr  string
	influxDB    string
	debug       bool
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	// the chart may go to stdout
	lg.Setup(os.Stderr, opts.debug)

	if err := run(opts); err != nil {
		log.Fatalf("Failed generating roofline: %v", err)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	opts := new(options)

	fs.StringVar(&opts.flopsFile, "flops", "", "Path to LIKWID CSV file containing FLOPs metrics")
	fs.StringVar(&opts.flopsFile, "f", "", "Shorthand for -flops")
	fs.StringVar(&opts.memFile, "mem", "", "Path to LIKWID CSV file containing memory (bytes) metrics")
	fs.StringVar(&opts.memFile, "m", "", "Shorthand for -mem")
	fs.StringVar(&opts.workload, "workload", "", "Name of workload to use in plot title")
	fs.StringVar(&opts.workload, "w", "", "Shorthand for -workload")
	fs.StringVar(&opts.output, "o", "roofline.png", "Output file for the roofline plot, empty writes a PNG to stdout")
	fs.StringVar(&opts.caption, "caption", "", "Caption printed below the plot")
	fs.StringVar(&opts.csvFile, "csv", "", "Write the per-region table to this CSV file")
	fs.StringVar(&opts.breakdown, "breakdown", "", "Write a runtime-per-region bar chart to this PNG file")
	fs.StringVar(&opts.influxAddr, "influx", "", "InfluxDB URL to publish the results to, e.g. http://localhost:8086")
	fs.StringVar(&opts.influxDB, "influxdb", "roofline", "InfluxDB database")
	fs.BoolVar(&opts.debug, "dbg", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// flags may follow the metrics file
	if fs.NArg() > 0 {
		opts.metricsFile = fs.Arg(0)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return nil, err
		}
	}

	switch {
	case opts.metricsFile == "":
		return nil, errors.New("missing YAML file with roofline peak metrics")
	case fs.NArg() > 0:
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	case opts.flopsFile == "":
		return nil, errors.New("-flops is required")
	case opts.memFile == "":
		return nil, errors.New("-mem is required")
	case opts.workload == "":
		return nil, errors.New("-workload is required")
	}

	return opts, nil
}

func run(opts *options) error {
	peaks, err := config.Load(opts.metricsFile)
	if err != nil {
		return err
	}
	if err := peaks.Validate(); err != nil {
		return errors.Wrap(err, "invalid peak metrics")
	}

	records, err := roofline.Extract(opts.flopsFile, opts.memFile)
	if err != nil {
		return err
	}
	plotted := roofline.Plottable(records)
	if len(plotted) == 0 {
		log.Warn("No region has both FLOPs and memory traffic, plotting roofs only")
	}

	chart := render.DefaultChart(fmt.Sprintf("%s on %s", opts.workload, peaks.SystemName))
	chart.Caption = opts.caption
	surface := render.NewSurface(chart)

	geom, err := roofline.Compute(plotted, peaks.ComputeCeilings(), peaks.MemoryRoofs(), surface.Project)
	if err != nil {
		return err
	}
	if err := surface.Draw(geom); err != nil {
		return err
	}

	if opts.output == "" {
		if err := surface.WriteTo(os.Stdout, "png"); err != nil {
			return err
		}
	} else {
		if err := surface.Save(opts.output); err != nil {
			return err
		}
		log.Infof("Saved roofline plot to %s", opts.output)
	}

	log.Info("\n" + report.Summary(plotted, geom.PeakCompute))

	if opts.csvFile != "" {
		if err := writeCSV(opts.csvFile, records); err != nil {
			return err
		}
	}

	if opts.breakdown != "" {
		if err := report.PlotRuntimeBreakdown(plotted, opts.breakdown); err != nil {
			return err
		}
	}

	if opts.influxAddr != "" {
		tags := map[string]string{
			"system":   peaks.SystemName,
			"workload": opts.workload,
		}
		sink := export.NewInflux(opts.influxAddr, opts.influxDB)
		if err := sink.Write(records, geom.Ceilings, peaks.MemoryRoofs(), tags); err != nil {
			return err
		}
	}

	return nil
}

func writeCSV(fileName string, records []roofline.KernelPerformance) error {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "failed creating %q", fileName)
	}

	if err := report.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed closing %q", fileName)
	}
	return nil
}
