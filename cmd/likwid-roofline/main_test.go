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
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vhive-serverless/roofline/likwid"
	"github.com/vhive-serverless/roofline/roofline"
)

const (
	peaksYAML = `system_name: testbox
flops_metrics:
  sp: {metric-name: SP peak, value: 2, unit: TFLOPS}
mem_metrics:
  dram: {metric-name: DRAM, value: 100000, unit: MB/s}
`
	flopsCSV = `TABLE,Region foo,Group 1 Raw STAT,FLOPS_SP,4
RETIRED_SSE_AVX_FLOPS_ALL_SP_SCALAR STAT,,100
RETIRED_SSE_AVX_FLOPS_ALL_SP_PACKED STAT,,300
TABLE,Region foo,Group 1 Metric STAT,FLOPS_SP,3
Runtime (RDTSC) [s] STAT,4
SP [MFLOP/s] STAT,50
`
	memCSV = `TABLE,Region foo,Group 1 Raw STAT,MEM,3
CAS_CMD_ANY STAT,,10,
`
)

func init() {
	log.SetOutput(io.Discard)
}

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts, err := parseFlags(fs, []string{"-f", "flops.csv", "peaks.yaml", "-mem", "mem.csv", "-w", "stream", "-dbg"})
	require.NoError(t, err)

	require.Equal(t, "peaks.yaml", opts.metricsFile)
	require.Equal(t, "flops.csv", opts.flopsFile)
	require.Equal(t, "mem.csv", opts.memFile)
	require.Equal(t, "stream", opts.workload)
	require.Equal(t, "roofline.png", opts.output)
	require.True(t, opts.debug)

	cases := map[string][]string{
		"no metrics file": {"-f", "a", "-m", "b", "-w", "c"},
		"no flops":        {"peaks.yaml", "-m", "b", "-w", "c"},
		"no mem":          {"peaks.yaml", "-f", "a", "-w", "c"},
		"no workload":     {"peaks.yaml", "-f", "a", "-m", "b"},
		"extra argument":  {"peaks.yaml", "-f", "a", "-m", "b", "-w", "c", "other.yaml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			_, err := parseFlags(fs, args)
			require.Error(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"peaks.yaml": peaksYAML,
		"flops.csv":  flopsCSV,
		"mem.csv":    memCSV,
	})

	opts := &options{
		metricsFile: filepath.Join(dir, "peaks.yaml"),
		flopsFile:   filepath.Join(dir, "flops.csv"),
		memFile:     filepath.Join(dir, "mem.csv"),
		workload:    "stream",
		output:      filepath.Join(dir, "roofline.png"),
		csvFile:     filepath.Join(dir, "regions.csv"),
		breakdown:   filepath.Join(dir, "breakdown.png"),
	}
	require.NoError(t, run(opts), "Failed generating roofline")

	for _, name := range []string{opts.output, opts.csvFile, opts.breakdown} {
		_, err := os.Stat(name)
		require.False(t, os.IsNotExist(err), "Target file %s was not found", name)
	}

	data, err := os.ReadFile(opts.csvFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "foo,400,640,0.625,0.05,4")
}

func TestRunWithoutMemoryRoof(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"peaks.yaml": "flops_metrics: {sp: {value: 1}}\nmem_metrics: {dram: {value: 0}}\n",
		"flops.csv":  flopsCSV,
		"mem.csv":    memCSV,
	})

	err := run(&options{
		metricsFile: filepath.Join(dir, "peaks.yaml"),
		flopsFile:   filepath.Join(dir, "flops.csv"),
		memFile:     filepath.Join(dir, "mem.csv"),
		workload:    "stream",
		output:      filepath.Join(dir, "roofline.png"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), roofline.ErrNoMemoryRoof.Error())

	_, statErr := os.Stat(filepath.Join(dir, "roofline.png"))
	require.True(t, os.IsNotExist(statErr), "nothing is drawn for an invalid configuration")
}

func TestRunMalformedCounters(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"peaks.yaml": peaksYAML,
		"flops.csv":  flopsCSV,
		"mem.csv":    "TABLE,Region foo,Group 1 Raw STAT\nCAS_CMD_ANY STAT,,n/a\n",
	})

	err := run(&options{
		metricsFile: filepath.Join(dir, "peaks.yaml"),
		flopsFile:   filepath.Join(dir, "flops.csv"),
		memFile:     filepath.Join(dir, "mem.csv"),
		workload:    "stream",
		output:      filepath.Join(dir, "roofline.png"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "mem.csv")
	require.True(t, errors.Is(err, likwid.ErrMalformedRow))
}

func TestRunBreakdownWithoutRuntime(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"peaks.yaml": peaksYAML,
		"flops.csv":  "TABLE,Region foo,Group 1 Raw STAT,FLOPS_SP,4\nRETIRED_SSE_AVX_FLOPS_ALL_SP_SCALAR STAT,,100\n",
		"mem.csv":    memCSV,
	})

	opts := &options{
		metricsFile: filepath.Join(dir, "peaks.yaml"),
		flopsFile:   filepath.Join(dir, "flops.csv"),
		memFile:     filepath.Join(dir, "mem.csv"),
		workload:    "stream",
		output:      filepath.Join(dir, "roofline.png"),
		breakdown:   filepath.Join(dir, "breakdown.png"),
	}
	require.NoError(t, run(opts), "a run without runtimes still draws the roofs")

	_, err := os.Stat(opts.output)
	require.NoError(t, err)
	_, err = os.Stat(opts.breakdown)
	require.True(t, os.IsNotExist(err), "no breakdown without runtimes")
}

func TestRunToStdout(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"peaks.yaml": peaksYAML,
		"flops.csv":  flopsCSV,
		"mem.csv":    memCSV,
	})

	out, err := os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	defer out.Close()

	stdout := os.Stdout
	os.Stdout = out
	defer func() { os.Stdout = stdout }()

	err = run(&options{
		metricsFile: filepath.Join(dir, "peaks.yaml"),
		flopsFile:   filepath.Join(dir, "flops.csv"),
		memFile:     filepath.Join(dir, "mem.csv"),
		workload:    "stream",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "stdout does not hold a PNG")
}
