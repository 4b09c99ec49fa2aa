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

// Package report summarizes assembled regions as tables and charts
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/vhive-serverless/roofline/roofline"
)

var header = []string{"region", "SP FLOPs", "Bytes", "FLOP/Byte", "SP [GFLOP/s]", "Runtime [s]"}

// WriteCSV writes one line per region, in the given order
func WriteCSV(w io.Writer, records []roofline.KernelPerformance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed writing report header")
	}

	for _, r := range records {
		line := []string{
			r.Region,
			formatFloat(r.SPFlops),
			formatFloat(r.Bytes),
			formatFloat(r.Intensity),
			"",
			"",
		}
		if r.HasMetrics {
			line[4] = formatFloat(r.SPGflops)
			line[5] = formatFloat(r.Runtime)
		}
		if err := cw.Write(line); err != nil {
			return errors.Wrapf(err, "failed writing region %s", r.Region)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed flushing report")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Summary prints regions by decreasing runtime with their share of the
// peak compute, followed by the runtime-weighted mean arithmetic intensity.
func Summary(records []roofline.KernelPerformance, peakCompute float64) string {
	var s = "==== Roofline regions ====\n"
	s += "region, FLOP/Byte, GFLOP/s, runtime [s], % of peak\n"

	sorted := make([]roofline.KernelPerformance, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Runtime > sorted[j].Runtime
	})

	var (
		intensities = make([]float64, 0, len(sorted))
		runtimes    = make([]float64, 0, len(sorted))
		total       float64
	)
	for _, r := range sorted {
		var share float64
		if peakCompute > 0 {
			share = 100 * r.SPGflops / peakCompute
		}
		s += fmt.Sprintf("%s, %.4g, %.4g, %.4g, %.1f\n", r.Region, r.Intensity, r.SPGflops, r.Runtime, share)

		intensities = append(intensities, r.Intensity)
		runtimes = append(runtimes, r.Runtime)
		total += r.Runtime
	}

	if len(intensities) > 0 {
		weights := runtimes
		if total <= 0 {
			weights = nil
		}
		s += fmt.Sprintf("mean FLOP/Byte (runtime weighted): %.4g\n", stat.Mean(intensities, weights))
	}

	s += "=========================="

	return s
}
