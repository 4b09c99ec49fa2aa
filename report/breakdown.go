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

package report

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"

	"github.com/vhive-serverless/roofline/roofline"
)

// PlotRuntimeBreakdown renders the runtime of every region as a bar chart
func PlotRuntimeBreakdown(records []roofline.KernelPerformance, fileName string) error {
	var (
		bars   []chart.Value
		maxRun float64
	)
	for _, r := range records {
		if !r.HasMetrics || r.Runtime <= 0 {
			continue
		}
		if r.Runtime > maxRun {
			maxRun = r.Runtime
		}
		bars = append(bars, chart.Value{
			Label: r.Region,
			Value: r.Runtime,
			Style: chart.Style{
				Show:        true,
				StrokeWidth: 1,
				StrokeColor: drawing.Color{R: 0, G: 129, B: 65, A: 255},
				FillColor:   drawing.Color{R: 0, G: 129, B: 65, A: 200},
			},
		})
	}

	if len(bars) == 0 {
		log.Warnf("No region reported a runtime, skipping breakdown %s", fileName)
		return nil
	}

	graph := chart.BarChart{
		Title:      "Runtime per region [s]",
		TitleStyle: chart.StyleShow(),
		Background: chart.Style{
			Padding: chart.Box{
				Top: 40,
			},
		},
		Height:   512,
		BarWidth: 60,
		XAxis:    chart.StyleShow(),
		YAxis: chart.YAxis{
			Style: chart.StyleShow(),
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: maxRun * 1.1,
			},
		},
		Bars: bars,
	}

	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "failed creating %q", fileName)
	}

	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return errors.Wrap(err, "failed rendering runtime breakdown")
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed closing %q", fileName)
	}

	log.Debugf("Runtime breakdown of %d regions written to %s", len(bars), fileName)
	return nil
}
