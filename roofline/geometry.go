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

package roofline

import (
	"math"

	"github.com/davecgh/go-spew/spew"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	sampleCount = 400
	// roof labels sit between these two samples
	labelSample = 10

	defaultXMin  = 0.01
	defaultXMax  = 10.0
	xFloor       = 1e-4
	bwFloor      = 1e-6
	kneeMargin   = 10.0
	yMin         = 0.1
	yMaxHeadroom = 1.5
)

var (
	// ErrNoComputeCeiling no positive compute ceiling was configured
	ErrNoComputeCeiling = errors.New("no peak floating-point performance metric provided")
	// ErrNoMemoryRoof no positive memory bandwidth was configured
	ErrNoMemoryRoof = errors.New("no memory bandwidth metric provided")
)

// Peak is a named ceiling: GFLOP/s for compute, GB/s for memory bandwidth
type Peak struct {
	Name  string
	Value float64
}

// Bounds are the axis limits of the chart in data space
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Label is where a roof label is anchored and how much it is rotated
type Label struct {
	X, Y  float64
	Angle float64 // degrees, counter-clockwise
}

// RoofCurve is a memory roof capped by the peak compute ceiling
type RoofCurve struct {
	Name      string
	Bandwidth float64
	// Y holds min(peak, bandwidth*x) for every sample x
	Y     []float64
	Label Label
}

// Point is a measured region placed on the chart
type Point struct {
	Region     string
	Intensity  float64
	Throughput float64
	Runtime    float64
}

// Geometry is everything a renderer needs to draw a roofline chart
type Geometry struct {
	Bounds
	PeakCompute float64
	Samples     []float64
	Ceilings    []Peak
	Roofs       []RoofCurve
	Points      []Point
}

// Transform maps a data-space point to the drawing surface
type Transform func(x, y float64) (px, py float64)

// Projector returns the data-to-surface transform of a chart with bounds b
type Projector func(b Bounds) Transform

// Compute derives the chart geometry. Ceilings and roofs with non-positive
// values are ignored; if none is left in either group the configuration is
// unusable and an error is returned. project supplies the drawing surface
// transform used to align roof labels with their lines; when nil, labels are
// aligned in log-log data space with a square aspect.
func Compute(records []KernelPerformance, ceilings, roofs []Peak, project Projector) (*Geometry, error) {
	ceilings = positive(ceilings)
	if len(ceilings) == 0 {
		return nil, ErrNoComputeCeiling
	}
	roofs = positive(roofs)
	if len(roofs) == 0 {
		return nil, ErrNoMemoryRoof
	}

	var (
		peak  = floats.Max(values(ceilings))
		minBW = floats.Min(values(roofs))
	)

	dataXMin, dataXMax, err := dataBounds(records)
	if err != nil {
		return nil, err
	}
	roofsXMax := peak / math.Max(minBW, bwFloor) * kneeMargin

	g := &Geometry{
		Bounds: Bounds{
			XMin: math.Min(dataXMin, defaultXMin),
			XMax: math.Max(dataXMax, roofsXMax),
			YMin: yMin,
			YMax: peak * yMaxHeadroom,
		},
		PeakCompute: peak,
		Ceilings:    ceilings,
	}
	g.Samples = floats.LogSpan(make([]float64, sampleCount), g.XMin, g.XMax)

	transform := logTransform
	if project != nil {
		transform = project(g.Bounds)
	}

	for _, r := range roofs {
		g.Roofs = append(g.Roofs, RoofCurve{
			Name:      r.Name,
			Bandwidth: r.Value,
			Y:         capped(g.Samples, r.Value, peak),
			Label:     labelPlacement(g.Samples, r.Value, transform),
		})
	}

	for _, r := range records {
		g.Points = append(g.Points, Point{
			Region:     r.Region,
			Intensity:  r.Intensity,
			Throughput: r.SPGflops,
			Runtime:    r.Runtime,
		})
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("Roofline bounds: %s", spew.Sdump(g.Bounds))
	}

	return g, nil
}

// Realign recomputes the roof label angles for transform t, for renderers
// whose final layout is only known once everything is drawn.
func (g *Geometry) Realign(t Transform) {
	for i := range g.Roofs {
		g.Roofs[i].Label = labelPlacement(g.Samples, g.Roofs[i].Bandwidth, t)
	}
}

func dataBounds(records []KernelPerformance) (float64, float64, error) {
	if len(records) == 0 {
		return defaultXMin, defaultXMax, nil
	}

	intensities := make([]float64, len(records))
	for i, r := range records {
		intensities[i] = r.Intensity
	}

	lo, err := stats.Min(intensities)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to find the lowest arithmetic intensity")
	}
	hi, err := stats.Max(intensities)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to find the highest arithmetic intensity")
	}

	return math.Max(math.Min(lo, defaultXMin), xFloor), math.Max(hi, defaultXMax), nil
}

// capped evaluates the roofline equation pointwise
func capped(xs []float64, bandwidth, peak float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Min(peak, bandwidth*x)
	}
	return ys
}

// labelPlacement anchors the label on the uncapped roof and rotates it so
// that it runs parallel to the roof once drawn.
func labelPlacement(xs []float64, bandwidth float64, t Transform) Label {
	x1, x2 := xs[labelSample], xs[labelSample+1]
	y1, y2 := bandwidth*x1, bandwidth*x2

	px1, py1 := t(x1, y1)
	px2, py2 := t(x2, y2)

	return Label{
		X:     x1,
		Y:     y1,
		Angle: math.Atan2(py2-py1, px2-px1) * 180 / math.Pi,
	}
}

func logTransform(x, y float64) (float64, float64) {
	return math.Log10(x), math.Log10(y)
}

func positive(peaks []Peak) []Peak {
	var result []Peak
	for _, p := range peaks {
		if p.Value > 0 {
			result = append(result, p)
		}
	}
	return result
}

func values(peaks []Peak) []float64 {
	result := make([]float64, len(peaks))
	for i, p := range peaks {
		result[i] = p.Value
	}
	return result
}
