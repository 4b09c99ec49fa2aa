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

// Package render draws roofline geometry with gonum/plot
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/vhive-serverless/roofline/roofline"
)

const labelOffset = 1.1

var (
	gray   = color.Gray{Y: 128}
	green  = color.RGBA{G: 128, A: 255}
	dashes = []vg.Length{vg.Points(6), vg.Points(3)}
)

// Chart describes the figure independently of the data on it
type Chart struct {
	Title   string
	Caption string
	Width   vg.Length
	Height  vg.Length
}

// DefaultChart returns a 10x7 inch chart
func DefaultChart(title string) Chart {
	return Chart{
		Title:  title,
		Width:  10 * vg.Inch,
		Height: 7 * vg.Inch,
	}
}

// Surface is a roofline chart being drawn
type Surface struct {
	chart Chart
	plot  *plot.Plot
}

// NewSurface creates an empty log-log chart
func NewSurface(c Chart) *Surface {
	p := plot.New()

	p.Title.Text = "Roofline Plot: " + c.Title
	p.X.Label.Text = "Arithmetic Intensity (FLOPs/Byte)"
	if c.Caption != "" {
		p.X.Label.Text += "\n\n" + c.Caption
	}
	p.Y.Label.Text = "Performance (GFLOP/s)"

	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	p.Legend.Top = true
	p.Legend.Left = true

	return &Surface{chart: c, plot: p}
}

// Project fixes the axis limits to b and returns the transform from data
// space to the drawing surface, in points. It can be passed to
// roofline.Compute as the projector.
func (s *Surface) Project(b roofline.Bounds) roofline.Transform {
	s.setBounds(b)
	return s.transform()
}

func (s *Surface) transform() roofline.Transform {
	dc := draw.New(vgimg.New(s.chart.Width, s.chart.Height))
	data := s.plot.DataCanvas(dc)
	tx, ty := s.plot.Transforms(&data)

	return func(x, y float64) (float64, float64) {
		return float64(tx(x)), float64(ty(y))
	}
}

func (s *Surface) setBounds(b roofline.Bounds) {
	s.plot.X.Min, s.plot.X.Max = b.XMin, b.XMax
	s.plot.Y.Min, s.plot.Y.Max = b.YMin, b.YMax
}

// Draw adds roofs, ceilings and measured regions to the chart. Markers and
// labels pad the data area, so the roof labels of g are realigned with the
// final layout.
func (s *Surface) Draw(g *roofline.Geometry) error {
	grid := plotter.NewGrid()
	grid.Horizontal.Dashes = dashes
	grid.Vertical.Dashes = dashes
	s.plot.Add(grid)

	roofLabels, err := s.addRoofs(g)
	if err != nil {
		return err
	}
	if err := s.addCeilings(g); err != nil {
		return err
	}
	if err := s.addPoints(g.Points); err != nil {
		return err
	}

	// adding plotters widens the axes to fit them
	s.setBounds(g.Bounds)

	if roofLabels != nil {
		g.Realign(s.transform())
		for i, roof := range g.Roofs {
			roofLabels.TextStyle[i].Rotation = roof.Label.Angle * math.Pi / 180
		}
	}

	return nil
}

func (s *Surface) addRoofs(g *roofline.Geometry) (*plotter.Labels, error) {
	labels := plotter.XYLabels{XYs: make(plotter.XYs, len(g.Roofs))}

	for i, roof := range g.Roofs {
		pts := make(plotter.XYs, len(g.Samples))
		for j, x := range g.Samples {
			pts[j].X = x
			pts[j].Y = roof.Y[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "failed plotting roof %s", roof.Name)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(i)

		s.plot.Add(line)
		s.plot.Legend.Add(fmt.Sprintf("%s (%.0f GB/s)", roof.Name, roof.Bandwidth), line)

		labels.XYs[i].X = roof.Label.X
		labels.XYs[i].Y = roof.Label.Y
		labels.Labels = append(labels.Labels, fmt.Sprintf("%.0f GB/s %s", roof.Bandwidth, roof.Name))
	}

	if len(g.Roofs) == 0 {
		return nil, nil
	}

	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, errors.Wrap(err, "failed labelling roofs")
	}
	for i, roof := range g.Roofs {
		text.TextStyle[i].Color = gray
		text.TextStyle[i].Rotation = roof.Label.Angle * math.Pi / 180
	}
	s.plot.Add(text)

	return text, nil
}

func (s *Surface) addCeilings(g *roofline.Geometry) error {
	labels := plotter.XYLabels{XYs: make(plotter.XYs, len(g.Ceilings))}

	for i, c := range g.Ceilings {
		line, err := plotter.NewLine(plotter.XYs{{X: g.XMin, Y: c.Value}, {X: g.XMax, Y: c.Value}})
		if err != nil {
			return errors.Wrapf(err, "failed plotting ceiling %s", c.Name)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = gray
		line.LineStyle.Dashes = dashes

		s.plot.Add(line)
		s.plot.Legend.Add(fmt.Sprintf("%s (%.0f GFLOP/s)", c.Name, c.Value), line)

		labels.XYs[i].X = 1
		labels.XYs[i].Y = c.Value * labelOffset
		labels.Labels = append(labels.Labels, fmt.Sprintf("%.0f GFLOP/s %s", c.Value, c.Name))
	}

	if len(g.Ceilings) == 0 {
		return nil
	}

	text, err := plotter.NewLabels(labels)
	if err != nil {
		return errors.Wrap(err, "failed labelling ceilings")
	}
	for i := range text.TextStyle {
		text.TextStyle[i].Color = gray
	}
	s.plot.Add(text)

	return nil
}

func (s *Surface) addPoints(points []roofline.Point) error {
	var (
		pts     plotter.XYs
		labels  []string
		runtime []float64
	)
	for _, p := range points {
		// a log axis cannot place them
		if p.Intensity <= 0 || p.Throughput <= 0 {
			log.Warnf("Region %s has no positive throughput, not plotted", p.Region)
			continue
		}
		pts = append(pts, plotter.XY{X: p.Intensity, Y: p.Throughput})
		labels = append(labels, p.Region)
		runtime = append(runtime, p.Runtime)
	}

	if len(pts) == 0 {
		return nil
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "failed plotting regions")
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  green,
			Radius: markerRadius(runtime[i]),
			Shape:  draw.CircleGlyph{},
		}
	}
	s.plot.Add(scatter)
	s.plot.Legend.Add("Measured Regions", scatter)

	shifted := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		shifted[i].X = pt.X * labelOffset
		shifted[i].Y = pt.Y * labelOffset
	}
	text, err := plotter.NewLabels(plotter.XYLabels{XYs: shifted, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "failed labelling regions")
	}
	s.plot.Add(text)

	return nil
}

// markerRadius sizes a marker so that its area grows with the runtime
func markerRadius(runtime float64) vg.Length {
	return vg.Points(math.Max(math.Sqrt(runtime/math.Pi), 2))
}

// Save writes the chart to path, in the format given by its extension
func (s *Surface) Save(path string) error {
	if err := s.plot.Save(s.chart.Width, s.chart.Height, path); err != nil {
		return errors.Wrapf(err, "failed saving plot to %q", path)
	}
	return nil
}

// WriteTo writes the chart to w in format (png, svg, pdf, ...)
func (s *Surface) WriteTo(w io.Writer, format string) error {
	wt, err := s.plot.WriterTo(s.chart.Width, s.chart.Height, format)
	if err != nil {
		return errors.Wrapf(err, "failed rendering %s", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed writing plot")
	}
	return nil
}
