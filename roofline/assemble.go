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

// Package roofline joins compute and memory counters into per-region
// performance records and derives the geometry of a roofline chart.
package roofline

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vhive-serverless/roofline/likwid"
)

// KernelPerformance is the roofline position of one region
type KernelPerformance struct {
	Region    string
	SPFlops   float64
	Bytes     float64
	Intensity float64 // FLOP/Byte
	SPGflops  float64
	Runtime   float64 // seconds
	// HasMetrics is set when the region reported both its throughput and its
	// runtime, which a chart needs to place it.
	HasMetrics bool
}

// Assemble left-joins compute regions with memory regions and keeps regions
// with positive FLOP and byte counts. Records follow the order regions first
// appeared in compute.
func Assemble(compute, memory *likwid.Regions) []KernelPerformance {
	var records []KernelPerformance

	for _, rc := range compute.All() {
		flops, hasFlops := rc.Get(likwid.SPFlops)
		if !hasFlops || flops <= 0 {
			log.Debugf("Dropping region %s: no single-precision FLOPs", rc.Region)
			continue
		}

		var (
			bytes    float64
			hasBytes bool
		)
		if mc := memory.Lookup(rc.Region); mc != nil {
			bytes, hasBytes = mc.Get(likwid.Bytes)
		}
		if !hasBytes || bytes <= 0 {
			log.Debugf("Dropping region %s: no memory traffic", rc.Region)
			continue
		}

		gflops, hasGflops := rc.Get(likwid.SPGflops)
		runtime, hasRuntime := rc.Get(likwid.Runtime)

		records = append(records, KernelPerformance{
			Region:     rc.Region,
			SPFlops:    flops,
			Bytes:      bytes,
			Intensity:  flops / bytes,
			SPGflops:   gflops,
			Runtime:    runtime,
			HasMetrics: hasGflops && hasRuntime,
		})
	}

	return records
}

// Plottable returns the records that can be placed on a chart
func Plottable(records []KernelPerformance) []KernelPerformance {
	var result []KernelPerformance
	for _, r := range records {
		if !r.HasMetrics {
			log.Debugf("Region %s has no throughput or runtime, not plotted", r.Region)
			continue
		}
		result = append(result, r)
	}
	return result
}

// Extract parses the compute and memory counter dumps and assembles them.
// The two files are parsed concurrently.
func Extract(computePath, memoryPath string) ([]KernelPerformance, error) {
	var (
		g               errgroup.Group
		compute, memory *likwid.Regions
	)

	g.Go(func() error {
		var err error
		compute, err = likwid.NewComputeParser().ParseFile(computePath)
		return err
	})
	g.Go(func() error {
		var err error
		memory, err = likwid.NewMemoryParser().ParseFile(memoryPath)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := Assemble(compute, memory)
	log.Debugf("Assembled %d of %d regions", len(records), compute.Len())

	return records, nil
}
