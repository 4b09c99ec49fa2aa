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

package likwid

// Counter names one per-region value extracted from a LIKWID table
type Counter int

const (
	// SPFlops single-precision floating-point operations (scalar + packed)
	SPFlops Counter = iota
	// DPFlops double-precision floating-point operations (scalar + packed)
	DPFlops
	// SPGflops single-precision throughput in GFLOP/s
	SPGflops
	// DPGflops double-precision throughput in GFLOP/s
	DPGflops
	// Runtime region runtime in seconds
	Runtime
	// Bytes memory traffic in bytes
	Bytes
)

func (c Counter) String() string {
	switch c {
	case SPFlops:
		return "SP FLOPs"
	case DPFlops:
		return "DP FLOPs"
	case SPGflops:
		return "SP [GFLOP/s]"
	case DPGflops:
		return "DP [GFLOP/s]"
	case Runtime:
		return "Runtime [s]"
	case Bytes:
		return "Bytes"
	}
	return "unknown"
}

// RegionCounters holds the counters collected for one region.
// A counter that was never reported is absent, which is not the same as zero.
type RegionCounters struct {
	Region string
	values map[Counter]float64
}

func newRegionCounters(region string) *RegionCounters {
	return &RegionCounters{
		Region: region,
		values: make(map[Counter]float64),
	}
}

// Get returns the value of c and whether the region reported it
func (rc *RegionCounters) Get(c Counter) (float64, bool) {
	v, isPresent := rc.values[c]
	return v, isPresent
}

func (rc *RegionCounters) add(c Counter, v float64) {
	rc.values[c] += v
}

func (rc *RegionCounters) set(c Counter, v float64) {
	rc.values[c] = v
}

// Regions is the result of parsing one counter dump: regions keyed by name,
// iterated in order of first appearance.
type Regions struct {
	order   []string
	regions map[string]*RegionCounters
}

// NewRegions returns an empty set of regions
func NewRegions() *Regions {
	return &Regions{
		regions: make(map[string]*RegionCounters),
	}
}

// Lookup returns the counters of region, or nil if it never appeared
func (r *Regions) Lookup(region string) *RegionCounters {
	if r == nil {
		return nil
	}
	return r.regions[region]
}

// All returns the regions in order of first appearance
func (r *Regions) All() []*RegionCounters {
	if r == nil {
		return nil
	}
	result := make([]*RegionCounters, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.regions[name])
	}
	return result
}

// Len returns the number of regions
func (r *Regions) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

func (r *Regions) getOrCreate(region string) *RegionCounters {
	rc, isPresent := r.regions[region]
	if !isPresent {
		rc = newRegionCounters(region)
		r.regions[region] = rc
		r.order = append(r.order, region)
	}
	return rc
}
