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

// Package units converts peak-performance figures to the canonical units
// used by the roofline model: GFLOPS for compute and GB/s for bandwidth.
package units

import "strings"

// Domain selects the lookup table used for a unit string
type Domain int

const (
	// Compute is floating-point throughput, canonical unit GFLOPS
	Compute Domain = iota
	// Bandwidth is memory bandwidth, canonical unit GB/s
	Bandwidth
)

const (
	milli = 0.001
	giga  = 1.0
	tera  = 1_000.0
	peta  = 1_000_000.0
)

var factors = map[Domain]map[string]float64{
	Compute: {
		"mflops": milli, "mf/s": milli, "mflo/s": milli, "mflop/s": milli,
		"gflops": giga, "gf/s": giga, "gflo/s": giga, "gflop/s": giga,
		"tflops": tera, "tf/s": tera, "tflo/s": tera, "tflop/s": tera,
		"pflops": peta, "pf/s": peta, "pflo/s": peta, "pflop/s": peta,
	},
	Bandwidth: {
		"mb/s": milli, "mbytes/s": milli, "mbyte/s": milli, "mbs": milli,
		"gb/s": giga, "gbytes/s": giga, "gbyte/s": giga, "gbs": giga,
		"tb/s": tera, "tbytes/s": tera, "tbyte/s": tera, "tbs": tera,
		"pb/s": peta, "pbytes/s": peta, "pbyte/s": peta, "pbs": peta,
	},
}

// Canonical returns the unit tag values of the domain are normalized to
func (d Domain) Canonical() string {
	if d == Bandwidth {
		return "GB/s"
	}
	return "GFLOPS"
}

func (d Domain) String() string {
	if d == Bandwidth {
		return "bandwidth"
	}
	return "compute"
}

// Factor returns the multiplier that converts unit to the canonical unit of d.
// Unknown spellings report known=false and a factor of 1.
func Factor(unit string, d Domain) (factor float64, known bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if f, ok := factors[d][u]; ok {
		return f, true
	}
	return 1, false
}

// Normalize converts value given in unit to the canonical unit of d.
// An empty unit means the value is already canonical, and so does any
// spelling missing from the lookup table.
func Normalize(value float64, unit string, d Domain) float64 {
	if unit == "" {
		return value
	}
	f, _ := Factor(unit, d)
	return value * f
}
