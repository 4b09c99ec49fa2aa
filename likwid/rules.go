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

const (
	// RawTable is the table type of raw per-event statistics
	RawTable = "Group 1 Raw STAT"
	// MetricTable is the table type of derived metric statistics
	MetricTable = "Group 1 Metric STAT"

	// CacheLineSize bytes moved per memory transaction
	CacheLineSize = 64.0

	// field holding the Sum column in raw and metric STAT tables
	rawSumField    = 2
	metricSumField = 1

	mega2giga = 1.0 / 1000.0
)

// Mode tells whether a matched row adds to a counter or replaces it
type Mode int

const (
	// Accumulate sums every matching row; used for event counts that LIKWID
	// splits over several rows such as scalar and packed FLOPs.
	Accumulate Mode = iota
	// Set keeps the last matching row; used for single-valued metrics.
	Set
)

// Rule maps a (table type, row label) pair to a counter
type Rule struct {
	Table   string
	Label   string
	Field   int
	Scale   float64
	Counter Counter
	Mode    Mode
}

type ruleKey struct {
	table, label string
}

// ComputeRules returns the rules for a FLOPS_SP/FLOPS_DP counter dump
func ComputeRules() []Rule {
	return []Rule{
		{RawTable, "RETIRED_SSE_AVX_FLOPS_ALL_SP_SCALAR STAT", rawSumField, 1, SPFlops, Accumulate},
		{RawTable, "RETIRED_SSE_AVX_FLOPS_ALL_SP_PACKED STAT", rawSumField, 1, SPFlops, Accumulate},
		{RawTable, "RETIRED_SSE_AVX_FLOPS_ALL_DP_SCALAR STAT", rawSumField, 1, DPFlops, Accumulate},
		{RawTable, "RETIRED_SSE_AVX_FLOPS_ALL_DP_PACKED STAT", rawSumField, 1, DPFlops, Accumulate},
		{MetricTable, "SP [MFLOP/s] STAT", metricSumField, mega2giga, SPGflops, Set},
		{MetricTable, "DP [MFLOP/s] STAT", metricSumField, mega2giga, DPGflops, Set},
		{MetricTable, "Runtime (RDTSC) [s] STAT", metricSumField, 1, Runtime, Set},
	}
}

// MemoryRules returns the rules for a memory-traffic counter dump
func MemoryRules() []Rule {
	return []Rule{
		{RawTable, "CAS_CMD_ANY STAT", rawSumField, CacheLineSize, Bytes, Accumulate},
	}
}
