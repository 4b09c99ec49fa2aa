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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vhive-serverless/roofline/roofline"
)

var testRecords = []roofline.KernelPerformance{
	{Region: "foo", SPFlops: 400, Bytes: 640, Intensity: 0.625, SPGflops: 1.5, Runtime: 1, HasMetrics: true},
	{Region: "bar", SPFlops: 1000, Bytes: 128, Intensity: 7.8125},
	{Region: "baz", SPFlops: 3000, Bytes: 1000, Intensity: 3, SPGflops: 30, Runtime: 3, HasMetrics: true},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRecords))

	expected := `region,SP FLOPs,Bytes,FLOP/Byte,SP [GFLOP/s],Runtime [s]
foo,400,640,0.625,1.5,1
bar,1000,128,7.8125,,
baz,3000,1000,3,30,3
`
	require.Equal(t, expected, buf.String())
}

func TestSummary(t *testing.T) {
	s := Summary(roofline.Plottable(testRecords), 100)
	lines := strings.Split(s, "\n")

	require.Equal(t, "==== Roofline regions ====", lines[0])
	require.Equal(t, "baz, 3, 30, 3, 30.0", lines[2], "longest region first")
	require.Equal(t, "foo, 0.625, 1.5, 1, 1.5", lines[3])
	// (0.625*1 + 3*3) / 4
	require.Equal(t, "mean FLOP/Byte (runtime weighted): 2.406", lines[4])

	empty := Summary(nil, 100)
	require.NotContains(t, empty, "mean")
}

func TestPlotRuntimeBreakdown(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "breakdown.png")

	require.NoError(t, PlotRuntimeBreakdown(testRecords, fileName), "Failed plotting runtime breakdown")
	info, err := os.Stat(fileName)
	require.False(t, os.IsNotExist(err), "Target file %s was not found", fileName)
	require.Greater(t, info.Size(), int64(0))

	skipped := filepath.Join(t.TempDir(), "skipped.png")
	require.NoError(t, PlotRuntimeBreakdown(testRecords[1:2], skipped), "regions without runtime are not an error")
	_, err = os.Stat(skipped)
	require.True(t, os.IsNotExist(err), "no chart is written without runtimes")
}
