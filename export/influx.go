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

// Package export publishes roofline results to an InfluxDB 1.x database so
// that runs can be compared over time.
package export

import (
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vhive-serverless/roofline/roofline"
)

const defaultMeasurement = "roofline"

// Influx writes regions and peaks as one batch of points
type Influx struct {
	Addr        string
	Database    string
	Measurement string

	now func() time.Time
}

// NewInflux returns a sink for the database at addr
func NewInflux(addr, database string) *Influx {
	return &Influx{
		Addr:        addr,
		Database:    database,
		Measurement: defaultMeasurement,
		now:         time.Now,
	}
}

// Write sends one point per region, tagged with its name, and one point per
// ceiling and roof. tags are added to every point.
func (in *Influx) Write(records []roofline.KernelPerformance, ceilings, roofs []roofline.Peak, tags map[string]string) error {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr: in.Addr,
	})
	if err != nil {
		return errors.Wrapf(err, "failed creating InfluxDB client for %s", in.Addr)
	}
	defer c.Close()

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  in.Database,
		Precision: "s",
	})
	if err != nil {
		return errors.Wrap(err, "failed creating batch")
	}

	ts := in.now()
	for _, r := range records {
		fields := map[string]interface{}{
			"flops":     r.SPFlops,
			"bytes":     r.Bytes,
			"intensity": r.Intensity,
		}
		if r.HasMetrics {
			fields["gflops"] = r.SPGflops
			fields["runtime"] = r.Runtime
		}
		if err := in.add(bp, merge(tags, "region", r.Region), fields, ts); err != nil {
			return err
		}
	}

	for _, p := range ceilings {
		if err := in.addPeak(bp, tags, "ceiling", p, ts); err != nil {
			return err
		}
	}
	for _, p := range roofs {
		if err := in.addPeak(bp, tags, "roof", p, ts); err != nil {
			return err
		}
	}

	if err := c.Write(bp); err != nil {
		return errors.Wrapf(err, "failed writing to InfluxDB at %s", in.Addr)
	}

	log.Debugf("Wrote %d points to %s/%s", len(bp.Points()), in.Addr, in.Database)
	return nil
}

func (in *Influx) addPeak(bp client.BatchPoints, tags map[string]string, kind string, p roofline.Peak, ts time.Time) error {
	tags = merge(merge(tags, "kind", kind), "name", p.Name)
	return in.add(bp, tags, map[string]interface{}{"value": p.Value}, ts)
}

func (in *Influx) add(bp client.BatchPoints, tags map[string]string, fields map[string]interface{}, ts time.Time) error {
	measurement := in.Measurement
	if measurement == "" {
		measurement = defaultMeasurement
	}

	pt, err := client.NewPoint(measurement, tags, fields, ts)
	if err != nil {
		return errors.Wrap(err, "failed creating point")
	}
	bp.AddPoint(pt)

	return nil
}

func merge(tags map[string]string, key, value string) map[string]string {
	result := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		result[k] = v
	}
	result[key] = value
	return result
}
