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

// Package config loads the peak-metrics document describing a machine:
//
//	system_name: AMD EPYC 7742
//	flops_metrics:
//	  sp_avx: {metric-name: SP AVX2 FMA, value: 4.6, unit: TFLOPS}
//	mem_metrics:
//	  dram: {metric-name: DRAM, value: 204.8, unit: GB/s}
package config

import (
	"math"
	"os"
	"strconv"

	"github.com/go-multierror/multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vhive-serverless/roofline/roofline"
	"github.com/vhive-serverless/roofline/units"
)

const (
	flopsKey = "flops_metrics"
	memKey   = "mem_metrics"
)

// Metric is one peak figure, normalized to GFLOPS or GB/s
type Metric struct {
	Key   string
	Name  string
	Value float64
	Unit  string
}

// Peaks holds the machine description. Metrics keep the document order.
type Peaks struct {
	SystemName string
	Flops      []Metric
	Mem        []Metric
}

type document struct {
	SystemName string    `yaml:"system_name"`
	Flops      yaml.Node `yaml:"flops_metrics"`
	Mem        yaml.Node `yaml:"mem_metrics"`
}

type entry struct {
	Name  *string    `yaml:"metric-name"`
	Value yaml.Node `yaml:"value"`
	Unit  *string    `yaml:"unit"`
}

// Load reads the peak-metrics document at path
func Load(path string) (*Peaks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read peak metrics from %q", path)
	}

	peaks, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load peak metrics from %q", path)
	}

	return peaks, nil
}

// Parse decodes a peak-metrics document. Missing names default to the
// metric key and missing units to the canonical unit of the section.
func Parse(data []byte) (*Peaks, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid YAML")
	}

	flops, err := parseSection(flopsKey, &doc.Flops, units.Compute)
	if err != nil {
		return nil, err
	}
	mem, err := parseSection(memKey, &doc.Mem, units.Bandwidth)
	if err != nil {
		return nil, err
	}

	return &Peaks{
		SystemName: doc.SystemName,
		Flops:      flops,
		Mem:        mem,
	}, nil
}

func parseSection(section string, node *yaml.Node, d units.Domain) ([]Metric, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.Errorf("%s: expected a mapping at line %d", section, node.Line)
	}

	var (
		metrics []Metric
		seen    = make(map[string]int)
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var (
			key = node.Content[i].Value
			e   entry
		)
		if !isNull(node.Content[i+1]) {
			if err := node.Content[i+1].Decode(&e); err != nil {
				return nil, errors.Wrapf(err, "%s.%s", section, key)
			}
		}

		m, err := e.metric(key, d)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", section, key)
		}

		// a repeated key overrides the earlier value in place
		if at, isPresent := seen[key]; isPresent {
			log.Warnf("%s.%s is defined twice at line %d, keeping the last value", section, key, node.Content[i].Line)
			metrics[at] = m
			continue
		}
		seen[key] = len(metrics)
		metrics = append(metrics, m)
	}

	return metrics, nil
}

func (e entry) metric(key string, d units.Domain) (Metric, error) {
	m := Metric{
		Key:  key,
		Name: key,
		Unit: d.Canonical(),
	}
	if e.Name != nil {
		m.Name = *e.Name
	}

	unit := d.Canonical()
	if e.Unit != nil {
		unit = *e.Unit
	}

	var value float64
	if !isNull(&e.Value) {
		v, err := strconv.ParseFloat(e.Value.Value, 64)
		if err != nil || e.Value.Kind != yaml.ScalarNode {
			return Metric{}, errors.Errorf("invalid value %q at line %d", e.Value.Value, e.Value.Line)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Metric{}, errors.Errorf("value %q at line %d is not a finite number", e.Value.Value, e.Value.Line)
		}
		value = v
	}

	if _, known := units.Factor(unit, d); !known {
		log.Warnf("Unknown %s unit %q for %s, assuming %s", d, unit, key, d.Canonical())
	}
	m.Value = units.Normalize(value, unit, d)

	return m, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// ComputeCeilings returns the compute ceilings with a positive value
func (p *Peaks) ComputeCeilings() []roofline.Peak {
	return positive(p.Flops)
}

// MemoryRoofs returns the memory roofs with a positive value
func (p *Peaks) MemoryRoofs() []roofline.Peak {
	return positive(p.Mem)
}

// Validate fails if either section has no usable metric
func (p *Peaks) Validate() error {
	var errs []error
	if len(p.ComputeCeilings()) == 0 {
		errs = append(errs, errors.Wrap(roofline.ErrNoComputeCeiling, flopsKey))
	}
	if len(p.MemoryRoofs()) == 0 {
		errs = append(errs, errors.Wrap(roofline.ErrNoMemoryRoof, memKey))
	}
	if len(errs) == 0 {
		return nil
	}

	return multierror.Of(errs...)
}

func positive(metrics []Metric) []roofline.Peak {
	var result []roofline.Peak
	for _, m := range metrics {
		if m.Value > 0 {
			result = append(result, roofline.Peak{Name: m.Name, Value: m.Value})
		}
	}
	return result
}
