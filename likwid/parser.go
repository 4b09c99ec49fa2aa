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

// Package likwid extracts per-region counters from the CSV export of
// likwid-perfctr (the -O option with marker regions).
//
// The export is a sequence of tables. A row whose first field starts with
// TABLE opens a table; its second field names the region and its third the
// table type. Every following row up to the next TABLE row belongs to it.
package likwid

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	tableMarker  = "TABLE"
	regionPrefix = "Region "
)

// ErrMalformedRow is wrapped by every ParseError caused by row content
var ErrMalformedRow = errors.New("malformed row")

// ParseError reports where a counter dump stopped being trustworthy
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Cause keeps pkg/errors.Cause working on parse errors
func (e *ParseError) Cause() error { return e.Err }

type parseState int

const (
	noContext parseState = iota
	inTable
)

// Parser turns a counter dump into Regions according to its rules
type Parser struct {
	rules map[ruleKey]Rule

	state  parseState
	region string
	table  string
}

// NewParser returns a parser reacting to the given rules only
func NewParser(rules ...Rule) *Parser {
	p := &Parser{rules: make(map[ruleKey]Rule, len(rules))}
	for _, r := range rules {
		p.rules[ruleKey{r.Table, r.Label}] = r
	}
	return p
}

// NewComputeParser returns a parser for FLOP counters, throughput and runtime
func NewComputeParser() *Parser {
	return NewParser(ComputeRules()...)
}

// NewMemoryParser returns a parser for memory traffic
func NewMemoryParser() *Parser {
	return NewParser(MemoryRules()...)
}

// ParseFile parses the counter dump at path
func (p *Parser) ParseFile(path string) (*Regions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open counter file %q", path)
	}
	defer f.Close()

	regions, err := p.Parse(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = path
			return nil, pe
		}
		return nil, errors.Wrapf(err, "failed to read counter file %q", path)
	}

	log.Debugf("Parsed %d regions from %s", regions.Len(), path)
	return regions, nil
}

// Parse reads a whole counter dump. Any malformed value aborts the parse.
func (p *Parser) Parse(r io.Reader) (*Regions, error) {
	p.reset()

	var (
		regions = NewRegions()
		reader  = csv.NewReader(r)
	)
	// tables differ in width
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		if err := p.consume(regions, row); err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
	}

	return regions, nil
}

func (p *Parser) reset() {
	p.state = noContext
	p.region = ""
	p.table = ""
}

func (p *Parser) consume(regions *Regions, row []string) error {
	if len(row) == 0 {
		return nil
	}

	if strings.HasPrefix(row[0], tableMarker) {
		if len(row) < 3 {
			return errors.Wrapf(ErrMalformedRow, "table header has %d fields, want 3", len(row))
		}
		p.state = inTable
		p.region = strings.TrimSpace(strings.ReplaceAll(row[1], regionPrefix, ""))
		p.table = strings.TrimSpace(row[2])
		return nil
	}

	if p.state == noContext {
		return nil
	}

	rule, isPresent := p.rules[ruleKey{p.table, row[0]}]
	if !isPresent {
		return nil
	}

	if rule.Field >= len(row) {
		return errors.Wrapf(ErrMalformedRow, "%q has no field %d", row[0], rule.Field+1)
	}
	value, err := parseValue(row[rule.Field])
	if err != nil {
		return errors.Wrapf(err, "%q", row[0])
	}
	value *= rule.Scale

	rc := regions.getOrCreate(p.region)
	switch rule.Mode {
	case Accumulate:
		rc.add(rule.Counter, value)
	case Set:
		rc.set(rule.Counter, value)
	}

	return nil
}

func parseValue(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedRow, "invalid value %q", field)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errors.Wrapf(ErrMalformedRow, "value %q is not a finite non-negative number", field)
	}
	return v, nil
}
