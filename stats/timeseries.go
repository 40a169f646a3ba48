// Copyright 2025 ntlekhugov

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stats implements descriptive statistics over daily quote series.
package stats

import (
	"math"

	"github.com/ntlekhugov/moex-iss/db"
	"github.com/stockparfait/errors"
)

// Timeseries stores numeric values along with their dates. The dates are
// always sorted in ascending order.
type Timeseries struct {
	dates []db.Date
	data  []float64
}

// NewTimeseries creates a Timeseries over the given dates, which are expected
// to be sorted in ascending order (not checked). It panics if dates and data
// have different lengths. The argument slices are used as is, not copied; use
// Copy if they need to be modified after the call.
func NewTimeseries(dates []db.Date, data []float64) *Timeseries {
	if len(dates) != len(data) {
		panic(errors.Reason("len(dates) [%d] != len(data) [%d]",
			len(dates), len(data)))
	}
	return &Timeseries{dates: dates, data: data}
}

// Dates of the Timeseries.
func (t *Timeseries) Dates() []db.Date { return t.dates }

// Data of the Timeseries.
func (t *Timeseries) Data() []float64 { return t.data }

// Copy makes a deep copy of the Timeseries.
func (t *Timeseries) Copy() *Timeseries {
	dates := make([]db.Date, len(t.dates))
	data := make([]float64, len(t.data))
	copy(dates, t.dates)
	copy(data, t.data)
	return NewTimeseries(dates, data)
}

// Check that Timeseries is consistent: the lengths of dates and data are the
// same and the dates are ordered in ascending order.
func (t *Timeseries) Check() error {
	if len(t.dates) != len(t.data) {
		return errors.Reason("len(dates) [%d] != len(data) [%d]",
			len(t.dates), len(t.data))
	}
	for i, d := range t.dates {
		if i == 0 {
			continue
		}
		if !t.dates[i-1].Before(d) {
			return errors.Reason("dates[%d] = %s >= dates[%d] = %s",
				i-1, t.dates[i-1], i, d)
		}
	}
	return nil
}

// rangeSlice returns slice indices for dates to extract an inclusive interval
// between the start and end dates. A zero date leaves that side of the
// interval open, same as db.Date.InRange.
func rangeSlice(dates []db.Date, start, end db.Date) (s, e int) {
	if !end.IsZero() && start.After(end) {
		return 0, 0
	}
	s = len(dates)
	e = len(dates)
	var startSet, endSet bool
	for i, d := range dates {
		if !startSet && !start.After(d) {
			s = i
			startSet = true
		}
		if !endSet && !end.IsZero() && end.Before(d) {
			e = i
			endSet = true
		}
		if startSet && endSet {
			break
		}
	}
	if s >= e {
		return 0, 0
	}
	return
}

// Range extracts the sub-series within the inclusive date interval. A zero
// start or end leaves that side open, so two zero dates select the entire
// series. The result may be an empty Timeseries, but never nil.
func (t *Timeseries) Range(start, end db.Date) *Timeseries {
	s, e := rangeSlice(t.dates, start, end)
	if s == 0 && e == len(t.dates) {
		return t
	}
	return NewTimeseries(t.dates[s:e], t.data[s:e])
}

// LogProfits computes a new Timeseries of log-profits {log(x[t+n]) -
// log(x[t])}. The associated log-profit date is t+n.
func (t *Timeseries) LogProfits(n int) *Timeseries {
	if n < 1 {
		panic(errors.Reason("n=%d must be >= 1", n))
	}
	if n >= len(t.Data()) {
		return NewTimeseries(nil, nil)
	}
	data := make([]float64, len(t.Data()))
	for i, d := range t.Data() {
		data[i] = math.Log(d)
	}
	deltas := []float64{}
	for i := n; i < len(data); i++ {
		deltas = append(deltas, data[i]-data[i-n])
	}
	return NewTimeseries(t.Dates()[n:], deltas)
}

// QuoteField is an enum type indicating which QuoteRow field to use.
type QuoteField uint8

// Values of QuoteField.
const (
	QuoteOpen QuoteField = iota
	QuoteHigh
	QuoteLow
	QuoteClose
	QuoteValue
)

// NewTimeseriesFromQuotes initializes Timeseries from a QuoteRow slice.
func NewTimeseriesFromQuotes(quotes []db.QuoteRow, f QuoteField) *Timeseries {
	dates := make([]db.Date, len(quotes))
	data := make([]float64, len(quotes))
	for i, q := range quotes {
		dates[i] = q.Date
		switch f {
		case QuoteOpen:
			data[i] = q.Open
		case QuoteHigh:
			data[i] = q.High
		case QuoteLow:
			data[i] = q.Low
		case QuoteClose:
			data[i] = q.Close
		case QuoteValue:
			data[i] = q.Value
		default:
			panic(errors.Reason("unsupported QuoteField: %d", f))
		}
	}
	return NewTimeseries(dates, data)
}
