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

package db

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/ntlekhugov/moex-iss/message"
	"github.com/stockparfait/errors"
)

// QuoteRow is one daily bar of an index history: the trade date, OHLC values
// and cash volume in the instrument's currency.
type QuoteRow struct {
	Date  Date
	Open  float64
	High  float64
	Low   float64
	Close float64
	Value float64
}

// TestQuote creates a QuoteRow instance for use in tests.
func TestQuote(date Date, open, high, low, close, value float64) QuoteRow {
	return QuoteRow{
		Date:  date,
		Open:  open,
		High:  high,
		Low:   low,
		Close: close,
		Value: value,
	}
}

// QuoteRowHeader returns the default ISS history column names for a quote
// row, in field order.
func QuoteRowHeader() []string {
	return []string{"TRADEDATE", "OPEN", "HIGH", "LOW", "CLOSE", "VALUE"}
}

// QuoteRowConfig sets the column names for extracting quote rows from a
// history table or a CSV file. The defaults are the ISS history column names.
type QuoteRowConfig struct {
	TradeDate string   `json:"trade_date" default:"TRADEDATE"`
	Open      string   `json:"open" default:"OPEN"`
	High      string   `json:"high" default:"HIGH"`
	Low       string   `json:"low" default:"LOW"`
	Close     string   `json:"close" default:"CLOSE"`
	Value     string   `json:"value" default:"VALUE"`
	Header    []string `json:"header"` // for headless CSV
}

var _ message.Message = &QuoteRowConfig{}

// InitMessage implements message.Message.
func (c *QuoteRowConfig) InitMessage(js any) error {
	return errors.Annotate(message.Init(c, js), "failed to init from JSON")
}

func NewQuoteRowConfig() *QuoteRowConfig {
	var c QuoteRowConfig
	if err := c.InitMessage(map[string]any{}); err != nil {
		panic(errors.Annotate(err, "failed to init default QuoteRowConfig"))
	}
	return &c
}

// HasTradeDate checks the header for the trade date column.
func (c *QuoteRowConfig) HasTradeDate(header []string) bool {
	for _, h := range header {
		if h == c.TradeDate {
			return true
		}
	}
	return false
}

const (
	quoteDate int = iota
	quoteOpen
	quoteHigh
	quoteLow
	quoteClose
	quoteValue
	quoteLast // keep it last; not a real field.
)

// MapColumns maps the i'th header column to the QuoteRow field it feeds.
// Headers that don't match any configured column are mapped to -1.
func (c *QuoteRowConfig) MapColumns(header []string) []int {
	cols := make([]string, quoteLast)
	cols[quoteDate] = c.TradeDate
	cols[quoteOpen] = c.Open
	cols[quoteHigh] = c.High
	cols[quoteLow] = c.Low
	cols[quoteClose] = c.Close
	cols[quoteValue] = c.Value
	m := make([]int, len(header))
	for i, h := range header {
		m[i] = -1
		for j, n := range cols {
			if h == n {
				m[i] = j
				break
			}
		}
	}
	return m
}

// Parse extracts a QuoteRow from a single row of string cells. Empty cells
// (the rendering of JSON nulls) leave the corresponding field at zero.
func (c *QuoteRowConfig) Parse(row []string, colMap []int) (QuoteRow, error) {
	var q QuoteRow
	for i, r := range row {
		if i >= len(colMap) {
			break
		}
		if r == "" || colMap[i] < 0 {
			continue
		}
		if colMap[i] == quoteDate {
			d, err := NewDateFromString(r)
			if err != nil {
				return q, errors.Annotate(err, "failed to parse trade date")
			}
			q.Date = d
			continue
		}
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return q, errors.Annotate(err, "failed to parse '%s' as a number", r)
		}
		switch colMap[i] {
		case quoteOpen:
			q.Open = v
		case quoteHigh:
			q.High = v
		case quoteLow:
			q.Low = v
		case quoteClose:
			q.Close = v
		case quoteValue:
			q.Value = v
		}
	}
	return q, nil
}

// ParseTable extracts quote rows from a rendered table, sorted ascending by
// the trade date. The header must contain the trade date column.
func (c *QuoteRowConfig) ParseTable(header []string, rows [][]string) ([]QuoteRow, error) {
	if !c.HasTradeDate(header) {
		return nil, errors.Reason("quotes require a %s column", c.TradeDate)
	}
	colMap := c.MapColumns(header)
	quotes := make([]QuoteRow, 0, len(rows))
	for i, r := range rows {
		q, err := c.Parse(r, colMap)
		if err != nil {
			return nil, errors.Annotate(err, "failed to parse row %d", i)
		}
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })
	return quotes, nil
}

// ReadCSVQuotes reads quote rows from a CSV file previously written by the
// downloader, or any CSV with compatible columns.
//
// When config defines a header, CSV is assumed to be headless; otherwise the
// first row is the header. Columns with an unrecognized header are ignored,
// missing columns are left at zero values.
func ReadCSVQuotes(r io.Reader, c *QuoteRowConfig) ([]QuoteRow, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read quotes from CSV")
	}
	header := c.Header
	if len(header) == 0 {
		if len(rows) == 0 {
			return nil, nil
		}
		header = rows[0]
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return c.ParseTable(header, rows)
}
