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

// Package table implements an in-memory table which can render itself as CSV
// or as aligned text for terminal output.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stockparfait/errors"
)

// Row is the interface a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Strings is a plain row of cells, ready to be added to a Table as-is.
type Strings []string

var _ Row = Strings{}

// CSV implements Row.
func (s Strings) CSV() []string { return s }

// Table container.
//
// A typical use:
//
//	t := NewTable("SECID", "CLOSE")
//	t.AddRow(Strings{"IMOEX", "3145.2"}, Strings{"RGBI", "98.7"})
//	t.WriteText(os.Stdout, Params{})
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers. When
// present, the number of column headers is expected to match the number of
// cells in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// visibleRows limits the rows according to p.Rows.
func (t *Table) visibleRows(p Params) []Row {
	if p.Rows > 0 && p.Rows < len(t.Rows) {
		return t.Rows[:p.Rows]
	}
	return t.Rows
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range t.visibleRows(p) {
		if err := cw.Write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// columnWidths computes the print width of each column, capped at max when
// max > 0. All rows (and the header, if printed) must have the same number of
// cells.
func (t *Table) columnWidths(p Params) ([]int, error) {
	var widths []int
	update := func(row []string) error {
		if len(row) == 0 {
			return errors.Reason("row size = 0")
		}
		if widths == nil {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(row), len(widths))
		}
		for i, cell := range row {
			w := len([]rune(cell))
			if p.MaxColWidth > 0 && w > p.MaxColWidth {
				w = p.MaxColWidth
			}
			if widths[i] < w {
				widths[i] = w
			}
		}
		return nil
	}
	if !p.NoHeader && len(t.Header) > 0 {
		if err := update(t.Header); err != nil {
			return nil, errors.Annotate(err, "failed to size the header")
		}
	}
	for _, r := range t.visibleRows(p) {
		if err := update(r.CSV()); err != nil {
			return nil, errors.Annotate(err, "failed to size a row")
		}
	}
	return widths, nil
}

// fitCell pads the cell to the width, or truncates it with a ".." marker.
func fitCell(s string, width int) string {
	if r := []rune(s); len(r) > width {
		s = string(r[:width-2]) + ".."
	}
	return fmt.Sprintf("%*s", width, s)
}

// WriteText writes the table as text formatted for ease of reading: cells
// right-aligned to their column width and joined with " | ", the header
// underlined with dashes.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	widths, err := t.columnWidths(p)
	if err != nil {
		return err
	}
	writeRow := func(row []string) error {
		cells := make([]string, len(row))
		for i, s := range row {
			cells[i] = fitCell(s, widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(cells, " | "))
		return err
	}
	if !p.NoHeader && len(t.Header) > 0 {
		if err := writeRow(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
		separator := make([]string, len(widths))
		for i, n := range widths {
			separator[i] = strings.Repeat("-", n)
		}
		if err := writeRow(separator); err != nil {
			return errors.Annotate(err, "failed to write header separator")
		}
	}
	for _, r := range t.visibleRows(p) {
		if err := writeRow(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}
