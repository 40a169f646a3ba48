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

package iss

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ntlekhugov/moex-iss/db"
	"github.com/ntlekhugov/moex-iss/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
)

// DefaultInterval is the default row granularity: 24 is one row per trading
// day.
const DefaultInterval = 24

// DefaultRangeDays is the length of the date range of a new query, ending
// today.
const DefaultRangeDays = 30

// TradeDateColumn is the history column holding the trading day of a row.
const TradeDateColumn = "TRADEDATE"

// HistoryQuery is a builder for a history request: the full identity of a
// security and the date range to fetch.
type HistoryQuery struct {
	engine   string
	market   string
	board    string
	security string
	from     db.Date
	till     db.Date
	interval int
	start    int
}

// NewHistoryQuery creates a query for the security addressed by its full
// identity within the exchange hierarchy. The date range defaults to the last
// DefaultRangeDays days in the exchange's timezone and the granularity to one
// row per trading day; use the builder methods to override.
func NewHistoryQuery(engine, market, board, security string) *HistoryQuery {
	now := time.Now()
	return &HistoryQuery{
		engine:   engine,
		market:   market,
		board:    board,
		security: security,
		from:     db.DateInMoscow(now.AddDate(0, 0, -DefaultRangeDays)),
		till:     db.DateInMoscow(now),
		interval: DefaultInterval,
	}
}

// Copy creates a copy of the query. It is primarily used in its builder
// methods.
func (q *HistoryQuery) Copy() *HistoryQuery {
	q2 := *q
	return &q2
}

// From sets the inclusive start of the date range. This and other builder
// methods always create a copy of the query, leaving the original intact.
func (q *HistoryQuery) From(d db.Date) *HistoryQuery {
	q2 := q.Copy()
	q2.from = d
	return q2
}

// Till sets the inclusive end of the date range.
func (q *HistoryQuery) Till(d db.Date) *HistoryQuery {
	q2 := q.Copy()
	q2.till = d
	return q2
}

// Interval sets the row granularity.
func (q *HistoryQuery) Interval(interval int) *HistoryQuery {
	q2 := q.Copy()
	q2.interval = interval
	return q2
}

// Start sets the number of result rows to skip, which is how the ISS server
// pages long results. Negative values are clamped to 0.
func (q *HistoryQuery) Start(start int) *HistoryQuery {
	if start < 0 {
		start = 0
	}
	q2 := q.Copy()
	q2.start = start
	return q2
}

// Security returns the security code of the query.
func (q *HistoryQuery) Security() string {
	return q.security
}

// check that the security identity is complete.
func (q *HistoryQuery) check() error {
	if q.engine == "" {
		return errors.Reason("engine must be non-empty")
	}
	if q.market == "" {
		return errors.Reason("market must be non-empty")
	}
	if q.board == "" {
		return errors.Reason("board must be non-empty")
	}
	if q.security == "" {
		return errors.Reason("security must be non-empty")
	}
	return nil
}

// Path returns the URL path to add to the base URL.
func (q *HistoryQuery) Path() string {
	return "history/engines/" + q.engine + "/markets/" + q.market +
		"/boards/" + q.board + "/securities/" + q.security
}

// Values returns the query values for the query. Each call creates a new
// object, so the caller is free to modify it without affecting the query.
func (q *HistoryQuery) Values() url.Values {
	v := make(url.Values)
	v["from"] = []string{q.from.String()}
	v["till"] = []string{q.till.String()}
	v["interval"] = []string{strconv.Itoa(q.interval)}
	v["start"] = []string{strconv.Itoa(q.start)}
	return v
}

// historyPage is the format of a single page of history data. Note the dotted
// JSON key of the cursor block.
type historyPage struct {
	History Block `json:"history"`
	Cursor  Block `json:"history.cursor"`
}

// cursorTotal extracts the declared size of the complete result from the
// cursor block. The second value is false when the response declares no size:
// a missing or empty cursor block, or one without a TOTAL column.
func (p *historyPage) cursorTotal() (int, bool, error) {
	if len(p.Cursor.Data) == 0 {
		return 0, false, nil
	}
	i, ok := p.Cursor.MapColumns()["TOTAL"]
	if !ok {
		return 0, false, nil
	}
	row := p.Cursor.Data[0]
	if i >= len(row) {
		return 0, false, nil
	}
	total, ok := row[i].(float64) // JSON numbers decode as float64
	if !ok {
		return 0, false, errors.Reason("TOTAL = %v is not a number", row[i])
	}
	return int(total), true, nil
}

// readPage executes the query using the Client from the context and downloads
// one page of data.
func (q *HistoryQuery) readPage(ctx context.Context, page *historyPage) error {
	client := GetClient(ctx)
	if client == nil {
		return errors.Reason("no client in context")
	}
	uri := client.baseURL + "/" + q.Path() + ".json"
	query := q.Values()
	query["lang"] = []string{client.lang}

	if err := fetch.FetchJSON(ctx, uri, page, query, nil); err != nil {
		return errors.Annotate(err, "failed to fetch URL")
	}
	return nil
}

// TestHistoryPage generates the JSON string in a format as returned by the
// ISS history API. For use in tests. A negative total omits the cursor block
// entirely.
func TestHistoryPage(columns []string, rows [][]Value, start, total int) (string, error) {
	page := map[string]Block{
		"history": {Columns: columns, Data: rows},
	}
	if total >= 0 {
		page["history.cursor"] = Block{
			Columns: []string{"INDEX", "TOTAL", "PAGESIZE"},
			Data:    [][]Value{{start, total, 100}},
		}
	}
	bytes, err := json.Marshal(page)
	return string(bytes), err
}

// History is the assembled result of a history query: the column names of the
// first page and the concatenated rows of all pages, sorted by trade date.
type History struct {
	Columns []string
	Rows    [][]Value
}

// Empty checks whether the history has no rows.
func (h *History) Empty() bool {
	return len(h.Rows) == 0
}

// Strings renders all cell values as strings, row by row.
func (h *History) Strings() [][]string {
	b := Block{Columns: h.Columns, Data: h.Rows}
	return b.Strings()
}

// Table converts the history to a printable table, ready to be saved as CSV.
func (h *History) Table() *table.Table {
	b := Block{Columns: h.Columns, Data: h.Rows}
	return b.Table()
}

// sortByTradeDate sorts the rows in the ascending order of their trade date.
// The sort is stable: rows with equal dates keep their server order. A
// history without the trade date column is left as is and logged at the
// debug level.
func (h *History) sortByTradeDate(ctx context.Context) error {
	col := -1
	for i, c := range h.Columns {
		if c == TradeDateColumn {
			col = i
			break
		}
	}
	if col < 0 {
		logging.Debugf(ctx, "no %s column in %v, leaving rows unsorted",
			TradeDateColumn, h.Columns)
		return nil
	}
	type datedRow struct {
		date db.Date
		row  []Value
	}
	rows := make([]datedRow, len(h.Rows))
	for i, r := range h.Rows {
		if col >= len(r) {
			return errors.Reason("row %d has no %s cell", i, TradeDateColumn)
		}
		s, ok := r[col].(string)
		if !ok {
			return errors.Reason("%s = %v in row %d is not a string",
				TradeDateColumn, r[col], i)
		}
		date, err := db.NewDateFromString(s)
		if err != nil {
			return errors.Annotate(err, "failed to parse %s in row %d",
				TradeDateColumn, i)
		}
		rows[i] = datedRow{date: date, row: r}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})
	for i, r := range rows {
		h.Rows[i] = r.row
	}
	return nil
}

// FetchHistory downloads the complete history for the query, assembling all
// pages into a single table sorted by trade date. An empty result is not an
// error: the returned history simply has no rows. A page failure aborts the
// entire fetch; no partially assembled history is ever returned.
func FetchHistory(ctx context.Context, q *HistoryQuery) (*History, error) {
	if err := q.check(); err != nil {
		return nil, errors.Annotate(err, "invalid history query")
	}
	var page historyPage
	if err := q.readPage(ctx, &page); err != nil {
		return nil, errors.Annotate(err, "failed to fetch page 1 of %s", q.security)
	}
	h := &History{Columns: page.History.Columns, Rows: page.History.Data}
	if h.Empty() {
		logging.Warningf(ctx, "no history for %s from %s till %s",
			q.security, q.from, q.till)
		return h, nil
	}
	total, ok, err := page.cursorTotal()
	if err != nil {
		return nil, errors.Annotate(err, "bad cursor in page 1 of %s", q.security)
	}
	pageCount := 1
	logging.Debugf(ctx, "%s: fetched page %d with %d rows",
		q.security, pageCount, len(page.History.Data))
	for ok && len(h.Rows) < total {
		next := q.Start(len(h.Rows))
		// Clear the page, in case read doesn't overwrite some parts.
		page = historyPage{}
		if err := next.readPage(ctx, &page); err != nil {
			return nil, errors.Annotate(err, "failed to fetch page %d of %s",
				pageCount+1, q.security)
		}
		if len(page.History.Data) == 0 {
			// The server has no more rows regardless of the declared total.
			break
		}
		h.Rows = append(h.Rows, page.History.Data...)
		pageCount++
		logging.Debugf(ctx, "%s: fetched page %d with %d rows",
			q.security, pageCount, len(page.History.Data))
	}
	if err := h.sortByTradeDate(ctx); err != nil {
		return nil, errors.Annotate(err, "failed to sort history of %s", q.security)
	}
	logging.Infof(ctx, "%s: fetched %d rows from %s till %s",
		q.security, len(h.Rows), q.from, q.till)
	return h, nil
}
