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
	"fmt"
	"net/url"
	"strconv"

	"github.com/ntlekhugov/moex-iss/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server. It may be overwritten in tests
// or from a config before creating a new client.
var URL = "https://iss.moex.com/iss"

// DefaultLang is the response language used when none is given to UseClient.
// It only affects human-readable fields such as names and titles.
const DefaultLang = "ru"

// Engines and markets hosting the securities this module works with.
const (
	EngineStock = "stock"
	MarketIndex = "index"
)

// Client for querying the MOEX ISS API.
type Client struct {
	baseURL string // the base URL of the server
	lang    string // response language: "ru" or "en"
}

// newClient creates a new client.
func newClient(baseURL, lang string) *Client {
	if lang == "" {
		lang = DefaultLang
	}
	return &Client{
		baseURL: baseURL,
		lang:    lang,
	}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client with the given response language and injects
// it into the context.
func UseClient(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(URL, lang))
}

// Value is an arbitrary value of a table cell.
type Value interface{}

// FormatValue renders a single cell value as a string: strings as is, numbers
// in their shortest round-trip form, nil as an empty string.
func FormatValue(v Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Block is a single named section of an ISS response: the ordered column
// names and the rows of cell values in the column order.
type Block struct {
	Columns []string  `json:"columns"`
	Data    [][]Value `json:"data"`
}

// MapColumns creates a map of {column name -> column index} in the block.
func (b *Block) MapColumns() map[string]int {
	res := make(map[string]int)
	for i, c := range b.Columns {
		res[c] = i
	}
	return res
}

// Strings renders all cell values as strings, row by row.
func (b *Block) Strings() [][]string {
	rows := make([][]string, len(b.Data))
	for i, r := range b.Data {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = FormatValue(v)
		}
		rows[i] = cells
	}
	return rows
}

// Table converts the block to a printable table.
func (b *Block) Table() *table.Table {
	t := table.NewTable(b.Columns...)
	for _, r := range b.Strings() {
		t.AddRow(table.Strings(r))
	}
	return t
}

// fetchBlock requests the given ISS path and extracts the named block from
// the response. Blocks other than the requested one are ignored.
func fetchBlock(ctx context.Context, path, block string) (*Block, error) {
	client := GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("no client in context")
	}
	uri := client.baseURL + "/" + path + ".json"
	query := make(url.Values)
	query["lang"] = []string{client.lang}

	var page map[string]Block
	if err := fetch.FetchJSON(ctx, uri, &page, query, nil); err != nil {
		return nil, errors.Annotate(err, "failed to fetch URL")
	}
	b, ok := page[block]
	if !ok {
		return nil, errors.Reason("response has no '%s' block", block)
	}
	return &b, nil
}

// Engines lists the trading systems of the exchange, the top level of the
// security hierarchy.
func Engines(ctx context.Context) (*Block, error) {
	return fetchBlock(ctx, "engines", "engines")
}

// Markets lists the markets of an engine.
func Markets(ctx context.Context, engine string) (*Block, error) {
	return fetchBlock(ctx, "engines/"+engine+"/markets", "markets")
}

// Boards lists the trading boards of a market.
func Boards(ctx context.Context, engine, market string) (*Block, error) {
	return fetchBlock(ctx, "engines/"+engine+"/markets/"+market+"/boards", "boards")
}

// Securities lists the securities traded on a market, or on one of its boards
// when board is non-empty.
func Securities(ctx context.Context, engine, market, board string) (*Block, error) {
	path := "engines/" + engine + "/markets/" + market
	if board != "" {
		path += "/boards/" + board
	}
	return fetchBlock(ctx, path+"/securities", "securities")
}
