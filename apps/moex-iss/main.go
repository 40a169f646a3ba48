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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ntlekhugov/moex-iss/db"
	"github.com/ntlekhugov/moex-iss/iss"
	"github.com/ntlekhugov/moex-iss/iss/indices"
	"github.com/ntlekhugov/moex-iss/message"
	"github.com/ntlekhugov/moex-iss/stats"
	"github.com/ntlekhugov/moex-iss/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"
)

const usageText = `MOEX index history downloader.

Usage: moex-iss <command> [flags] [args]

Commands:
  download <code> [<code>...]  download histories of the given indices
  download-bonds               download all bond indices from the registry
  download-equity              download all equity indices from the registry
  list                         print the index registry
  info <code>                  print registry info and summary stats of one index
  explore                      print engines, markets and securities of the exchange

All commands accept -log-level and -conf <file.toml>; run
'moex-iss <command> -h' for the full list of flags.
`

// Config is the optional TOML configuration shared by all commands.
type Config struct {
	Output  string `toml:"output"`   // base output directory for downloads
	Workers int    `toml:"workers"`  // parallel downloads; default: 1
	Timeout int    `toml:"timeout"`  // per-request timeout in seconds; 0 disables
	Lang    string `toml:"lang"`     // response language: "ru" or "en"
	BaseURL string `toml:"base_url"` // override of the ISS endpoint
}

func defaultConfig() Config {
	return Config{Workers: 1, Timeout: 30, Lang: iss.DefaultLang}
}

const sampleConfig = `output = "data"
workers = 4
timeout = 30
lang = "ru"
`

// parseConfig reads the TOML config file, if given, on top of the defaults.
func parseConfig(filePath string) (*Config, error) {
	c := defaultConfig()
	if filePath == "" {
		return &c, nil
	}
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err,
				"config file '%s' does not exist.\nA config file may contain:\n%s",
				filePath, sampleConfig)
		}
		return nil, errors.Annotate(err,
			"cannot check config file for existence: '%s'", filePath)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	if c.Workers <= 0 {
		return nil, errors.Reason("workers = %d in %s must be positive",
			c.Workers, filePath)
	}
	if c.Timeout < 0 {
		return nil, errors.Reason("timeout = %d in %s must not be negative",
			c.Timeout, filePath)
	}
	if !message.StringIn(c.Lang, "ru", "en") {
		return nil, errors.Reason("lang = '%s' in %s must be 'ru' or 'en'",
			c.Lang, filePath)
	}
	return &c, nil
}

// commonFlags are accepted by every command.
type commonFlags struct {
	LogLevel logging.Level
	Config   string // config file
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	f.LogLevel = logging.Info
	fs.Var(&f.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&f.Config, "conf", "", "optional TOML config file")
}

// setup finalizes the context of a command: installs the logger, reads the
// config, and injects the ISS client. A zero timeout in the config leaves the
// HTTP client of the context untouched.
func setup(ctx context.Context, flags commonFlags) (context.Context, *Config, error) {
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))
	cfg, err := parseConfig(flags.Config)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to parse config")
	}
	if cfg.BaseURL != "" {
		iss.URL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		client := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
		ctx = fetch.UseClient(ctx, client)
	}
	ctx = iss.UseClient(ctx, cfg.Lang)
	return ctx, cfg, nil
}

// downloadDir resolves the target directory: an explicit -output is used as
// is, otherwise sub is appended to the base directory from the config.
func downloadDir(flagVal string, cfg *Config, sub string) string {
	if flagVal != "" {
		return flagVal
	}
	base := cfg.Output
	if base == "" {
		base = "data"
	}
	return filepath.Join(base, sub)
}

// parseRange converts the optional -start and -end flag values into dates.
func parseRange(start, end string) (db.Date, db.Date, error) {
	var s, e db.Date
	var err error
	if start != "" {
		if s, err = db.NewDateFromString(start); err != nil {
			return s, e, errors.Annotate(err, "invalid -start date '%s'", start)
		}
	}
	if end != "" {
		if e, err = db.NewDateFromString(end); err != nil {
			return s, e, errors.Annotate(err, "invalid -end date '%s'", end)
		}
	}
	return s, e, nil
}

// writeTable renders the table as aligned text or, when csv is set, as CSV.
func writeTable(w io.Writer, t *table.Table, p table.Params, csv bool) error {
	if csv {
		return errors.Annotate(t.WriteCSV(w, p), "failed to print CSV")
	}
	return errors.Annotate(t.WriteText(w, p), "failed to print text")
}

// price renders a price value in its shortest round-trip form.
func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// percent renders a ratio as a percentage.
func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", 100*v)
}

// selectColumns extracts the named columns of the block into a new table.
// Columns missing from the block render as empty cells.
func selectColumns(b *iss.Block, names ...string) *table.Table {
	m := b.MapColumns()
	tbl := table.NewTable(names...)
	for _, row := range b.Strings() {
		cells := make([]string, len(names))
		for i, n := range names {
			if j, ok := m[n]; ok && j < len(row) {
				cells[i] = row[j]
			}
		}
		tbl.AddRow(table.Strings(cells))
	}
	return tbl
}

type downloadFlags struct {
	commonFlags
	Output string
	Start  string
	End    string
}

func parseDownloadFlags(name string, args []string) (*downloadFlags, []string, error) {
	var flags downloadFlags
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags.commonFlags.register(fs)
	fs.StringVar(&flags.Output, "output", "", "output directory")
	fs.StringVar(&flags.Start, "start", "",
		"start date as YYYY-MM-DD; default: 2010-01-01")
	fs.StringVar(&flags.End, "end", "", "end date as YYYY-MM-DD; default: today")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &flags, fs.Args(), nil
}

// runDownload downloads the codes and prints the result table. It returns an
// error unless every code produced a file; an index with no data counts as
// failed.
func runDownload(ctx context.Context, cfg *Config, flags *downloadFlags, codes []string, sub string, w io.Writer) error {
	start, end, err := parseRange(flags.Start, flags.End)
	if err != nil {
		return err
	}
	opts := indices.Options{
		Dir:     downloadDir(flags.Output, cfg, sub),
		Start:   start,
		End:     end,
		Workers: cfg.Workers,
	}
	results := indices.DownloadMany(ctx, codes, opts)

	tbl := table.NewTable("INDEX", "ROWS", "STATUS", "FILE")
	saved := 0
	for _, r := range results {
		status := "OK"
		switch {
		case r.Err != nil:
			status = "failed"
		case !r.Saved():
			status = "no data"
		default:
			saved++
		}
		tbl.AddRow(table.Strings{r.Code, strconv.Itoa(r.Rows), status, r.Path})
	}
	if err := tbl.WriteText(w, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to print results")
	}
	fmt.Fprintf(w, "\ndownloaded %d of %d indices\n", saved, len(codes))
	if saved != len(codes) {
		return errors.Reason("failed to download %d of %d indices",
			len(codes)-saved, len(codes))
	}
	return nil
}

func cmdDownload(ctx context.Context, args []string, w io.Writer) error {
	flags, codes, err := parseDownloadFlags("download", args)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return errors.Reason("expected at least one index code")
	}
	for i, c := range codes {
		codes[i] = strings.ToUpper(c)
	}
	ctx, cfg, err := setup(ctx, flags.commonFlags)
	if err != nil {
		return err
	}
	return runDownload(ctx, cfg, flags, codes, "", w)
}

// cmdDownloadCategory downloads all registry indices of one category into the
// sub subdirectory of the base output directory.
func cmdDownloadCategory(ctx context.Context, name string, c indices.Category, sub string, args []string, w io.Writer) error {
	flags, rest, err := parseDownloadFlags(name, args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.Reason("unexpected arguments: %s", strings.Join(rest, " "))
	}
	ctx, cfg, err := setup(ctx, flags.commonFlags)
	if err != nil {
		return err
	}
	return runDownload(ctx, cfg, flags, indices.Codes(c), sub, w)
}

type listFlags struct {
	commonFlags
	Type    string
	Verbose bool
	CSV     bool
}

func parseListFlags(args []string) (*listFlags, error) {
	var flags listFlags
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	flags.commonFlags.register(fs)
	fs.StringVar(&flags.Type, "type", "all", "index category: all, bonds or equity")
	fs.BoolVar(&flags.Verbose, "verbose", false,
		"add group, board and description columns")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, errors.Reason("unexpected arguments: %s",
			strings.Join(fs.Args(), " "))
	}
	if !message.StringIn(flags.Type, "all", "bonds", "equity") {
		return nil, errors.Reason("-type must be all, bonds or equity, got '%s'",
			flags.Type)
	}
	return &flags, nil
}

func cmdList(ctx context.Context, args []string, w io.Writer) error {
	flags, err := parseListFlags(args)
	if err != nil {
		return err
	}
	if _, _, err := setup(ctx, flags.commonFlags); err != nil {
		return err
	}

	f := indices.NewFilter()
	switch flags.Type {
	case "bonds":
		f = f.Category(indices.Bond)
	case "equity":
		f = f.Category(indices.Equity)
	}
	ds := f.Select()

	header := []string{"CODE", "CATEGORY", "NAME"}
	if flags.Verbose {
		header = append(header, "GROUP", "BOARD", "DESCRIPTION")
	}
	tbl := table.NewTable(header...)
	for _, d := range ds {
		row := []string{d.Code, string(d.Category), d.Name}
		if flags.Verbose {
			row = append(row, d.Group, d.Board, d.Description)
		}
		tbl.AddRow(table.Strings(row))
	}
	if err := writeTable(w, tbl, table.Params{}, flags.CSV); err != nil {
		return err
	}
	if !flags.CSV {
		fmt.Fprintf(w, "\n%d indices\n", len(ds))
	}
	return nil
}

type infoFlags struct {
	commonFlags
	Schema string
	Start  string
	End    string
	CSV    bool
}

func parseInfoFlags(args []string) (*infoFlags, string, error) {
	var flags infoFlags
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	flags.commonFlags.register(fs)
	fs.StringVar(&flags.Schema, "schema", "",
		"JSON file overriding the history column names")
	fs.StringVar(&flags.Start, "start", "",
		"summary start date as YYYY-MM-DD; default: 30 days ago")
	fs.StringVar(&flags.End, "end", "", "summary end date as YYYY-MM-DD; default: today")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if fs.NArg() != 1 {
		return nil, "", errors.Reason("expected exactly one index code")
	}
	return &flags, strings.ToUpper(fs.Arg(0)), nil
}

func cmdInfo(ctx context.Context, args []string, w io.Writer) error {
	flags, code, err := parseInfoFlags(args)
	if err != nil {
		return err
	}
	start, end, err := parseRange(flags.Start, flags.End)
	if err != nil {
		return err
	}
	ctx, _, err = setup(ctx, flags.commonFlags)
	if err != nil {
		return err
	}

	schema := db.NewQuoteRowConfig()
	if flags.Schema != "" {
		schema = &db.QuoteRowConfig{}
		if err := message.FromFile(schema, flags.Schema); err != nil {
			return errors.Annotate(err, "failed to read schema '%s'", flags.Schema)
		}
	}

	tbl := table.NewTable("FIELD", "VALUE")
	if d, ok := indices.Lookup(code); ok {
		tbl.AddRow(
			table.Strings{"Code", d.Code},
			table.Strings{"Name", d.Name},
			table.Strings{"Category", string(d.Category)},
			table.Strings{"Group", d.Group},
			table.Strings{"Board", d.Board},
			table.Strings{"Description", d.Description},
		)
	} else {
		fmt.Fprintf(w, "%s is not in the curated registry; trying board %s\n",
			code, indices.BoardFor(code))
		tbl.AddRow(table.Strings{"Code", code})
	}

	q := iss.NewHistoryQuery(iss.EngineStock, iss.MarketIndex, indices.BoardFor(code), code)
	if !start.IsZero() {
		q = q.From(start)
	}
	if !end.IsZero() {
		q = q.Till(end)
	}
	h, err := iss.FetchHistory(ctx, q)
	if err != nil {
		return errors.Annotate(err, "failed to fetch history of %s", code)
	}
	if h.Empty() {
		if err := writeTable(w, tbl, table.Params{}, flags.CSV); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nno recent data for %s\n", code)
		return nil
	}

	quotes, err := schema.ParseTable(h.Columns, h.Strings())
	if err != nil {
		return errors.Annotate(err, "failed to parse quotes of %s", code)
	}
	last := quotes[len(quotes)-1]
	tbl.AddRow(
		table.Strings{"Last trade date", last.Date.String()},
		table.Strings{"Open", price(last.Open)},
		table.Strings{"High", price(last.High)},
		table.Strings{"Low", price(last.Low)},
		table.Strings{"Close", price(last.Close)},
		table.Strings{"Value", price(last.Value)},
	)
	// The summary covers the requested window even if the server ignores
	// from/till.
	ts := stats.NewTimeseriesFromQuotes(quotes, stats.QuoteClose).Range(start, end)
	if len(ts.Data()) == 0 {
		if err := writeTable(w, tbl, table.Params{}, flags.CSV); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nno data for %s in the requested range\n", code)
		return nil
	}
	s := stats.Summarize(ts)
	tbl.AddRow(
		table.Strings{"Trading days", strconv.Itoa(s.Rows)},
		table.Strings{"Period", fmt.Sprintf("%s to %s", s.First, s.Last)},
		table.Strings{"Period low", price(s.Low)},
		table.Strings{"Period high", price(s.High)},
		table.Strings{"Annual return", percent(s.AnnualReturn)},
		table.Strings{"Annual volatility", percent(s.AnnualVolatility)},
	)
	return writeTable(w, tbl, table.Params{}, flags.CSV)
}

type exploreFlags struct {
	commonFlags
	CSV bool
}

func parseExploreFlags(args []string) (*exploreFlags, error) {
	var flags exploreFlags
	fs := flag.NewFlagSet("explore", flag.ExitOnError)
	flags.commonFlags.register(fs)
	fs.BoolVar(&flags.CSV, "csv", false, "print tables in CSV format; default: text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, errors.Reason("unexpected arguments: %s",
			strings.Join(fs.Args(), " "))
	}
	return &flags, nil
}

func cmdExplore(ctx context.Context, args []string, w io.Writer) error {
	flags, err := parseExploreFlags(args)
	if err != nil {
		return err
	}
	ctx, _, err = setup(ctx, flags.commonFlags)
	if err != nil {
		return err
	}

	engines, err := iss.Engines(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to list engines")
	}
	markets, err := iss.Markets(ctx, iss.EngineStock)
	if err != nil {
		return errors.Annotate(err, "failed to list markets")
	}
	securities, err := iss.Securities(ctx, iss.EngineStock, iss.MarketIndex, "")
	if err != nil {
		return errors.Annotate(err, "failed to list securities")
	}

	section := func(title string, tbl *table.Table, p table.Params) error {
		if !flags.CSV {
			fmt.Fprintf(w, "%s\n", title)
		}
		if err := writeTable(w, tbl, p, flags.CSV); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return nil
	}
	if err := section("Engines:", engines.Table(), table.Params{}); err != nil {
		return err
	}
	if err := section("Markets of stock:", markets.Table(), table.Params{}); err != nil {
		return err
	}
	secTbl := selectColumns(securities, "SECID", "SHORTNAME")
	if err := section("First securities of stock/index:", secTbl,
		table.Params{Rows: 10}); err != nil {
		return err
	}
	if !flags.CSV {
		fmt.Fprintf(w, "Run 'list' for the curated index registry.\n")
	}
	return nil
}

func run(ctx context.Context, args []string, w io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(w, usageText)
		return errors.Reason("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "download":
		return cmdDownload(ctx, rest, w)
	case "download-bonds":
		return cmdDownloadCategory(ctx, cmd, indices.Bond, "bonds", rest, w)
	case "download-equity":
		return cmdDownloadCategory(ctx, cmd, indices.Equity, "equity", rest, w)
	case "list":
		return cmdList(ctx, rest, w)
	case "info":
		return cmdInfo(ctx, rest, w)
	case "explore":
		return cmdExplore(ctx, rest, w)
	}
	fmt.Fprint(w, usageText)
	return errors.Reason("unknown command: '%s'", cmd)
}

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
