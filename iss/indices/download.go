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

package indices

import (
	"context"
	"time"

	"github.com/ntlekhugov/moex-iss/db"
	"github.com/ntlekhugov/moex-iss/iss"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
)

// defaultStart is the beginning of the downloaded range when the caller does
// not set one. Most index histories on the exchange begin after 2010.
var defaultStart = db.NewDate(2010, 1, 1)

// Options configure the index history downloads.
type Options struct {
	Dir     string  // output directory, created as needed
	Start   db.Date // inclusive start of the range; default: 2010-01-01
	End     db.Date // inclusive end of the range; default: today in Moscow
	Workers int     // parallel downloads in DownloadMany; default: 1
}

// fill replaces zero values with the defaults.
func (o Options) fill() Options {
	if o.Start.IsZero() {
		o.Start = defaultStart
	}
	if o.End.IsZero() {
		o.End = db.DateInMoscow(time.Now())
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// Download fetches the complete history of one index and saves it as a CSV
// file named <CODE>_<YYYYMMDD>.csv under opts.Dir. It returns the path of the
// saved file and the number of saved rows. An index with no data in the range
// is not an error: the path is empty and no file is written.
func Download(ctx context.Context, code string, opts Options) (string, int, error) {
	opts = opts.fill()
	logging.Debugf(ctx, "downloading %s from %s to %s", code, opts.Start, opts.End)
	q := iss.NewHistoryQuery(iss.EngineStock, iss.MarketIndex, BoardFor(code), code).
		From(opts.Start).Till(opts.End)
	h, err := iss.FetchHistory(ctx, q)
	if err != nil {
		return "", 0, errors.Annotate(err, "failed to fetch history of %s", code)
	}
	if h.Empty() {
		return "", 0, nil
	}
	fileName := db.FileName(code, db.DateInMoscow(time.Now()))
	path, err := db.SaveTable(opts.Dir, fileName, h.Table())
	if err != nil {
		return "", 0, errors.Annotate(err, "failed to save history of %s", code)
	}
	logging.Infof(ctx, "%s: saved %d rows to %s", code, len(h.Rows), path)
	return path, len(h.Rows), nil
}

// Result is the outcome of downloading one index in a batch.
type Result struct {
	Code string // index code, as requested
	Path string // saved file; empty when there was nothing to save
	Rows int    // number of saved rows
	Err  error  // the fetch or save failure, if any
}

// Saved checks whether the download produced a file.
func (r Result) Saved() bool {
	return r.Err == nil && r.Path != ""
}

// DownloadMany downloads the given indices on opts.Workers parallel
// goroutines; the default of one worker downloads strictly sequentially. A
// failing index is logged and recorded in its Result without disturbing the
// rest of the batch. Results are returned in the order of the requested
// codes.
func DownloadMany(ctx context.Context, codes []string, opts Options) []Result {
	opts = opts.fill()
	logging.Infof(ctx, "downloading %d indices to %s", len(codes), opts.Dir)

	type job struct {
		pos  int
		code string
	}
	type jobResult struct {
		pos int
		res Result
	}
	jobs := make([]job, len(codes))
	for i, code := range codes {
		jobs[i] = job{pos: i, code: code}
	}
	f := func(j job) jobResult {
		path, rows, err := Download(ctx, j.code, opts)
		if err != nil {
			logging.Errorf(ctx, "failed to download %s: %s", j.code, err.Error())
		}
		return jobResult{
			pos: j.pos,
			res: Result{Code: j.code, Path: path, Rows: rows, Err: err},
		}
	}
	pm := iterator.ParallelMap(ctx, opts.Workers, iterator.FromSlice(jobs), f)
	defer pm.Close()

	results := iterator.Reduce[jobResult, []Result](pm, make([]Result, len(codes)),
		func(r jobResult, rs []Result) []Result {
			rs[r.pos] = r.res
			return rs
		})

	saved := 0
	for _, r := range results {
		if r.Saved() {
			saved++
		}
	}
	logging.Infof(ctx, "finished: %d of %d indices saved", saved, len(codes))
	return results
}
