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

package stats

import (
	"math"

	"github.com/ntlekhugov/moex-iss/db"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDays is the annualization factor for daily log-profits.
const TradingDays = 252

// Summary holds descriptive statistics of a daily quote series.
type Summary struct {
	Rows  int     // number of data points
	First db.Date // date of the first data point
	Last  db.Date // date of the last data point
	Low   float64 // minimum value over the period
	High  float64 // maximum value over the period
	Close float64 // the last value

	// Annualized mean and standard deviation of daily log-profits. Zero when
	// the series is too short to compute them.
	AnnualReturn     float64
	AnnualVolatility float64
}

// Summarize computes the Summary of a Timeseries. An empty series yields the
// zero Summary.
func Summarize(t *Timeseries) Summary {
	data := t.Data()
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{
		Rows:  len(data),
		First: t.Dates()[0],
		Last:  t.Dates()[len(data)-1],
		Low:   floats.Min(data),
		High:  floats.Max(data),
		Close: data[len(data)-1],
	}
	lp := t.LogProfits(1).Data()
	if len(lp) > 0 {
		s.AnnualReturn = stat.Mean(lp, nil) * TradingDays
	}
	if len(lp) > 1 {
		s.AnnualVolatility = stat.StdDev(lp, nil) * math.Sqrt(TradingDays)
	}
	return s
}
