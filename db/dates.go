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
	"encoding/json"
	"fmt"
	"time"

	"github.com/stockparfait/errors"
)

// dateFormats are the layouts the ISS server is known to emit: plain dates in
// history rows and datetimes in some reference blocks.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, error) {
	if s == "0000-00-00" || s == "0000-00-00 00:00:00" {
		return time.Time{}, nil
	}
	var err error
	for _, f := range dateFormats {
		var tm time.Time
		if tm, err = time.Parse(f, s); err == nil {
			return tm, nil
		}
	}
	return time.Time{}, err
}

// Date records a calendar date as year, month and day.
type Date struct {
	year  uint16
	month uint8
	day   uint8
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = &Date{}

// NewDate is the constructor for Date.
func NewDate(year uint16, month, day uint8) Date {
	return Date{year, month, day}
}

// NewDateFromTime creates a Date from the calendar date of t in its location.
func NewDateFromTime(t time.Time) Date {
	return Date{
		year:  uint16(t.Year()),
		month: uint8(t.Month()),
		day:   uint8(t.Day()),
	}
}

// NewDateFromString parses a Date from its string representation, accepting
// both plain dates and datetimes in the ISS formats.
func NewDateFromString(s string) (Date, error) {
	t, err := parseTime(s)
	if err != nil {
		return Date{}, errors.Annotate(err, "failed to parse a Date string: '%s'", s)
	}
	return NewDateFromTime(t), nil
}

// DateInMoscow returns the date of the given instant in the exchange's
// timezone. MOEX trading days are defined in Europe/Moscow.
func DateInMoscow(now time.Time) Date {
	tz := "Europe/Moscow"
	location, err := time.LoadLocation(tz)
	if err != nil {
		panic(errors.Annotate(err, "failed to load timezone %s", tz))
	}
	return NewDateFromTime(now.In(location))
}

func (d Date) Year() uint16 { return d.year }
func (d Date) Month() uint8 { return d.month }
func (d Date) Day() uint8   { return d.day }

// String formats the date as YYYY-MM-DD, the canonical form used in ISS query
// parameters and history rows.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. NOTE: unlike other methods, this
// is a pointer method.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "Date JSON must be a string")
	}
	date, err := NewDateFromString(s)
	if err != nil {
		return errors.Annotate(err, "failed to parse Date string")
	}
	*d = date
	return nil
}

// ToTime converts Date to time.Time at midnight UTC.
func (d Date) ToTime() time.Time {
	return time.Date(int(d.year), time.Month(d.month), int(d.day), 0, 0, 0, 0, time.UTC)
}

// Before compares two Date objects for strict inequality (self < d2).
func (d Date) Before(d2 Date) bool {
	if d.year != d2.year {
		return d.year < d2.year
	}
	if d.month != d2.month {
		return d.month < d2.month
	}
	return d.day < d2.day
}

// After compares two Date objects for strict inequality, self > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// IsZero checks whether the date has a zero value.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// InRange checks if d is in the inclusive date range. Any of the bounds may be
// zero value, in which case it's ignored.
func (d Date) InRange(start, end Date) bool {
	if d.IsZero() {
		return false
	}
	if !start.IsZero() && start.After(d) {
		return false
	}
	if !end.IsZero() && end.Before(d) {
		return false
	}
	return true
}
