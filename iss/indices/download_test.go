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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ntlekhugov/moex-iss/db"
	"github.com/ntlekhugov/moex-iss/iss"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDownload(t *testing.T) {
	tmpdir, tmpdirErr := os.MkdirTemp("", "test_download")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("Download saves index histories", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		server.ResponseBody = []string{"{}"}

		ctx := fetch.UseClient(context.Background(), server.Client())
		iss.URL = server.URL() + "/iss"
		ctx = iss.UseClient(ctx, "ru")

		columns := []string{"BOARDID", "TRADEDATE", "SECID", "CLOSE"}
		opts := Options{
			Dir:   tmpdir,
			Start: db.NewDate(2024, 1, 1),
			End:   db.NewDate(2024, 2, 1),
		}

		Convey("an index with data", func() {
			page, err := iss.TestHistoryPage(columns, [][]iss.Value{
				{"SNDX", "2024-01-10", "RGBI", 620.48},
				{"SNDX", "2024-01-11", "RGBI", 621.1},
			}, 0, 2)
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}

			path, rows, err := Download(ctx, "RGBI", opts)
			So(err, ShouldBeNil)
			So(rows, ShouldEqual, 2)
			So(path, ShouldEqual, filepath.Join(
				tmpdir, db.FileName("RGBI", db.DateInMoscow(time.Now()))))
			So(server.RequestPath, ShouldEqual,
				"/iss/history/engines/stock/markets/index/boards/SNDX/securities/RGBI.json")
			So(server.RequestQuery["from"], ShouldResemble, []string{"2024-01-01"})
			So(server.RequestQuery["till"], ShouldResemble, []string{"2024-02-01"})

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So("\n"+string(data), ShouldEqual, `
BOARDID,TRADEDATE,SECID,CLOSE
SNDX,2024-01-10,RGBI,620.48
SNDX,2024-01-11,RGBI,621.1
`)
		})

		Convey("an index with no data saves nothing", func() {
			page, err := iss.TestHistoryPage(columns, nil, 0, 0)
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}

			path, rows, err := Download(ctx, "MIPO", opts)
			So(err, ShouldBeNil)
			So(rows, ShouldEqual, 0)
			So(path, ShouldEqual, "")
		})

		Convey("default date range", func() {
			page, err := iss.TestHistoryPage(columns, nil, 0, 0)
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}

			_, _, err = Download(ctx, "RGBI", Options{Dir: tmpdir})
			So(err, ShouldBeNil)
			So(server.RequestQuery["from"], ShouldResemble, []string{"2010-01-01"})
			So(server.RequestQuery["till"], ShouldResemble,
				[]string{db.DateInMoscow(time.Now()).String()})
		})

		Convey("an unknown code is fetched from the default board", func() {
			page, err := iss.TestHistoryPage(columns, nil, 0, 0)
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}

			_, _, err = Download(ctx, "MYSTERY", opts)
			So(err, ShouldBeNil)
			So(server.RequestPath, ShouldEqual,
				"/iss/history/engines/stock/markets/index/boards/SNDX/securities/MYSTERY.json")
		})

		Convey("RTSI is fetched from its own board", func() {
			page, err := iss.TestHistoryPage(columns, nil, 0, 0)
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}

			_, _, err = Download(ctx, "RTSI", opts)
			So(err, ShouldBeNil)
			So(server.RequestPath, ShouldEqual,
				"/iss/history/engines/stock/markets/index/boards/RTSI/securities/RTSI.json")
		})

		Convey("DownloadMany", func() {
			pageRGBI, err := iss.TestHistoryPage(columns, [][]iss.Value{
				{"SNDX", "2024-01-10", "RGBI", 620.48},
				{"SNDX", "2024-01-11", "RGBI", 621.1},
			}, 0, 2)
			So(err, ShouldBeNil)
			pageIMOEX, err := iss.TestHistoryPage(columns, [][]iss.Value{
				{"SNDX", "2024-01-10", "IMOEX", 3145.2},
			}, 0, 1)
			So(err, ShouldBeNil)

			Convey("isolates failures and keeps the input order", func() {
				server.ResponseBody = []string{pageRGBI, "not a JSON", pageIMOEX}

				results := DownloadMany(ctx, []string{"RGBI", "MIPO", "IMOEX"}, opts)
				So(len(results), ShouldEqual, 3)

				So(results[0].Code, ShouldEqual, "RGBI")
				So(results[0].Saved(), ShouldBeTrue)
				So(results[0].Rows, ShouldEqual, 2)

				So(results[1].Code, ShouldEqual, "MIPO")
				So(results[1].Err, ShouldNotBeNil)
				So(results[1].Saved(), ShouldBeFalse)

				So(results[2].Code, ShouldEqual, "IMOEX")
				So(results[2].Saved(), ShouldBeTrue)
				So(results[2].Rows, ShouldEqual, 1)
			})

			Convey("no data is neither saved nor an error", func() {
				empty, err := iss.TestHistoryPage(columns, nil, 0, 0)
				So(err, ShouldBeNil)
				server.ResponseBody = []string{empty}

				results := DownloadMany(ctx, []string{"MIPO"}, opts)
				So(len(results), ShouldEqual, 1)
				So(results[0].Err, ShouldBeNil)
				So(results[0].Saved(), ShouldBeFalse)
				So(results[0].Path, ShouldEqual, "")
			})
		})
	})
}
