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
	"testing"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIndices(t *testing.T) {
	t.Parallel()

	Convey("Registry is consistent", t, func() {
		Convey("codes are unique across categories", func() {
			So(len(maps.Keys(byCode)), ShouldEqual, len(bondIndices)+len(equityIndices))
		})

		Convey("every descriptor is complete", func() {
			for _, d := range All() {
				So(d.Code, ShouldNotBeBlank)
				So(d.Name, ShouldNotBeBlank)
				So(d.Group, ShouldNotBeBlank)
				So(d.Board, ShouldNotBeBlank)
				So(d.Description, ShouldNotBeBlank)
			}
		})
	})

	Convey("Lookup", t, func() {
		d, ok := Lookup("IMOEX")
		So(ok, ShouldBeTrue)
		So(d.Name, ShouldEqual, "MOEX Russia Index")
		So(d.Category, ShouldEqual, Equity)
		So(d.Group, ShouldEqual, "broad_market")

		_, ok = Lookup("NOSUCH")
		So(ok, ShouldBeFalse)
	})

	Convey("BoardFor", t, func() {
		So(BoardFor("RGBI"), ShouldEqual, "SNDX")
		So(BoardFor("RTSI"), ShouldEqual, "RTSI")
		So(BoardFor("NOSUCH"), ShouldEqual, DefaultBoard)
	})

	Convey("Codes", t, func() {
		bonds := Codes(Bond)
		So(len(bonds), ShouldEqual, 21)
		So(slices.IsSorted(bonds), ShouldBeTrue)
		So(bonds, ShouldContain, "RGBI")
		So(bonds, ShouldContain, "RUGBITR7Y+")

		equities := Codes(Equity)
		So(len(equities), ShouldEqual, 21)
		So(equities, ShouldContain, "IMOEX")
		So(equities, ShouldNotContain, "RGBI")
	})

	Convey("All is sorted by category, then by code", t, func() {
		ds := All()
		So(len(ds), ShouldEqual, 42)
		So(ds[0].Category, ShouldEqual, Bond)
		So(ds[0].Code, ShouldEqual, "DOMMBSTR")
		So(ds[21].Category, ShouldEqual, Equity)
		So(ds[21].Code, ShouldEqual, "IMOEX")
	})

	Convey("Filter", t, func() {
		Convey("zero value matches everything", func() {
			var f Filter
			for _, d := range All() {
				So(f.Check(d), ShouldBeTrue)
			}
			So(len(NewFilter().Select()), ShouldEqual, 42)
		})

		Convey("by category", func() {
			ds := NewFilter().Category(Bond).Select()
			So(len(ds), ShouldEqual, 21)
			for _, d := range ds {
				So(d.Category, ShouldEqual, Bond)
			}
		})

		Convey("by group", func() {
			ds := NewFilter().Group("sector").Select()
			So(len(ds), ShouldEqual, 10)
			for _, d := range ds {
				So(d.Group, ShouldEqual, "sector")
			}
		})

		Convey("by board", func() {
			ds := NewFilter().Board("RTSI").Select()
			So(len(ds), ShouldEqual, 1)
			So(ds[0].Code, ShouldEqual, "RTSI")
		})

		Convey("combined", func() {
			ds := NewFilter().Category(Equity).Group("thematic").Select()
			So(len(ds), ShouldEqual, 2)
			So(ds[0].Code, ShouldEqual, "MIPO")
			So(ds[1].Code, ShouldEqual, "MOEXINN")
		})
	})
}
