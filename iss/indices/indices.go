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

// Package indices is the curated registry of well-known MOEX indices and a
// downloader saving their histories as CSV files.
package indices

import (
	"golang.org/x/exp/slices"
)

// Category of an index: the asset class it tracks.
type Category string

// Values of Category.
const (
	Bond   = Category("bond")
	Equity = Category("equity")
)

// DefaultBoard is the trading board of most indices.
const DefaultBoard = "SNDX"

// Descriptor is the static reference information about one index.
type Descriptor struct {
	Code        string   // index code on the exchange, e.g. "IMOEX"
	Name        string   // human-readable name
	Category    Category // asset class
	Group       string   // finer classification within the category
	Board       string   // trading board publishing the index
	Description string
}

// bondIndices are the registry entries of the bond indices, in the order
// {Code, Name, Category, Group, Board, Description}.
var bondIndices = []Descriptor{
	{"RGBI", "Government Bond Index", Bond, "government", "SNDX",
		"Clean price index of OFZ government bonds, coupons excluded"},
	{"RGBITR", "Government Bond Total Return Index", Bond, "government", "SNDX",
		"OFZ index with coupons reinvested"},
	{"RUGBITR1Y", "Government Bonds <1Y Total Return", Bond, "government", "SNDX",
		"Short-term OFZ, low sensitivity to the key rate"},
	{"RUGBITR3Y", "Government Bonds 1-3Y Total Return", Bond, "government", "SNDX",
		"Medium-term OFZ"},
	{"RUGBITR5Y", "Government Bonds 3-5Y Total Return", Bond, "government", "SNDX",
		"Medium-term OFZ"},
	{"RUGBITR7Y+", "Government Bonds 7Y+ Total Return", Bond, "government", "SNDX",
		"Long-term OFZ, high sensitivity to the key rate"},
	{"RUGBINFTR", "Inflation-Linked Government Bonds TR", Bond, "government", "SNDX",
		"OFZ-IN bonds with the principal indexed to inflation"},
	{"RUCBITR", "Corporate Bond Total Return Index", Bond, "corporate", "SNDX",
		"Broad corporate bond index (legacy)"},
	{"RUCBTRNS", "Corporate Bonds New Series TR", Bond, "corporate", "SNDX",
		"New series of the corporate index, since 2020"},
	{"RUCBHYTR", "High Yield Corporate Bonds TR", Bond, "corporate", "SNDX",
		"Bonds rated below BBB, higher risk and yield"},
	{"RUCBTRAAANS", "Corporate Bonds AAA TR", Bond, "corporate", "SNDX",
		"Bonds of the top-rated issuers"},
	{"RUCBTRAANS", "Corporate Bonds AA TR", Bond, "corporate", "SNDX",
		"Bonds of AA-rated issuers"},
	{"RUCBTRANS", "Corporate Bonds A TR", Bond, "corporate", "SNDX",
		"Bonds of A-rated issuers"},
	{"RUCBTRBBBNS", "Corporate Bonds BBB TR", Bond, "corporate", "SNDX",
		"Investment grade bonds at the lower boundary"},
	{"RUMBTRNS", "Municipal Bonds TR", Bond, "municipal", "SNDX",
		"Bonds of regions and municipalities"},
	{"DOMMBSTR", "Mortgage-Backed Securities TR", Bond, "mortgage", "SNDX",
		"Bonds backed by pools of mortgage loans"},
	{"RUCNYTR", "CNY Bonds TR", Bond, "fx", "SNDX",
		"Ruble bonds linked to the Chinese yuan"},
	{"RUEUTR", "Eurobonds TR", Bond, "fx", "SNDX",
		"Russian eurobonds"},
	{"RUABITR", "Aggregate Bond Index TR", Bond, "aggregate", "SNDX",
		"Broad index across all bond types"},
	{"RUESGTR", "ESG Bonds TR", Bond, "thematic", "SNDX",
		"Bonds of issuers with high ESG ratings"},
	{"RUGROWTR", "Growth Sector Bonds TR", Bond, "thematic", "SNDX",
		"Bonds of the growth sector companies"},
}

// equityIndices are the registry entries of the equity indices. Note that
// RTSI is published on its own board rather than on SNDX.
var equityIndices = []Descriptor{
	{"IMOEX", "MOEX Russia Index", Equity, "broad_market", "SNDX",
		"Main ruble index of about 50 most liquid stocks"},
	{"RTSI", "RTS Index", Equity, "broad_market", "RTSI",
		"US dollar counterpart of IMOEX"},
	{"MOEX10", "MOEX 10 Index", Equity, "broad_market", "SNDX",
		"Top 10 most liquid stocks"},
	{"MOEXBC", "Blue Chip Index", Equity, "broad_market", "SNDX",
		"15 largest and most liquid companies"},
	{"MOEXBMI", "Broad Market Index", Equity, "broad_market", "SNDX",
		"About 100 stocks covering the whole market"},
	{"MCXSM", "Small & Mid Cap Index", Equity, "broad_market", "SNDX",
		"Stocks of mid and small capitalization companies"},
	{"MOEXOG", "Oil & Gas Index", Equity, "sector", "SNDX",
		"Gazprom, Rosneft, Lukoil, Novatek and others"},
	{"MOEXFN", "Financials Index", Equity, "sector", "SNDX",
		"Sberbank, VTB, Tinkoff, Moscow Exchange"},
	{"MOEXMM", "Metals & Mining Index", Equity, "sector", "SNDX",
		"Nornickel, Severstal, NLMK, Rusal"},
	{"MOEXEU", "Electric Utilities Index", Equity, "sector", "SNDX",
		"Inter RAO, RusHydro, FGC UES"},
	{"MOEXTL", "Telecom Index", Equity, "sector", "SNDX",
		"MTS, Rostelecom"},
	{"MOEXTN", "Transportation Index", Equity, "sector", "SNDX",
		"Aeroflot, NCSP, Globaltrans"},
	{"MOEXCH", "Chemicals Index", Equity, "sector", "SNDX",
		"PhosAgro, Acron, Kazanorgsintez"},
	{"MOEXCN", "Consumer Index", Equity, "sector", "SNDX",
		"Magnit, X5, Detsky Mir"},
	{"MOEXRE", "Real Estate Index", Equity, "sector", "SNDX",
		"PIK, Samolet, Etalon"},
	{"MOEXIT", "IT Index", Equity, "sector", "SNDX",
		"Yandex, VK, Positive Technologies, HeadHunter"},
	{"MESG", "MOEX-RAEX ESG Index", Equity, "esg", "SNDX",
		"Companies with high ESG ratings"},
	{"MRRT", "Responsibility & Transparency Index", Equity, "esg", "SNDX",
		"Corporate governance quality index"},
	{"RUCGI", "Corporate Governance Index", Equity, "esg", "SNDX",
		"Companies with the best governance practices"},
	{"MOEXINN", "Innovation Index", Equity, "thematic", "SNDX",
		"High-tech and innovative companies"},
	{"MIPO", "IPO Index", Equity, "thematic", "SNDX",
		"Recently listed companies"},
}

// byCode indexes all registry descriptors by their code. Populated at process
// start and never mutated.
var byCode = make(map[string]Descriptor)

func init() {
	for _, d := range bondIndices {
		byCode[d.Code] = d
	}
	for _, d := range equityIndices {
		byCode[d.Code] = d
	}
}

// Lookup finds the descriptor of a known index by its code.
func Lookup(code string) (Descriptor, bool) {
	d, ok := byCode[code]
	return d, ok
}

// BoardFor returns the trading board of the index: the registry board for a
// known code and DefaultBoard for the rest.
func BoardFor(code string) string {
	if d, ok := byCode[code]; ok {
		return d.Board
	}
	return DefaultBoard
}

// Codes returns the codes of all registry indices of the given category,
// sorted alphabetically.
func Codes(c Category) []string {
	var codes []string
	for code, d := range byCode {
		if d.Category == c {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}

// All returns all registry descriptors sorted by category and then by code.
func All() []Descriptor {
	ds := make([]Descriptor, 0, len(byCode))
	for _, d := range byCode {
		ds = append(ds, d)
	}
	slices.SortFunc(ds, func(a, b Descriptor) bool {
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Code < b.Code
	})
	return ds
}
