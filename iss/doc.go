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

// Package iss implements the table API of the Moscow Exchange ISS server.
//
// Official documentation is at https://iss.moex.com/iss/reference/ .
//
// An ISS response is a set of named blocks, each carrying its column names
// and rows of values in the column order. History endpoints return at most
// 100 rows per request together with a "history.cursor" block declaring the
// total size of the result, so longer histories span multiple pages. This
// package assembles all pages transparently in FetchHistory.
//
// Securities are addressed by their full identity within the exchange
// hierarchy: engine, market, board and security code, e.g. the IMOEX index
// lives at stock/index/SNDX/IMOEX. The reference listing calls Engines,
// Markets, Boards and Securities help to discover these coordinates.
//
// The curated registry of well-known indices with their boards is
// implemented in the indices subpackage.
package iss
