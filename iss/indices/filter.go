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

// Filter selects registry indices. Zero value means no filtering.
type Filter struct {
	Categories map[Category]struct{}
	Groups     map[string]struct{}
	Boards     map[string]struct{}
}

// NewFilter creates a new Filter matching every index.
func NewFilter() *Filter {
	return &Filter{
		Categories: make(map[Category]struct{}),
		Groups:     make(map[string]struct{}),
		Boards:     make(map[string]struct{}),
	}
}

// Category adds categories to the filter.
func (f *Filter) Category(cs ...Category) *Filter {
	for _, c := range cs {
		f.Categories[c] = struct{}{}
	}
	return f
}

// Group adds groups to the filter.
func (f *Filter) Group(gs ...string) *Filter {
	for _, g := range gs {
		f.Groups[g] = struct{}{}
	}
	return f
}

// Board adds boards to the filter.
func (f *Filter) Board(bs ...string) *Filter {
	for _, b := range bs {
		f.Boards[b] = struct{}{}
	}
	return f
}

// Check whether the descriptor satisfies the filter.
func (f *Filter) Check(d Descriptor) bool {
	if len(f.Categories) > 0 {
		if _, ok := f.Categories[d.Category]; !ok {
			return false
		}
	}
	if len(f.Groups) > 0 {
		if _, ok := f.Groups[d.Group]; !ok {
			return false
		}
	}
	if len(f.Boards) > 0 {
		if _, ok := f.Boards[d.Board]; !ok {
			return false
		}
	}
	return true
}

// Select returns the registry descriptors satisfying the filter, sorted by
// category and then by code.
func (f *Filter) Select() []Descriptor {
	var ds []Descriptor
	for _, d := range All() {
		if f.Check(d) {
			ds = append(ds, d)
		}
	}
	return ds
}
