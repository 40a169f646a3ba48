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
	"fmt"
	"os"
	"path/filepath"

	"github.com/ntlekhugov/moex-iss/table"
	"github.com/stockparfait/errors"
)

// FileName is the canonical name of a saved history file: the index code
// followed by the date of the download, e.g. "IMOEX_20250131.csv".
func FileName(code string, d Date) string {
	return fmt.Sprintf("%s_%04d%02d%02d.csv", code, d.Year(), d.Month(), d.Day())
}

// SaveTable writes the table as a CSV file under dir, creating the directory
// as needed, and returns the full path of the written file. An existing file
// with the same name is overwritten.
func SaveTable(dir, fileName string, t *table.Table) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Annotate(err, "failed to create directory '%s'", dir)
	}
	fileName = filepath.Join(dir, fileName)
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	if err := t.WriteCSV(f, table.Params{}); err != nil {
		return "", errors.Annotate(err, "failed to write to '%s'", fileName)
	}
	return fileName, nil
}
