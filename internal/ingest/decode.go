package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// RawTable is a fetched export before schema mapping: a header row and
// loosely-typed string cells.
type RawTable struct {
	Header []string
	Rows   [][]string
}

var errNoHeader = errors.New("no header row")

// Decode parses a raw export in the given format ("csv" or "xlsx").
func Decode(data []byte, format, sheet string) (RawTable, error) {
	var rows [][]string
	var err error
	switch format {
	case "", "csv":
		rows, err = parseCSV(data)
	case "xlsx":
		rows, err = parseXLSX(data, sheet)
	default:
		return RawTable{}, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return RawTable{}, err
	}
	return toRawTable(rows)
}

func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		dec, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode latin-1: %w", err)
		}
		data = dec
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// sniffDelimiter picks ';' for exports written with a comma decimal
// separator, which use it as the field separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func parseXLSX(data []byte, sheet string) ([][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()
	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	return xl.GetRows(sheet)
}

func toRawTable(rows [][]string) (RawTable, error) {
	var t RawTable
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Header == nil {
		return t, errNoHeader
	}
	return t, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
