package core

// ingest.go reads uploaded files into Rows.
//
// Two readers converge on the same shape: the semicolon text reader used for
// .csv uploads and the spreadsheet reader used for everything else. Both use
// the first line as header, default absent cells to "" and trim values.

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnreadableFile is returned when a spreadsheet cannot be decoded.
var ErrUnreadableFile = errors.New("unreadable file")

// Delimiter separates fields in uploaded text files.
const Delimiter = ";"

var lineBreak = regexp.MustCompile(`\r?\n`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ingest decodes an uploaded file. Names ending in .csv (any case) go through
// ParseDelimited; every other name is treated as a spreadsheet workbook.
func Ingest(filename string, data []byte) ([]Row, error) {
	if IsDelimitedName(filename) {
		return ParseDelimited(data), nil
	}
	return ParseWorkbook(data)
}

// IsDelimitedName reports whether filename selects the text reader.
func IsDelimitedName(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

// ParseDelimited parses semicolon-delimited text. Lines are split on LF or
// CRLF and lines that are blank after trimming are dropped. The first line is
// the header; each remaining line maps header[i] to its trimmed i-th field.
// Short lines are padded with "" and extra fields are ignored.
//
// No quoting is recognized: a semicolon inside a value always splits it.
// Empty or header-only input yields no rows.
func ParseDelimited(data []byte) []Row {
	lines := splitLines(decodeText(data))
	if len(lines) < 2 {
		return []Row{}
	}

	headers := splitHeader(lines[0])
	rows := make([]Row, 0, len(lines)-1)

	for i, line := range lines[1:] {
		cols := strings.Split(line, Delimiter)
		if len(cols) != len(headers) {
			slog.Debug("delimited row width differs from header",
				"line", i+2, "fields", len(cols), "headers", len(headers))
		}

		row := make(Row, len(headers))
		for j, h := range headers {
			if j < len(cols) {
				row[h] = strings.TrimSpace(cols[j])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows
}

// ParseWorkbook reads the first worksheet (in declaration order) of a
// spreadsheet. Leading blank rows are skipped and the first non-blank row is
// the header; blank header cells are skipped and blank data rows are dropped.
// Cells missing from a row read as "".
func ParseWorkbook(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []Row{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableFile, sheets[0], err)
	}
	// The table starts at the first non-blank row, as in the sheet's used range.
	for len(records) > 0 && isBlankRecord(records[0]) {
		records = records[1:]
	}
	if len(records) < 2 {
		return []Row{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = CleanCell(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}

		row := make(Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = CleanCell(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// splitHeader splits a header line on the delimiter and trims each name.
func splitHeader(line string) []string {
	parts := strings.Split(line, Delimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// splitLines splits text on LF/CRLF and drops lines that are blank after trimming.
func splitLines(text string) []string {
	raw := lineBreak.Split(text, -1)
	lines := raw[:0]
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// decodeText strips a UTF-8 BOM and returns the content as a string.
// Content that is not valid UTF-8 is decoded as Windows-1252, the encoding
// spreadsheet tools use on Brazilian Windows installs.
func decodeText(data []byte) string {
	data = stripBOM(data)
	if utf8.Valid(data) {
		return string(data)
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(decoded)
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
