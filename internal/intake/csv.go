package intake

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a delimited text file. The delimiter (comma, semicolon or
// tab) is sniffed from the header line. Input that is not valid UTF-8 is
// decoded as Windows-1252, which is what spreadsheet exports on Brazilian
// Windows machines produce.
func ReadCSV(r io.Reader) (pipeline.RawBatch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return pipeline.RawBatch{}, fmt.Errorf("failed to read csv: %w", err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data, err = charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return pipeline.RawBatch{}, fmt.Errorf("failed to decode csv: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return pipeline.RawBatch{}, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return pipeline.RawBatch{}, ErrNoHeader
	}

	return buildBatch(records[0], records[1:], nil)
}

// sniffDelimiter counts candidate separators on the first line, ignoring
// quoted text. Ties and empty input fall back to comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	counts := map[rune]int{}
	quoted := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == ',', c == ';', c == '\t':
			counts[c]++
		}
	}

	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
