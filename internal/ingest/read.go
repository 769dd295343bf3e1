package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReadTablesJSON reads extraction output shaped as a list of tables, each a
// list of rows of cells. When skipHeader is set the first row of every
// table is dropped.
//
// Cells may be strings, numbers, booleans or null; numbers and booleans
// keep their JSON text. A row that is not a list, or that holds a nested
// list or object, is left out and reported as an ErrMalformedRow with its
// position among the data rows of the document. Only a document that is not a
// list of tables fails as a whole.
func ReadTablesJSON(r io.Reader, skipHeader bool) ([]Row, []RowError, error) {
	var tables []json.RawMessage
	if err := json.NewDecoder(r).Decode(&tables); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("decode tables: %w", err)
	}

	var (
		rows     []Row
		rejected []RowError
		pos      int
	)
	for ti, raw := range tables {
		var table []json.RawMessage
		if err := json.Unmarshal(raw, &table); err != nil {
			rejected = append(rejected, RowError{
				Row: pos,
				Err: fmt.Errorf("%w: table %d is not a list of rows", ErrMalformedRow, ti),
			})
			continue
		}
		if skipHeader && len(table) > 0 {
			table = table[1:]
		}
		for _, rawRow := range table {
			row, err := decodeRow(rawRow)
			if err != nil {
				rejected = append(rejected, RowError{Row: pos, Err: err})
			} else {
				rows = append(rows, row)
			}
			pos++
		}
	}
	return rows, rejected, nil
}

func decodeRow(raw json.RawMessage) (Row, error) {
	var cells []json.RawMessage
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("%w: row is not a list of cells", ErrMalformedRow)
	}
	row := make(Row, len(cells))
	for i, c := range cells {
		text, err := decodeCell(c)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %d: %v", ErrMalformedRow, i, err)
		}
		row[i] = text
	}
	return row, nil
}

func decodeCell(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported %T value", v)
	}
}

// ReadCSV reads rows from a CSV file. Quoted cells may span several lines,
// which is how multi-line answer cells are stored.
func ReadCSV(r io.Reader, skipHeader bool) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if skipHeader && len(records) > 0 {
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row(rec))
	}
	return rows, nil
}
