package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// DecodeResult describes a decoded CSV.
type DecodeResult struct {
	Rows    []Row
	Columns []FieldKey // recognised columns, in file order
	Dropped []string   // header cells that matched no field
}

// Decode reads a CSV with a header row into rows. Header cells are matched
// against field keys or display labels, ignoring case. Cell values are kept
// verbatim as text.
func Decode(r io.Reader) ([]Row, error) {
	res, err := DecodeLimited(r, 0)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// DecodeLimited is Decode with a byte limit (0 for none) and column details.
func DecodeLimited(r io.Reader, limit int64) (*DecodeResult, error) {
	cr := csv.NewReader(wrapForDecode(r, limit))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, decodeError(err)
	}

	res := &DecodeResult{}
	colIdx := make(map[FieldKey]int, len(Fields))
	for i, cell := range header {
		key, ok := ParseFieldKey(CleanCell(cell))
		if !ok {
			res.Dropped = append(res.Dropped, cell)
			continue
		}
		if _, dup := colIdx[key]; dup {
			res.Dropped = append(res.Dropped, cell)
			continue
		}
		colIdx[key] = i
		res.Columns = append(res.Columns, key)
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, decodeError(err)
		}
		res.Rows = append(res.Rows, rowFromRecord(record, colIdx))
	}

	return res, nil
}

func rowFromRecord(record []string, colIdx map[FieldKey]int) Row {
	var row Row
	for _, f := range Fields {
		cell := ""
		if i, ok := colIdx[f]; ok && i < len(record) {
			cell = record[i]
		}
		_ = row.Set(f, TextValue(cell))
	}
	return row
}

func decodeError(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidCSV, err)
}

// Encode writes a header row of labels followed by one line per row.
// Columns not named in headers are not written.
func Encode(w io.Writer, rows []Row, headers []Header) error {
	cw := csv.NewWriter(w)

	labels := make([]string, len(headers))
	for i, h := range headers {
		if _, ok := ParseFieldKey(string(h.Key)); !ok {
			return fmt.Errorf("export header %q: %w", h.Label, ErrUnknownField)
		}
		labels[i] = h.Label
	}
	if err := cw.Write(labels); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, len(headers))
	for n, row := range rows {
		for i, h := range headers {
			v, err := row.Get(h.Key)
			if err != nil {
				return err
			}
			line[i] = v.String()
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row %d: %w", n, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
