// Package export writes dataset previews to files people can open elsewhere.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dataflow/console/internal/core/domain"
)

// Format is an output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// SheetName is the worksheet that holds the preview in xlsx output.
const SheetName = "Preview"

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{CSV, JSON, XLSX}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case CSV, JSON, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want csv, json or xlsx)", s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write encodes table to w. Column order is preserved in every format.
func Write(w io.Writer, table domain.PreviewTable, format Format) error {
	switch format {
	case CSV:
		return writeCSV(w, table)
	case JSON:
		return writeJSON(w, table)
	case XLSX:
		return writeXLSX(w, table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeCSV(w io.Writer, table domain.PreviewTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// writeJSON emits an indented array of objects whose keys follow the
// table's column order.
func writeJSON(w io.Writer, table domain.PreviewTable) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for r, row := range table.Rows {
		if r > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for i, col := range table.Columns {
			if i > 0 {
				buf.WriteString(",")
			}
			key, err := json.Marshal(col)
			if err != nil {
				return fmt.Errorf("encode column %q: %w", col, err)
			}
			var v any
			if i < len(row) {
				v = row[i]
			}
			val, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %q value: %w", col, err)
			}
			buf.WriteString("\n    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		if len(table.Columns) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("}")
	}
	if len(table.Rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, table domain.PreviewTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header %q: %w", h, err)
		}
	}
	for r, row := range table.Rows {
		for c := range table.Columns {
			if c >= len(row) || row[c] == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, xlsxValue(row[c])); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// xlsxValue keeps numbers and booleans native so spreadsheets can sum them.
func xlsxValue(v any) any {
	switch v.(type) {
	case string, bool, int, int64, float64, float32:
		return v
	}
	return formatCell(v)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
