// Package spreadsheet reads and writes the workbooks exchanged by the client
// import: xlsx through excelize and plain CSV.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Codec implements port.WorkbookCodec.
type Codec struct{}

// NewCodec creates a new spreadsheet codec.
func NewCodec() port.WorkbookCodec {
	return &Codec{}
}

// FileTypeOf resolves the spreadsheet format from a filename.
func FileTypeOf(filename string) (domain.FileType, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	ft, ok := domain.AllowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, filepath.Ext(filename))
	}
	return ft, nil
}

func (c *Codec) ReadGrid(r io.Reader, filename string) ([][]string, error) {
	ft, err := FileTypeOf(filename)
	if err != nil {
		return nil, err
	}
	if ft == domain.FileTypeCSV {
		return readCSV(r)
	}
	return readXLSX(r)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, domain.ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrUnreadableWorkbook, sheetName, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(BOM)); err == nil && bytes.Equal(head, BOM) {
		_, _ = br.Discard(len(BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, err)
	}
	return rows, nil
}

func (c *Codec) WriteWorkbook(w io.Writer, sheets []port.Sheet) error {
	if len(sheets) == 0 {
		return errors.New("spreadsheet.WriteWorkbook: no sheets")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("spreadsheet.WriteWorkbook: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("spreadsheet.WriteWorkbook: new sheet %q: %w", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return fmt.Errorf("spreadsheet.WriteWorkbook: %w", err)
			}
			values := make([]interface{}, len(row))
			for j, v := range row {
				values[j] = v
			}
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				return fmt.Errorf("spreadsheet.WriteWorkbook: sheet %q row %d: %w", sheet.Name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("spreadsheet.WriteWorkbook: %w", err)
	}
	return nil
}

func (c *Codec) WriteCSV(w io.Writer, sheet port.Sheet) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("spreadsheet.WriteCSV: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(sheet.Rows); err != nil {
		return fmt.Errorf("spreadsheet.WriteCSV: %w", err)
	}
	return nil
}
