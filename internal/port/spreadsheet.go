package port

import "io"

// Sheet is a named worksheet of plain string cells.
type Sheet struct {
	Name string
	Rows [][]string
}

// WorkbookCodec converts between spreadsheet files and string grids.
type WorkbookCodec interface {
	// ReadGrid returns the cells of the first worksheet. The filename
	// extension selects the format.
	ReadGrid(r io.Reader, filename string) ([][]string, error)
	WriteWorkbook(w io.Writer, sheets []Sheet) error
	WriteCSV(w io.Writer, sheet Sheet) error
}
