package importer

// NumberFormat tells how numeric cells are written.
type NumberFormat int

const (
	// NumbersItalian is text typed by people: "1.234,56", "3,5".
	NumbersItalian NumberFormat = iota
	// NumbersPlain is machine output with a dot decimal separator, as
	// stored in XLSX cells.
	NumbersPlain
)

// Table is a decoded spreadsheet: one header row and the data rows.
type Table struct {
	Headers []string
	Rows    []Row
	Numbers NumberFormat
}

// Row keeps the 1-based line number of the source file.
type Row struct {
	Line  int
	Cells []string
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
