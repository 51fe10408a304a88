package output

import (
	"fmt"
	"io"
	"strings"
)

// columnGap separates table columns in text output.
const columnGap = "  "

// Table renders aligned columns for text output, e.g. the wallet list.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table. An empty header string yields an unlabeled
// column (used for the current-wallet marker).
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table with a header row and dashed underline.
func (t *Table) Render(w io.Writer) error {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return nil
	}

	widths := t.columnWidths()

	if len(t.headers) > 0 {
		if err := writeCells(w, t.headers, widths); err != nil {
			return err
		}
		underline := make([]string, len(widths))
		for i, width := range widths {
			underline[i] = strings.Repeat("-", width)
		}
		if err := writeCells(w, underline, widths); err != nil {
			return err
		}
	}

	for _, row := range t.rows {
		if err := writeCells(w, row, widths); err != nil {
			return err
		}
	}

	return nil
}

// String renders the table into a string.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

// columnWidths returns the widest cell per column, counting headers.
func (t *Table) columnWidths() []int {
	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	widths := make([]int, numCols)
	grow := func(cells []string) {
		for i, cell := range cells {
			if i < numCols && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	grow(t.headers)
	for _, row := range t.rows {
		grow(row)
	}

	return widths
}

func writeCells(w io.Writer, cells []string, widths []int) error {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, columnGap), " "))
	return err
}
