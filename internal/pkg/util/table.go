package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xd34d10cc/dumbdb/internal/dumbdb"
)

const intColumnLength = 12

// PrintTableHeader renders the top border and the column name row
func PrintTableHeader(w io.Writer, columns []dumbdb.Column) {
	columnSize, tableWidth := computeTableSize(columns)

	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))

	for i, aColumn := range columns {
		// pad with columnSize[i] spaces on the right (left-justify the field)
		fmt.Fprintf(w, "| %-*s ", columnSize[i], aColumn.Name)
		if i == len(columns)-1 {
			fmt.Fprintf(w, "|\n")
		}
	}

	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))
}

func PrintTableRow(w io.Writer, columns []dumbdb.Column, aRow dumbdb.Row) {
	columnSize, _ := computeTableSize(columns)

	for i, aValue := range aRow {
		fmt.Fprintf(w, "| %-*s ", columnSize[i], fmt.Sprint(aValue))
	}
	fmt.Fprintf(w, "|\n")
}

func PrintTableEnd(w io.Writer, columns []dumbdb.Column) {
	_, tableWidth := computeTableSize(columns)

	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))
}

func computeTableSize(columns []dumbdb.Column) ([]int, int) {
	columnSize := make([]int, len(columns))
	for i, aColumn := range columns {
		switch aColumn.Kind {
		case dumbdb.Varchar:
			columnSize[i] = aColumn.Width()
		default:
			columnSize[i] = intColumnLength
		}
		if len(aColumn.Name) > columnSize[i] {
			columnSize[i] = len(aColumn.Name)
		}
	}

	// left border is | followed by a space, right border is space followed by | (2+2=4)
	// then between each column we have space, |, space (3)
	tableWidth := 4 + (len(columnSize)-1)*3
	for _, columnWidth := range columnSize {
		tableWidth += columnWidth
	}

	return columnSize, tableWidth
}
