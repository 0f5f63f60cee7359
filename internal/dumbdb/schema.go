package dumbdb

import (
	"bytes"
	"fmt"
)

var (
	errValueCountMismatch = fmt.Errorf("value count does not match column count")
	errRowWidthTooBig     = fmt.Errorf("row does not fit into a single page")
)

type ColumnKind int

const (
	// Int4 is a 4 byte signed integer, little-endian on disk
	Int4 ColumnKind = iota + 1
	// Varchar is a fixed width ASCII string, null-padded on disk
	Varchar
)

func (k ColumnKind) String() string {
	switch k {
	case Int4:
		return "int4"
	case Varchar:
		return "varchar"
	default:
		return "unknown"
	}
}

type Column struct {
	Kind ColumnKind
	Size uint32
	Name string
}

// Width returns the number of bytes the column occupies within a row slot
func (c Column) Width() int {
	switch c.Kind {
	case Int4:
		return 4
	case Varchar:
		return int(c.Size)
	}
	return 0
}

// Row is a fixed arity tuple of decoded values (int32 or string),
// order matching the schema's column order
type Row []any

// Schema describes an ordered set of named, typed columns. It is built
// once at table open time and is immutable afterwards.
type Schema struct {
	Columns  []Column
	rowWidth int
}

func NewSchema(columns ...Column) (*Schema, error) {
	aSchema := &Schema{
		Columns: columns,
	}
	for _, aColumn := range columns {
		aSchema.rowWidth += aColumn.Width()
	}
	if aSchema.rowWidth > PageSize-PageHeaderSize {
		return nil, errRowWidthTooBig
	}
	return aSchema, nil
}

// RowWidth returns the fixed on-disk size of a single row
func (s *Schema) RowWidth() int {
	return s.rowWidth
}

// RowsPerPage returns how many row slots fit into the body of a page.
// Integer division, the remainder is left as unused tail space.
func (s *Schema) RowsPerPage() int {
	return (PageSize - PageHeaderSize) / s.rowWidth
}

// MarshalRow encodes aRow into buf which must be at least RowWidth bytes.
// The row is validated against the schema, a failed validation leaves buf
// untouched.
func (s *Schema) MarshalRow(buf []byte, aRow Row) error {
	if len(aRow) != len(s.Columns) {
		return fmt.Errorf("%w: expected %d values, got %d", errValueCountMismatch, len(s.Columns), len(aRow))
	}
	if len(buf) < s.rowWidth {
		return fmt.Errorf("buffer too small for row: %d < %d", len(buf), s.rowWidth)
	}

	if err := s.typecheck(aRow); err != nil {
		return err
	}

	offset := 0
	for i, aColumn := range s.Columns {
		switch aColumn.Kind {
		case Int4:
			marshalInt32(buf, toInt32(aRow[i]), uint64(offset))
		case Varchar:
			value := aRow[i].(string)
			copy(buf[offset:], value)
			for j := len(value); j < aColumn.Width(); j++ {
				buf[offset+j] = 0
			}
		}
		offset += aColumn.Width()
	}

	return nil
}

// UnmarshalRow decodes a row from buf. It is the exact inverse of
// MarshalRow for data produced with the same schema.
func (s *Schema) UnmarshalRow(buf []byte) (Row, error) {
	if len(buf) < s.rowWidth {
		return nil, fmt.Errorf("buffer too small for row: %d < %d", len(buf), s.rowWidth)
	}

	aRow := make(Row, 0, len(s.Columns))
	offset := 0
	for _, aColumn := range s.Columns {
		switch aColumn.Kind {
		case Int4:
			aRow = append(aRow, unmarshalInt32(buf, uint64(offset)))
		case Varchar:
			value := bytes.TrimRight(buf[offset:offset+aColumn.Width()], "\x00")
			aRow = append(aRow, string(value))
		}
		offset += aColumn.Width()
	}

	return aRow, nil
}

func (s *Schema) typecheck(aRow Row) error {
	for i, aColumn := range s.Columns {
		switch aColumn.Kind {
		case Int4:
			switch aRow[i].(type) {
			case int32, int64, int:
			default:
				return fmt.Errorf("could not cast value for column %s to int32", aColumn.Name)
			}
		case Varchar:
			value, ok := aRow[i].(string)
			if !ok {
				return fmt.Errorf("could not cast value for column %s to string", aColumn.Name)
			}
			if len(value) > aColumn.Width() {
				return fmt.Errorf("value for column %s is too long (%d bytes max)", aColumn.Name, aColumn.Width())
			}
		default:
			return fmt.Errorf("unknown column kind '%s'", aColumn.Kind)
		}
	}
	return nil
}

// Int values coming from the parser arrive as int64, row data comes
// back from disk as int32
func toInt32(value any) int32 {
	switch v := value.(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	panic(fmt.Sprintf("not an integer value: %T", value))
}

func marshalUint32(buf []byte, n uint32, i uint64) []byte {
	buf[i+0] = byte(n >> 0)
	buf[i+1] = byte(n >> 8)
	buf[i+2] = byte(n >> 16)
	buf[i+3] = byte(n >> 24)
	return buf
}

func unmarshalUint32(buf []byte, i uint64) uint32 {
	return 0 |
		(uint32(buf[i+0]) << 0) |
		(uint32(buf[i+1]) << 8) |
		(uint32(buf[i+2]) << 16) |
		(uint32(buf[i+3]) << 24)
}

func marshalInt32(buf []byte, n int32, i uint64) []byte {
	return marshalUint32(buf, uint32(n), i)
}

func unmarshalInt32(buf []byte, i uint64) int32 {
	return int32(unmarshalUint32(buf, i))
}
