package dumbdb

const (
	PageSize       = 4096 // 4 kilobytes
	PageHeaderSize = 4    // uint32 count of rows resident in the page
)

type PageIndex uint32

// Page is a fixed size buffer bound to a schema. Bytes [0, PageHeaderSize)
// hold the row count, the rest of the buffer is laid out as consecutive
// fixed width row slots of which only the first NumRows are valid.
//
// Page 0 is reserved for table metadata, its header holds the total row
// count of the table and its body never stores row slots.
type Page struct {
	Index   PageIndex
	NumRows uint32

	schema *Schema
	data   []byte
}

// NewPage wraps a PageSize byte buffer, decoding the row count from the
// header. The page takes ownership of buf.
func NewPage(pageIdx PageIndex, aSchema *Schema, buf []byte) *Page {
	return &Page{
		Index:   pageIdx,
		NumRows: unmarshalUint32(buf, 0),
		schema:  aSchema,
		data:    buf,
	}
}

// GetRow decodes the row at the given slot, false if the slot holds no row
func (p *Page) GetRow(slot int) (Row, bool) {
	if slot < 0 || uint32(slot) >= p.NumRows {
		return nil, false
	}

	offset := PageHeaderSize + slot*p.schema.RowWidth()
	aRow, err := p.schema.UnmarshalRow(p.data[offset : offset+p.schema.RowWidth()])
	if err != nil {
		return nil, false
	}

	return aRow, true
}

// InsertRow encodes aRow into the next free slot. Returns false without
// mutating the page if all slots are taken. An encoding error (row not
// matching the schema) is surfaced to the caller and leaves the page
// unmodified.
func (p *Page) InsertRow(aRow Row) (bool, error) {
	if int(p.NumRows) >= p.schema.RowsPerPage() {
		return false, nil
	}

	offset := PageHeaderSize + int(p.NumRows)*p.schema.RowWidth()
	if err := p.schema.MarshalRow(p.data[offset:offset+p.schema.RowWidth()], aRow); err != nil {
		return false, err
	}
	p.NumRows += 1

	return true, nil
}

// Marshal encodes the row count back into the header and returns the
// page's backing buffer, ready to be written to disk
func (p *Page) Marshal() []byte {
	marshalUint32(p.data, p.NumRows, 0)
	return p.data
}
