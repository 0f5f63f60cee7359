package dumbdb

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errUnrecognizedStatementKind = fmt.Errorf("unrecognised statement kind")

// metadataPageIdx is reserved for table metadata, its header holds the
// total row count. Row pages start right after it.
const metadataPageIdx = PageIndex(0)

// Table tracks the logical row count and maps logical row indexes onto
// page/slot locations served by the pager. Rows are append only, nRows
// never decreases.
type Table struct {
	schema *Schema
	pager  *Pager
	nRows  uint32
	logger *zap.Logger
}

// OpenTable loads the row count from the metadata page and returns a
// table ready for inserts and scans. The table takes ownership of the
// pager and closes it on Close.
func OpenTable(ctx context.Context, aSchema *Schema, aPager *Pager, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metaPage, err := aPager.GetPage(ctx, metadataPageIdx)
	if err != nil {
		return nil, fmt.Errorf("error reading table metadata: %w", err)
	}

	aTable := &Table{
		schema: aSchema,
		pager:  aPager,
		nRows:  metaPage.NumRows,
		logger: logger,
	}

	logger.Debug("opened table", zap.Uint32("num_rows", aTable.nRows))

	return aTable, nil
}

func (t *Table) Schema() *Schema {
	return t.schema
}

func (t *Table) NumRows() uint32 {
	return t.nRows
}

// RowLocation returns the page and slot a logical row index lives in
func (t *Table) RowLocation(rowIdx uint32) (PageIndex, int) {
	perPage := uint32(t.schema.RowsPerPage())
	return PageIndex(1 + rowIdx/perPage), int(rowIdx % perPage)
}

// Insert appends aRow at the next logical row index
func (t *Table) Insert(ctx context.Context, aRow Row) error {
	pageIdx, _ := t.RowLocation(t.nRows)

	inserted := false
	err := t.pager.Modify(ctx, pageIdx, func(aPage *Page) error {
		ok, err := aPage.InsertRow(aRow)
		if err != nil {
			return err
		}
		inserted = ok
		return nil
	})
	if err != nil {
		return err
	}

	if !inserted {
		// The page reports full even though RowLocation pointed at it,
		// its capacity was exhausted by an earlier partial write. Spill
		// into the next page, which has to have room.
		err = t.pager.Modify(ctx, pageIdx+1, func(aPage *Page) error {
			ok, err := aPage.InsertRow(aRow)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("page %d is full right after allocation", pageIdx+1)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	t.nRows += 1

	t.logger.Debug("inserted row",
		zap.Uint32("page", uint32(pageIdx)),
		zap.Uint32("num_rows", t.nRows))

	return nil
}

// Select returns every row ever inserted, in insertion order
func (t *Table) Select(ctx context.Context) ([]Row, error) {
	rows := make([]Row, 0, t.nRows)
	for i := uint32(0); i < t.nRows; i++ {
		pageIdx, slot := t.RowLocation(i)
		aPage, err := t.pager.GetPage(ctx, pageIdx)
		if err != nil {
			return nil, err
		}
		aRow, ok := aPage.GetRow(slot)
		if !ok {
			return nil, fmt.Errorf("row %d missing from page %d slot %d", i, pageIdx, slot)
		}
		rows = append(rows, aRow)
	}
	return rows, nil
}

// Execute dispatches a structured statement against the table
func (t *Table) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	switch stmt.Kind {
	case Insert:
		if err := t.Insert(ctx, stmt.Values); err != nil {
			return nil, err
		}
		return &Result{RowsAffected: 1}, nil
	case Select:
		rows, err := t.Select(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: t.schema.Columns, Rows: rows}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnrecognizedStatementKind, stmt.Kind)
	}
}

// Flush persists the row count and writes all cached pages back to disk
// without closing the table
func (t *Table) Flush(ctx context.Context) error {
	if err := t.saveMetadata(ctx); err != nil {
		return err
	}
	return t.pager.Flush(ctx)
}

// Close persists metadata and shuts the pager down. The table must not
// be used afterwards.
func (t *Table) Close(ctx context.Context) error {
	return multierr.Combine(
		t.saveMetadata(ctx),
		t.pager.Close(ctx),
	)
}

func (t *Table) saveMetadata(ctx context.Context) error {
	return t.pager.Modify(ctx, metadataPageIdx, func(aPage *Page) error {
		aPage.NumRows = t.nRows
		return nil
	})
}
