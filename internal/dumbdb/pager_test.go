package dumbdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPager_GetPage_EmptyFile(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
		aPager  = NewPager(dbFile, aSchema, 16, testLogger)
	)
	defer dbFile.Close()

	// Reading a page that was never written yields a zero-filled page
	aPage, err := aPager.GetPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), aPage.NumRows)

	// The cache is the sole owner of page identity, a second get returns
	// the same object
	samePage, err := aPager.GetPage(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, aPage, samePage)
}

func TestPager_Eviction_WritesPageBack(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
		aPager  = NewPager(dbFile, aSchema, 2, testLogger)
		r1      = Row{int32(123), "alloe", "arbue"}
	)
	defer dbFile.Close()

	err := aPager.Modify(ctx, 1, func(aPage *Page) error {
		inserted, err := aPage.InsertRow(r1)
		require.NoError(t, err)
		require.True(t, inserted)
		return nil
	})
	require.NoError(t, err)

	// Fill the cache beyond capacity, page 1 is the least recently used
	// and gets written back to disk
	_, err = aPager.GetPage(ctx, 2)
	require.NoError(t, err)
	_, err = aPager.GetPage(ctx, 3)
	require.NoError(t, err)

	// A second pager over the same file sees the evicted page's data
	otherFile := reopenDBFile(t, dbFile.Name())
	defer otherFile.Close()

	otherPager := NewPager(otherFile, aSchema, 16, testLogger)
	aPage, err := otherPager.GetPage(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), aPage.NumRows)

	aRow, ok := aPage.GetRow(0)
	require.True(t, ok)
	assert.Equal(t, r1, aRow)
}

func TestPager_CacheNeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
		aPager  = NewPager(dbFile, aSchema, 3, testLogger)
	)
	defer dbFile.Close()

	for pageIdx := PageIndex(0); pageIdx < 10; pageIdx++ {
		_, err := aPager.GetPage(ctx, pageIdx)
		require.NoError(t, err)
		assert.LessOrEqual(t, aPager.cache.Len(), 3)
	}
}

func TestPager_Modify_PromotesPage(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
		aPager  = NewPager(dbFile, aSchema, 2, testLogger)
	)
	defer dbFile.Close()

	page1, err := aPager.GetPage(ctx, 1)
	require.NoError(t, err)
	page2, err := aPager.GetPage(ctx, 2)
	require.NoError(t, err)

	// Touch page 1, making page 2 the eviction candidate
	err = aPager.Modify(ctx, 1, func(aPage *Page) error {
		assert.Same(t, page1, aPage)
		return nil
	})
	require.NoError(t, err)

	_, err = aPager.GetPage(ctx, 3)
	require.NoError(t, err)

	// Page 1 kept its cached identity, page 2 was evicted and is re-read
	// from disk on the next access
	samePage, err := aPager.GetPage(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, page1, samePage)

	// Getting page 1 again just evicted page 3, leaving room for page 2
	otherPage, err := aPager.GetPage(ctx, 2)
	require.NoError(t, err)
	assert.NotSame(t, page2, otherPage)
}

func TestPager_TornPageIsRejected(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
	)
	defer dbFile.Close()

	// A full page 0 followed by a truncated page 1
	_, err := dbFile.WriteAt(make([]byte, PageSize+100), 0)
	require.NoError(t, err)

	aPager := NewPager(dbFile, aSchema, 16, testLogger)

	_, err = aPager.GetPage(ctx, 0)
	require.NoError(t, err)

	// Zero-padding the partial page would silently destroy data
	_, err = aPager.GetPage(ctx, 1)
	require.ErrorIs(t, err, ErrPartialPage)
}

func TestPager_Flush(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
		aPager  = NewPager(dbFile, aSchema, 16, testLogger)
		r1      = Row{int32(456), "pog", "kekw"}
	)
	defer dbFile.Close()

	err := aPager.Modify(ctx, 1, func(aPage *Page) error {
		inserted, err := aPage.InsertRow(r1)
		require.NoError(t, err)
		require.True(t, inserted)
		return nil
	})
	require.NoError(t, err)

	page1, err := aPager.GetPage(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, aPager.Flush(ctx))

	// Flush does not evict, the cached object stays live
	samePage, err := aPager.GetPage(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, page1, samePage)

	// The flushed bytes are visible through another pager
	otherFile := reopenDBFile(t, dbFile.Name())
	defer otherFile.Close()

	otherPager := NewPager(otherFile, aSchema, 16, testLogger)
	aPage, err := otherPager.GetPage(ctx, 1)
	require.NoError(t, err)

	aRow, ok := aPage.GetRow(0)
	require.True(t, ok)
	assert.Equal(t, r1, aRow)
}

func TestPager_Close_FlushesEverything(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		aSchema = testSchema(t)
		dbFile  = testDBFile(t)
		aPager  = NewPager(dbFile, aSchema, 16, testLogger)
	)

	rows := gen.Rows(3)
	for i, aRow := range rows {
		err := aPager.Modify(ctx, PageIndex(i+1), func(aPage *Page) error {
			inserted, err := aPage.InsertRow(aRow)
			require.NoError(t, err)
			require.True(t, inserted)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, aPager.Close(ctx))

	otherFile := reopenDBFile(t, dbFile.Name())
	defer otherFile.Close()

	otherPager := NewPager(otherFile, aSchema, 16, testLogger)
	for i, expected := range rows {
		aPage, err := otherPager.GetPage(ctx, PageIndex(i+1))
		require.NoError(t, err)

		aRow, ok := aPage.GetRow(0)
		require.True(t, ok)
		assert.Equal(t, expected, aRow)
	}
}
