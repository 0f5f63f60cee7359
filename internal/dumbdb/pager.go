package dumbdb

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/0xd34d10cc/dumbdb/pkg/lrucache"
)

var (
	// ErrPartialPage signals a torn page on disk. Zero-padding a partial
	// page would silently destroy data, so the read is rejected instead.
	ErrPartialPage = fmt.Errorf("torn page: short read from db file")
	// ErrPartialWrite signals that a page was only partially persisted
	ErrPartialWrite = fmt.Errorf("short write to db file")
)

const defaultMaxCachedPages = 128

type DBFile interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Sync() error
}

// Pager maps page indexes to fixed size in-memory pages backed by a
// random access file. It owns a bounded LRU cache of pages, a page
// evicted from the cache is synchronously written back to disk. The
// cache is the sole arbiter of page identity, at most one Page object
// exists per index at any time.
type Pager struct {
	schema *Schema
	file   DBFile
	cache  *lrucache.Cache[PageIndex, *Page]
	logger *zap.Logger
}

func NewPager(file DBFile, aSchema *Schema, maxCachedPages int, logger *zap.Logger) *Pager {
	if maxCachedPages <= 0 {
		maxCachedPages = defaultMaxCachedPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pager{
		schema: aSchema,
		file:   file,
		cache:  lrucache.New[PageIndex, *Page](maxCachedPages),
		logger: logger,
	}
}

// GetPage returns the page at pageIdx, loading it from disk on a cache
// miss. Reading past the end of file yields a fresh zero-filled page.
// If caching the page evicts another one, the evicted page is written
// back to disk before returning.
func (p *Pager) GetPage(ctx context.Context, pageIdx PageIndex) (*Page, error) {
	if aPage, ok := p.cache.Get(pageIdx); ok {
		return aPage, nil
	}

	buf, err := p.readPage(pageIdx)
	if err != nil {
		return nil, err
	}

	aPage := NewPage(pageIdx, p.schema, buf)
	if evicted, ok := p.cache.Put(pageIdx, aPage); ok {
		p.logger.Debug("evicting page",
			zap.Uint32("page", uint32(evicted.Key)),
			zap.Uint32("num_rows", evicted.Value.NumRows))
		if err := p.writePage(evicted.Key, evicted.Value); err != nil {
			return nil, err
		}
	}

	return aPage, nil
}

// Modify gives the caller scoped mutable access to the page at pageIdx.
// The page is re-marked as most recently used on every exit path. If it
// was concurrently evicted (cannot happen under the single owner model,
// handled defensively) it is re-inserted into the cache.
func (p *Pager) Modify(ctx context.Context, pageIdx PageIndex, modify func(*Page) error) (err error) {
	aPage, getErr := p.GetPage(ctx, pageIdx)
	if getErr != nil {
		return getErr
	}

	defer func() {
		if p.cache.Touch(pageIdx) {
			return
		}
		if evicted, ok := p.cache.Put(pageIdx, aPage); ok {
			err = multierr.Append(err, p.writePage(evicted.Key, evicted.Value))
		}
	}()

	return modify(aPage)
}

// Flush writes every cached page back to disk without evicting any of
// them. Used for durability checkpoints without closing the pager.
func (p *Pager) Flush(ctx context.Context) error {
	var err error
	for _, item := range p.cache.Items() {
		err = multierr.Append(err, p.writePage(item.Key, item.Value))
	}
	if err != nil {
		return err
	}

	p.logger.Debug("flushed cached pages", zap.Int("pages", p.cache.Len()))

	return nil
}

// Close flushes all cached pages, syncs and closes the underlying file.
// The pager must not be used afterwards.
func (p *Pager) Close(ctx context.Context) error {
	return multierr.Combine(
		p.Flush(ctx),
		p.file.Sync(),
		p.file.Close(),
	)
}

func (p *Pager) readPage(pageIdx PageIndex) ([]byte, error) {
	buf := make([]byte, PageSize)
	n, err := p.file.ReadAt(buf, int64(pageIdx)*PageSize)
	if n == PageSize {
		return buf, nil
	}
	if n == 0 && (err == nil || err == io.EOF) {
		// Page does not exist on disk yet, hand out a zero-filled buffer
		return buf, nil
	}
	if err == io.EOF {
		return nil, fmt.Errorf("%w: page %d, read %d of %d bytes", ErrPartialPage, pageIdx, n, PageSize)
	}
	return nil, fmt.Errorf("error reading page %d: %w", pageIdx, err)
}

func (p *Pager) writePage(pageIdx PageIndex, aPage *Page) error {
	n, err := p.file.WriteAt(aPage.Marshal(), int64(pageIdx)*PageSize)
	if err != nil {
		return fmt.Errorf("error writing page %d: %w", pageIdx, err)
	}
	if n != PageSize {
		return fmt.Errorf("%w: page %d, wrote %d of %d bytes", ErrPartialWrite, pageIdx, n, PageSize)
	}
	return nil
}
