package storage

import (
	"encoding/binary"
	"fmt"
	"os"
)

// PageFileHeaderSize is the size in bytes of PageFileHeader as stored at
// byte 0 of every file: file_id(2) + num_pages(8) + first_free_page(4).
const PageFileHeaderSize = 2 + 8 + 4

// PageFileHeader is the fixed header stored at offset 0 of every page
// file, ahead of the page array.
type PageFileHeader struct {
	FileID        uint16
	NumPages      uint64
	FirstFreePage PageID
}

func (h PageFileHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], h.FileID)
	binary.LittleEndian.PutUint64(buf[2:10], h.NumPages)
	binary.LittleEndian.PutUint32(buf[10:14], uint32(h.FirstFreePage))
}

func decodePageFileHeader(buf []byte) PageFileHeader {
	return PageFileHeader{
		FileID:        binary.LittleEndian.Uint16(buf[0:2]),
		NumPages:      binary.LittleEndian.Uint64(buf[2:10]),
		FirstFreePage: PageID(binary.LittleEndian.Uint32(buf[10:14])),
	}
}

// rawFile adapts an *os.File into the PageStore interface the buffer
// pool reads from and writes back to, translating page slots into file
// offsets past the PageFileHeader.
type rawFile struct {
	f      *os.File
	stride int64 // PageHeaderSize + pageDataSize
}

func (r *rawFile) offset(slot uint16) int64 {
	return PageFileHeaderSize + int64(slot)*r.stride
}

func (r *rawFile) ReadPageAt(slot uint16, buf []byte) error {
	n, err := r.f.ReadAt(buf, r.offset(slot))
	if err != nil {
		return fmt.Errorf("pagefile: read slot %d: %w", slot, err)
	}
	if n != len(buf) {
		return ErrShortRead
	}
	return nil
}

func (r *rawFile) WritePageAt(slot uint16, buf []byte) error {
	n, err := r.f.WriteAt(buf, r.offset(slot))
	if err != nil {
		return fmt.Errorf("pagefile: write slot %d: %w", slot, err)
	}
	if n != len(buf) {
		return ErrShortWrite
	}
	return nil
}

// PageFile is the page file layer's handle on an open file: the
// two-level layout (file header + page array) plus the freelist of
// disposed pages threaded through each page's own PageHeader.NextFree.
type PageFile struct {
	raw           *rawFile
	bp            *BufferPool
	header        PageFileHeader
	headerChanged bool
}

// CreatePageFile creates a new file at path with a fresh PageFileHeader
// and zero pages.
func CreatePageFile(path string, fileID uint16, bp *BufferPool) (*PageFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: create %s: %w", path, err)
	}
	pf := &PageFile{
		raw:    &rawFile{f: f, stride: int64(PageHeaderSize + bp.pageDataSize)},
		bp:     bp,
		header: PageFileHeader{FileID: fileID},
	}
	if err := pf.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return pf, nil
}

// OpenPageFile opens an existing file and validates its header.
func OpenPageFile(path string, bp *BufferPool) (*PageFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: open %s: %w", path, err)
	}
	buf := make([]byte, PageFileHeaderSize)
	n, err := f.ReadAt(buf, 0)
	if err != nil || n != PageFileHeaderSize {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidHeader, path)
	}
	header := decodePageFileHeader(buf)
	return &PageFile{
		raw:    &rawFile{f: f, stride: int64(PageHeaderSize + bp.pageDataSize)},
		bp:     bp,
		header: header,
	}, nil
}

func (pf *PageFile) writeHeader() error {
	buf := make([]byte, PageFileHeaderSize)
	pf.header.encode(buf)
	if _, err := pf.raw.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("pagefile: write header: %w", err)
	}
	pf.headerChanged = false
	return nil
}

// FileID returns this file's identifier, as recorded in its header.
func (pf *PageFile) FileID() uint16 { return pf.header.FileID }

// NumPages returns the number of page slots ever allocated in this file.
func (pf *PageFile) NumPages() uint64 { return pf.header.NumPages }

// GetFirstPage returns the page id of this file's slot-0 page, the
// conventional home for a client (RM/IX) file-level header.
func (pf *PageFile) GetFirstPage() PageID {
	return NewPageID(pf.header.FileID, 0)
}

// PageFileStats reports page counts and freelist depth for diagnostics.
type PageFileStats struct {
	NumPages     uint64
	FreePages    int
	FirstFreePage PageID
}

// Stats walks the disposed-page freelist and reports its length
// alongside the file's total page count. Each freelist hop pins and
// unpins the page it visits.
func (pf *PageFile) Stats() (PageFileStats, error) {
	stats := PageFileStats{NumPages: pf.header.NumPages, FirstFreePage: pf.header.FirstFreePage}
	cur := pf.header.FirstFreePage
	for cur.Valid() {
		page, err := pf.bp.GetPage(cur, pf.raw)
		if err != nil {
			return stats, err
		}
		stats.FreePages++
		next := page.Header.NextFree
		if err := pf.bp.UnpinPage(cur); err != nil {
			return stats, err
		}
		cur = next
	}
	return stats, nil
}

// AllocatePage returns a new page, pinned and dirty: either popped from
// the disposed-page freelist (payload zeroed) or freshly appended to the
// file.
func (pf *PageFile) AllocatePage() (*Page, error) {
	if pf.header.FirstFreePage.Valid() {
		pageID := pf.header.FirstFreePage
		page, err := pf.bp.GetPage(pageID, pf.raw)
		if err != nil {
			return nil, err
		}
		pf.header.FirstFreePage = page.Header.NextFree
		pf.headerChanged = true
		page.Header.NextFree = 0
		for i := range page.Payload {
			page.Payload[i] = 0
		}
		if err := pf.bp.MarkDirty(pageID); err != nil {
			return nil, err
		}
		return page, nil
	}

	slot := uint16(pf.header.NumPages)
	pageID := NewPageID(pf.header.FileID, slot)
	pf.header.NumPages++
	pf.headerChanged = true

	page, err := pf.bp.AllocatePageFrame(pageID, pf.raw)
	if err != nil {
		return nil, err
	}
	page.Header = PageHeader{PageID: pageID}
	if err := pf.bp.MarkDirty(pageID); err != nil {
		return nil, err
	}
	return page, nil
}

// DisposePage returns pageID to the freelist. The page must not already
// be on the freelist (ErrDoubleDispose). Contents are left untouched.
func (pf *PageFile) DisposePage(pageID PageID) error {
	page, err := pf.bp.GetPage(pageID, pf.raw)
	if err != nil {
		return err
	}
	onFreelist := page.Header.NextFree != 0
	for cur := pf.header.FirstFreePage; !onFreelist && cur.Valid(); {
		if cur == pageID {
			onFreelist = true
			break
		}
		free, err := pf.bp.GetPage(cur, pf.raw)
		if err != nil {
			pf.bp.UnpinPage(pageID)
			return err
		}
		next := free.Header.NextFree
		pf.bp.UnpinPage(cur)
		cur = next
	}
	if onFreelist {
		pf.bp.UnpinPage(pageID)
		return ErrDoubleDispose
	}
	page.Header.NextFree = pf.header.FirstFreePage
	pf.header.FirstFreePage = pageID
	pf.headerChanged = true
	if err := pf.bp.MarkDirty(pageID); err != nil {
		return err
	}
	return pf.bp.UnpinPage(pageID)
}

// GetPage fetches and pins pageID.
func (pf *PageFile) GetPage(pageID PageID) (*Page, error) {
	return pf.bp.GetPage(pageID, pf.raw)
}

// UnpinPage unpins pageID.
func (pf *PageFile) UnpinPage(pageID PageID) error {
	return pf.bp.UnpinPage(pageID)
}

// MarkDirty marks pageID dirty.
func (pf *PageFile) MarkDirty(pageID PageID) error {
	return pf.bp.MarkDirty(pageID)
}

// UnpinDirtyPage marks pageID dirty and unpins it in one call.
func (pf *PageFile) UnpinDirtyPage(pageID PageID) error {
	if err := pf.bp.MarkDirty(pageID); err != nil {
		return err
	}
	return pf.bp.UnpinPage(pageID)
}

// Flush writes back every dirty unpinned page owned by this file.
func (pf *PageFile) Flush() error {
	return pf.bp.FlushFile(pf.raw)
}

// Close flushes dirty pages, persists the file header if it changed, and
// closes the underlying OS file.
func (pf *PageFile) Close() error {
	if err := pf.Flush(); err != nil {
		return err
	}
	if pf.headerChanged {
		if err := pf.writeHeader(); err != nil {
			return err
		}
	}
	return pf.raw.f.Close()
}
