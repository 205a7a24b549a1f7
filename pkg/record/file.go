package record

import (
	"fmt"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// File is an open fixed-size record file: a page file whose slot-0
// page holds a RecordFileHeader and whose remaining pages hold
// bitmap-packed records.
type File struct {
	pf            *storage.PageFile
	header        RecordFileHeader
	headerChanged bool
}

// CreateFile creates a new record file backed by a fresh page file,
// computing and storing the derived per-page layout constants for
// recordSize.
func CreateFile(path string, fileID uint16, recordSize uint32, bp *storage.BufferPool) (*File, error) {
	pf, err := storage.CreatePageFile(path, fileID, bp)
	if err != nil {
		return nil, err
	}
	recordsPerPage, bitmapSize := deriveLayout(bp.PageDataSize(), recordSize)
	if recordsPerPage == 0 {
		pf.Close()
		return nil, ErrRecordSizeTooLarge
	}

	f := &File{
		pf: pf,
		header: RecordFileHeader{
			RecordSize:     recordSize,
			RecordsPerPage: recordsPerPage,
			BitmapSize:     bitmapSize,
			BitmapOffset:   RecordPageHeaderSize,
			RecordsOffset:  RecordPageHeaderSize + bitmapSize,
			FreePageHead:   0,
		},
	}

	headerPage, err := pf.AllocatePage() // slot 0
	if err != nil {
		pf.Close()
		return nil, err
	}
	f.header.encode(headerPage.Payload[:RecordFileHeaderSize])
	if err := pf.UnpinDirtyPage(headerPage.Header.PageID); err != nil {
		pf.Close()
		return nil, err
	}
	if err := f.writeHeader(); err != nil {
		pf.Close()
		return nil, err
	}
	return f, nil
}

// OpenFile opens an existing record file and reads its header from
// page 0.
func OpenFile(path string, bp *storage.BufferPool) (*File, error) {
	pf, err := storage.OpenPageFile(path, bp)
	if err != nil {
		return nil, err
	}
	headerPage, err := pf.GetPage(pf.GetFirstPage())
	if err != nil {
		pf.Close()
		return nil, err
	}
	header := decodeRecordFileHeader(headerPage.Payload[:RecordFileHeaderSize])
	if err := pf.UnpinPage(headerPage.Header.PageID); err != nil {
		pf.Close()
		return nil, err
	}
	return &File{pf: pf, header: header}, nil
}

func (f *File) writeHeader() error {
	headerPage, err := f.pf.GetPage(f.pf.GetFirstPage())
	if err != nil {
		return err
	}
	f.header.encode(headerPage.Payload[:RecordFileHeaderSize])
	f.headerChanged = false
	return f.pf.UnpinDirtyPage(headerPage.Header.PageID)
}

// Close flushes dirty pages and persists the record-file header if it
// changed, then closes the underlying page file.
func (f *File) Close() error {
	if f.headerChanged {
		if err := f.writeHeader(); err != nil {
			return err
		}
	}
	return f.pf.Close()
}

// RecordSize returns the fixed size, in bytes, of every record in
// this file.
func (f *File) RecordSize() uint32 { return f.header.RecordSize }

// RecordsPerPage returns the derived capacity of a single data page.
func (f *File) RecordsPerPage() uint32 { return f.header.RecordsPerPage }

func (f *File) bitmapOf(payload []byte) []byte {
	return payload[f.header.BitmapOffset : f.header.BitmapOffset+f.header.BitmapSize]
}

func (f *File) recordSlot(payload []byte, slot uint32) []byte {
	start := f.header.RecordsOffset + slot*f.header.RecordSize
	return payload[start : start+f.header.RecordSize]
}

// newDataPage allocates a page, seeds an empty RecordPageHeader and
// zero bitmap, and links it at the head of the free-page chain.
func (f *File) newDataPage() (*storage.Page, error) {
	page, err := f.pf.AllocatePage()
	if err != nil {
		return nil, err
	}
	ph := RecordPageHeader{NumRecords: 0, NextFreePage: 0}
	ph.encode(page.Payload[:RecordPageHeaderSize])
	pageID := page.Header.PageID
	f.header.FreePageHead = pageID
	f.headerChanged = true
	if err := f.pf.UnpinDirtyPage(pageID); err != nil {
		return nil, err
	}
	return page, nil
}

// InsertRecord copies data (which must be exactly RecordSize() bytes)
// into the first free slot found by walking the free-page chain,
// returning the RID it was stored at.
func (f *File) InsertRecord(data []byte) (RID, error) {
	if uint32(len(data)) != f.header.RecordSize {
		return RID{}, ErrRecordSizeMismatch
	}

	if f.header.FreePageHead == 0 {
		if _, err := f.newDataPage(); err != nil {
			return RID{}, err
		}
	}

	for {
		pageID := f.header.FreePageHead
		page, err := f.pf.GetPage(pageID)
		if err != nil {
			return RID{}, err
		}
		ph := decodeRecordPageHeader(page.Payload[:RecordPageHeaderSize])
		bitmap := f.bitmapOf(page.Payload)

		slot, ok := findFreeSlot(bitmap, f.header.RecordsPerPage)
		if !ok {
			// Invariant violation: a page on the free-page chain with no
			// free slot. Unlink it and keep looking.
			f.header.FreePageHead = ph.NextFreePage
			f.headerChanged = true
			if err := f.pf.UnpinPage(pageID); err != nil {
				return RID{}, err
			}
			if f.header.FreePageHead == 0 {
				if _, err := f.newDataPage(); err != nil {
					return RID{}, err
				}
			}
			continue
		}

		setBit(bitmap, slot)
		copy(f.recordSlot(page.Payload, slot), data)
		ph.NumRecords++
		if ph.NumRecords == f.header.RecordsPerPage {
			// Now full: unlink it from the head of the free-page chain.
			f.header.FreePageHead = ph.NextFreePage
			f.headerChanged = true
			ph.NextFreePage = 0
		}
		ph.encode(page.Payload[:RecordPageHeaderSize])

		if err := f.pf.UnpinDirtyPage(pageID); err != nil {
			return RID{}, err
		}
		return RID{PageID: pageID, Slot: slot}, nil
	}
}

func (f *File) validateSlot(slot uint32) error {
	if slot >= f.header.RecordsPerPage {
		return ErrInvalidRID
	}
	return nil
}

// GetRecord returns a copy of the bytes stored at rid.
func (f *File) GetRecord(rid RID) ([]byte, error) {
	if err := f.validateSlot(rid.Slot); err != nil {
		return nil, err
	}
	page, err := f.pf.GetPage(rid.PageID)
	if err != nil {
		return nil, err
	}
	defer f.pf.UnpinPage(rid.PageID)

	bitmap := f.bitmapOf(page.Payload)
	if !bitSet(bitmap, rid.Slot) {
		return nil, ErrNotFound
	}
	out := make([]byte, f.header.RecordSize)
	copy(out, f.recordSlot(page.Payload, rid.Slot))
	return out, nil
}

// UpdateRecord overwrites the bytes stored at rid. The slot must
// already be occupied.
func (f *File) UpdateRecord(rid RID, data []byte) error {
	if uint32(len(data)) != f.header.RecordSize {
		return ErrRecordSizeMismatch
	}
	if err := f.validateSlot(rid.Slot); err != nil {
		return err
	}
	page, err := f.pf.GetPage(rid.PageID)
	if err != nil {
		return err
	}

	bitmap := f.bitmapOf(page.Payload)
	if !bitSet(bitmap, rid.Slot) {
		f.pf.UnpinPage(rid.PageID)
		return ErrNotFound
	}
	copy(f.recordSlot(page.Payload, rid.Slot), data)
	return f.pf.UnpinDirtyPage(rid.PageID)
}

// DeleteRecord clears the slot at rid. If the page was previously
// full (not on the free-page chain), it is relinked at the chain
// head. The page itself is never disposed, even if it becomes empty.
func (f *File) DeleteRecord(rid RID) error {
	if err := f.validateSlot(rid.Slot); err != nil {
		return err
	}
	page, err := f.pf.GetPage(rid.PageID)
	if err != nil {
		return err
	}

	ph := decodeRecordPageHeader(page.Payload[:RecordPageHeaderSize])
	bitmap := f.bitmapOf(page.Payload)
	if !bitSet(bitmap, rid.Slot) {
		f.pf.UnpinPage(rid.PageID)
		return ErrNotFound
	}

	wasFull := ph.NumRecords == f.header.RecordsPerPage

	clearBit(bitmap, rid.Slot)
	record := f.recordSlot(page.Payload, rid.Slot)
	for i := range record {
		record[i] = 0
	}
	ph.NumRecords--

	if wasFull {
		ph.NextFreePage = f.header.FreePageHead
		f.header.FreePageHead = rid.PageID
		f.headerChanged = true
	}
	ph.encode(page.Payload[:RecordPageHeaderSize])

	return f.pf.UnpinDirtyPage(rid.PageID)
}

// FileStats reports page and free-chain occupancy for diagnostics.
type FileStats struct {
	DataPages      uint64
	FreeChainPages int
	FreeChainSlots uint32
}

// Stats walks the free-page chain and reports its depth and total
// occupancy alongside the file's overall data-page count (excluding
// the header page at slot 0).
func (f *File) Stats() (FileStats, error) {
	stats := FileStats{DataPages: f.pf.NumPages() - 1}
	cur := f.header.FreePageHead
	for cur.Valid() {
		page, err := f.pf.GetPage(cur)
		if err != nil {
			return stats, err
		}
		ph := decodeRecordPageHeader(page.Payload[:RecordPageHeaderSize])
		stats.FreeChainPages++
		stats.FreeChainSlots += f.header.RecordsPerPage - ph.NumRecords
		next := ph.NextFreePage
		if err := f.pf.UnpinPage(cur); err != nil {
			return stats, err
		}
		cur = next
	}
	return stats, nil
}

// NumRecordsOnPage returns the occupancy count recorded in pageID's
// header, mainly for tests asserting the popcount invariant.
func (f *File) NumRecordsOnPage(pageID storage.PageID) (uint32, error) {
	page, err := f.pf.GetPage(pageID)
	if err != nil {
		return 0, fmt.Errorf("record: inspect page %v: %w", pageID, err)
	}
	defer f.pf.UnpinPage(pageID)
	ph := decodeRecordPageHeader(page.Payload[:RecordPageHeaderSize])
	return ph.NumRecords, nil
}
