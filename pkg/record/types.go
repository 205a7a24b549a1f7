// Package record implements the fixed-size record manager: packing
// same-sized records into pages via a per-page occupancy bitmap, and
// threading pages with free slots onto a per-file freelist.
package record

import (
	"encoding/binary"
	"math/bits"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// RecordFileHeaderSize is the encoded size of RecordFileHeader: five
// u32 derived constants, a u64 page count, and the free-page chain
// head.
const RecordFileHeaderSize = 4*5 + 8 + 4

// RecordFileHeader is stored whole in the payload of the file's page
// 0; that page holds no records of its own.
type RecordFileHeader struct {
	RecordSize     uint32
	RecordsPerPage uint32
	BitmapSize     uint32
	BitmapOffset   uint32
	RecordsOffset  uint32
	NumPages       uint64
	FreePageHead   storage.PageID // head of the "pages with free space" chain
}

func (h RecordFileHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.RecordSize)
	binary.LittleEndian.PutUint32(buf[4:8], h.RecordsPerPage)
	binary.LittleEndian.PutUint32(buf[8:12], h.BitmapSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.BitmapOffset)
	binary.LittleEndian.PutUint32(buf[16:20], h.RecordsOffset)
	binary.LittleEndian.PutUint64(buf[20:28], h.NumPages)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(h.FreePageHead))
}

func decodeRecordFileHeader(buf []byte) RecordFileHeader {
	return RecordFileHeader{
		RecordSize:     binary.LittleEndian.Uint32(buf[0:4]),
		RecordsPerPage: binary.LittleEndian.Uint32(buf[4:8]),
		BitmapSize:     binary.LittleEndian.Uint32(buf[8:12]),
		BitmapOffset:   binary.LittleEndian.Uint32(buf[12:16]),
		RecordsOffset:  binary.LittleEndian.Uint32(buf[16:20]),
		NumPages:       binary.LittleEndian.Uint64(buf[20:28]),
		FreePageHead:   storage.PageID(binary.LittleEndian.Uint32(buf[28:32])),
	}
}

// RecordPageHeaderSize is the encoded size of RecordPageHeader.
const RecordPageHeaderSize = 4 + 4

// RecordPageHeader sits at payload offset 0 of every data page,
// ahead of the bitmap and the record slots.
type RecordPageHeader struct {
	NumRecords   uint32
	NextFreePage storage.PageID
}

func (h RecordPageHeader) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.NumRecords)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.NextFreePage))
}

func decodeRecordPageHeader(buf []byte) RecordPageHeader {
	return RecordPageHeader{
		NumRecords:   binary.LittleEndian.Uint32(buf[0:4]),
		NextFreePage: storage.PageID(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// RID identifies a record by the page it lives on and its slot index
// within that page's bitmap.
type RID struct {
	PageID storage.PageID
	Slot   uint32
}

// bitSet reports whether bit i (MSB-first within its byte) is set.
func bitSet(bitmap []byte, i uint32) bool {
	return bitmap[i/8]&(1<<(7-i%8)) != 0
}

func setBit(bitmap []byte, i uint32) {
	bitmap[i/8] |= 1 << (7 - i%8)
}

func clearBit(bitmap []byte, i uint32) {
	bitmap[i/8] &^= 1 << (7 - i%8)
}

// findFreeSlot scans bitmap bytes in ascending index order and, within
// a byte, from MSB to LSB, returning the first unset bit index below n.
func findFreeSlot(bitmap []byte, n uint32) (uint32, bool) {
	for i := uint32(0); i < n; i++ {
		if !bitSet(bitmap, i) {
			return i, true
		}
	}
	return 0, false
}

// popcount returns the number of set bits across the first n slots of
// bitmap, used to check the num_records == popcount(bitmap) invariant.
func popcount(bitmap []byte, n uint32) uint32 {
	full := n / 8
	var count uint32
	for i := uint32(0); i < full; i++ {
		count += uint32(bits.OnesCount8(bitmap[i]))
	}
	if rem := n % 8; rem > 0 {
		mask := byte(0xFF << (8 - rem))
		count += uint32(bits.OnesCount8(bitmap[full] & mask))
	}
	return count
}

// deriveLayout computes records_per_page and bitmap_size for a page
// with the given payload capacity, per records_per_page =
// floor(8*usable / (8*record_size + 1)), where usable is the payload
// minus RecordPageHeaderSize.
func deriveLayout(payloadSize uint32, recordSize uint32) (recordsPerPage, bitmapSize uint32) {
	usable := int64(payloadSize) - RecordPageHeaderSize
	if usable <= 0 {
		return 0, 0
	}
	recordsPerPage = uint32((8 * usable) / int64(8*recordSize+1))
	bitmapSize = (recordsPerPage + 7) / 8
	return recordsPerPage, bitmapSize
}
