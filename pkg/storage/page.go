// Package storage implements the buffer pool and page file layers: a
// fixed-size page cache with LRU replacement and pin/unpin discipline,
// and the on-disk layout of a page file (header + page array + freelist).
package storage

import "encoding/binary"

const (
	// PageHeaderSize is the size in bytes of the PageHeader every page
	// in any file begins with.
	PageHeaderSize = 8

	// DefaultPageDataSize is the default payload size of a page,
	// excluding PageHeaderSize.
	DefaultPageDataSize = 4096
)

// PageID is a page identifier: 32 bits partitioned as file_id:16 | slot:16.
// PageID 0 is reserved to mean "none" (an end-of-list sentinel); slot 0
// identifies a file's header page.
type PageID uint32

// NewPageID packs a file id and slot into a PageID.
func NewPageID(fileID uint16, slot uint16) PageID {
	return PageID(uint32(fileID)<<16 | uint32(slot))
}

// FileID returns the file_id component of a PageID.
func (id PageID) FileID() uint16 { return uint16(id >> 16) }

// Slot returns the slot component of a PageID.
func (id PageID) Slot() uint16 { return uint16(id) }

// Valid reports whether the id is not the "none" sentinel.
func (id PageID) Valid() bool { return id != 0 }

// PageHeader is the fixed prefix of every page in every file.
type PageHeader struct {
	PageID   PageID // this page's own identifier
	NextFree PageID // next entry in PF's disposed-page freelist, or 0
}

// Encode writes the header to the first PageHeaderSize bytes of buf.
func (h PageHeader) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.PageID))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.NextFree))
}

// DecodePageHeader reads a PageHeader from the first PageHeaderSize
// bytes of buf.
func DecodePageHeader(buf []byte) PageHeader {
	return PageHeader{
		PageID:   PageID(binary.LittleEndian.Uint32(buf[0:4])),
		NextFree: PageID(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// Page is a single in-memory page: its header plus its payload bytes.
// The payload slice aliases the owning buffer frame's data and is only
// valid while the page remains pinned.
type Page struct {
	Header  PageHeader
	Payload []byte
}
