// Package index implements a B+-tree index manager keyed by a typed
// attribute (INT, FLOAT, or fixed-length STRING), with duplicate keys
// routed into chained overflow buckets. Each tree lives in its own
// page file and uses the page file layer directly.
package index

import (
	"encoding/binary"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// NoMoreSlots terminates an occupied or free slot chain.
const NoMoreSlots uint16 = 0xFFFF

// BeginningOfSlot is the parent-side predecessor index meaning "this
// is the parent's first split target", used when a full root is split.
const BeginningOfSlot uint16 = 0xFFFE

// Entry kinds for a node's entry array.
const (
	EntryUnoccupied byte = 0
	EntryNew        byte = 1
	EntryDuplicate  byte = 2
)

// Node page layout: a 16-byte common header, then an entry array,
// then a key array, both of length max_keys.
const nodeHeaderSize = 16
const nodeEntryStride = 1 + 2 + 4 + 4 // kind, next_slot, target_page, target_slot

// Bucket page layout: a 10-byte header, then an entry array.
const bucketHeaderSize = 2 + 2 + 2 + 4 // num_keys, free_slot, first_slot, next_bucket
const bucketEntryStride = 2 + 4 + 4    // next_slot, target_page, target_slot

// IndexFileHeaderSize is the encoded size of IndexFileHeader.
const IndexFileHeaderSize = 1 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 8

// IndexFileHeader is stored whole in the payload of the file's page 0.
type IndexFileHeader struct {
	AttrType          AttrType
	AttrLength        uint32
	RootPage          storage.PageID
	KeysOffset        uint32
	NodeEntriesOffset uint32
	BucketEntriesOffset uint32
	MaxKeys           uint32
	MaxNodeEntries    uint32
	MaxBucketEntries  uint32
	NumEntries        uint64
}

func (h IndexFileHeader) encode(buf []byte) {
	buf[0] = byte(h.AttrType)
	binary.LittleEndian.PutUint32(buf[1:5], h.AttrLength)
	binary.LittleEndian.PutUint32(buf[5:9], uint32(h.RootPage))
	binary.LittleEndian.PutUint32(buf[9:13], h.KeysOffset)
	binary.LittleEndian.PutUint32(buf[13:17], h.NodeEntriesOffset)
	binary.LittleEndian.PutUint32(buf[17:21], h.BucketEntriesOffset)
	binary.LittleEndian.PutUint32(buf[21:25], h.MaxKeys)
	binary.LittleEndian.PutUint32(buf[25:29], h.MaxNodeEntries)
	binary.LittleEndian.PutUint32(buf[29:33], h.MaxBucketEntries)
	binary.LittleEndian.PutUint64(buf[33:41], h.NumEntries)
}

func decodeIndexFileHeader(buf []byte) IndexFileHeader {
	return IndexFileHeader{
		AttrType:            AttrType(buf[0]),
		AttrLength:          binary.LittleEndian.Uint32(buf[1:5]),
		RootPage:            storage.PageID(binary.LittleEndian.Uint32(buf[5:9])),
		KeysOffset:          binary.LittleEndian.Uint32(buf[9:13]),
		NodeEntriesOffset:   binary.LittleEndian.Uint32(buf[13:17]),
		BucketEntriesOffset: binary.LittleEndian.Uint32(buf[17:21]),
		MaxKeys:             binary.LittleEndian.Uint32(buf[21:25]),
		MaxNodeEntries:      binary.LittleEndian.Uint32(buf[25:29]),
		MaxBucketEntries:    binary.LittleEndian.Uint32(buf[29:33]),
		NumEntries:          binary.LittleEndian.Uint64(buf[33:41]),
	}
}

// RID identifies a record this index entry points at.
type RID struct {
	PageID storage.PageID
	Slot   uint32
}
