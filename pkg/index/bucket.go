package index

import (
	"encoding/binary"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// bucket is a borrow-scoped view over a pinned overflow-bucket page:
// duplicate rids for a single key, chained across pages when one
// bucket fills.
type bucket struct {
	f    *File
	page *storage.Page
}

func (b *bucket) pageID() storage.PageID { return b.page.Header.PageID }

func (b *bucket) numKeys() uint16 { return binary.LittleEndian.Uint16(b.page.Payload[0:2]) }
func (b *bucket) setNumKeys(v uint16) {
	binary.LittleEndian.PutUint16(b.page.Payload[0:2], v)
}
func (b *bucket) freeSlot() uint16 { return binary.LittleEndian.Uint16(b.page.Payload[2:4]) }
func (b *bucket) setFreeSlot(v uint16) {
	binary.LittleEndian.PutUint16(b.page.Payload[2:4], v)
}
func (b *bucket) firstSlot() uint16 { return binary.LittleEndian.Uint16(b.page.Payload[4:6]) }
func (b *bucket) setFirstSlot(v uint16) {
	binary.LittleEndian.PutUint16(b.page.Payload[4:6], v)
}
func (b *bucket) nextBucket() storage.PageID {
	return storage.PageID(binary.LittleEndian.Uint32(b.page.Payload[6:10]))
}
func (b *bucket) setNextBucket(v storage.PageID) {
	binary.LittleEndian.PutUint32(b.page.Payload[6:10], uint32(v))
}

func (b *bucket) entryOffset(slot uint16) uint32 {
	return b.f.header.BucketEntriesOffset + uint32(slot)*bucketEntryStride
}

func (b *bucket) entryNextSlot(slot uint16) uint16 {
	off := b.entryOffset(slot)
	return binary.LittleEndian.Uint16(b.page.Payload[off : off+2])
}
func (b *bucket) setEntryNextSlot(slot, next uint16) {
	off := b.entryOffset(slot)
	binary.LittleEndian.PutUint16(b.page.Payload[off:off+2], next)
}

func (b *bucket) entryTarget(slot uint16) (storage.PageID, uint32) {
	off := b.entryOffset(slot) + 2
	page := storage.PageID(binary.LittleEndian.Uint32(b.page.Payload[off : off+4]))
	tslot := binary.LittleEndian.Uint32(b.page.Payload[off+4 : off+8])
	return page, tslot
}
func (b *bucket) setEntryTarget(slot uint16, page storage.PageID, tslot uint32) {
	off := b.entryOffset(slot) + 2
	binary.LittleEndian.PutUint32(b.page.Payload[off:off+4], uint32(page))
	binary.LittleEndian.PutUint32(b.page.Payload[off+4:off+8], tslot)
}

func (b *bucket) initEmpty() {
	b.setNumKeys(0)
	b.setFirstSlot(NoMoreSlots)
	b.setFreeSlot(0)
	b.setNextBucket(0)
	maxEntries := uint16(b.f.header.MaxBucketEntries)
	for slot := uint16(0); slot < maxEntries; slot++ {
		if slot+1 < maxEntries {
			b.setEntryNextSlot(slot, slot+1)
		} else {
			b.setEntryNextSlot(slot, NoMoreSlots)
		}
	}
}

func (b *bucket) full() bool { return b.numKeys() == uint16(b.f.header.MaxBucketEntries) }

func (b *bucket) insert(rid RID) {
	slot := b.freeSlot()
	b.setFreeSlot(b.entryNextSlot(slot))
	b.setEntryTarget(slot, rid.PageID, rid.Slot)
	b.setEntryNextSlot(slot, b.firstSlot())
	b.setFirstSlot(slot)
	b.setNumKeys(b.numKeys() + 1)
}

// rids returns every rid currently stored in this bucket page (not
// following next_bucket).
func (b *bucket) rids() []RID {
	out := make([]RID, 0, b.numKeys())
	for slot := b.firstSlot(); slot != NoMoreSlots; slot = b.entryNextSlot(slot) {
		page, tslot := b.entryTarget(slot)
		out = append(out, RID{PageID: page, Slot: tslot})
	}
	return out
}

// remove deletes the first entry matching rid, reporting whether one
// was found.
func (b *bucket) remove(rid RID) bool {
	pred := NoMoreSlots
	for slot := b.firstSlot(); slot != NoMoreSlots; slot = b.entryNextSlot(slot) {
		page, tslot := b.entryTarget(slot)
		if page == rid.PageID && tslot == rid.Slot {
			if pred == NoMoreSlots {
				b.setFirstSlot(b.entryNextSlot(slot))
			} else {
				b.setEntryNextSlot(pred, b.entryNextSlot(slot))
			}
			b.setEntryNextSlot(slot, b.freeSlot())
			b.setFreeSlot(slot)
			b.setNumKeys(b.numKeys() - 1)
			return true
		}
		pred = slot
	}
	return false
}
