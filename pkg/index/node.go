package index

import (
	"encoding/binary"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// node is a borrow-scoped view over a pinned index node page: the
// common header, the entries[max_keys] array, and the keys[max_keys]
// array, all addressed directly in the frame's payload bytes.
type node struct {
	f    *File
	page *storage.Page
}

func (n *node) pageID() storage.PageID { return n.page.Header.PageID }

func (n *node) isLeaf() bool      { return n.page.Payload[0] != 0 }
func (n *node) setLeaf(v bool)    { n.page.Payload[0] = boolByte(v) }
func (n *node) isEmpty() bool     { return n.page.Payload[1] != 0 }
func (n *node) setEmpty(v bool)   { n.page.Payload[1] = boolByte(v) }
func (n *node) numKeys() uint16   { return binary.LittleEndian.Uint16(n.page.Payload[2:4]) }
func (n *node) setNumKeys(v uint16) {
	binary.LittleEndian.PutUint16(n.page.Payload[2:4], v)
}
func (n *node) freeSlot() uint16 { return binary.LittleEndian.Uint16(n.page.Payload[4:6]) }
func (n *node) setFreeSlot(v uint16) {
	binary.LittleEndian.PutUint16(n.page.Payload[4:6], v)
}
func (n *node) firstSlot() uint16 { return binary.LittleEndian.Uint16(n.page.Payload[6:8]) }
func (n *node) setFirstSlot(v uint16) {
	binary.LittleEndian.PutUint16(n.page.Payload[6:8], v)
}

// extra1 is first_child for internal nodes, prev_page for leaves.
func (n *node) extra1() storage.PageID {
	return storage.PageID(binary.LittleEndian.Uint32(n.page.Payload[8:12]))
}
func (n *node) setExtra1(v storage.PageID) {
	binary.LittleEndian.PutUint32(n.page.Payload[8:12], uint32(v))
}

// extra2 is unused for internal nodes, next_page for leaves.
func (n *node) extra2() storage.PageID {
	return storage.PageID(binary.LittleEndian.Uint32(n.page.Payload[12:16]))
}
func (n *node) setExtra2(v storage.PageID) {
	binary.LittleEndian.PutUint32(n.page.Payload[12:16], uint32(v))
}

func (n *node) firstChild() storage.PageID     { return n.extra1() }
func (n *node) setFirstChild(v storage.PageID) { n.setExtra1(v) }
func (n *node) prevPage() storage.PageID       { return n.extra1() }
func (n *node) setPrevPage(v storage.PageID)   { n.setExtra1(v) }
func (n *node) nextPage() storage.PageID       { return n.extra2() }
func (n *node) setNextPage(v storage.PageID)   { n.setExtra2(v) }

func (n *node) entryOffset(slot uint16) uint32 {
	return n.f.header.NodeEntriesOffset + uint32(slot)*nodeEntryStride
}

func (n *node) keyOffset(slot uint16) uint32 {
	return n.f.header.KeysOffset + uint32(slot)*n.f.header.AttrLength
}

func (n *node) entryKind(slot uint16) byte {
	return n.page.Payload[n.entryOffset(slot)]
}
func (n *node) setEntryKind(slot uint16, kind byte) {
	n.page.Payload[n.entryOffset(slot)] = kind
}

func (n *node) entryNextSlot(slot uint16) uint16 {
	off := n.entryOffset(slot) + 1
	return binary.LittleEndian.Uint16(n.page.Payload[off : off+2])
}
func (n *node) setEntryNextSlot(slot uint16, next uint16) {
	off := n.entryOffset(slot) + 1
	binary.LittleEndian.PutUint16(n.page.Payload[off:off+2], next)
}

func (n *node) entryTarget(slot uint16) (storage.PageID, uint32) {
	off := n.entryOffset(slot) + 3
	page := storage.PageID(binary.LittleEndian.Uint32(n.page.Payload[off : off+4]))
	tslot := binary.LittleEndian.Uint32(n.page.Payload[off+4 : off+8])
	return page, tslot
}
func (n *node) setEntryTarget(slot uint16, page storage.PageID, tslot uint32) {
	off := n.entryOffset(slot) + 3
	binary.LittleEndian.PutUint32(n.page.Payload[off:off+4], uint32(page))
	binary.LittleEndian.PutUint32(n.page.Payload[off+4:off+8], tslot)
}

func (n *node) keyBytes(slot uint16) []byte {
	off := n.keyOffset(slot)
	return n.page.Payload[off : off+n.f.header.AttrLength]
}
func (n *node) setKeyBytes(slot uint16, key []byte) {
	copy(n.keyBytes(slot), key)
}

// initEmpty formats a freshly allocated page as an empty node: every
// slot threaded onto the free chain in ascending order, occupied chain
// empty.
func (n *node) initEmpty(leaf bool) {
	n.setLeaf(leaf)
	n.setEmpty(true)
	n.setNumKeys(0)
	n.setFirstSlot(NoMoreSlots)
	n.setFreeSlot(0)
	n.setExtra1(0)
	n.setExtra2(0)
	maxKeys := uint16(n.f.header.MaxKeys)
	for slot := uint16(0); slot < maxKeys; slot++ {
		n.setEntryKind(slot, EntryUnoccupied)
		if slot+1 < maxKeys {
			n.setEntryNextSlot(slot, slot+1)
		} else {
			n.setEntryNextSlot(slot, NoMoreSlots)
		}
	}
}

// allocSlot pops the head of the free chain, returning it uninitialized
// save for the kind field.
func (n *node) allocSlot() uint16 {
	slot := n.freeSlot()
	n.setFreeSlot(n.entryNextSlot(slot))
	return slot
}

func (n *node) freeSlotIndex(slot uint16) {
	n.setEntryKind(slot, EntryUnoccupied)
	n.setEntryNextSlot(slot, n.freeSlot())
	n.setFreeSlot(slot)
}

// orderedSlots walks the first_slot chain, returning slots in
// ascending key order.
func (n *node) orderedSlots() []uint16 {
	out := make([]uint16, 0, n.numKeys())
	for slot := n.firstSlot(); slot != NoMoreSlots; slot = n.entryNextSlot(slot) {
		out = append(out, slot)
	}
	return out
}

// locate finds, among the occupied chain, the last slot whose key is
// <= key (pred, or NoMoreSlots if key is less than every key present)
// and whether that slot's key equals key exactly.
func (n *node) locate(key []byte) (pred uint16, matched bool) {
	pred = NoMoreSlots
	for _, slot := range n.orderedSlots() {
		cmp := compareKeys(n.f.header.AttrType, n.keyBytes(slot), key)
		if cmp > 0 {
			break
		}
		pred = slot
		if cmp == 0 {
			matched = true
		} else {
			matched = false
		}
	}
	return pred, matched
}

// insertAfter splices a newly allocated, already-keyed slot into the
// occupied chain immediately after pred (NoMoreSlots means "at head").
func (n *node) insertAfter(pred, slot uint16) {
	if pred == NoMoreSlots {
		n.setEntryNextSlot(slot, n.firstSlot())
		n.setFirstSlot(slot)
		return
	}
	n.setEntryNextSlot(slot, n.entryNextSlot(pred))
	n.setEntryNextSlot(pred, slot)
}

// unlinkAfter removes the occupied-chain successor of pred (NoMoreSlots
// meaning "remove the head") and returns the removed slot.
func (n *node) unlinkAfter(pred uint16) uint16 {
	var removed uint16
	if pred == NoMoreSlots {
		removed = n.firstSlot()
		n.setFirstSlot(n.entryNextSlot(removed))
	} else {
		removed = n.entryNextSlot(pred)
		n.setEntryNextSlot(pred, n.entryNextSlot(removed))
	}
	return removed
}

// predecessorOf returns the occupied-chain predecessor of slot, or
// NoMoreSlots if slot is the chain head.
func (n *node) predecessorOf(slot uint16) uint16 {
	prev := NoMoreSlots
	for s := n.firstSlot(); s != NoMoreSlots; s = n.entryNextSlot(s) {
		if s == slot {
			return prev
		}
		prev = s
	}
	return NoMoreSlots
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
