package index

import (
	"github.com/google/uuid"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// File is an open B+-tree index: a page file whose slot-0 page holds
// an IndexFileHeader, whose root and internal pages are typed-key
// nodes, and whose overflow pages are duplicate-key buckets.
type File struct {
	pf            *storage.PageFile
	header        IndexFileHeader
	headerChanged bool

	// bucketDupIDs tags every bucket page allocated this session with a
	// diagnostic token, letting a caller trace which allocation produced
	// a given overflow page across compaction. Never persisted and
	// never consulted by the insert/delete/find algorithms themselves.
	bucketDupIDs map[storage.PageID]uuid.UUID
}

// CreateFile creates a new index file over attrType/attrLength keys,
// computing max_keys/max_bucket_entries for the pool's page size and
// seeding an empty leaf as the root.
func CreateFile(path string, fileID uint16, attrType AttrType, attrLength uint32, bp *storage.BufferPool) (*File, error) {
	if err := ValidateAttr(attrType, attrLength); err != nil {
		return nil, err
	}
	pf, err := storage.CreatePageFile(path, fileID, bp)
	if err != nil {
		return nil, err
	}

	payload := bp.PageDataSize()
	maxKeys := (payload - nodeHeaderSize) / (nodeEntryStride + attrLength)
	maxBucketEntries := (payload - bucketHeaderSize) / bucketEntryStride

	f := &File{
		pf: pf,
		header: IndexFileHeader{
			AttrType:            attrType,
			AttrLength:          attrLength,
			KeysOffset:          nodeHeaderSize + maxKeys*nodeEntryStride,
			NodeEntriesOffset:   nodeHeaderSize,
			BucketEntriesOffset: bucketHeaderSize,
			MaxKeys:             maxKeys,
			MaxNodeEntries:      maxKeys,
			MaxBucketEntries:    maxBucketEntries,
		},
		bucketDupIDs: make(map[storage.PageID]uuid.UUID),
	}

	headerPage, err := pf.AllocatePage() // slot 0
	if err != nil {
		pf.Close()
		return nil, err
	}
	if err := pf.UnpinDirtyPage(headerPage.Header.PageID); err != nil {
		pf.Close()
		return nil, err
	}

	root, err := f.allocNode(true)
	if err != nil {
		pf.Close()
		return nil, err
	}
	f.header.RootPage = root.pageID()
	if err := f.putNode(root, true); err != nil {
		pf.Close()
		return nil, err
	}
	if err := f.writeHeader(); err != nil {
		pf.Close()
		return nil, err
	}
	return f, nil
}

// OpenFile opens an existing index file and reads its header from
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
	header := decodeIndexFileHeader(headerPage.Payload[:IndexFileHeaderSize])
	if err := pf.UnpinPage(headerPage.Header.PageID); err != nil {
		pf.Close()
		return nil, err
	}
	return &File{pf: pf, header: header, bucketDupIDs: make(map[storage.PageID]uuid.UUID)}, nil
}

func (f *File) writeHeader() error {
	headerPage, err := f.pf.GetPage(f.pf.GetFirstPage())
	if err != nil {
		return err
	}
	f.header.encode(headerPage.Payload[:IndexFileHeaderSize])
	f.headerChanged = false
	return f.pf.UnpinDirtyPage(headerPage.Header.PageID)
}

// Close flushes dirty pages and persists the index-file header if it
// changed, then closes the underlying page file.
func (f *File) Close() error {
	if f.headerChanged {
		if err := f.writeHeader(); err != nil {
			return err
		}
	}
	return f.pf.Close()
}

// AttrType returns the type of key this tree is built over.
func (f *File) AttrType() AttrType { return f.header.AttrType }

// AttrLength returns the fixed encoded width, in bytes, of a key.
func (f *File) AttrLength() uint32 { return f.header.AttrLength }

// MaxKeys returns the derived per-node key capacity.
func (f *File) MaxKeys() uint32 { return f.header.MaxKeys }

// RootPage returns the page id currently holding the tree root.
func (f *File) RootPage() storage.PageID { return f.header.RootPage }

func (f *File) getNode(pageID storage.PageID) (*node, error) {
	page, err := f.pf.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return &node{f: f, page: page}, nil
}

func (f *File) putNode(n *node, dirty bool) error {
	if dirty {
		return f.pf.UnpinDirtyPage(n.pageID())
	}
	return f.pf.UnpinPage(n.pageID())
}

func (f *File) allocNode(leaf bool) (*node, error) {
	page, err := f.pf.AllocatePage()
	if err != nil {
		return nil, err
	}
	n := &node{f: f, page: page}
	n.initEmpty(leaf)
	return n, nil
}

func (f *File) getBucket(pageID storage.PageID) (*bucket, error) {
	page, err := f.pf.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return &bucket{f: f, page: page}, nil
}

func (f *File) putBucket(b *bucket, dirty bool) error {
	if dirty {
		return f.pf.UnpinDirtyPage(b.pageID())
	}
	return f.pf.UnpinPage(b.pageID())
}

func (f *File) allocBucket() (*bucket, error) {
	page, err := f.pf.AllocatePage()
	if err != nil {
		return nil, err
	}
	b := &bucket{f: f, page: page}
	b.initEmpty()
	f.bucketDupIDs[b.pageID()] = uuid.New()
	return b, nil
}

// BucketDiagnosticID returns the diagnostic token assigned to pageID
// when it was allocated as a duplicate-key overflow bucket, if any.
func (f *File) BucketDiagnosticID(pageID storage.PageID) (uuid.UUID, bool) {
	id, ok := f.bucketDupIDs[pageID]
	return id, ok
}

// findChild returns the child page to descend into for key: the
// target of the last entry whose key is <= key, or first_child if key
// is less than every key present.
func (f *File) findChild(n *node, key []byte) storage.PageID {
	child := n.firstChild()
	for _, slot := range n.orderedSlots() {
		if compareKeys(f.header.AttrType, key, n.keyBytes(slot)) < 0 {
			break
		}
		page, _ := n.entryTarget(slot)
		child = page
	}
	return child
}

// predSlotForChild returns the occupied-chain slot whose entry routes
// to child, or NoMoreSlots if child is n's first_child.
func (f *File) predSlotForChild(n *node, child storage.PageID) uint16 {
	if n.firstChild() == child {
		return NoMoreSlots
	}
	for _, slot := range n.orderedSlots() {
		page, _ := n.entryTarget(slot)
		if page == child {
			return slot
		}
	}
	return NoMoreSlots
}

// splitNode splits full (which must be at capacity) in two, promoting
// the middle key into parent immediately after prevSlot (NoMoreSlots
// or BeginningOfSlot meaning "at the head of parent's chain"). It
// unpins both full and the newly allocated sibling (dirty); parent is
// left exactly as the caller held it, pinned and mutated in place.
func (f *File) splitNode(parent *node, full *node, prevSlot uint16) ([]byte, storage.PageID, error) {
	maxKeys := uint16(f.header.MaxKeys)
	if full.numKeys() != maxKeys {
		return nil, 0, ErrSplitOnNonFull
	}

	sibling, err := f.allocNode(full.isLeaf())
	if err != nil {
		return nil, 0, err
	}

	ordered := full.orderedSlots()
	mid := int(maxKeys / 2)
	promotedKey := append([]byte(nil), full.keyBytes(ordered[mid])...)

	moveEntry := func(oldSlot uint16, prevNewSlot *uint16, newFirst *uint16) uint16 {
		newSlot := sibling.allocSlot()
		sibling.setEntryKind(newSlot, full.entryKind(oldSlot))
		page, tslot := full.entryTarget(oldSlot)
		sibling.setEntryTarget(newSlot, page, tslot)
		sibling.setKeyBytes(newSlot, full.keyBytes(oldSlot))
		if *prevNewSlot == NoMoreSlots {
			*newFirst = newSlot
		} else {
			sibling.setEntryNextSlot(*prevNewSlot, newSlot)
		}
		*prevNewSlot = newSlot
		return newSlot
	}

	if full.isLeaf() {
		if mid > 0 {
			full.setEntryNextSlot(ordered[mid-1], NoMoreSlots)
		} else {
			full.setFirstSlot(NoMoreSlots)
		}

		prevNewSlot, newFirst := NoMoreSlots, NoMoreSlots
		for _, oldSlot := range ordered[mid:] {
			moveEntry(oldSlot, &prevNewSlot, &newFirst)
			full.freeSlotIndex(oldSlot)
		}
		sibling.setEntryNextSlot(prevNewSlot, NoMoreSlots)
		sibling.setFirstSlot(newFirst)

		moved := uint16(len(ordered) - mid)
		sibling.setNumKeys(moved)
		sibling.setEmpty(moved == 0)
		full.setNumKeys(full.numKeys() - moved)
		full.setEmpty(full.numKeys() == 0)

		sibling.setPrevPage(full.pageID())
		sibling.setNextPage(full.nextPage())
		oldNext := full.nextPage()
		full.setNextPage(sibling.pageID())
		if oldNext != 0 {
			nx, err := f.getNode(oldNext)
			if err != nil {
				return nil, 0, err
			}
			nx.setPrevPage(sibling.pageID())
			if err := f.putNode(nx, true); err != nil {
				return nil, 0, err
			}
		}
	} else {
		promotedPage, _ := full.entryTarget(ordered[mid])
		sibling.setFirstChild(promotedPage)

		if mid > 0 {
			full.setEntryNextSlot(ordered[mid-1], NoMoreSlots)
		} else {
			full.setFirstSlot(NoMoreSlots)
		}
		full.freeSlotIndex(ordered[mid])

		prevNewSlot, newFirst := NoMoreSlots, NoMoreSlots
		for _, oldSlot := range ordered[mid+1:] {
			moveEntry(oldSlot, &prevNewSlot, &newFirst)
			full.freeSlotIndex(oldSlot)
		}
		if prevNewSlot != NoMoreSlots {
			sibling.setEntryNextSlot(prevNewSlot, NoMoreSlots)
		}
		sibling.setFirstSlot(newFirst)

		moved := uint16(len(ordered) - mid - 1)
		sibling.setNumKeys(moved)
		sibling.setEmpty(false)
		full.setNumKeys(full.numKeys() - moved - 1)
	}

	entrySlot := parent.allocSlot()
	parent.setEntryKind(entrySlot, EntryNew)
	parent.setEntryTarget(entrySlot, sibling.pageID(), 0)
	parent.setKeyBytes(entrySlot, promotedKey)
	effectivePred := prevSlot
	if effectivePred == BeginningOfSlot {
		effectivePred = NoMoreSlots
	}
	parent.insertAfter(effectivePred, entrySlot)
	parent.setNumKeys(parent.numKeys() + 1)
	parent.setEmpty(false)

	if err := f.putNode(full, true); err != nil {
		return nil, 0, err
	}
	siblingID := sibling.pageID()
	if err := f.putNode(sibling, true); err != nil {
		return nil, 0, err
	}
	return promotedKey, siblingID, nil
}

// InsertEntry inserts (key, rid). If the key already has an entry, it
// is routed into a duplicate overflow bucket rather than replacing it.
func (f *File) InsertEntry(key []byte, rid RID) error {
	if uint32(len(key)) != f.header.AttrLength {
		return ErrInvalidAttrLength
	}

	rootID := f.header.RootPage
	root, err := f.getNode(rootID)
	if err != nil {
		return err
	}

	if root.numKeys() != uint16(f.header.MaxKeys) {
		if err := f.putNode(root, false); err != nil {
			return err
		}
		return f.insertIntoNode(rootID, key, rid)
	}

	newRoot, err := f.allocNode(false)
	if err != nil {
		f.putNode(root, false)
		return err
	}
	newRoot.setFirstChild(rootID)

	promotedKey, siblingID, err := f.splitNode(newRoot, root, BeginningOfSlot)
	if err != nil {
		f.putNode(newRoot, false)
		return err
	}
	f.header.RootPage = newRoot.pageID()
	f.headerChanged = true

	target := rootID
	if compareKeys(f.header.AttrType, key, promotedKey) >= 0 {
		target = siblingID
	}
	if err := f.putNode(newRoot, true); err != nil {
		return err
	}
	return f.insertIntoNode(target, key, rid)
}

func (f *File) insertIntoLeaf(leaf *node, key []byte, rid RID) error {
	pred, matched := leaf.locate(key)
	if !matched {
		slot := leaf.allocSlot()
		leaf.setEntryKind(slot, EntryNew)
		leaf.setEntryTarget(slot, rid.PageID, rid.Slot)
		leaf.setKeyBytes(slot, key)
		leaf.insertAfter(pred, slot)
		leaf.setNumKeys(leaf.numKeys() + 1)
		leaf.setEmpty(false)
		return nil
	}

	switch leaf.entryKind(pred) {
	case EntryNew:
		existingPage, existingSlot := leaf.entryTarget(pred)
		bkt, err := f.allocBucket()
		if err != nil {
			return err
		}
		bkt.insert(RID{PageID: existingPage, Slot: existingSlot})
		bkt.insert(rid)
		leaf.setEntryKind(pred, EntryDuplicate)
		leaf.setEntryTarget(pred, bkt.pageID(), 0)
		return f.putBucket(bkt, true)
	case EntryDuplicate:
		bucketHead, _ := leaf.entryTarget(pred)
		return f.insertIntoBucketChain(bucketHead, rid)
	default:
		return ErrInvalidEntry
	}
}

func (f *File) insertIntoBucketChain(headID storage.PageID, rid RID) error {
	cur := headID
	for {
		bkt, err := f.getBucket(cur)
		if err != nil {
			return err
		}
		if !bkt.full() {
			bkt.insert(rid)
			return f.putBucket(bkt, true)
		}
		next := bkt.nextBucket()
		if next == 0 {
			newBkt, err := f.allocBucket()
			if err != nil {
				f.putBucket(bkt, false)
				return err
			}
			newBkt.insert(rid)
			bkt.setNextBucket(newBkt.pageID())
			if err := f.putBucket(bkt, true); err != nil {
				return err
			}
			return f.putBucket(newBkt, true)
		}
		if err := f.putBucket(bkt, false); err != nil {
			return err
		}
		cur = next
	}
}

func (f *File) insertIntoNode(pageID storage.PageID, key []byte, rid RID) error {
	n, err := f.getNode(pageID)
	if err != nil {
		return err
	}
	if n.isLeaf() {
		if err := f.insertIntoLeaf(n, key, rid); err != nil {
			f.putNode(n, false)
			return err
		}
		return f.putNode(n, true)
	}

	child := f.findChild(n, key)
	childNode, err := f.getNode(child)
	if err != nil {
		f.putNode(n, false)
		return err
	}

	if childNode.numKeys() == uint16(f.header.MaxKeys) {
		prevSlot := f.predSlotForChild(n, child)
		promotedKey, siblingID, err := f.splitNode(n, childNode, prevSlot)
		if err != nil {
			f.putNode(n, false)
			return err
		}
		target := child
		if compareKeys(f.header.AttrType, key, promotedKey) >= 0 {
			target = siblingID
		}
		if err := f.putNode(n, true); err != nil {
			return err
		}
		return f.insertIntoNode(target, key, rid)
	}

	if err := f.putNode(n, false); err != nil {
		f.putNode(childNode, false)
		return err
	}
	if childNode.isLeaf() {
		if err := f.insertIntoLeaf(childNode, key, rid); err != nil {
			f.putNode(childNode, false)
			return err
		}
		return f.putNode(childNode, true)
	}
	childID := childNode.pageID()
	if err := f.putNode(childNode, false); err != nil {
		return err
	}
	return f.insertIntoNode(childID, key, rid)
}

// collectBucketChain returns every rid stored across a duplicate
// bucket chain, and the page ids of every bucket page visited.
func (f *File) collectBucketChain(headID storage.PageID) ([]RID, []storage.PageID, error) {
	var rids []RID
	var pages []storage.PageID
	cur := headID
	for cur != 0 {
		bkt, err := f.getBucket(cur)
		if err != nil {
			return nil, nil, err
		}
		rids = append(rids, bkt.rids()...)
		pages = append(pages, cur)
		next := bkt.nextBucket()
		if err := f.putBucket(bkt, false); err != nil {
			return nil, nil, err
		}
		cur = next
	}
	return rids, pages, nil
}

// deleteFromDuplicateEntry removes rid from the duplicate bucket chain
// referenced by leaf's matchSlot. If exactly one rid remains, the leaf
// entry reverts to a New entry and every bucket page is disposed;
// otherwise the surviving rids are repacked into as few bucket pages
// as needed and any surplus page is disposed.
func (f *File) deleteFromDuplicateEntry(leaf *node, matchSlot uint16, rid RID) error {
	headID, _ := leaf.entryTarget(matchSlot)
	allRids, pages, err := f.collectBucketChain(headID)
	if err != nil {
		return err
	}

	idx := -1
	for i, r := range allRids {
		if r == rid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrInvalidEntry
	}
	allRids = append(allRids[:idx], allRids[idx+1:]...)

	if len(allRids) == 1 {
		for _, p := range pages {
			if err := f.pf.DisposePage(p); err != nil {
				return err
			}
			delete(f.bucketDupIDs, p)
		}
		leaf.setEntryKind(matchSlot, EntryNew)
		leaf.setEntryTarget(matchSlot, allRids[0].PageID, allRids[0].Slot)
		return nil
	}

	maxEntries := int(f.header.MaxBucketEntries)
	needed := (len(allRids) + maxEntries - 1) / maxEntries
	for i := needed; i < len(pages); i++ {
		if err := f.pf.DisposePage(pages[i]); err != nil {
			return err
		}
		delete(f.bucketDupIDs, pages[i])
	}
	kept := pages[:needed]
	cursor := 0
	for i, pid := range kept {
		bkt, err := f.getBucket(pid)
		if err != nil {
			return err
		}
		bkt.initEmpty()
		for cursor < len(allRids) && !bkt.full() {
			bkt.insert(allRids[cursor])
			cursor++
		}
		if i+1 < len(kept) {
			bkt.setNextBucket(kept[i+1])
		} else {
			bkt.setNextBucket(0)
		}
		if err := f.putBucket(bkt, true); err != nil {
			return err
		}
	}
	leaf.setEntryTarget(matchSlot, kept[0], 0)
	return nil
}

func (f *File) deleteFromLeaf(leaf *node, key []byte, rid RID) error {
	matchSlot, matched := leaf.locate(key)
	if !matched {
		return ErrKeyNotFound
	}
	switch leaf.entryKind(matchSlot) {
	case EntryNew:
		page, tslot := leaf.entryTarget(matchSlot)
		if page != rid.PageID || tslot != rid.Slot {
			return ErrInvalidEntry
		}
		pred := leaf.predecessorOf(matchSlot)
		leaf.unlinkAfter(pred)
		leaf.freeSlotIndex(matchSlot)
		leaf.setNumKeys(leaf.numKeys() - 1)
		if leaf.numKeys() == 0 {
			leaf.setEmpty(true)
		}
		return nil
	case EntryDuplicate:
		return f.deleteFromDuplicateEntry(leaf, matchSlot, rid)
	}
	return ErrInvalidEntry
}

func (f *File) patchLeafNeighbors(prev, next storage.PageID) error {
	if prev != 0 {
		p, err := f.getNode(prev)
		if err != nil {
			return err
		}
		p.setNextPage(next)
		if err := f.putNode(p, true); err != nil {
			return err
		}
	}
	if next != 0 {
		n, err := f.getNode(next)
		if err != nil {
			return err
		}
		n.setPrevPage(prev)
		if err := f.putNode(n, true); err != nil {
			return err
		}
	}
	return nil
}

// deleteFromNode recursively deletes (key, rid) from the subtree
// rooted at pageID, splicing out any child that becomes empty, and
// reports whether pageID's own node ended up with nothing left
// (num_keys == 0 and, for internal nodes, first_child == 0).
func (f *File) deleteFromNode(pageID storage.PageID, key []byte, rid RID) (bool, error) {
	n, err := f.getNode(pageID)
	if err != nil {
		return false, err
	}
	child := f.findChild(n, key)
	childNode, err := f.getNode(child)
	if err != nil {
		f.putNode(n, false)
		return false, err
	}

	var childEmptied bool
	var leafPrev, leafNext storage.PageID
	wasLeaf := childNode.isLeaf()

	if wasLeaf {
		if err := f.deleteFromLeaf(childNode, key, rid); err != nil {
			f.putNode(childNode, false)
			f.putNode(n, false)
			return false, err
		}
		childEmptied = childNode.numKeys() == 0
		if childEmptied {
			leafPrev, leafNext = childNode.prevPage(), childNode.nextPage()
		}
		if err := f.putNode(childNode, true); err != nil {
			f.putNode(n, false)
			return false, err
		}
	} else {
		if err := f.putNode(childNode, false); err != nil {
			f.putNode(n, false)
			return false, err
		}
		childEmptied, err = f.deleteFromNode(child, key, rid)
		if err != nil {
			f.putNode(n, false)
			return false, err
		}
	}

	dirty := false
	if childEmptied {
		if n.firstChild() == child {
			firstEntry := n.firstSlot()
			if firstEntry == NoMoreSlots {
				n.setFirstChild(0)
			} else {
				page, _ := n.entryTarget(firstEntry)
				n.unlinkAfter(NoMoreSlots)
				n.freeSlotIndex(firstEntry)
				n.setNumKeys(n.numKeys() - 1)
				n.setFirstChild(page)
			}
		} else {
			pred := n.predecessorOf(f.predSlotForChild(n, child))
			removed := n.unlinkAfter(pred)
			n.freeSlotIndex(removed)
			n.setNumKeys(n.numKeys() - 1)
		}
		if wasLeaf {
			if err := f.patchLeafNeighbors(leafPrev, leafNext); err != nil {
				f.putNode(n, false)
				return false, err
			}
		}
		if err := f.pf.DisposePage(child); err != nil {
			f.putNode(n, false)
			return false, err
		}
		dirty = true
	}

	emptied := n.numKeys() == 0 && n.firstChild() == 0
	if err := f.putNode(n, dirty); err != nil {
		return false, err
	}
	return emptied, nil
}

// DeleteEntry removes the (key, rid) occurrence. If the tree's root is
// internal and empties out, it is repurposed in place as an empty
// leaf: tree height shrinks only this way, never via node merging.
func (f *File) DeleteEntry(key []byte, rid RID) error {
	if uint32(len(key)) != f.header.AttrLength {
		return ErrInvalidAttrLength
	}

	root, err := f.getNode(f.header.RootPage)
	if err != nil {
		return err
	}
	if root.isLeaf() {
		if err := f.deleteFromLeaf(root, key, rid); err != nil {
			f.putNode(root, false)
			return err
		}
		return f.putNode(root, true)
	}
	if err := f.putNode(root, false); err != nil {
		return err
	}

	emptied, err := f.deleteFromNode(f.header.RootPage, key, rid)
	if err != nil {
		return err
	}
	if emptied {
		root2, err := f.getNode(f.header.RootPage)
		if err != nil {
			return err
		}
		root2.initEmpty(true)
		return f.putNode(root2, true)
	}
	return nil
}

// Find returns every rid stored under key, or nil if key is absent.
func (f *File) Find(key []byte) ([]RID, error) {
	if uint32(len(key)) != f.header.AttrLength {
		return nil, ErrInvalidAttrLength
	}
	pageID := f.header.RootPage
	for {
		n, err := f.getNode(pageID)
		if err != nil {
			return nil, err
		}
		if n.isLeaf() {
			matchSlot, matched := n.locate(key)
			if !matched {
				f.putNode(n, false)
				return nil, nil
			}
			kind := n.entryKind(matchSlot)
			if kind == EntryNew {
				page, tslot := n.entryTarget(matchSlot)
				f.putNode(n, false)
				return []RID{{PageID: page, Slot: tslot}}, nil
			}
			bucketHead, _ := n.entryTarget(matchSlot)
			if err := f.putNode(n, false); err != nil {
				return nil, err
			}
			rids, _, err := f.collectBucketChain(bucketHead)
			return rids, err
		}
		child := f.findChild(n, key)
		if err := f.putNode(n, false); err != nil {
			return nil, err
		}
		pageID = child
	}
}

// LeftmostLeaf walks first_child pointers down to the left edge of the
// tree, returning the leftmost leaf's page id. Used by tests and by
// callers that want to scan the tree in key order from the start.
func (f *File) LeftmostLeaf() (storage.PageID, error) {
	pageID := f.header.RootPage
	for {
		n, err := f.getNode(pageID)
		if err != nil {
			return 0, err
		}
		if n.isLeaf() {
			if err := f.putNode(n, false); err != nil {
				return 0, err
			}
			return pageID, nil
		}
		next := n.firstChild()
		if err := f.putNode(n, false); err != nil {
			return 0, err
		}
		pageID = next
	}
}

// LeafKeyCount returns the occupied key count of a leaf page, and its
// next_page pointer, for tests walking the leaf chain.
func (f *File) LeafKeyCount(pageID storage.PageID) (uint16, storage.PageID, error) {
	n, err := f.getNode(pageID)
	if err != nil {
		return 0, 0, err
	}
	defer f.putNode(n, false)
	return n.numKeys(), n.nextPage(), nil
}
