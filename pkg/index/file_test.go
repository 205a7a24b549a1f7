package index

import (
	"path/filepath"
	"testing"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

func newTestIndex(t *testing.T, attrType AttrType, attrLength uint32) *File {
	t.Helper()
	bp := storage.NewBufferPool(32, storage.DefaultPageDataSize)
	path := filepath.Join(t.TempDir(), "test.idx")
	f, err := CreateFile(path, 1, attrType, attrLength, bp)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func intKey(v int32) []byte {
	buf := make([]byte, 4)
	EncodeIntKey(buf, v)
	return buf
}

func TestIndexInsertAndFindSingle(t *testing.T) {
	f := newTestIndex(t, AttrInt, 4)
	rid := RID{PageID: storage.NewPageID(1, 5), Slot: 2}
	if err := f.InsertEntry(intKey(42), rid); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	got, err := f.Find(intKey(42))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0] != rid {
		t.Fatalf("expected [%v], got %v", rid, got)
	}
	if got, err := f.Find(intKey(99)); err != nil || got != nil {
		t.Fatalf("expected nil for absent key, got %v, %v", got, err)
	}
}

// TestIndexSplitOnOverflow is scenario 4: insert ascending keys past
// max_keys and verify every leaf (but possibly the last) carries
// between max_keys/2 and max_keys entries, and the leaf chain yields
// every key back in order.
func TestIndexSplitOnOverflow(t *testing.T) {
	f := newTestIndex(t, AttrInt, 4)
	maxKeys := int(f.MaxKeys())
	n := maxKeys * 3

	for i := 0; i < n; i++ {
		rid := RID{PageID: storage.NewPageID(1, uint16(i)), Slot: 0}
		if err := f.InsertEntry(intKey(int32(i)), rid); err != nil {
			t.Fatalf("InsertEntry(%d): %v", i, err)
		}
	}

	leaf, err := f.LeftmostLeaf()
	if err != nil {
		t.Fatalf("LeftmostLeaf: %v", err)
	}

	total := 0
	var leafCounts []uint16
	for leaf != 0 {
		count, next, err := f.LeafKeyCount(leaf)
		if err != nil {
			t.Fatalf("LeafKeyCount: %v", err)
		}
		leafCounts = append(leafCounts, count)
		total += int(count)
		leaf = next
	}
	if total != n {
		t.Fatalf("expected %d keys across the leaf chain, got %d", n, total)
	}
	for i, count := range leafCounts {
		min := uint16(maxKeys / 2)
		if i == len(leafCounts)-1 {
			continue
		}
		if count < min || count > uint16(maxKeys) {
			t.Fatalf("leaf %d has %d entries, want between %d and %d", i, count, min, maxKeys)
		}
	}

	for i := 0; i < n; i++ {
		got, err := f.Find(intKey(int32(i)))
		if err != nil {
			t.Fatalf("Find(%d): %v", i, err)
		}
		if len(got) != 1 || got[0].PageID != storage.NewPageID(1, uint16(i)) {
			t.Fatalf("Find(%d): expected a single matching rid, got %v", i, got)
		}
	}
}

// TestIndexDuplicateKeyBucketLifecycle covers inserting three
// duplicates of one key, deleting down to one remaining occurrence,
// and verifying the leaf entry collapses back to a direct New entry.
func TestIndexDuplicateKeyBucketLifecycle(t *testing.T) {
	f := newTestIndex(t, AttrInt, 4)
	key := intKey(7)
	rids := []RID{
		{PageID: storage.NewPageID(1, 1), Slot: 0},
		{PageID: storage.NewPageID(1, 2), Slot: 0},
		{PageID: storage.NewPageID(1, 3), Slot: 0},
	}
	for _, rid := range rids {
		if err := f.InsertEntry(key, rid); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	got, err := f.Find(key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 duplicates, got %d", len(got))
	}

	if err := f.DeleteEntry(key, rids[0]); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	got, err = f.Find(key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 duplicates after one delete, got %d", len(got))
	}

	if err := f.DeleteEntry(key, rids[1]); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	got, err = f.Find(key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0] != rids[2] {
		t.Fatalf("expected collapse to the single remaining rid %v, got %v", rids[2], got)
	}
}

// TestIndexIdenticalKeyAndRIDNotDeduplicated covers the case spec.md
// leaves ambiguous: inserting the exact same (key, rid) pair twice is
// not deduplicated, so it occupies two overflow-bucket entries and
// Find reports it twice.
func TestIndexIdenticalKeyAndRIDNotDeduplicated(t *testing.T) {
	f := newTestIndex(t, AttrInt, 4)
	key := intKey(11)
	rid := RID{PageID: storage.NewPageID(1, 9), Slot: 3}

	if err := f.InsertEntry(key, rid); err != nil {
		t.Fatalf("InsertEntry (first): %v", err)
	}
	if err := f.InsertEntry(key, rid); err != nil {
		t.Fatalf("InsertEntry (duplicate): %v", err)
	}

	got, err := f.Find(key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 || got[0] != rid || got[1] != rid {
		t.Fatalf("expected the identical (key, rid) pair stored twice, got %v", got)
	}

	if err := f.DeleteEntry(key, rid); err != nil {
		t.Fatalf("DeleteEntry (first occurrence): %v", err)
	}
	got, err = f.Find(key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0] != rid {
		t.Fatalf("expected one remaining occurrence after deleting one, got %v", got)
	}
}

// TestIndexDeleteAllEmptiesToSingleLeaf is scenario 6: delete every key
// and verify the tree settles back to a single empty leaf root.
func TestIndexDeleteAllEmptiesToSingleLeaf(t *testing.T) {
	f := newTestIndex(t, AttrInt, 4)
	maxKeys := int(f.MaxKeys())
	n := maxKeys * 3

	var rids []RID
	for i := 0; i < n; i++ {
		rid := RID{PageID: storage.NewPageID(1, uint16(i)), Slot: 0}
		rids = append(rids, rid)
		if err := f.InsertEntry(intKey(int32(i)), rid); err != nil {
			t.Fatalf("InsertEntry(%d): %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		if err := f.DeleteEntry(intKey(int32(i)), rids[i]); err != nil {
			t.Fatalf("DeleteEntry(%d): %v", i, err)
		}
	}

	root := f.RootPage()
	count, next, err := f.LeafKeyCount(root)
	if err != nil {
		t.Fatalf("LeafKeyCount(root): %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty root leaf, got %d keys", count)
	}
	if next != 0 {
		t.Fatalf("expected no trailing leaf siblings, got next=%v", next)
	}

	got, err := f.Find(intKey(0))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no results on an emptied tree, got %v", got)
	}
}

func TestIndexStringKeyOrdering(t *testing.T) {
	f := newTestIndex(t, AttrString, 8)
	words := []string{"banana", "apple", "cherry", "date"}
	for i, w := range words {
		buf := make([]byte, 8)
		EncodeStringKey(buf, w)
		rid := RID{PageID: storage.NewPageID(1, uint16(i)), Slot: 0}
		if err := f.InsertEntry(buf, rid); err != nil {
			t.Fatalf("InsertEntry(%s): %v", w, err)
		}
	}
	buf := make([]byte, 8)
	EncodeStringKey(buf, "apple")
	got, err := f.Find(buf)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].Slot != 0 || got[0].PageID != storage.NewPageID(1, 1) {
		t.Fatalf("Find(apple): got %v", got)
	}
}

func TestIndexRejectsNaNFloatKey(t *testing.T) {
	buf := make([]byte, 4)
	nan := float32(0)
	nan /= nan
	if err := EncodeFloatKey(buf, nan); err != ErrNaNKey {
		t.Fatalf("expected ErrNaNKey, got %v", err)
	}
}
