package record

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

func newTestFile(t *testing.T, recordSize uint32) *File {
	t.Helper()
	bp := storage.NewBufferPool(16, storage.DefaultPageDataSize)
	path := filepath.Join(t.TempDir(), "test.rec")
	f, err := CreateFile(path, 1, recordSize, bp)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func recordBytes(size uint32, fill byte) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = fill
	}
	return b
}

// TestRecordLifecycle is end-to-end scenario 3: insert 50 records of
// size 100, read back #25, delete #0-9, insert 10 new and verify RID
// reuse of the freed slots on the same page.
func TestRecordLifecycle(t *testing.T) {
	f := newTestFile(t, 100)

	var rids []RID
	for i := 0; i < 50; i++ {
		data := recordBytes(100, byte(i))
		rid, err := f.InsertRecord(data)
		if err != nil {
			t.Fatalf("InsertRecord(%d): %v", i, err)
		}
		rids = append(rids, rid)
	}

	got, err := f.GetRecord(rids[25])
	if err != nil {
		t.Fatalf("GetRecord(#25): %v", err)
	}
	if !bytes.Equal(got, recordBytes(100, 25)) {
		t.Fatalf("record #25 mismatch: got %v", got[:4])
	}

	for i := 0; i < 10; i++ {
		if err := f.DeleteRecord(rids[i]); err != nil {
			t.Fatalf("DeleteRecord(%d): %v", i, err)
		}
	}

	freedSlots := make(map[RID]bool, 10)
	for i := 0; i < 10; i++ {
		freedSlots[rids[i]] = true
	}

	for i := 0; i < 10; i++ {
		data := recordBytes(100, byte(100+i))
		rid, err := f.InsertRecord(data)
		if err != nil {
			t.Fatalf("InsertRecord(reuse %d): %v", i, err)
		}
		if !freedSlots[rid] {
			t.Fatalf("expected reused rid %v to be one of the freed slots", rid)
		}
		delete(freedSlots, rid)
	}
	if len(freedSlots) != 0 {
		t.Fatalf("expected all 10 freed slots to be reused, %d left unused", len(freedSlots))
	}
}

func TestRecordStatsReportsFreeChain(t *testing.T) {
	f := newTestFile(t, 100)
	perPage := f.RecordsPerPage()

	for i := uint32(0); i < perPage; i++ {
		if _, err := f.InsertRecord(recordBytes(100, byte(i))); err != nil {
			t.Fatalf("InsertRecord(%d): %v", i, err)
		}
	}
	stats, err := f.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.DataPages != 1 || stats.FreeChainPages != 0 {
		t.Fatalf("expected a single full page off the free chain, got %+v", stats)
	}

	if _, err := f.InsertRecord(recordBytes(100, 0xFF)); err != nil {
		t.Fatalf("InsertRecord(overflow): %v", err)
	}
	stats, err = f.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.DataPages != 2 || stats.FreeChainPages != 1 || stats.FreeChainSlots != perPage-1 {
		t.Fatalf("expected a second page on the chain with %d free slots, got %+v", perPage-1, stats)
	}
}

func TestRecordGetDeletedReturnsNotFound(t *testing.T) {
	f := newTestFile(t, 16)
	rid, err := f.InsertRecord(recordBytes(16, 7))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := f.DeleteRecord(rid); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := f.GetRecord(rid); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.DeleteRecord(rid); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestRecordUpdateRoundTrip(t *testing.T) {
	f := newTestFile(t, 8)
	rid, err := f.InsertRecord(recordBytes(8, 1))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := f.UpdateRecord(rid, recordBytes(8, 2)); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	got, err := f.GetRecord(rid)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !bytes.Equal(got, recordBytes(8, 2)) {
		t.Fatalf("expected updated contents, got %v", got)
	}
}

// TestRecordFillsPageThenAllocatesNew is the boundary scenario: fill
// exactly records_per_page records into a fresh page, verify the next
// insert lands on a second page.
func TestRecordFillsPageThenAllocatesNew(t *testing.T) {
	f := newTestFile(t, 100)
	perPage := f.RecordsPerPage()

	var firstPage storage.PageID
	for i := uint32(0); i < perPage; i++ {
		rid, err := f.InsertRecord(recordBytes(100, byte(i)))
		if err != nil {
			t.Fatalf("InsertRecord(%d): %v", i, err)
		}
		if i == 0 {
			firstPage = rid.PageID
		} else if rid.PageID != firstPage {
			t.Fatalf("expected all %d records on the same page, insert %d landed on %v", perPage, i, rid.PageID)
		}
	}

	n, err := f.NumRecordsOnPage(firstPage)
	if err != nil {
		t.Fatalf("NumRecordsOnPage: %v", err)
	}
	if n != perPage {
		t.Fatalf("expected page to report %d records, got %d", perPage, n)
	}

	overflow, err := f.InsertRecord(recordBytes(100, 0xFF))
	if err != nil {
		t.Fatalf("InsertRecord(overflow): %v", err)
	}
	if overflow.PageID == firstPage {
		t.Fatalf("expected overflow record to land on a new page")
	}
}
