package record

import "errors"

var (
	// ErrRecordSizeTooLarge is returned by CreateFile when record_size
	// leaves no room for even a single record per page.
	ErrRecordSizeTooLarge = errors.New("record: record size too large for page")

	// ErrNotFound is returned by GetRecord/UpdateRecord/DeleteRecord
	// when the RID's bitmap bit is unset.
	ErrNotFound = errors.New("record: no record at rid")

	// ErrInvalidRID is returned when a RID's slot falls outside
	// [0, records_per_page).
	ErrInvalidRID = errors.New("record: rid slot out of range")

	// ErrRecordSizeMismatch is returned by UpdateRecord/InsertRecord
	// when the caller's buffer length does not equal record_size.
	ErrRecordSizeMismatch = errors.New("record: buffer length does not match record size")
)
