package storage

import "errors"

var (
	// ErrPageNotResident is returned by UnpinPage/MarkDirty when the
	// requested page has no frame in the buffer pool.
	ErrPageNotResident = errors.New("storage: page not resident in buffer pool")

	// ErrAlreadyUnpinned is returned by UnpinPage when the frame's pin
	// count is already zero.
	ErrAlreadyUnpinned = errors.New("storage: page already unpinned")

	// ErrNotPinned is returned by MarkDirty when the frame's pin count
	// is zero.
	ErrNotPinned = errors.New("storage: page not pinned")

	// ErrPoolExhausted is returned only when the buffer pool cannot grow
	// to satisfy a fetch (every frame pinned and the backing allocation
	// failed); growth itself is otherwise silent.
	ErrPoolExhausted = errors.New("storage: buffer pool exhausted and could not grow")

	// ErrShortRead is returned when a page read returns fewer bytes than
	// a full page.
	ErrShortRead = errors.New("storage: short read")

	// ErrShortWrite is returned when a page write persists fewer bytes
	// than a full page.
	ErrShortWrite = errors.New("storage: short write")

	// ErrDoubleDispose is returned by PageFile.DisposePage when the page
	// is already on the freelist (its NextFree is non-zero, or the
	// freelist walk reaches it).
	ErrDoubleDispose = errors.New("storage: page already disposed")

	// ErrInvalidHeader is returned when a file's on-disk header fails
	// validation on open.
	ErrInvalidHeader = errors.New("storage: invalid page file header")
)
