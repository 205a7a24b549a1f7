package index

import "errors"

var (
	// ErrNaNKey is returned when a FLOAT key's bit pattern is NaN; NaN
	// is disallowed at the comparator boundary.
	ErrNaNKey = errors.New("index: NaN is not a valid key")

	// ErrInvalidAttrLength is returned when attr_length does not match
	// the fixed width required by attr_type (4 for INT/FLOAT, <=255 for
	// STRING).
	ErrInvalidAttrLength = errors.New("index: invalid attribute length for type")

	// ErrKeyNotFound is returned by DeleteEntry when the key has no
	// matching leaf entry (Find reports an absent key as nil, nil).
	ErrKeyNotFound = errors.New("index: key not found")

	// ErrInvalidEntry is returned by DeleteEntry when the key is found
	// but no occurrence carries the given rid.
	ErrInvalidEntry = errors.New("index: no matching (key, rid) entry")

	// ErrSplitOnNonFull is an invariant-violation guard: split_node may
	// only be called on a node with num_keys == max_keys.
	ErrSplitOnNonFull = errors.New("index: split attempted on a non-full node")

	// ErrNodeFull is an invariant-violation guard: callers must split
	// before inserting into a full node.
	ErrNodeFull = errors.New("index: insert attempted on a full node")
)
