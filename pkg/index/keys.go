package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// AttrType is the typed key kind a tree is built over.
type AttrType byte

const (
	AttrInt    AttrType = 0
	AttrFloat  AttrType = 1
	AttrString AttrType = 2
)

func (t AttrType) String() string {
	switch t {
	case AttrInt:
		return "INT"
	case AttrFloat:
		return "FLOAT"
	case AttrString:
		return "STRING"
	default:
		return fmt.Sprintf("AttrType(%d)", byte(t))
	}
}

// ValidateAttr checks attr_length against the fixed-width rules:
// INT/FLOAT must be exactly 4 bytes, STRING must be at most 255.
func ValidateAttr(attrType AttrType, attrLength uint32) error {
	switch attrType {
	case AttrInt, AttrFloat:
		if attrLength != 4 {
			return ErrInvalidAttrLength
		}
	case AttrString:
		if attrLength == 0 || attrLength > 255 {
			return ErrInvalidAttrLength
		}
	default:
		return ErrInvalidAttrLength
	}
	return nil
}

// EncodeIntKey encodes a native two's-complement 32-bit key.
func EncodeIntKey(buf []byte, v int32) { binary.LittleEndian.PutUint32(buf, uint32(v)) }

// EncodeFloatKey encodes a 32-bit IEEE-754 key. Returns ErrNaNKey if v
// is NaN: the comparator boundary forbids it.
func EncodeFloatKey(buf []byte, v float32) error {
	if math.IsNaN(float64(v)) {
		return ErrNaNKey
	}
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
	return nil
}

// EncodeStringKey right-pads s with zero bytes to fill buf, truncating
// if s is longer than buf.
func EncodeStringKey(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// compareKeys orders two fixed-width key encodings of the same
// attrType. Key comparators never fail: NaN is rejected at encode
// time, not here.
func compareKeys(attrType AttrType, a, b []byte) int {
	switch attrType {
	case AttrInt:
		av := int32(binary.LittleEndian.Uint32(a))
		bv := int32(binary.LittleEndian.Uint32(b))
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case AttrFloat:
		av := math.Float32frombits(binary.LittleEndian.Uint32(a))
		bv := math.Float32frombits(binary.LittleEndian.Uint32(b))
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default: // AttrString
		return bytes.Compare(a, b)
	}
}
