package abi

import "encoding/binary"

// TimeValBytes is the encoded size of a TimeVal.
const TimeValBytes = 16

// TimeVal is a {seconds, microseconds} pair read from the monotonic timer.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// Micros returns the pair as a single microsecond count.
func (tv TimeVal) Micros() uint64 {
	return tv.Sec*1_000_000 + tv.Usec
}

// Millis returns the pair truncated to milliseconds.
func (tv TimeVal) Millis() uint64 {
	return tv.Sec*1_000 + tv.Usec/1_000
}

// EncodeTimeVal writes tv into dst.
//
// Layout (little-endian):
//   - u64: sec
//   - u64: usec
func EncodeTimeVal(dst []byte, tv TimeVal) bool {
	if len(dst) < TimeValBytes {
		return false
	}
	binary.LittleEndian.PutUint64(dst[0:8], tv.Sec)
	binary.LittleEndian.PutUint64(dst[8:16], tv.Usec)
	return true
}

// DecodeTimeVal decodes an EncodeTimeVal record.
func DecodeTimeVal(src []byte) (tv TimeVal, ok bool) {
	if len(src) < TimeValBytes {
		return TimeVal{}, false
	}
	tv.Sec = binary.LittleEndian.Uint64(src[0:8])
	tv.Usec = binary.LittleEndian.Uint64(src[8:16])
	return tv, true
}
