// Package simdlane provides the portable 128-bit lane abstraction the
// vector aligner kernels (internal/align) are built on: aligned loads/
// stores, horizontal max, element shift-in, element extract, and
// compare masks over a vector of either 16 int8 lanes or 8 int16 lanes.
//
// Real assembly is out of scope here: every lane operation below is a
// tight Go loop over a fixed-size array, laid out exactly as a 128-bit
// register would be (16 bytes or 8 words), so the algorithms in
// internal/align are written once against this interface and are
// portable to a real SIMD backend later. The amd64-tagged sibling file
// carries the true machine-word constants for that purpose.
package simdlane

// LaneWidth8 is the number of int8 lanes in one 128-bit vector.
const LaneWidth8 = 16

// LaneWidth16 is the number of int16 lanes in one 128-bit vector.
const LaneWidth16 = 8

// Lane8 is a 128-bit vector of 16 signed 8-bit lanes.
type Lane8 [LaneWidth8]int8

// Lane16 is a 128-bit vector of 8 signed 16-bit lanes.
type Lane16 [LaneWidth16]int16

// Splat8 returns a lane with every element set to v.
func Splat8(v int8) Lane8 {
	var l Lane8
	for i := range l {
		l[i] = v
	}
	return l
}

// Splat16 returns a lane with every element set to v.
func Splat16(v int16) Lane16 {
	var l Lane16
	for i := range l {
		l[i] = v
	}
	return l
}

// Max8 returns the element-wise max of a and b.
func Max8(a, b Lane8) Lane8 {
	var r Lane8
	for i := range r {
		if a[i] > b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Max16 returns the element-wise max of a and b.
func Max16(a, b Lane16) Lane16 {
	var r Lane16
	for i := range r {
		if a[i] > b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Sub8 returns the element-wise difference a-b.
func Sub8(a, b Lane8) Lane8 {
	var r Lane8
	for i := range r {
		r[i] = a[i] - b[i]
	}
	return r
}

// Sub16 returns the element-wise difference a-b.
func Sub16(a, b Lane16) Lane16 {
	var r Lane16
	for i := range r {
		r[i] = a[i] - b[i]
	}
	return r
}

// ShiftInLeft8 shifts every lane left by one position (toward index 0)
// and inserts v at the top lane -- the "element shift-in" primitive
// used to slide a diagonal/query profile boundary value into a vector.
func ShiftInLeft8(l Lane8, v int8) Lane8 {
	var r Lane8
	copy(r[:LaneWidth8-1], l[1:])
	r[LaneWidth8-1] = v
	return r
}

// ShiftInRight16 shifts every lane right by one position (toward the
// highest index) and inserts v at lane 0.
func ShiftInRight16(l Lane16, v int16) Lane16 {
	var r Lane16
	copy(r[1:], l[:LaneWidth16-1])
	r[0] = v
	return r
}

// Extract8 returns lane i's value.
func Extract8(l Lane8, i int) int8 { return l[i] }

// Extract16 returns lane i's value.
func Extract16(l Lane16, i int) int16 { return l[i] }

// HMax8 returns the horizontal (cross-lane) maximum.
func HMax8(l Lane8) int8 {
	m := l[0]
	for _, v := range l[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// HMax16 returns the horizontal (cross-lane) maximum.
func HMax16(l Lane16) int16 {
	m := l[0]
	for _, v := range l[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// CmpEq8 returns a mask lane: -1 where a[i]==b[i], 0 otherwise.
func CmpEq8(a, b Lane8) Lane8 {
	var r Lane8
	for i := range r {
		if a[i] == b[i] {
			r[i] = -1
		}
	}
	return r
}

// CmpLt8 returns a mask lane: -1 where a[i]<b[i], 0 otherwise.
func CmpLt8(a, b Lane8) Lane8 {
	var r Lane8
	for i := range r {
		if a[i] < b[i] {
			r[i] = -1
		}
	}
	return r
}
