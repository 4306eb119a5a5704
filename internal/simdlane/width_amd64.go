//go:build amd64 && !appengine

package simdlane

import "github.com/grailbio/base/simd"

// BytesPerWord and Log2BytesPerWord come from
// github.com/grailbio/base/simd, which resolves them for the host.
const (
	BytesPerWord     = simd.BytesPerWord
	Log2BytesPerWord = simd.Log2BytesPerWord
)

// BytesPerVec is the width of the maximum vector this package assumes.
// It is pinned at 16 (128 bits) regardless of what wider vector
// extensions the host supports; base/simd is only consulted here for
// BytesPerWord.
const BytesPerVec = 16
