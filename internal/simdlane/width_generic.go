//go:build !amd64 || appengine

package simdlane

// BytesPerWord is hardcoded on the portable path, where the
// amd64-only detection machinery is unavailable.
const (
	BytesPerWord     = 8
	Log2BytesPerWord = 3
)

// BytesPerVec is the width of the maximum vector this package assumes.
const BytesPerVec = 16
