// Package pool provides sync.Pool backed scratch storage for the counting and encoding hot paths.
package pool

import "sync"

// Scratch slice pools. Rainflow counting and extrema extraction allocate short-lived
// working buffers proportional to the signal length; reusing them keeps repeated
// load-case processing allocation-light.
var (
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
	intSlicePool = sync.Pool{
		New: func() any { return &[]int{} },
	}
	int8SlicePool = sync.Pool{
		New: func() any { return &[]int8{} },
	}
)

// GetFloat64Slice retrieves a float64 slice of length size from the pool.
//
// The contents of the returned slice are unspecified. The caller must call the returned
// cleanup function (typically with defer) once the slice is no longer referenced.
//
// Example:
//
//	buf, cleanup := pool.GetFloat64Slice(len(signal) + 1)
//	defer cleanup()
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	*ptr = resize(*ptr, size)

	return *ptr, func() { float64SlicePool.Put(ptr) }
}

// GetIntSlice retrieves an int slice of length size from the pool.
func GetIntSlice(size int) ([]int, func()) {
	ptr, _ := intSlicePool.Get().(*[]int)
	*ptr = resize(*ptr, size)

	return *ptr, func() { intSlicePool.Put(ptr) }
}

// GetInt8Slice retrieves an int8 slice of length size from the pool.
// It is used for slope-sign arrays.
func GetInt8Slice(size int) ([]int8, func()) {
	ptr, _ := int8SlicePool.Get().(*[]int8)
	*ptr = resize(*ptr, size)

	return *ptr, func() { int8SlicePool.Put(ptr) }
}

func resize[T any](s []T, size int) []T {
	if cap(s) < size {
		return make([]T, size)
	}

	return s[:size]
}
