// Package mempool provides a sized pool for float32 tensor buffers to
// reduce allocations on the per-recognition hot path.
package mempool

import (
	"sync"
)

var pools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next multiple of 4096 so buffers for the
// same model input shape land in the same bucket.
func sizeClass(n int) int {
	const step = 4096
	if n <= step {
		return step
	}
	return ((n + step - 1) / step) * step
}

// GetFloat32 retrieves a []float32 buffer of length n from the pool. The
// contents are unspecified; the caller must overwrite every element. Return
// the buffer via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	cls := sizeClass(n)
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]float32, n)
	}
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < n {
		buf = make([]float32, cls)
	}
	return buf[:n]
}

// PutFloat32 returns a buffer to the pool. Safe to call with nil.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}
