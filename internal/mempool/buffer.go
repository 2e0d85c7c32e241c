// Package mempool pools the byte buffers used to encode frames on the
// recognition hot path.
package mempool

import (
	"bytes"
	"sync"
)

// MaxPooledBytes is the largest buffer capacity kept for reuse. Larger
// buffers are left to the garbage collector so a single oversized frame
// does not pin memory.
const MaxPooledBytes = 16 << 20

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// GetBuffer returns an empty buffer. The caller must hand it back via
// PutBuffer and must not keep references to its bytes afterwards.
func GetBuffer() *bytes.Buffer {
	buf, ok := bufferPool.Get().(*bytes.Buffer)
	if !ok {
		return new(bytes.Buffer)
	}
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool. It is safe to pass nil.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxPooledBytes {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
