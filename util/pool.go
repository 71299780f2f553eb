package util

import "sync"

// DefaultBufSize is the standard receive buffer size; it matches the
// largest payload a socket facade accepts for sending.
const DefaultBufSize = 4096

// BufPool provides reusable byte buffers for receive loops, so that a
// stopped and restarted session does not allocate a fresh buffer.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer of exactly size bytes.  Callers must return
// it with [PutBuf] when finished.
func GetBuf(size int) *[]byte {
	if size <= 0 {
		size = DefaultBufSize
	}
	buf := BufPool.Get().(*[]byte)
	if cap(*buf) < size {
		fresh := make([]byte, size)
		return &fresh
	}
	*buf = (*buf)[:size]
	return buf
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
