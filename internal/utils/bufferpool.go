package utils

import "github.com/valyala/bytebufferpool"

// Prompt and context assembly share one pool.
var pool bytebufferpool.Pool

// Get returns an empty buffer from the shared pool.
func Get() *bytebufferpool.ByteBuffer {
	return pool.Get()
}

// Put returns buf to the pool. buf must not be used afterwards.
func Put(buf *bytebufferpool.ByteBuffer) {
	pool.Put(buf)
}
