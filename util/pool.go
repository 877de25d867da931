package util

import "sync"

// BufferPool hands out byte slices of one fixed length.
type BufferPool struct {
	size int
	p    sync.Pool
}

// NewBufferPool returns a pool of size-byte buffers.
func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.p.New = func() interface{} {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// RelayBuffers backs relay copies and Socket.ReadFrom.
var RelayBuffers = NewBufferPool(DefaultBufSize) //nolint:gochecknoglobals

// Size is the length of every buffer from Get.
func (bp *BufferPool) Size() int { return bp.size }

// Get returns a buffer of length Size.  Return it with Put.
func (bp *BufferPool) Get() *[]byte {
	return bp.p.Get().(*[]byte)
}

// Put returns buf to the pool.  A buffer resliced by the caller is
// restored to full length; one with a different capacity is dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) != bp.size {
		return
	}
	*buf = (*buf)[:bp.size]
	bp.p.Put(buf)
}
