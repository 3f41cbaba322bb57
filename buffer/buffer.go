// Package buffer implements the growable byte buffer used by socket reads
// and writes: a single backing array split into a prependable head reserve,
// a readable region, and a writable tail.
//
// The layout and growth policy are carried over from the muduo-style
// Buffer in original_source/include/io/Buffer.hpp: a cheap prepend
// reserve of 8 bytes, readv-based scatter reads into a stack-sized spill
// area, and compact-in-place before growing.
package buffer

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/corortime/alloc"
)

// cheapPrepend is the fixed head reserve kept free so callers may
// prepend framing without copying.
const cheapPrepend = 8

// spillSize is the size of the secondary iovec segment used by ReadFD
// to absorb data that doesn't fit in the current writable window.
const spillSize = 64 * 1024

// initialSize is the default backing-array size for a freshly
// constructed Buffer, not counting the prepend reserve.
const initialSize = 1024

// Buffer is a growable byte region with three indices, prepend <= read <=
// write <= cap(buf). It is not safe for concurrent use: the
// single-owner-per-fd policy a Stream enforces means exactly one task
// touches a given Buffer at a time.
type Buffer struct {
	buf    []byte
	read   int
	write  int
	pooled bool
}

// New allocates a Buffer with room for at least initialSize readable
// bytes before its first growth.
func New() *Buffer {
	return NewSize(initialSize)
}

// NewSize allocates a Buffer sized to hold at least n bytes without
// growing. The backing array is requested from the allocation
// collaborator opportunistically; correctness never depends on the hit.
func NewSize(n int) *Buffer {
	buf, pooled := alloc.Get(cheapPrepend + n)
	return &Buffer{buf: buf, read: cheapPrepend, write: cheapPrepend, pooled: pooled}
}

// Readable reports the number of bytes available for retrieval.
func (b *Buffer) Readable() int { return b.write - b.read }

// Writable reports the number of bytes that can be appended without
// growing or compacting.
func (b *Buffer) Writable() int { return len(b.buf) - b.write }

// Prependable reports the number of bytes free before the read cursor.
func (b *Buffer) Prependable() int { return b.read }

// Peek returns a read-only view over the readable region [read, write).
// The slice aliases the Buffer's backing array and is invalidated by any
// subsequent mutating call.
func (b *Buffer) Peek() []byte { return b.buf[b.read:b.write] }

// Retrieve advances the read cursor by min(n, Readable()). When n is at
// least Readable(), this is equivalent to RetrieveAll.
func (b *Buffer) Retrieve(n int) {
	if n < b.Readable() {
		b.read += n
		return
	}
	b.RetrieveAll()
}

// RetrieveAll resets the buffer to its empty state, read == write ==
// prepend.
func (b *Buffer) RetrieveAll() {
	b.read = cheapPrepend
	b.write = cheapPrepend
}

// RetrieveAsString copies out up to n readable bytes and retrieves them.
func (b *Buffer) RetrieveAsString(n int) string {
	if n > b.Readable() {
		n = b.Readable()
	}
	s := string(b.buf[b.read : b.read+n])
	b.Retrieve(n)
	return s
}

// RetrieveAllAsString copies out every readable byte and retrieves it.
func (b *Buffer) RetrieveAllAsString() string {
	return b.RetrieveAsString(b.Readable())
}

// Append ensures Writable() >= len(data), growing or compacting the
// backing array as needed per the growth policy below, then copies data
// into the writable tail.
func (b *Buffer) Append(data []byte) {
	if b.Writable() < len(data) {
		b.makeSpace(len(data))
	}
	copy(b.buf[b.write:], data)
	b.write += len(data)
}

// makeSpace ensures at least len bytes become writable. If the sum of
// the existing writable and prependable regions (beyond the fixed
// reserve) cannot hold len, the backing array is grown; otherwise the
// readable bytes are compacted forward to the reserve boundary.
func (b *Buffer) makeSpace(n int) {
	if b.Writable()+b.Prependable() < n+cheapPrepend {
		grown, pooled := alloc.Get(b.write + n)
		copy(grown, b.buf[:b.write])
		if b.pooled {
			alloc.Put(b.buf)
		}
		b.buf = grown
		b.pooled = pooled
		return
	}
	readable := b.Readable()
	copy(b.buf[cheapPrepend:], b.buf[b.read:b.write])
	b.read = cheapPrepend
	b.write = b.read + readable
}

// ReadFD performs one scattered read from fd: the buffer's writable tail
// is the primary iovec segment, and a 64 KiB stack-resident spill area is
// the secondary one, so that a single syscall absorbs up to
// Writable()+spill bytes. Any overflow into the spill area is appended
// afterwards, which may trigger growth.
//
// On success it returns the number of bytes read. On EAGAIN/EWOULDBLOCK
// it returns (0, err) without touching any index, leaving the caller free
// to suspend and retry. Any other errno is returned unchanged.
func (b *Buffer) ReadFD(fd int) (int, error) {
	var spill [spillSize]byte

	writable := b.Writable()
	iov := make([][]byte, 0, 2)
	iov = append(iov, b.buf[b.write:])
	iov = append(iov, spill[:])

	n, err := unix.Readv(fd, iov)
	if err != nil {
		return 0, err
	}

	if n <= writable {
		b.write += n
	} else {
		b.write = len(b.buf)
		b.Append(spill[:n-writable])
	}
	return n, nil
}

// WriteFD performs one write from the readable region and retrieves the
// bytes actually written. On EAGAIN/EWOULDBLOCK it returns (0, err)
// without retrieving anything.
func (b *Buffer) WriteFD(fd int) (int, error) {
	n, err := unix.Write(fd, b.Peek())
	if err != nil {
		return 0, err
	}
	b.Retrieve(n)
	return n, nil
}

// Release returns the backing array to the allocation collaborator. A
// Buffer must not be used after Release.
func (b *Buffer) Release() {
	if b.pooled {
		alloc.Put(b.buf)
	}
	b.buf = nil
}
