// Package buffer provides a buffered byte source with push-back support.
package buffer

import (
	"io"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
)

const maxConsecutiveEmptyReads = 100

// Reader buffers an underlying stream and lets the caller peek at the next
// byte or hand bytes back so that later reads see them again. Bytes pushed
// back are returned before anything still unread from the stream.
type Reader struct {
	rd   io.Reader
	buf  []byte
	r, w int
	err  error
}

// NewReader creates a Reader with the provided buffer size.
func NewReader(rd io.Reader, size int) *Reader {
	if size <= 0 {
		size = constants.BufferSize
	}
	return &Reader{
		rd:  rd,
		buf: make([]byte, size),
	}
}

// Buffered returns the number of bytes that can be read without touching the
// underlying stream.
func (b *Reader) Buffered() int {
	return b.w - b.r
}

// fill reads a new chunk into an empty buffer.
func (b *Reader) fill() {
	b.r, b.w = 0, 0
	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		n, err := b.rd.Read(b.buf)
		if n < 0 {
			panic("buffer: reader returned negative count from Read")
		}
		b.w += n
		if err != nil {
			b.err = err
			return
		}
		if n > 0 {
			return
		}
	}
	b.err = io.ErrNoProgress
}

func (b *Reader) readErr() error {
	err := b.err
	b.err = nil
	return err
}

// ReadByte reads and returns a single byte.
func (b *Reader) ReadByte() (byte, error) {
	for b.r == b.w {
		if b.err != nil {
			return 0, b.readErr()
		}
		b.fill()
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// PeekByte returns the next byte without consuming it. A read error is kept
// and reported again by the next read.
func (b *Reader) PeekByte() (byte, error) {
	for b.r == b.w {
		if b.err != nil {
			return 0, b.err
		}
		b.fill()
	}
	return b.buf[b.r], nil
}

// Unread pushes p back onto the front of the stream.
func (b *Reader) Unread(p []byte) {
	if len(p) == 0 {
		return
	}
	if len(p) <= b.r {
		b.r -= len(p)
		copy(b.buf[b.r:], p)
		return
	}

	pending := b.w - b.r
	size := len(b.buf)
	if len(p)+pending > size {
		size = len(p) + pending
	}
	buf := make([]byte, size)
	copy(buf, p)
	copy(buf[len(p):], b.buf[b.r:b.w])
	b.buf = buf
	b.r = 0
	b.w = len(p) + pending
}

// Read reads up to len(p) bytes. Buffered and pushed-back bytes are drained
// before the underlying stream is read again.
func (b *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		if b.Buffered() > 0 {
			return 0, nil
		}
		return 0, b.readErr()
	}

	if b.r == b.w {
		if b.err != nil {
			return 0, b.readErr()
		}
		if len(p) >= len(b.buf) {
			// Large read, empty buffer: skip the copy.
			n, err := b.rd.Read(p)
			if n < 0 {
				panic("buffer: reader returned negative count from Read")
			}
			return n, err
		}
		b.fill()
		if b.r == b.w {
			return 0, b.readErr()
		}
	}

	n := copy(p, b.buf[b.r:b.w])
	b.r += n
	return n, nil
}
