package rest

import (
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
)

// Body produces the request body as a sequence of string chunks.
// Next returns the next chunk and true, or "" and false once exhausted.
// The dispatcher pulls chunks lazily while the request body is written and
// never calls Next again after it has returned false.
//
// A nil Body means the request carries no body.
type Body interface {
	Next() (string, bool)
}

// BodyFunc adapts a plain function to the Body interface.
type BodyFunc func() (string, bool)

// Next calls f.
func (f BodyFunc) Next() (string, bool) { return f() }

// String returns a Body that yields data exactly once. Like every Body it is
// consumed by the request it is passed to and cannot be reused.
func String(data string) Body {
	return &stringBody{data: data}
}

type stringBody struct {
	data string
	sent atomic.Bool
}

func (b *stringBody) Next() (string, bool) {
	if b.sent.CompareAndSwap(false, true) {
		return b.data, true
	}
	return "", false
}

// Chunks returns a Body that yields the given chunks in order.
func Chunks(chunks ...string) Body {
	i := 0
	return BodyFunc(func() (string, bool) {
		if i >= len(chunks) {
			return "", false
		}
		chunk := chunks[i]
		i++
		return chunk, true
	})
}

// Seq returns a Body that pulls chunks from seq. The sequence may be infinite;
// it is consumed only as fast as the connection accepts data.
// Next and Close may be called from different goroutines.
func Seq(seq iter.Seq[string]) Body {
	next, stop := iter.Pull(seq)
	return &seqBody{next: next, stop: stop}
}

type seqBody struct {
	mu      sync.Mutex
	next    func() (string, bool)
	stop    func()
	stopped bool
}

func (b *seqBody) Next() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return "", false
	}
	chunk, ok := b.next()
	if !ok {
		b.release()
	}
	return chunk, ok
}

// Close releases the underlying pull iterator when the request ends before the
// sequence is exhausted. It is safe to call more than once.
func (b *seqBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.release()
	return nil
}

// release stops the iterator once; b.mu must be held.
func (b *seqBody) release() {
	if !b.stopped {
		b.stopped = true
		b.stop()
	}
}

// bodyReader turns a Body into a reader for net/http.
type bodyReader struct {
	body Body
	buf  string
	done bool
}

func newBodyReader(body Body) io.Reader {
	// A single string has a known length, which lets net/http send
	// Content-Length instead of chunked encoding.
	if sb, ok := body.(*stringBody); ok {
		data, _ := sb.Next()
		return strings.NewReader(data)
	}
	return &bodyReader{body: body}
}

func (r *bodyReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for r.buf == "" {
		if r.done {
			return 0, io.EOF
		}
		chunk, ok := r.body.Next()
		if !ok {
			r.done = true
			return 0, io.EOF
		}
		r.buf = chunk
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *bodyReader) Close() error {
	if c, ok := r.body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
