package rest

import "context"

// Future is the handle returned by every request method. It resolves exactly
// once, either to a Response or to an error.
// Future is safe for concurrent use by multiple goroutines.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// failedFuture returns a Future that is already rejected with err.
func failedFuture(err error) *Future {
	f := newFuture()
	f.complete(nil, err)
	return f
}

func (f *Future) complete(resp *Response, err error) {
	f.resp, f.err = resp, err
	close(f.done)
}

// Done returns a channel that is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the request finishes or ctx is done. Giving up on ctx
// only stops the wait; the request itself keeps running to completion.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until the request finishes.
func (f *Future) Wait() (*Response, error) {
	<-f.done
	return f.resp, f.err
}
