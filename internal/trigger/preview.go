package trigger

import "sync"

// Preview is one recomputation of a trigger, stamped with the order in
// which it was requested.
type Preview struct {
	Seq     uint64
	Request *SignedRequest
	Err     error
}

// Previewer recomputes signed requests as inputs change. Results may finish
// out of order; only the newest one accepted is authoritative.
type Previewer struct {
	mu     sync.Mutex
	issued uint64
	latest Preview
}

// Next stamps a sequence number and builds the request for p.
func (pv *Previewer) Next(p Params) Preview {
	return pv.Defer(p)()
}

// Defer stamps a sequence number now and returns a function that builds
// the request later, e.g. on another goroutine. Ordering follows the
// Defer calls, not the builds.
func (pv *Previewer) Defer(p Params) func() Preview {
	pv.mu.Lock()
	pv.issued++
	seq := pv.issued
	pv.mu.Unlock()

	return func() Preview {
		req, err := Build(p)
		return Preview{Seq: seq, Request: req, Err: err}
	}
}

// Accept records p unless a newer preview has already been accepted.
// It reports whether p is now the latest.
func (pv *Previewer) Accept(p Preview) bool {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if p.Seq < pv.latest.Seq {
		return false
	}
	pv.latest = p
	return true
}

// Latest returns the authoritative preview. Its Seq is zero if nothing has
// been accepted yet.
func (pv *Previewer) Latest() Preview {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.latest
}
