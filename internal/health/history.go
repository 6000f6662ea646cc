package health

import "time"

// ringBuffer holds the most recent results for one service, oldest
// evicted first. Capacity is fixed at construction.
type ringBuffer struct {
	buf   []Result
	start int
	count int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]Result, capacity)}
}

func (r *ringBuffer) push(res Result) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = res
		r.count++
		return
	}
	r.buf[r.start] = res
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ringBuffer) len() int {
	return r.count
}

// latest returns the most recent result, or false if empty.
func (r *ringBuffer) latest() (Result, bool) {
	if r.count == 0 {
		return Result{}, false
	}
	return r.buf[(r.start+r.count-1)%len(r.buf)], true
}

// list returns results in insertion order, oldest first.
func (r *ringBuffer) list() []Result {
	out := make([]Result, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// consecutiveFailures counts the contiguous run of failing results from
// the most recent entry backward, stopping at the first non-failing
// entry or the buffer start.
func (r *ringBuffer) consecutiveFailures() int {
	n := 0
	for i := r.count - 1; i >= 0; i-- {
		if !r.buf[(r.start+i)%len(r.buf)].Status.Failing() {
			break
		}
		n++
	}
	return n
}

// cachedResult is one entry of the short-lived result cache used to
// skip re-invoking an expensive check within the TTL window.
type cachedResult struct {
	capturedAt time.Time
	result     Result
}

func (c cachedResult) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.capturedAt) < ttl
}
