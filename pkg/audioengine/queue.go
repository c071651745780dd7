package audioengine

// sampleQueue is a FIFO of interleaved samples. Pop never allocates; Push
// compacts the consumed head before growing.
type sampleQueue struct {
	buf  []float32
	head int
}

func (q *sampleQueue) Len() int { return len(q.buf) - q.head }

func (q *sampleQueue) Push(samples []float32) {
	if len(samples) == 0 {
		return
	}
	if q.head > 0 && len(q.buf)+len(samples) > cap(q.buf) {
		n := copy(q.buf, q.buf[q.head:])
		q.buf = q.buf[:n]
		q.head = 0
	}
	q.buf = append(q.buf, samples...)
}

// Pop returns the head sample, or false on underrun.
func (q *sampleQueue) Pop() (float32, bool) {
	if q.head >= len(q.buf) {
		return 0, false
	}
	v := q.buf[q.head]
	q.head++
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}
	return v, true
}

// Peek copies up to len(dst) samples from the head without consuming them.
func (q *sampleQueue) Peek(dst []float64) int {
	live := q.buf[q.head:]
	n := len(dst)
	if len(live) < n {
		n = len(live)
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(live[i])
	}
	return n
}

func (q *sampleQueue) Clear() {
	q.buf = q.buf[:0]
	q.head = 0
}
