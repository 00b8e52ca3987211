package tracking

// DefaultWindowSize is the number of raw fixes re-corrected on every message.
const DefaultWindowSize = 10

// Window is a FIFO ring of the most recent fixes. It is owned by a single
// session goroutine and is not safe for concurrent use.
type Window struct {
	buf   []Fix
	start int
	size  int
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window{buf: make([]Fix, capacity)}
}

// Push appends a fix, evicting the oldest when full.
func (w *Window) Push(f Fix) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = f
		w.size++
		return
	}
	w.buf[w.start] = f
	w.start = (w.start + 1) % len(w.buf)
}

func (w *Window) Len() int { return w.size }

func (w *Window) Cap() int { return len(w.buf) }

// Snapshot copies the fixes in arrival order.
func (w *Window) Snapshot() []Fix {
	out := make([]Fix, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Last returns the newest fix.
func (w *Window) Last() (Fix, bool) {
	if w.size == 0 {
		return Fix{}, false
	}
	return w.buf[(w.start+w.size-1)%len(w.buf)], true
}
