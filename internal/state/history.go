package state

// #region history
// history is a fixed-capacity circular buffer of frames. When full the oldest
// frame is overwritten. Frames go in and come out as copies.
type history struct {
	buf   []Frame
	start int
	n     int
}

func newHistory(capacity int) *history {
	if capacity < 0 {
		capacity = 0
	}
	return &history{buf: make([]Frame, capacity)}
}

func (h *history) push(f Frame) {
	if len(h.buf) == 0 {
		return
	}
	f = f.clone()
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = f
		h.n++
		return
	}
	h.buf[h.start] = f
	h.start = (h.start + 1) % len(h.buf)
}

// recent returns the newest limit frames, oldest first.
func (h *history) recent(limit int) []Frame {
	if limit <= 0 || h.n == 0 {
		return nil
	}
	if limit > h.n {
		limit = h.n
	}
	out := make([]Frame, 0, limit)
	for i := h.n - limit; i < h.n; i++ {
		out = append(out, h.buf[(h.start+i)%len(h.buf)].clone())
	}
	return out
}

// #endregion history
