package oracle

// RepetitionHistory is the ordered list of position keys seen in the game,
// followed by the keys of the search frames currently on the board.
//
// Game moves are only ever appended. Search frames are pushed by MakeMove and
// popped by the matching undo.
type RepetitionHistory struct {
	keys   []Key
	rule50 []int
	root   int
}

// Push appends a position with its halfmove clock.
func (h *RepetitionHistory) Push(key Key, halfmoveClock int) {
	h.keys = append(h.keys, key)
	h.rule50 = append(h.rule50, halfmoveClock)
}

// Pop removes the newest position.
func (h *RepetitionHistory) Pop() {
	if len(h.keys) == 0 {
		return
	}
	h.keys = h.keys[:len(h.keys)-1]
	h.rule50 = h.rule50[:len(h.rule50)-1]
}

// Len returns the number of recorded positions.
func (h *RepetitionHistory) Len() int {
	return len(h.keys)
}

// Keys returns a copy of the recorded keys, oldest first.
func (h *RepetitionHistory) Keys() []Key {
	out := make([]Key, len(h.keys))
	copy(out, h.keys)
	return out
}

// MarkRoot records the newest position as the root of a search.
func (h *RepetitionHistory) MarkRoot() {
	h.root = len(h.keys) - 1
	if h.root < 0 {
		h.root = 0
	}
}

// Occurrences counts earlier appearances of the newest position inside the
// halfmove-clock window and returns the index of the most recent one (-1 if none).
func (h *RepetitionHistory) Occurrences() (count int, latest int) {
	latest = -1
	n := len(h.keys)
	if n <= 1 {
		return 0, latest
	}
	curr := h.keys[n-1]
	start := n - 1 - h.rule50[n-1]
	if start < 0 {
		start = 0
	}
	for i := n - 2; i >= start; i-- {
		if h.keys[i] == curr {
			count++
			if latest == -1 {
				latest = i
			}
		}
	}
	return count, latest
}

// IsRepetition reports a draw by repetition: the newest position already
// occurred twice before, or once at or after the search root.
func (h *RepetitionHistory) IsRepetition() bool {
	count, latest := h.Occurrences()
	if count >= 2 {
		return true
	}
	return count == 1 && latest >= h.root
}
