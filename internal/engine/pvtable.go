package engine

import "github.com/hailam/chessbot/internal/oracle"

// DefaultPVTableSize is the number of PV table slots.
const DefaultPVTableSize = 100000

// pvEntry is one slot of the PV table.
type pvEntry struct {
	Key  oracle.Key  // Full key for verification
	Move oracle.Move // Best move found at Key
}

// PVTable remembers the best move found for a position.
//
// The table is a fixed array indexed by key modulo its size. Store always
// overwrites the slot, so colliding positions evict each other; Probe verifies
// the full key so a collision loses an entry but never returns a wrong move.
type PVTable struct {
	entries []pvEntry
	used    int
}

// NewPVTable creates a PV table with the given number of slots.
func NewPVTable(size int) *PVTable {
	if size <= 0 {
		size = DefaultPVTableSize
	}
	return &PVTable{entries: make([]pvEntry, size)}
}

func (t *PVTable) index(key oracle.Key) uint64 {
	return uint64(key) % uint64(len(t.entries))
}

// Probe returns the move stored for key, if the slot still belongs to key.
func (t *PVTable) Probe(key oracle.Key) (oracle.Move, bool) {
	entry := t.entries[t.index(key)]
	if entry.Key == key && entry.Move != oracle.NoMove {
		return entry.Move, true
	}
	return oracle.NoMove, false
}

// Store records move as the best move for key, evicting any previous occupant.
func (t *PVTable) Store(key oracle.Key, move oracle.Move) {
	entry := &t.entries[t.index(key)]
	if entry.Move == oracle.NoMove {
		t.used++
	}
	entry.Key = key
	entry.Move = move
}

// Clear empties the table.
func (t *PVTable) Clear() {
	for i := range t.entries {
		t.entries[i] = pvEntry{}
	}
	t.used = 0
}

// Size returns the number of slots.
func (t *PVTable) Size() int {
	return len(t.entries)
}

// HashFull returns the permille of slots in use.
func (t *PVTable) HashFull() int {
	return t.used * 1000 / len(t.entries)
}
