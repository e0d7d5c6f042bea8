package engine

import (
	"testing"

	"github.com/hailam/chessbot/internal/oracle"
)

func TestPVTable(t *testing.T) {
	m1 := oracle.Move{From: 12, To: 28, Piece: oracle.Pawn}
	m2 := oracle.Move{From: 6, To: 21, Piece: oracle.Knight}

	t.Run("StoreThenProbe", func(t *testing.T) {
		pv := NewPVTable(100)
		pv.Store(42, m1)
		got, ok := pv.Probe(42)
		if !ok || got != m1 {
			t.Errorf("Probe(42) = %s, %v; want %s", got, ok, m1)
		}
		if _, ok := pv.Probe(43); ok {
			t.Errorf("Probe of an empty slot succeeded")
		}
	})

	t.Run("CollisionReturnsNone", func(t *testing.T) {
		pv := NewPVTable(100)
		k1, k2 := oracle.Key(7), oracle.Key(107) // same slot
		pv.Store(k1, m1)
		if got, ok := pv.Probe(k2); ok {
			t.Errorf("colliding key returned %s", got)
		}

		pv.Store(k2, m2)
		if got, ok := pv.Probe(k2); !ok || got != m2 {
			t.Errorf("Probe(k2) = %s, %v", got, ok)
		}
		if got, ok := pv.Probe(k1); ok {
			t.Errorf("evicted key returned %s", got)
		}
	})

	t.Run("ZeroKey", func(t *testing.T) {
		pv := NewPVTable(10)
		if _, ok := pv.Probe(0); ok {
			t.Errorf("empty table matched key 0")
		}
		pv.Store(0, m1)
		if got, ok := pv.Probe(0); !ok || got != m1 {
			t.Errorf("Probe(0) = %s, %v", got, ok)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		pv := NewPVTable(10)
		pv.Store(3, m1)
		pv.Store(4, m2)
		if pv.HashFull() != 200 {
			t.Errorf("HashFull() = %d, want 200", pv.HashFull())
		}
		pv.Clear()
		if _, ok := pv.Probe(3); ok {
			t.Errorf("entry survived Clear")
		}
		if pv.HashFull() != 0 {
			t.Errorf("HashFull() = %d after Clear", pv.HashFull())
		}
	})

	t.Run("DefaultSize", func(t *testing.T) {
		if got := NewPVTable(0).Size(); got != DefaultPVTableSize {
			t.Errorf("Size() = %d, want %d", got, DefaultPVTableSize)
		}
	})
}
