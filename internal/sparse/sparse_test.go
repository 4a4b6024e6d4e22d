package sparse

import "testing"

func TestInsertAndContains(t *testing.T) {
	s := New(16)
	if s.Len() != 0 {
		t.Fatalf("new set Len() = %d, want 0", s.Len())
	}
	if !s.Insert(3) {
		t.Error("Insert(3) = false, want true on first insert")
	}
	if s.Insert(3) {
		t.Error("Insert(3) = true, want false on duplicate")
	}
	if !s.Contains(3) {
		t.Error("Contains(3) = false after insert")
	}
	if s.Contains(4) {
		t.Error("Contains(4) = true, never inserted")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestInsertOutOfRange(t *testing.T) {
	s := New(4)
	if s.Insert(4) {
		t.Error("Insert(4) = true, want false at capacity")
	}
	if s.Insert(100) {
		t.Error("Insert(100) = true, want false above capacity")
	}
	if s.Contains(100) {
		t.Error("Contains(100) = true, want false")
	}
}

func TestClear(t *testing.T) {
	s := New(8)
	for i := uint32(0); i < 8; i++ {
		s.Insert(i)
	}
	if s.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", s.Len())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
	for i := uint32(0); i < 8; i++ {
		if s.Contains(i) {
			t.Errorf("Contains(%d) = true after Clear", i)
		}
	}
	// Reinsertion after clear behaves like a fresh set.
	if !s.Insert(5) {
		t.Error("Insert(5) = false after Clear")
	}
}

func TestUninitializedSparseJunk(t *testing.T) {
	// The sparse array is never zeroed on Clear; stale indices must
	// not produce false positives.
	s := New(8)
	s.Insert(1)
	s.Insert(2)
	s.Clear()
	s.Insert(2)
	if s.Contains(1) {
		t.Error("Contains(1) = true from stale sparse entry")
	}
	if !s.Contains(2) {
		t.Error("Contains(2) = false, want true")
	}
}
