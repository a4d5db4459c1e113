package task

import "testing"

// After Create+SetCurrent, Getpid/Getppid report the values recorded
// at creation.
func TestGetpidGetppid(t *testing.T) {
	tbl := NewTable()
	parent := tbl.Create(0, 0)
	tbl.SetCurrent(parent)
	if got := tbl.Getpid(); got != parent {
		t.Fatalf("Getpid = %d, want %d", got, parent)
	}

	child := tbl.Create(parent, 0)
	tbl.SetCurrent(child)
	if got := tbl.Getpid(); got != child {
		t.Fatalf("Getpid = %d, want %d", got, child)
	}
	if got := tbl.Getppid(); got != parent {
		t.Fatalf("Getppid = %d, want %d", got, parent)
	}
}

func TestGetpidBeforeAnyCurrent(t *testing.T) {
	tbl := NewTable()
	if got := tbl.Getpid(); got != 0 {
		t.Errorf("Getpid with no current task = %d, want 0", got)
	}
}

func TestCreateNeverRepeatsAPid(t *testing.T) {
	tbl := NewTable()
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		pid := tbl.Create(0, 0)
		if seen[uint32(pid)] {
			t.Fatalf("pid %d reused", pid)
		}
		seen[uint32(pid)] = true
	}
	if tbl.Count() != 100 {
		t.Errorf("Count = %d, want 100", tbl.Count())
	}
}
