// Package task implements the PID-indexed task table :
// per-task page table, trap-frame pointer, and file-descriptor map,
// with a rolling PID allocator. Grounded on the established proc
// package's table-of-structs-behind-a-mutex shape (e.g. fd/fd.go's
// Fd_t bookkeeping) and original_source/kernel/src/task.rs.
package task

import (
	"sync"

	"defs"
	"mem"
)

// MaxPid bounds the PID allocator's rolling counter (wrapping
// below 0x0400_0000").
const MaxPid defs.Pid_t = 0x0400_0000

// File is the task-table's view of an open file descriptor: enough to
// find the VFS file record issuing a read/write/close needs. The
// syscalls package stores a concrete *fs.File behind this opaque handle
// and type-asserts it back, so task does not import fs.
type File any

// Task holds everything a task needs: identity, the user page
// table root, the in-flight trap frame, and the per-task FD table.
type Task struct {
	Pid defs.Pid_t
	Ppid defs.Pid_t
	PageTable mem.Pa_t
	TrapFrame uintptr // address of the saved TrapFrame on the kernel stack
	Files map[int]File
	NextFd int
}

// Table is the process-wide PID -> Task registry plus the "current
// task" slot syscall dispatch consults. All mutation happens from
// main (boot/syscall) context; the mutex exists for the
// same defensive reason it wraps single-core-only state in
// sync.Mutex throughout vm/as.go.
type Table struct {
	mu sync.Mutex
	tasks map[defs.Pid_t]*Task
	nextPid defs.Pid_t
	current defs.Pid_t
}

// NewTable() builds an empty task table. PID allocation starts at 1:
// PID 0 never names a real task.
func NewTable() *Table {
	return &Table{tasks: make(map[defs.Pid_t]*Task), nextPid: 1}
}

// Create allocates a PID (skipping any still-occupied slot, wrapping
// below MaxPid) and registers a fresh Task with an empty FD table and
// NextFd = 3.
func (t *Table) Create(ppid defs.Pid_t, pageTable mem.Pa_t) defs.Pid_t {
	t.mu.Lock()
	defer t.mu.Unlock()

	pid := t.nextPid
	for {
		if pid == 0 {
			pid = 1
		}
		if _, occupied := t.tasks[pid]; !occupied {
			break
		}
		pid = (pid + 1) % MaxPid
	}
	t.nextPid = (pid + 1) % MaxPid

	t.tasks[pid] = &Task{
		Pid: pid,
		Ppid: ppid,
		PageTable: pageTable,
		Files: make(map[int]File),
		NextFd: 3,
	}
	return pid
}

// SetCurrent marks pid as the running task. Boot code calls this once
// before entering userspace; there is no preemptive scheduler to call
// it again.
func (t *Table) SetCurrent(pid defs.Pid_t) {
	t.mu.Lock()
	t.current = pid
	t.mu.Unlock()
}

// Current returns the running task, or nil if none has been set.
func (t *Table) Current() *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks[t.current]
}

// Getpid returns the current task's PID, or 0 if none is set.
func (t *Table) Getpid() defs.Pid_t {
	cur := t.Current()
	if cur == nil {
		return 0
	}
	return cur.Pid
}

// Getppid returns the current task's parent PID stored at creation.
func (t *Table) Getppid() defs.Pid_t {
	cur := t.Current()
	if cur == nil {
		return 0
	}
	return cur.Ppid
}

// Count returns the number of live tasks, for cmd/kstat's
// stats.Snapshot().
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}

// Remove drops pid from the table and clears the current-task slot if
// pid was the running task. This kernel has no scheduler, so there is
// nothing left to switch to once the current task exits; boot glue
// decides what happens to the CPU after calling this.
func (t *Table) Remove(pid defs.Pid_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tasks, pid)
	if t.current == pid {
		t.current = 0
	}
}

// Lookup returns the task for pid, or nil.
func (t *Table) Lookup(pid defs.Pid_t) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks[pid]
}
