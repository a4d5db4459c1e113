// Package syscalls implements the numbered syscall dispatch and the
// MSR setup for the SYSCALL/SYSRET fast path. Named
// "syscalls" (not "syscall") so its import path never shadows the
// standard library package of the same short name. Grounded on
// original_source/kernel/src/syscall.rs's TrapFrame layout and
// dispatch match, and on the established Err_t-return convention
// throughout vm/as.go and fd/fd.go.
package syscalls

import (
	"defs"
	"fs"
	"task"
)

// Model-specific registers for the SYSCALL/SYSRET path. Setup programs
// STAR, LSTAR, FMASK and EFER; MSR_KERNEL_GS_BASE is named here but
// Setup does not write it. The selector bases and entry-stub address
// written into them come from boot glue.
const (
	MSR_STAR uint32 = 0xC0000081
	MSR_LSTAR uint32 = 0xC0000082
	MSR_FMASK uint32 = 0xC0000084
	MSR_EFER uint32 = 0xC0000080
	MSR_KERNEL_GS_BASE uint32 = 0xC0000102
	EFER_SCE uint64 = 1 << 0
	RFLAGS_IF uint64 = 1 << 9
	RFLAGS_TF uint64 = 1 << 8
)

// MsrWriter is the single hardware hook Setup needs, the same
// injection shape every other package in this tree uses for hardware
// access.
type MsrWriter func(msr uint32, value uint64)

// Setup programs STAR with the ring0/ring3 selector bases, LSTAR with
// the entry-stub address, FMASK to clear IF and TF on entry, and sets
// EFER.SCE so the SYSCALL instruction is enabled.
func Setup(wrmsr MsrWriter, kernelCS, userCS32 uint16, entryStub uint64, currentEFER uint64) {
	star := uint64(userCS32)<<48 | uint64(kernelCS)<<32
	wrmsr(MSR_STAR, star)
	wrmsr(MSR_LSTAR, entryStub)
	wrmsr(MSR_FMASK, RFLAGS_IF|RFLAGS_TF)
	wrmsr(MSR_EFER, currentEFER|EFER_SCE)
}

// TrapFrame is the fixed register layout the entry stub pushes onto
// the kernel stack before calling the dispatcher (the "raw
// pointer trap-frame ABI" note: this layout is part of the ABI and
// must match byte-for-byte between stub and dispatcher). Field order
// here is the memory order from the final stack pointer upward, the
// reverse of the order the stub pushes them: general-purpose registers
// first, interrupt-frame fields last.
type TrapFrame struct {
	R15, R14, R13, R12 uint64
	R11, R10, R9, R8 uint64
	Rbp uint64
	Rdi, Rsi, Rdx, Rcx, Rbx, Rax uint64
	// Synthetic interrupt frame, pushed before the GP registers above
	// (and therefore popped after them on return):
	Rip, Cs, Rflags, Rsp, Ss uint64
}

// Number identifies a syscall by the dispatch table.
type Number uint64

const (
	SysRead Number = 0
	SysWrite Number = 1
	SysOpen Number = 2
	SysClose Number = 3
	SysGetpid Number = 39
	SysExit Number = 60
	SysGetppid Number = 110
)

// ErrReturn is the all-ones value every failing syscall returns: the
// maximum unsigned integer, interpreted as -1 in the signed user ABI.
const ErrReturn uint64 = ^uint64(0)

// UserMemory is the subset of address-space access the dispatcher
// needs: safe copies across the user/kernel boundary. Boot glue backs
// this with the mem package's direct-map-based accessors, mirroring
// the established Userdmap8_inner/Userstr pattern in vm/as.go; tests
// back it with a plain byte-slice fake.
type UserMemory interface {
	ReadBytes(addr uint64, buf []byte) bool
	WriteBytes(addr uint64, buf []byte) bool
	// ReadCString reads at most max bytes looking for a NUL terminator,
	// failing (false) if none is found within the cap or a read faults.
	ReadCString(addr uint64, max int) (string, bool)
}

// KernelLog is where fd 1 and fd 2 writes go: a write to either
// always succeeds, landing in the kernel log.
type KernelLog interface {
	Write(p []byte) (int, error)
}

// Dispatcher holds everything syscall handling needs: the task table,
// the VFS, user-memory access, and the kernel log sink. Exit is
// called by sys_exit; this package has no scheduler of its own, so
// the action of "terminating a task" is delegated to boot glue.
type Dispatcher struct {
	Tasks *task.Table
	VFS *fs.VFS
	Mem UserMemory
	Log KernelLog
	Exit func(pid defs.Pid_t, code int64)
}

const maxPathLen = 256

// Dispatch reads the syscall number from Rax and the first three
// arguments from Rdi/Rsi/Rdx, invokes the matching handler, and
// writes the result back into Rax (the dispatch table).
// Unknown numbers fail with ErrReturn.
func (d *Dispatcher) Dispatch(tf *TrapFrame) {
	switch Number(tf.Rax) {
	case SysRead:
		tf.Rax = d.sysRead(int(tf.Rdi), tf.Rsi, tf.Rdx)
	case SysWrite:
		tf.Rax = d.sysWrite(int(tf.Rdi), tf.Rsi, tf.Rdx)
	case SysOpen:
		tf.Rax = d.sysOpen(tf.Rdi, tf.Rsi, tf.Rdx)
	case SysClose:
		tf.Rax = d.sysClose(int(tf.Rdi))
	case SysGetpid:
		tf.Rax = uint64(d.Tasks.Getpid())
	case SysExit:
		d.sysExit(int64(tf.Rdi))
		// sys_exit never returns to ring 3; Rax is irrelevant.
	case SysGetppid:
		tf.Rax = uint64(d.Tasks.Getppid())
	default:
		tf.Rax = ErrReturn
	}
}

func (d *Dispatcher) currentFile(fd int) (*fs.File, bool) {
	if fd < 3 {
		return nil, false
	}
	cur := d.Tasks.Current()
	if cur == nil {
		return nil, false
	}
	f, ok := cur.Files[fd]
	if !ok {
		return nil, false
	}
	file, ok := f.(*fs.File)
	return file, ok
}

func (d *Dispatcher) sysRead(fd int, bufAddr, count uint64) uint64 {
	file, ok := d.currentFile(fd)
	if !ok {
		return ErrReturn
	}
	buf := make([]byte, count)
	n, err := d.VFS.Read(file, buf)
	if err != 0 {
		return ErrReturn
	}
	if !d.Mem.WriteBytes(bufAddr, buf[:n]) {
		return ErrReturn
	}
	return uint64(n)
}

func (d *Dispatcher) sysWrite(fd int, bufAddr, count uint64) uint64 {
	buf := make([]byte, count)
	if !d.Mem.ReadBytes(bufAddr, buf) {
		return ErrReturn
	}
	if fd == 1 || fd == 2 {
		d.Log.Write(buf)
		return count
	}
	file, ok := d.currentFile(fd)
	if !ok {
		return ErrReturn
	}
	n, err := d.VFS.Write(file, buf)
	if err != 0 {
		return ErrReturn
	}
	return uint64(n)
}

func (d *Dispatcher) sysOpen(pathAddr, flags, mode uint64) uint64 {
	path, ok := d.Mem.ReadCString(pathAddr, maxPathLen)
	if !ok {
		return ErrReturn
	}
	dentry := d.VFS.Resolve(path)
	if dentry == nil {
		return ErrReturn
	}
	f, err := d.VFS.Open(dentry, defs.DecodeOpenFlags(flags))
	if err != 0 {
		return ErrReturn
	}
	cur := d.Tasks.Current()
	if cur == nil {
		return ErrReturn
	}
	fd := cur.NextFd
	cur.NextFd++
	cur.Files[fd] = f
	return uint64(fd)
}

func (d *Dispatcher) sysClose(fd int) uint64 {
	if fd < 3 {
		return ErrReturn
	}
	cur := d.Tasks.Current()
	if cur == nil {
		return ErrReturn
	}
	fRaw, ok := cur.Files[fd]
	if !ok {
		return ErrReturn
	}
	file := fRaw.(*fs.File)
	delete(cur.Files, fd)
	if err := d.VFS.Close(file); err != 0 {
		return ErrReturn
	}
	return 0
}

func (d *Dispatcher) sysExit(code int64) {
	cur := d.Tasks.Current()
	if cur == nil {
		return
	}
	if d.Exit != nil {
		d.Exit(cur.Pid, code)
	}
}
