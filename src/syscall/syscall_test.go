package syscalls

import (
	"testing"

	"defs"
	"fs"
	"ramfs"
	"task"
)

// fakeMemory backs UserMemory with a flat byte slice standing in for
// the whole user address space, addr used directly as an index.
type fakeMemory struct {
	mem []byte
}

func newFakeMemory(size int) *fakeMemory { return &fakeMemory{mem: make([]byte, size)} }

func (m *fakeMemory) ReadBytes(addr uint64, buf []byte) bool {
	if addr+uint64(len(buf)) > uint64(len(m.mem)) {
		return false
	}
	copy(buf, m.mem[addr:addr+uint64(len(buf))])
	return true
}

func (m *fakeMemory) WriteBytes(addr uint64, buf []byte) bool {
	if addr+uint64(len(buf)) > uint64(len(m.mem)) {
		return false
	}
	copy(m.mem[addr:addr+uint64(len(buf))], buf)
	return true
}

func (m *fakeMemory) ReadCString(addr uint64, max int) (string, bool) {
	for i := 0; i < max; i++ {
		if addr+uint64(i) >= uint64(len(m.mem)) {
			return "", false
		}
		if m.mem[addr+uint64(i)] == 0 {
			return string(m.mem[addr : addr+uint64(i)]), true
		}
	}
	return "", false
}

type fakeLog struct {
	written []byte
}

func (l *fakeLog) Write(p []byte) (int, error) {
	l.written = append(l.written, p...)
	return len(p), nil
}

func newDispatcher(t *testing.T) (*Dispatcher, *task.Table, *fakeMemory) {
	t.Helper()
	vfs := fs.New()
	ramfs.Register(vfs)
	if _, err := vfs.Mount("ramfs", defs.D_RAMFS, "/"); err != 0 {
		t.Fatalf("mount: %d", err)
	}
	tasks := task.NewTable()
	pid := tasks.Create(0, 0)
	tasks.SetCurrent(pid)

	mem := newFakeMemory(4096)
	return &Dispatcher{Tasks: tasks, VFS: vfs, Mem: mem, Log: &fakeLog{}}, tasks, mem
}

// sys_close on a standard fd (0, 1, 2) always fails.
func TestCloseRejectsStdFds(t *testing.T) {
	d, _, _ := newDispatcher(t)
	var tf TrapFrame
	for _, fd := range []uint64{0, 1, 2} {
		tf.Rax = uint64(SysClose)
		tf.Rdi = fd
		d.Dispatch(&tf)
		if tf.Rax != ErrReturn {
			t.Errorf("close(%d) = %#x, want ErrReturn", fd, tf.Rax)
		}
	}
}

func TestWriteToStdoutGoesToLog(t *testing.T) {
	d, _, mem := newDispatcher(t)
	copy(mem.mem, "hi\n")

	var tf TrapFrame
	tf.Rax = uint64(SysWrite)
	tf.Rdi = 1
	tf.Rsi = 0
	tf.Rdx = 3
	d.Dispatch(&tf)
	if tf.Rax != 3 {
		t.Fatalf("write(1,...) = %d, want 3", tf.Rax)
	}
	if got := string(d.Log.(*fakeLog).written); got != "hi\n" {
		t.Errorf("log contents = %q, want %q", got, "hi\n")
	}
}

func TestOpenReadCloseRoundTrip(t *testing.T) {
	d, tasks, mem := newDispatcher(t)

	root := d.VFS.Root()
	fd, err := d.VFS.CreateFile(root, "greeting", defs.S_IFREG|0o644, 0, 0)
	if err != 0 {
		t.Fatalf("create: %d", err)
	}
	wf, _ := d.VFS.Open(fd, defs.FWRITE)
	d.VFS.Write(wf, []byte("yo"))
	d.VFS.Close(wf)

	pathAddr := uint64(100)
	copy(mem.mem[pathAddr:], "/greeting\x00")

	var tf TrapFrame
	tf.Rax = uint64(SysOpen)
	tf.Rdi = pathAddr
	tf.Rsi = 0
	d.Dispatch(&tf)
	openFd := tf.Rax
	if openFd == ErrReturn {
		t.Fatal("open failed")
	}

	bufAddr := uint64(200)
	tf = TrapFrame{}
	tf.Rax = uint64(SysRead)
	tf.Rdi = openFd
	tf.Rsi = bufAddr
	tf.Rdx = 2
	d.Dispatch(&tf)
	if tf.Rax != 2 {
		t.Fatalf("read = %d, want 2", tf.Rax)
	}
	if got := string(mem.mem[bufAddr : bufAddr+2]); got != "yo" {
		t.Errorf("read contents = %q, want yo", got)
	}

	tf = TrapFrame{}
	tf.Rax = uint64(SysClose)
	tf.Rdi = openFd
	d.Dispatch(&tf)
	if tf.Rax != 0 {
		t.Errorf("close = %d, want 0", tf.Rax)
	}

	_ = tasks
}
