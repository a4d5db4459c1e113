package ramfs_test

import (
	"testing"

	"defs"
	"fs"
	"ramfs"
)

func mountedVFS(t *testing.T) (*fs.VFS, *fs.Dentry) {
	t.Helper()
	vfs := fs.New()
	ramfs.Register(vfs)
	root, err := vfs.Mount("ramfs", defs.D_RAMFS, "/")
	if err != 0 {
		t.Fatalf("mount: %d", err)
	}
	return vfs, root
}

func openFile(t *testing.T, vfs *fs.VFS, root *fs.Dentry, name string) *fs.File {
	t.Helper()
	d, err := vfs.CreateFile(root, name, defs.S_IFREG|0o644, 0, 0)
	if err != 0 {
		t.Fatalf("create %s: %d", name, err)
	}
	f, err := vfs.Open(d, defs.FREAD|defs.FWRITE)
	if err != 0 {
		t.Fatalf("open %s: %d", name, err)
	}
	return f
}

// A write followed by a read from the start returns exactly what
// was written.
func TestReadWriteRoundTrip(t *testing.T) {
	vfs, root := mountedVFS(t)
	f := openFile(t, vfs, root, "a")

	want := []byte("hello, ramfs")
	n, err := vfs.Write(f, want)
	if err != 0 || n != len(want) {
		t.Fatalf("write = (%d, %d), want (%d, 0)", n, err, len(want))
	}

	f.Pos = 0
	got := make([]byte, len(want))
	n, err = vfs.Read(f, got)
	if err != 0 || n != len(want) {
		t.Fatalf("read = (%d, %d), want (%d, 0)", n, err, len(want))
	}
	if string(got) != string(want) {
		t.Errorf("read back %q, want %q", got, want)
	}
}

// Reading at or past EOF, or from a never-written inode, returns 0
// bytes with no error.
func TestReadAtEOF(t *testing.T) {
	vfs, root := mountedVFS(t)
	f := openFile(t, vfs, root, "empty")

	buf := make([]byte, 8)
	n, err := vfs.Read(f, buf)
	if err != 0 || n != 0 {
		t.Fatalf("read empty = (%d, %d), want (0, 0)", n, err)
	}

	vfs.Write(f, []byte("abc"))
	f.Pos = 3
	n, err = vfs.Read(f, buf)
	if err != 0 || n != 0 {
		t.Fatalf("read at EOF = (%d, %d), want (0, 0)", n, err)
	}
}

// write updates inode.Size to max(old size, pos+count).
func TestWriteUpdatesSize(t *testing.T) {
	vfs, root := mountedVFS(t)
	f := openFile(t, vfs, root, "sized")

	vfs.Write(f, []byte("12345"))
	if f.Inode.Size != 5 {
		t.Fatalf("size after initial write = %d, want 5", f.Inode.Size)
	}

	// Overwrite inside the existing range: size must not shrink.
	f.Pos = 1
	vfs.Write(f, []byte("xx"))
	if f.Inode.Size != 5 {
		t.Errorf("size after in-range overwrite = %d, want 5", f.Inode.Size)
	}

	// Write extending past the current end grows size.
	f.Pos = 4
	vfs.Write(f, []byte("abcde"))
	if f.Inode.Size != 9 {
		t.Errorf("size after extending write = %d, want 9", f.Inode.Size)
	}
}

// Create, write, close, reopen, read back the same bytes.
func TestScenarioRoundTrip(t *testing.T) {
	vfs, root := mountedVFS(t)
	d, err := vfs.CreateFile(root, "roundtrip", defs.S_IFREG|0o644, 0, 0)
	if err != 0 {
		t.Fatalf("create: %d", err)
	}

	f, _ := vfs.Open(d, defs.FWRITE)
	vfs.Write(f, []byte("payload"))
	vfs.Close(f)

	f2, err := vfs.Open(d, defs.FREAD)
	if err != 0 {
		t.Fatalf("reopen: %d", err)
	}
	buf := make([]byte, 7)
	n, err := vfs.Read(f2, buf)
	if err != 0 || n != 7 || string(buf) != "payload" {
		t.Fatalf("read after reopen = (%q, %d, %d), want (payload, 7, 0)", buf, n, err)
	}
}

// Writing past the current end appends and zero-fills any gap
// between the old end and the new write's start.
func TestScenarioAppend(t *testing.T) {
	vfs, root := mountedVFS(t)
	f := openFile(t, vfs, root, "gap")

	vfs.Write(f, []byte("ab"))
	f.Pos = 5 // leaves a 3-byte gap between offset 2 and offset 5
	vfs.Write(f, []byte("Z"))

	f.Pos = 0
	buf := make([]byte, 6)
	n, err := vfs.Read(f, buf)
	if err != 0 || n != 6 {
		t.Fatalf("read = (%d, %d), want (6, 0)", n, err)
	}
	want := []byte{'a', 'b', 0, 0, 0, 'Z'}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d (buf=%v)", i, buf[i], want[i], buf)
		}
	}
}

// A write entirely inside the existing length overwrites in place
// without changing the file's size.
func TestScenarioOverwrite(t *testing.T) {
	vfs, root := mountedVFS(t)
	f := openFile(t, vfs, root, "overwrite")

	vfs.Write(f, []byte("0123456789"))
	f.Pos = 2
	vfs.Write(f, []byte("XY"))

	if f.Inode.Size != 10 {
		t.Fatalf("size = %d, want 10", f.Inode.Size)
	}
	f.Pos = 0
	buf := make([]byte, 10)
	vfs.Read(f, buf)
	if string(buf) != "01XY456789" {
		t.Errorf("content = %q, want 01XY456789", buf)
	}
}
