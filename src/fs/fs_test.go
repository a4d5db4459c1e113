package fs_test

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

func TestMountMkdirResolve(t *testing.T) {
	vfs, root := mountedVFS(t)

	a, err := vfs.Mkdir(root, "a", defs.S_IFDIR|0o755, 0, 0)
	if err != 0 {
		t.Fatalf("mkdir /a: %d", err)
	}
	if _, err := vfs.Mkdir(a, "b", defs.S_IFDIR|0o755, 0, 0); err != 0 {
		t.Fatalf("mkdir /a/b: %d", err)
	}

	got := vfs.Resolve("/a/b")
	if got == nil {
		t.Fatal("resolve(/a/b) = nil")
	}
	if path := fs.FullPath(got); path != "/a/b" {
		t.Errorf("full_path = %q, want /a/b", path)
	}
}

// Every reachable dentry's full path round-trips through Resolve.
func TestFullPathRoundTrip(t *testing.T) {
	vfs, root := mountedVFS(t)
	a, _ := vfs.Mkdir(root, "a", defs.S_IFDIR|0o755, 0, 0)
	b, _ := vfs.Mkdir(a, "b", defs.S_IFDIR|0o755, 0, 0)
	f, _ := vfs.CreateFile(b, "t", defs.S_IFREG|0o644, 0, 0)

	for _, d := range []*fs.Dentry{root, a, b, f} {
		path := fs.FullPath(d)
		if path == "" || path[0] != '/' {
			t.Fatalf("full_path %q does not start with /", path)
		}
		if got := vfs.Resolve(path); got != d {
			t.Errorf("resolve(%q) = %v, want %v", path, got, d)
		}
	}
}

// AllocateEmptyInode never returns an ino already in use.
func TestAllocateEmptyInodeNeverRepeats(t *testing.T) {
	vfs, root := mountedVFS(t)

	seen := map[defs.Ino_t]bool{1: true} // root occupies ino 1
	for i := 0; i < 50; i++ {
		d, err := vfs.CreateFile(root, name(i), defs.S_IFREG|0o644, 0, 0)
		if err != 0 {
			t.Fatalf("create %d: %d", i, err)
		}
		ino := d.Inode.Ino
		if seen[ino] {
			t.Fatalf("ino %d reused", ino)
		}
		seen[ino] = true
	}
}

func TestMkdirRejectsDuplicateName(t *testing.T) {
	vfs, root := mountedVFS(t)
	if _, err := vfs.Mkdir(root, "a", defs.S_IFDIR|0o755, 0, 0); err != 0 {
		t.Fatalf("first mkdir: %d", err)
	}
	if _, err := vfs.Mkdir(root, "a", defs.S_IFDIR|0o755, 0, 0); err != -defs.EEXIST {
		t.Fatalf("second mkdir err = %d, want -EEXIST", err)
	}
}

func name(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(rune('0'+i/len(letters)))
}
