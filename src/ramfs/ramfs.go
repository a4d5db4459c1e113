// Package ramfs is the kernel's sole filesystem driver: an in-memory
// filesystem backed by a process-wide ino -> byte-buffer map, grounded
// on original_source/kernel/src/fs/ramfs/*.rs's split between
// RamFsData (the buffer store) and the operation-table structs.
package ramfs

import (
	"defs"
	"fs"
)

// Data is the driver's private state: the byte-buffer store keyed by
// ino (the "a process-wide mapping from ino -> byte buffer").
// Every operation table this driver hands the VFS is a closure bound
// to one Data instance, matching the "bound immutably to the
// inode/superblock at creation" design note.
type Data struct {
	vfs *fs.VFS
	buffers map[defs.Ino_t][]byte
}

// Register installs the "ramfs" driver into vfs (the register).
func Register(vfs *fs.VFS) {
	vfs.Register(&fs.Filesystem{
		Name: "ramfs",
		Mount: mount,
	})
}

func mount(vfs *fs.VFS, dev int, mountPoint string) (*fs.Dentry, defs.Err_t) {
	data := &Data{vfs: vfs, buffers: make(map[defs.Ino_t][]byte)}

	sb := &fs.SuperBlock{
		Device: dev,
		SuperOps: fs.SuperOperations{
			DropInode: data.dropInode,
		},
	}

	root := &fs.Inode{
		Ino: 1,
		Mode: defs.S_IFDIR | 0o777,
		SB: sb,
		FileOps: data.fileOps(),
		InodeOps: data.inodeOps(),
	}

	rootDentry := fs.NewMountRoot(root, sb)
	root.Dentries = append(root.Dentries, rootDentry)
	sb.Root = rootDentry

	return rootDentry, 0
}

func (d *Data) inodeOps() fs.InodeOperations {
	return fs.InodeOperations{
		Create: d.create,
		Mkdir: d.mkdir,
	}
}

func (d *Data) fileOps() fs.FileOperations {
	return fs.FileOperations{
		Open: d.open,
		Read: d.read,
		Write: d.write,
	}
}

// create allocates a fresh inode with a freshly allocated ino and the
// driver's static operation tables (the "create/mkdir").
func (d *Data) create(dir *fs.Inode, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t) (*fs.Inode, defs.Err_t) {
	ino := d.vfs.AllocateEmptyInode()
	return &fs.Inode{
		Ino: ino,
		Mode: mode,
		Uid: uid,
		Gid: gid,
		SB: dir.SB,
		FileOps: d.fileOps(),
		InodeOps: d.inodeOps(),
	}, 0
}

func (d *Data) mkdir(dir *fs.Inode, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t) (*fs.Inode, defs.Err_t) {
	return d.create(dir, name, mode, uid, gid)
}

func (d *Data) dropInode(sb *fs.SuperBlock, ino defs.Ino_t) {
	delete(d.buffers, ino)
}

func (d *Data) open(inode *fs.Inode, f *fs.File) defs.Err_t { return 0 }

// read implements the read semantics exactly: zero at or past
// EOF, zero on a never-written inode, otherwise the min of the
// caller's buffer and the remaining bytes.
func (d *Data) read(f *fs.File, buf []byte) (int, defs.Err_t) {
	if f.Pos >= f.Inode.Size {
		return 0, 0
	}
	buffer, ok := d.buffers[f.Inode.Ino]
	if !ok {
		return 0, 0
	}
	n := len(buf)
	if remaining := int(f.Inode.Size - f.Pos); n > remaining {
		n = remaining
	}
	copy(buf[:n], buffer[f.Pos:f.Pos+uint64(n)])
	return n, 0
}

// write implements the write semantics: grow the buffer
// (zero-filling the new tail) if the write extends past its current
// length, copy the bytes in, and bump inode.Size if the write extended
// the logical file length.
//
// Note (the concurrent-write Open Question): the fs package's
// "append" is seek-to-size then write, which races if more than one
// task ever writes the same file concurrently; this single-task
// kernel never exercises that race.
func (d *Data) write(f *fs.File, buf []byte) (int, defs.Err_t) {
	buffer := d.buffers[f.Inode.Ino]

	end := f.Pos + uint64(len(buf))
	if end > uint64(len(buffer)) {
		grown := make([]byte, end)
		copy(grown, buffer)
		buffer = grown
	}
	copy(buffer[f.Pos:end], buf)
	d.buffers[f.Inode.Ino] = buffer

	if end > f.Inode.Size {
		f.Inode.Size = end
	}
	return len(buf), 0
}
