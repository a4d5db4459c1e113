// Package fs implements the kernel's virtual filesystem: the
// superblock/inode/dentry/file entity graph, a registry of pluggable
// filesystem drivers, path resolution, and directory/file operations
//, grounded on original_source/kernel/src/fs/{vfs,inode,
// dentry,file,super_block}.rs's trait-object operation tables,
// translated into Go's nearest analog: structs of optional function
// fields, bound immutably at creation (the "Function-pointer
// operation tables" design note).
package fs

import (
	"strings"
	"sync"

	"defs"
	"stat"
)

// InodeOperations is the capability record a filesystem driver
// supplies for creating new filesystem objects under a directory
// inode. Any field may be nil; callers check before invoking.
type InodeOperations struct {
	Create func(dir *Inode, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t) (*Inode, defs.Err_t)
	Mkdir func(dir *Inode, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t) (*Inode, defs.Err_t)
	Lookup func(dir *Inode, name string) (*Inode, defs.Err_t)
}

// FileOperations is the capability record governing an open file's
// behavior.
type FileOperations struct {
	Open func(inode *Inode, f *File) defs.Err_t
	Read func(f *File, buf []byte) (int, defs.Err_t)
	Write func(f *File, buf []byte) (int, defs.Err_t)
	Release func(f *File) defs.Err_t
}

// SuperOperations is the capability record a superblock carries for
// lifecycle hooks outside ordinary file I/O.
type SuperOperations struct {
	DropInode func(sb *SuperBlock, ino defs.Ino_t)
}

// Inode is a filesystem object's metadata and identity, independent
// of any name. It has no driver-private field: ramfs keeps its
// per-inode state in its own ino-keyed data store.
type Inode struct {
	Ino defs.Ino_t
	Mode defs.Mode_t
	Uid defs.Uid_t
	Gid defs.Gid_t
	Size uint64
	SB *SuperBlock
	FileOps FileOperations
	InodeOps InodeOperations
	Dentries []*Dentry // back-references, per the design note
	Refcount int
}

// Dentry is a directory-entry object naming an inode within a parent
//. Root's Parent is nil.
type Dentry struct {
	Name string
	Inode *Inode // nil for a negative dentry; never nil for entries this VFS creates
	SB *SuperBlock
	Parent *Dentry
	children map[string]*Dentry
	order []string // insertion order, for stable full_path/Ls-style enumeration
}

// File is an open-file handle: a position cursor into an inode,
// destroyed on close.
type File struct {
	Inode *Inode
	Mode defs.FMode_t
	Pos uint64
}

// SuperBlock is a mounted-filesystem-instance record.
type SuperBlock struct {
	Device int
	Root *Dentry
	SuperOps SuperOperations
	Filesystem *Filesystem
}

// Filesystem is a registered driver descriptor.
type Filesystem struct {
	Name string
	Mount func(vfs *VFS, dev int, mountPoint string) (*Dentry, defs.Err_t)
	KillSB func(sb *SuperBlock)
}

// VFS is the process-wide filesystem state: the driver registry, the
// global inode table, the system root dentry, and the ino allocator.
// Every field here is main-context-only; the mutex matches
// the established habit of guarding single-context state anyway.
type VFS struct {
	mu sync.Mutex
	drivers map[string]*Filesystem
	inodes map[defs.Ino_t]*Inode
	root *Dentry
	nextIno defs.Ino_t
}

// New returns an empty VFS with no drivers registered and no root
// mounted yet.
func New() *VFS {
	return &VFS{
		drivers: make(map[string]*Filesystem),
		inodes: make(map[defs.Ino_t]*Inode),
		nextIno: 2, // ino 1 is reserved for a filesystem root 
	}
}

// Register appends fs to the driver registry.
func (v *VFS) Register(fsys *Filesystem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drivers[fsys.Name] = fsys
}

// Mount finds the named driver and invokes its Mount operation and
// registers the returned root's inode in the global inode table. The
// first mount at "/" becomes the system-wide root dentry.
func (v *VFS) Mount(fsName string, dev int, mountPoint string) (*Dentry, defs.Err_t) {
	v.mu.Lock()
	drv, ok := v.drivers[fsName]
	v.mu.Unlock()
	if !ok {
		return nil, -defs.ENOENT
	}
	root, err := drv.Mount(v, dev, mountPoint)
	if err != 0 {
		return nil, err
	}
	if root.Inode != nil {
		v.addInode(root.Inode)
	}
	if mountPoint == "/" {
		v.mu.Lock()
		v.root = root
		v.mu.Unlock()
	}
	return root, 0
}

// addInode registers ino in the global table (the invariant
// that every inode reachable from a dentry is present there).
func (v *VFS) addInode(ino *Inode) {
	v.mu.Lock()
	v.inodes[ino.Ino] = ino
	v.mu.Unlock()
}

// AllocateEmptyInode hands out a fresh ino via a rolling counter that
// skips occupied slots, matching the PID allocator shape and
// satisfying invariant : it never returns an ino already present in
// the table.
func (v *VFS) AllocateEmptyInode() defs.Ino_t {
	v.mu.Lock()
	defer v.mu.Unlock()
	ino := v.nextIno
	for {
		if ino == 0 || ino == 1 {
			ino = 2
		}
		if _, occupied := v.inodes[ino]; !occupied {
			break
		}
		ino++
	}
	v.nextIno = ino + 1
	return ino
}

// InodeCount returns the number of inodes currently registered in the
// global table, for cmd/kstat's stats.Snapshot().
func (v *VFS) InodeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.inodes)
}

// DentryCount returns the number of dentries reachable from the root,
// for cmd/kstat's stats.Snapshot().
func (v *VFS) DentryCount() int {
	root := v.Root()
	if root == nil {
		return 0
	}
	count := 1
	var walk func(*Dentry)
	walk = func(d *Dentry) {
		for _, c := range d.Children() {
			count++
			walk(c)
		}
	}
	walk(root)
	return count
}

// Root returns the system-wide root dentry, or nil if nothing has
// been mounted at "/" yet.
func (v *VFS) Root() *Dentry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// newDentry constructs a dentry with an empty, order-preserving
// children map.
func newDentry(name string, parent *Dentry, sb *SuperBlock) *Dentry {
	return &Dentry{Name: name, Parent: parent, SB: sb, children: make(map[string]*Dentry)}
}

// NewMountRoot constructs the parentless root dentry a driver's Mount
// operation must return (a root dentry whose inode is the
// filesystem root"). Root's Parent is nil.
func NewMountRoot(inode *Inode, sb *SuperBlock) *Dentry {
	d := newDentry("", nil, sb)
	d.Inode = inode
	return d
}

func (d *Dentry) insertChild(c *Dentry) {
	if _, exists := d.children[c.Name]; !exists {
		d.order = append(d.order, c.Name)
	}
	d.children[c.Name] = c
}

// Child returns the named child dentry, or nil.
func (d *Dentry) Child(name string) *Dentry { return d.children[name] }

// Children returns the dentry's children in insertion order.
func (d *Dentry) Children() []*Dentry {
	out := make([]*Dentry, 0, len(d.order))
	for _, n := range d.order {
		out = append(out, d.children[n])
	}
	return out
}

// Resolve performs absolute-path resolution : empty path
// and "/" both return the root; each component is looked up in the
// current dentry's authoritative children map.
func (v *VFS) Resolve(path string) *Dentry {
	root := v.Root()
	if root == nil {
		return nil
	}
	if path == "" || path == "/" {
		return root
	}
	cur := root
	for _, comp := range strings.Split(path, "/") {
		if comp == "" {
			continue
		}
		next := cur.Child(comp)
		if next == nil && cur.Inode != nil && cur.Inode.InodeOps.Lookup != nil {
			if ino, err := cur.Inode.InodeOps.Lookup(cur.Inode, comp); err == 0 && ino != nil {
				next = newDentry(comp, cur, cur.SB)
				next.Inode = ino
				cur.insertChild(next)
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// FullPath walks parents to the root, collecting names, and joins
// with "/"; the root alone is "/".
func FullPath(d *Dentry) string {
	if d.Parent == nil {
		return "/"
	}
	var names []string
	for cur := d; cur.Parent != nil; cur = cur.Parent {
		names = append(names, cur.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/")
}

func (v *VFS) create(parent *Dentry, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t, useMkdir bool) (*Dentry, defs.Err_t) {
	if parent.Inode == nil {
		return nil, -defs.ENOTDIR
	}
	if _, exists := parent.children[name]; exists {
		return nil, -defs.EEXIST
	}
	child := newDentry(name, parent, parent.SB)

	op := parent.Inode.InodeOps.Create
	if useMkdir && parent.Inode.InodeOps.Mkdir != nil {
		op = parent.Inode.InodeOps.Mkdir
	}
	if op == nil {
		return nil, -defs.EINVAL
	}
	ino, err := op(parent.Inode, name, mode, uid, gid)
	if err != 0 || ino == nil {
		if err == 0 {
			err = -defs.EINVAL
		}
		return nil, err
	}
	child.Inode = ino
	ino.Dentries = append(ino.Dentries, child)
	v.addInode(ino)
	parent.insertChild(child)
	return child, 0
}

// Mkdir constructs a new directory entry under parent:
// fails with EEXIST if name is already present; invokes Mkdir,
// falling back to Create. defs.S_IFDIR is OR'd into mode here, so
// the directory bit is set whether or not the caller passed it.
func (v *VFS) Mkdir(parent *Dentry, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t) (*Dentry, defs.Err_t) {
	return v.create(parent, name, mode|defs.S_IFDIR, uid, gid, true)
}

// CreateFile constructs a new regular-file entry under parent.
func (v *VFS) CreateFile(parent *Dentry, name string, mode defs.Mode_t, uid defs.Uid_t, gid defs.Gid_t) (*Dentry, defs.Err_t) {
	return v.create(parent, name, mode, uid, gid, false)
}

// Open constructs a new File bound to dentry's inode,
// requiring the inode's Open file op to succeed.
func (v *VFS) Open(d *Dentry, mode defs.FMode_t) (*File, defs.Err_t) {
	if d == nil || d.Inode == nil {
		return nil, -defs.ENOENT
	}
	f := &File{Inode: d.Inode, Mode: mode}
	if open := d.Inode.FileOps.Open; open != nil {
		if err := open(d.Inode, f); err != 0 {
			return nil, err
		}
	}
	return f, 0
}

// Read delegates to the inode's Read file op, advancing f.Pos on
// success.
func (v *VFS) Read(f *File, buf []byte) (int, defs.Err_t) {
	if f.Inode.FileOps.Read == nil {
		return 0, -defs.EINVAL
	}
	n, err := f.Inode.FileOps.Read(f, buf)
	if err != 0 {
		return 0, err
	}
	f.Pos += uint64(n)
	return n, 0
}

// Write delegates to the inode's Write file op, advancing f.Pos on
// success.
func (v *VFS) Write(f *File, buf []byte) (int, defs.Err_t) {
	if f.Inode.FileOps.Write == nil {
		return 0, -defs.EINVAL
	}
	n, err := f.Inode.FileOps.Write(f, buf)
	if err != 0 {
		return 0, err
	}
	f.Pos += uint64(n)
	return n, 0
}

// Stat returns a stat.Stat_t snapshot of the inode's identity and
// metadata (an addition: additive debugging plumbing, not a
// syscall).
func Stat(ino *Inode) stat.Stat_t {
	return stat.New(ino.SB.Device, ino.Ino, ino.Mode, ino.Size)
}

// Close calls Release if present; the File record is then abandoned
// to the garbage collector, matching the established "let the GC
// reclaim it" posture for short-lived handles once unreferenced
//.
func (v *VFS) Close(f *File) defs.Err_t {
	if release := f.Inode.FileOps.Release; release != nil {
		return release(f)
	}
	return 0
}
