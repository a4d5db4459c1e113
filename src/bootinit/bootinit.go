// Package bootinit materializes the initial user program at
// "/bin/init" in the mounted filesystem before userspace bootstrap
// runs (if present at boot, it
// is materialised from an embedded blob"); the bootstrap copies
// boot.Config.InitImage into the user code page and does not read
// /bin/init. Grounded on
// original_source/kernel/src/userspace.rs's test_userspace_routine,
// whose raw instruction bytes this embeds verbatim.
package bootinit

import (
	_ "embed"

	"defs"
	"fs"
)

// image is the embedded initial program: a tiny freestanding routine
// that exercises the syscall surface (write to fd 1, read from an
// open file, exit). It ships as a raw binary blob rather than source,
// matching the original's own "raw bytes of the initial user program"
// framing.
//
//go:embed init.bin
var image []byte

// Seed writes image to "/bin/init" under root with mode 0o100755
//, creating the file if it does not already exist.
func Seed(vfs *fs.VFS, root *fs.Dentry) defs.Err_t {
	const name = "init"
	binDir := root.Child("bin")
	if binDir == nil {
		var err defs.Err_t
		binDir, err = vfs.Mkdir(root, "bin", defs.S_IFDIR|0o755, 0, 0)
		if err != 0 {
			return err
		}
	}

	initDentry := binDir.Child(name)
	if initDentry == nil {
		var err defs.Err_t
		initDentry, err = vfs.CreateFile(binDir, name, defs.S_IFREG|0o755, 0, 0)
		if err != 0 {
			return err
		}
	}

	f, err := vfs.Open(initDentry, defs.FWRITE)
	if err != 0 {
		return err
	}
	if _, err := vfs.Write(f, image); err != 0 {
		return err
	}
	return vfs.Close(f)
}
