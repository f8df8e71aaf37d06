package filesystem

import (
	"errors"
	"os"
	"syscall"

	"github.com/brettbedarf/fsapi"
)

// CreateDirectory is equivalent to `mkdir -p`: it creates every missing
// directory up to p and succeeds if p already is a directory.
func (fsys *FileSystem) CreateDirectory(p fsapi.Path) error {
	if info := existing(p); info != nil && !info.IsDir() {
		return fsapi.NewError("mkdir", p.Rel(), fsapi.ErrAlreadyExists, nil)
	}
	if err := os.MkdirAll(p.Abs(), fsys.dirPerm); err != nil {
		return fsapi.Wrap("mkdir", p.Rel(), err)
	}
	logger("CreateDirectory").Debug().Str("path", p.Rel()).Msg("Created directory")
	return nil
}

// Delete removes file p, or directory p with everything below it.
// The root itself cannot be deleted.
func (fsys *FileSystem) Delete(p fsapi.Path) error {
	if p.IsRoot() {
		return fsapi.NewError("delete", p.Rel(), fsapi.ErrInvalidOperation, errors.New("refusing to delete root"))
	}
	info, err := stat("delete", p)
	if err != nil {
		return err
	}

	if info.IsDir() {
		err = os.RemoveAll(p.Abs())
	} else {
		err = os.Remove(p.Abs())
	}
	if err != nil {
		return fsapi.Wrap("delete", p.Rel(), err)
	}
	logger("Delete").Debug().Str("path", p.Rel()).Bool("dir", info.IsDir()).Msg("Deleted")
	return nil
}

// Move renames src to dst, creating dst's missing parents. When dst is an
// existing directory, src is moved inside it. Renames that cross a
// filesystem boundary fall back to copy and delete.
func (fsys *FileSystem) Move(src, dst fsapi.Path) error {
	logger := logger("Move")

	if src.IsRoot() {
		return fsapi.NewError("move", src.Rel(), fsapi.ErrInvalidOperation, errors.New("refusing to move root"))
	}
	info, err := stat("move", src)
	if err != nil {
		return err
	}
	target, err := fsys.target("move", src, dst)
	if err != nil {
		return err
	}
	if target.Abs() == src.Abs() || (info.IsDir() && target.Within(src)) {
		return fsapi.NewError("move", src.Rel(), fsapi.ErrInvalidOperation,
			errors.New("destination is the source or inside it"))
	}
	if err := fsys.ensureParent("move", target); err != nil {
		return err
	}

	err = os.Rename(src.Abs(), target.Abs())
	if errors.Is(err, syscall.EXDEV) {
		logger.Debug().Str("src", src.Rel()).Str("dst", target.Rel()).Msg("Cross-device move, copying")
		if err := fsys.copyEntry(src, target, info); err != nil {
			return err
		}
		err = os.RemoveAll(src.Abs())
	}
	if err != nil {
		return fsapi.Wrap("move", src.Rel(), err)
	}
	logger.Debug().Str("src", src.Rel()).Str("dst", target.Rel()).Msg("Moved")
	return nil
}

// target returns where src lands when written to dst: dst itself, or
// dst/<name of src> when dst is an existing directory.
func (fsys *FileSystem) target(op string, src, dst fsapi.Path) (fsapi.Path, error) {
	info := existing(dst)
	if info == nil || !info.IsDir() {
		return dst, nil
	}
	child, err := fsys.resolver.Child(dst, src.Name())
	if err != nil {
		return fsapi.Path{}, fsapi.Wrap(op, dst.Rel(), err)
	}
	return child, nil
}
