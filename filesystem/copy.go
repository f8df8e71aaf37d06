package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/brettbedarf/fsapi"
)

// Copy duplicates src at dst.
//
// A directory is copied recursively with dst becoming the copy; an existing
// directory at dst is merged into. A file copied onto an existing directory
// lands inside it. Missing parents of dst are created. File mode and
// modification time are preserved.
func (fsys *FileSystem) Copy(src, dst fsapi.Path) error {
	info, err := stat("copy", src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if dst.Within(src) {
			return fsapi.NewError("copy", src.Rel(), fsapi.ErrInvalidOperation,
				errors.New("destination is the source or inside it"))
		}
		if err := fsys.ensureParent("copy", dst); err != nil {
			return err
		}
		return fsys.copyDir(src, dst, info, dst, map[string]bool{})
	}

	target, err := fsys.target("copy", src, dst)
	if err != nil {
		return err
	}
	if target.Abs() == src.Abs() {
		return fsapi.NewError("copy", src.Rel(), fsapi.ErrInvalidOperation,
			errors.New("source and destination are the same file"))
	}
	if err := fsys.ensureParent("copy", target); err != nil {
		return err
	}
	return fsys.copyEntry(src, target, info)
}

// copyEntry copies src (file or directory) to exactly dst.
func (fsys *FileSystem) copyEntry(src, dst fsapi.Path, info fs.FileInfo) error {
	if info.IsDir() {
		return fsys.copyDir(src, dst, info, dst, map[string]bool{})
	}
	if err := copyFile(src.Abs(), dst.Abs(), info); err != nil {
		return fsapi.Wrap("copy", dst.Rel(), err)
	}
	return nil
}

// copyDir copies the tree at src into dst. Children are re-confined through
// the resolver. Ones that escape or dangle are skipped, as are ones leading
// back into a directory on the current copy stack and ones that are the
// destination or enclose it. Special files are skipped as well. dst may be
// an ancestor of src, in which case src's contents merge into it.
func (fsys *FileSystem) copyDir(src, dst fsapi.Path, info fs.FileInfo, dstRoot fsapi.Path, onStack map[string]bool) error {
	logger := logger("Copy")

	if err := os.MkdirAll(dst.Abs(), info.Mode().Perm()|0o700); err != nil {
		return fsapi.Wrap("copy", dst.Rel(), err)
	}
	onStack[src.Abs()] = true
	defer delete(onStack, src.Abs())

	dirents, err := os.ReadDir(src.Abs())
	if err != nil {
		return fsapi.Wrap("copy", src.Rel(), err)
	}

	for _, d := range dirents {
		child, err := fsys.resolver.Child(src, d.Name())
		if err != nil {
			logger.Debug().Err(err).Str("dir", src.Rel()).Str("name", d.Name()).Msg("Skipping unconfined entry")
			continue
		}
		if onStack[child.Abs()] || dstRoot.Within(child) {
			logger.Debug().Str("path", child.Rel()).Msg("Skipping recursive entry")
			continue
		}
		childInfo, err := os.Stat(child.Abs())
		if err != nil {
			logger.Warn().Err(err).Str("path", child.Rel()).Msg("Skipping inaccessible entry")
			continue
		}
		target, err := fsys.resolver.Child(dst, d.Name())
		if err != nil {
			return fsapi.Wrap("copy", dst.Rel(), err)
		}

		switch {
		case childInfo.IsDir():
			if err := fsys.copyDir(child, target, childInfo, dstRoot, onStack); err != nil {
				return err
			}
		case childInfo.Mode().IsRegular():
			if err := copyFile(child.Abs(), target.Abs(), childInfo); err != nil {
				return fsapi.Wrap("copy", target.Rel(), err)
			}
		default:
			logger.Debug().Str("path", child.Rel()).Str("mode", childInfo.Mode().String()).Msg("Skipping special file")
		}
	}

	// best effort, like cp -p
	_ = os.Chmod(dst.Abs(), info.Mode().Perm())
	_ = os.Chtimes(dst.Abs(), info.ModTime(), info.ModTime())
	return nil
}

// copyFile copies file contents, mode and modification time.
func copyFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
