// Package filesystem implements [fsapi.Store] on the host filesystem.
//
// Every operation takes paths already confined by an [fsapi.Resolver]; the
// package never sees raw request strings. The resolver is only used again to
// confine entries discovered while enumerating a directory (listing and
// recursive copy), since those names come from disk rather than the caller.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/brettbedarf/fsapi"
	"github.com/brettbedarf/fsapi/config"
	"github.com/brettbedarf/fsapi/internal/util"
)

const (
	defaultDirPerm  fs.FileMode = 0o755
	defaultFilePerm fs.FileMode = 0o644
)

// FileSystem is a stateless [fsapi.Store] over the host filesystem. It is
// safe for concurrent use; concurrent writers to the same path race at the
// filesystem level.
type FileSystem struct {
	resolver        *fsapi.Resolver
	defaultEncoding string
	dirPerm         fs.FileMode
	filePerm        fs.FileMode
}

var _ fsapi.Store = (*FileSystem)(nil)

func NewFS(cfg *config.Config, resolver *fsapi.Resolver) *FileSystem {
	enc := cfg.DefaultEncoding
	if enc == "" {
		enc = config.DefaultEncoding
	}
	return &FileSystem{
		resolver:        resolver,
		defaultEncoding: enc,
		dirPerm:         defaultDirPerm,
		filePerm:        defaultFilePerm,
	}
}

// ensureParent creates every missing directory above p.
func (fsys *FileSystem) ensureParent(op string, p fsapi.Path) error {
	if err := os.MkdirAll(filepath.Dir(p.Abs()), fsys.dirPerm); err != nil {
		return fsapi.Wrap(op, p.Rel(), err)
	}
	return nil
}

// stat is os.Stat with the error classified for p.
func stat(op string, p fsapi.Path) (fs.FileInfo, error) {
	info, err := os.Stat(p.Abs())
	if err != nil {
		return nil, fsapi.Wrap(op, p.Rel(), err)
	}
	return info, nil
}

// existing returns the stat info of p, or nil when it cannot be stat'ed.
func existing(p fsapi.Path) fs.FileInfo {
	info, err := os.Stat(p.Abs())
	if err != nil {
		return nil
	}
	return info
}

// logger returns the component logger for op
func logger(op string) *util.Logger {
	l := util.GetLogger("FS." + op)
	return &l
}
