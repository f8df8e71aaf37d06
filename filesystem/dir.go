package filesystem

import (
	"os"

	"github.com/brettbedarf/fsapi"
)

// List returns the entries of directory p sorted by name.
//
// Children that escape the root through a symlink, dangle, or cannot be
// stat'ed are left out; the listing as a whole still succeeds.
func (fsys *FileSystem) List(p fsapi.Path) ([]fsapi.Entry, error) {
	logger := logger("List")

	info, err := stat("list", p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fsapi.NewError("list", p.Rel(), fsapi.ErrNotADirectory, nil)
	}

	// os.ReadDir sorts by filename
	dirents, err := os.ReadDir(p.Abs())
	if err != nil {
		return nil, fsapi.Wrap("list", p.Rel(), err)
	}

	entries := make([]fsapi.Entry, 0, len(dirents))
	for _, d := range dirents {
		child, err := fsys.resolver.Child(p, d.Name())
		if err != nil {
			logger.Debug().Err(err).Str("dir", p.Rel()).Str("name", d.Name()).Msg("Skipping unconfined entry")
			continue
		}
		entry, err := fsys.Describe(child)
		if err != nil {
			logger.Warn().Err(err).Str("path", child.Rel()).Msg("Skipping inaccessible entry")
			continue
		}
		entries = append(entries, *entry)
	}

	logger.Trace().Str("path", p.Rel()).Int("count", len(entries)).Msg("Listed directory")
	return entries, nil
}
