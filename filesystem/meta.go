package filesystem

import (
	"github.com/brettbedarf/fsapi"
)

// Describe returns the metadata of p. Fails with [fsapi.ErrNotFound] if p
// does not exist when called.
func (fsys *FileSystem) Describe(p fsapi.Path) (*fsapi.Entry, error) {
	info, err := stat("describe", p)
	if err != nil {
		return nil, err
	}
	return fsapi.NewEntry(p, info), nil
}
