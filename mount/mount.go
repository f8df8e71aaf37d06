// Package mount mirrors the API root directory through a local FUSE mount.
// The mirror is a loopback of the canonical root and is read-only unless
// configured otherwise.
package mount

import (
	"errors"
	"fmt"
	"os"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/fsapi/config"
	"github.com/brettbedarf/fsapi/internal/util"
)

// Mirror is a FUSE loopback of a root directory
type Mirror struct {
	root   string
	opts   config.MountOptions
	server *fuse.Server
	logger util.Logger
}

// New creates a Mirror of root, which should be the resolver's canonical
// root directory.
func New(root string, opts config.MountOptions) *Mirror {
	return &Mirror{
		root:   root,
		opts:   opts,
		logger: util.GetLogger("Mount"),
	}
}

// Serve mounts the mirror at the configured mount point and returns once the
// mount is live. Requests are served in the background.
func (m *Mirror) Serve() error {
	if m.opts.MountPoint == "" {
		return errors.New("mount point not specified")
	}
	if info, err := os.Stat(m.opts.MountPoint); err != nil {
		return fmt.Errorf("mount point: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("mount point %q is not a directory", m.opts.MountPoint)
	}

	loopback, err := fs.NewLoopbackRoot(m.root)
	if err != nil {
		return fmt.Errorf("loopback %q: %w", m.root, err)
	}

	mountOpts := fuse.MountOptions{
		Name:   m.opts.Name,
		FsName: m.opts.FsName,
		Debug:  m.opts.FuseDebug,
		Logger: util.NewLogLogger("FuseServer", util.DebugLevel),
	}
	if m.opts.ReadOnly {
		mountOpts.Options = append(mountOpts.Options, "ro")
	}

	srv, err := fs.Mount(m.opts.MountPoint, loopback, &fs.Options{MountOptions: mountOpts})
	if err != nil {
		return err
	}
	m.server = srv
	m.logger.Info().Str("mountpoint", m.opts.MountPoint).Bool("readonly", m.opts.ReadOnly).Msg("Root mirrored")
	return nil
}

// Unmount cleanly unmounts the mirror. It is a no-op if it was never mounted.
func (m *Mirror) Unmount() error {
	if m.server == nil {
		return nil
	}
	if err := m.server.Unmount(); err != nil {
		return err
	}
	m.server = nil
	m.logger.Info().Str("mountpoint", m.opts.MountPoint).Msg("Mirror unmounted")
	return nil
}
