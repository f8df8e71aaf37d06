package config

// MountOptions holds settings for the optional FUSE mirror of the root.
// No go-fuse types are exposed here.
type MountOptions struct {
	MountPoint string // empty disables the mirror
	FuseDebug  bool   // fuse debug logs
	FsName     string // mount's FsName
	Name       string // mount's Name
	ReadOnly   bool   // mount with "ro"
}
