package fsapi

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

// maxLinkHops bounds how many dangling symlinks are followed lexically while
// canonicalizing a path whose tail does not exist yet.
const maxLinkHops = 255

var errTooManyLinks = errors.New("too many levels of symbolic links")

// Path is a location that has been confined to a [Resolver]'s root.
// The zero value is not a valid path; only a Resolver hands out Paths, so a
// function taking a Path can rely on it being inside the root at resolution
// time. Paths must be re-resolved after unrelated filesystem mutations.
type Path struct {
	abs    string // canonical host path
	rel    string // slash separated display path; "." for the root
	isRoot bool
}

// Abs returns the canonical host path. It must never be shown to callers.
func (p Path) Abs() string { return p.abs }

// Rel returns the path relative to the root using forward slashes.
func (p Path) Rel() string { return p.rel }

// Name returns the last element of Rel.
func (p Path) Name() string { return path.Base(p.rel) }

// IsRoot reports whether p is the root directory itself.
func (p Path) IsRoot() bool { return p.isRoot }

// IsZero reports whether p was not produced by a Resolver.
func (p Path) IsZero() bool { return p.abs == "" }

func (p Path) String() string { return p.rel }

// Within reports whether p is equal to or a descendant of dir.
func (p Path) Within(dir Path) bool {
	return within(dir.abs, p.abs)
}

// Resolver confines untrusted request paths to a root directory.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root once and returns a Resolver for it.
// It fails if root does not exist or is not a directory.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}
	return &Resolver{root: canon}, nil
}

// RootDir returns the canonical root directory.
func (r *Resolver) RootDir() string {
	return r.root
}

// Root returns the Path of the root directory.
func (r *Resolver) Root() Path {
	return Path{abs: r.root, rel: ".", isRoot: true}
}

// Resolve maps a request path onto the root.
//
// The path is percent-decoded and one leading slash is dropped, so "/a",
// "a" and "a%2Fb" style inputs are all root relative. The result is joined
// onto the root and canonicalized; missing trailing components are kept
// lexically so that paths about to be created still resolve. Any result that
// is not the root or below it yields an error wrapping [ErrConfinement].
func (r *Resolver) Resolve(requestPath string) (Path, error) {
	decoded, err := url.PathUnescape(requestPath)
	if err != nil {
		decoded = requestPath
	}
	if strings.IndexByte(decoded, 0) >= 0 {
		return Path{}, NewError("resolve", requestPath, ErrConfinement, errors.New("NUL byte in path"))
	}
	decoded = strings.TrimPrefix(decoded, "/")

	joined := filepath.Join(r.root, filepath.FromSlash(decoded))
	canon, err := canonicalize(joined, 0)
	if err != nil {
		return Path{}, NewError("resolve", requestPath, ErrConfinement, err)
	}
	if !within(r.root, canon) {
		return Path{}, NewError("resolve", requestPath, ErrConfinement,
			fmt.Errorf("%s is outside %s", canon, r.root))
	}

	rel, err := filepath.Rel(r.root, canon)
	if err != nil {
		return Path{}, NewError("resolve", requestPath, ErrConfinement, err)
	}
	return Path{abs: canon, rel: filepath.ToSlash(rel), isRoot: canon == r.root}, nil
}

// Child resolves the entry name inside the directory dir. name must be a
// single path element as returned by a directory read. The returned Path
// keeps dir's display path plus name even when the entry is a symlink, but
// fails with [ErrConfinement] when the link leaves the root.
func (r *Resolver) Child(dir Path, name string) (Path, error) {
	rel := path.Join(dir.rel, name)
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return Path{}, NewError("resolve", rel, ErrConfinement, fmt.Errorf("invalid entry name %q", name))
	}
	canon, err := canonicalize(filepath.Join(dir.abs, name), 0)
	if err != nil {
		return Path{}, NewError("resolve", rel, ErrConfinement, err)
	}
	if !within(r.root, canon) {
		return Path{}, NewError("resolve", rel, ErrConfinement,
			fmt.Errorf("%s is outside %s", canon, r.root))
	}
	return Path{abs: canon, rel: rel, isRoot: canon == r.root}, nil
}

// canonicalize resolves symlinks in the absolute, clean path p. When some
// trailing components do not exist, the deepest existing ancestor is
// canonicalized and the missing components are appended as they are.
// Dangling symlinks along the way are followed through their target.
func canonicalize(p string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", errTooManyLinks
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !isMissing(err) {
		return "", err
	}

	dir, name := filepath.Split(p)
	dir = filepath.Clean(dir)
	if name == "" || dir == p {
		// volume root; nothing left to resolve
		return p, nil
	}

	if info, lerr := os.Lstat(p); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(p)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			// relative targets are taken from where the link really lives
			parent, err := canonicalize(dir, hops)
			if err != nil {
				return "", err
			}
			target = filepath.Join(parent, target)
		}
		return canonicalize(filepath.Clean(target), hops+1)
	}

	parent, err := canonicalize(dir, hops)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, name), nil
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// within compares path components, never raw string prefixes, so that
// "/data-evil" is not considered inside "/data".
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
