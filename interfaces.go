package fsapi

import "io"

// Store performs filesystem operations on paths already confined by a
// [Resolver]. Implementations never re-check confinement; both sides of Copy
// and Move must have been resolved independently by the caller.
type Store interface {
	// Describe returns the metadata of p
	Describe(p Path) (*Entry, error)

	// List returns the entries of directory p sorted by name. Entries whose
	// metadata cannot be read are omitted
	List(p Path) ([]Entry, error)

	// ReadText decodes file p with the named encoding ("" for the default).
	// Content that does not decode is reported through ReadResult.Binary
	ReadText(p Path, encoding string) (*ReadResult, error)

	// OpenFile opens file p for raw reading
	OpenFile(p Path) (io.ReadSeekCloser, *Entry, error)

	// WriteText encodes content and writes it to p, creating missing parents
	WriteText(p Path, content, encoding string) error

	// WriteBinary streams r into p, creating missing parents.
	// Returns the number of bytes written
	WriteBinary(p Path, r io.Reader) (int64, error)

	CreateDirectory(p Path) error
	Delete(p Path) error
	Copy(src, dst Path) error
	Move(src, dst Path) error
}
