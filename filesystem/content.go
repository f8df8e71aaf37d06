package filesystem

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/brettbedarf/fsapi"
)

// ReadText reads file p and decodes it with the named encoding.
// Content that is not valid text is not an error: the result carries
// [fsapi.BinaryInfo] instead so the caller can offer a download.
func (fsys *FileSystem) ReadText(p fsapi.Path, encoding string) (*fsapi.ReadResult, error) {
	codec, err := fsys.codec(encoding)
	if err != nil {
		return nil, fsapi.NewError("read", p.Rel(), fsapi.ErrEncoding, err)
	}
	info, err := stat("read", p)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fsapi.NewError("read", p.Rel(), fsapi.ErrNotAFile, nil)
	}

	data, err := os.ReadFile(p.Abs())
	if err != nil {
		return nil, fsapi.Wrap("read", p.Rel(), err)
	}

	if text, ok := codec.decode(data); ok {
		return &fsapi.ReadResult{Text: &fsapi.TextContent{Content: text, Encoding: codec.label}}, nil
	}

	logger("ReadText").Debug().Str("path", p.Rel()).Str("encoding", codec.label).Msg("Content is not text")
	return &fsapi.ReadResult{Binary: &fsapi.BinaryInfo{
		MIMEType: mimeType(p.Name(), data),
		Size:     int64(len(data)),
	}}, nil
}

// OpenFile opens regular file p for reading. The caller must close it.
func (fsys *FileSystem) OpenFile(p fsapi.Path) (io.ReadSeekCloser, *fsapi.Entry, error) {
	f, err := os.Open(p.Abs())
	if err != nil {
		return nil, nil, fsapi.Wrap("open", p.Rel(), err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fsapi.Wrap("open", p.Rel(), err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fsapi.NewError("open", p.Rel(), fsapi.ErrNotAFile, nil)
	}
	return f, fsapi.NewEntry(p, info), nil
}

// WriteText encodes content and writes it to p, creating missing parent
// directories and replacing any existing file. The write is not atomic.
func (fsys *FileSystem) WriteText(p fsapi.Path, content, encoding string) error {
	codec, err := fsys.codec(encoding)
	if err != nil {
		return fsapi.NewError("write", p.Rel(), fsapi.ErrEncoding, err)
	}
	data, err := codec.encode(content)
	if err != nil {
		return fsapi.NewError("write", p.Rel(), fsapi.ErrEncoding, err)
	}
	if err := fsys.ensureParent("write", p); err != nil {
		return err
	}
	if err := os.WriteFile(p.Abs(), data, fsys.filePerm); err != nil {
		return fsapi.Wrap("write", p.Rel(), err)
	}
	logger("WriteText").Debug().Str("path", p.Rel()).Int("bytes", len(data)).Msg("Wrote file")
	return nil
}

// WriteBinary streams r into p with the same parent creation and overwrite
// rules as WriteText. A partially written file is removed on failure.
func (fsys *FileSystem) WriteBinary(p fsapi.Path, r io.Reader) (int64, error) {
	if err := fsys.ensureParent("upload", p); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(p.Abs(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsys.filePerm)
	if err != nil {
		return 0, fsapi.Wrap("upload", p.Rel(), err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p.Abs()) // nolint:errcheck
		return n, fsapi.Wrap("upload", p.Rel(), err)
	}
	logger("WriteBinary").Debug().Str("path", p.Rel()).Int64("bytes", n).Msg("Uploaded file")
	return n, nil
}

// mimeType guesses from the extension first, then sniffs the content.
func mimeType(name string, data []byte) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	if len(data) == 0 {
		return ""
	}
	return http.DetectContentType(data)
}
