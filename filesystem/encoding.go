package filesystem

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// textCodec pairs an x/text encoding with the label the caller asked for.
type textCodec struct {
	label string
	enc   encoding.Encoding
	utf8  bool
}

// codec looks up the WHATWG encoding label, falling back to the configured
// default when label is empty.
func (fsys *FileSystem) codec(label string) (*textCodec, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = fsys.defaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}
	name, _ := htmlindex.Name(enc)
	return &textCodec{label: strings.ToLower(label), enc: enc, utf8: name == "utf-8"}, nil
}

// decode returns data as a string, or false if data is not valid text in
// this encoding.
func (c *textCodec) decode(data []byte) (string, bool) {
	if c.utf8 {
		// the x/text UTF-8 decoder substitutes U+FFFD instead of failing
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// encode fails when content holds runes the encoding cannot represent.
func (c *textCodec) encode(content string) ([]byte, error) {
	if c.utf8 {
		return []byte(content), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(content))
}
