package requests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brettbedarf/fsapi/internal/util"
)

var (
	ErrMalformedBody = errors.New("malformed request body")
	ErrMissingField  = errors.New("missing required field")
)

// UnmarshalWriteFileRequest decodes a write request. An absent encoding is
// left empty so the store applies its default.
func UnmarshalWriteFileRequest(data []byte) (*WriteFileRequest, error) {
	var dto WriteFileRequestDTO
	if err := decodeStrict(data, &dto); err != nil {
		return nil, err
	}
	if dto.Content == nil {
		return nil, fmt.Errorf("%w: content", ErrMissingField)
	}
	return &WriteFileRequest{
		Content:  *dto.Content,
		Encoding: util.ValueOrDefault(dto.Encoding, ""),
	}, nil
}

// UnmarshalCreateDirectoryRequest decodes a directory creation request.
func UnmarshalCreateDirectoryRequest(data []byte) (*CreateDirectoryRequest, error) {
	var dto CreateDirectoryRequestDTO
	if err := decodeStrict(data, &dto); err != nil {
		return nil, err
	}
	if dto.Path == nil {
		return nil, fmt.Errorf("%w: path", ErrMissingField)
	}
	return &CreateDirectoryRequest{Path: *dto.Path}, nil
}

// decodeStrict rejects unknown fields and trailing data
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrMalformedBody)
	}
	return nil
}
