// Package requests holds the JSON bodies accepted and returned by the HTTP
// API and the helpers that decode them.
package requests

import "github.com/brettbedarf/fsapi"

// WriteFileRequestDTO is the body of POST /files/{path}/content
type WriteFileRequestDTO struct {
	Content  *string `json:"content"`
	Encoding *string `json:"encoding,omitempty"` // defaults to the configured encoding
}

// WriteFileRequest is a validated [WriteFileRequestDTO]
type WriteFileRequest struct {
	Content  string
	Encoding string
}

// CreateDirectoryRequestDTO is the body of POST /directories
type CreateDirectoryRequestDTO struct {
	Path *string `json:"path"`
}

// CreateDirectoryRequest is a validated [CreateDirectoryRequestDTO]
type CreateDirectoryRequest struct {
	Path string
}

// MessageResponse acknowledges a mutation
type MessageResponse struct {
	Message string `json:"message"`
	Size    *int64 `json:"size,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// BinaryFileResponse replaces text content for files that do not decode
type BinaryFileResponse struct {
	Error       string  `json:"error"`
	MIMEType    *string `json:"mime_type"`
	Size        int64   `json:"size"`
	DownloadURL string  `json:"download_url"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string           `json:"status"`
	RootExists bool             `json:"root_exists"`
	Operations map[string]int64 `json:"operations"`
}

// DebugPathResponse is the body of GET /debug/path. Paths are root relative.
type DebugPathResponse struct {
	InputPath    string   `json:"input_path"`
	ResolvedPath string   `json:"resolved_path"`
	Exists       bool     `json:"exists"`
	IsDir        *bool    `json:"is_dir"`
	IsFile       *bool    `json:"is_file"`
	Parent       string   `json:"parent"`
	Parts        []string `json:"parts"`
}

// ListingResponse is the body of GET /files
type ListingResponse = fsapi.Listing
