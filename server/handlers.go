package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/brettbedarf/fsapi"
	"github.com/brettbedarf/fsapi/internal/metrics"
	"github.com/brettbedarf/fsapi/requests"
)

// maxJSONBody caps bodies that are never file content.
const maxJSONBody = 1 << 20

const binaryNotice = "Binary file cannot be displayed as text"

// resolve confines a request path, writing the error response on failure.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, raw string) (fsapi.Path, bool) {
	p, err := s.resolver.Resolve(raw)
	if err != nil {
		metrics.RecordConfinementRejection()
		s.writeError(w, r, err)
		return fsapi.Path{}, false
	}
	return p, true
}

// observe records the outcome of a store operation.
func observe(op string, err error) {
	metrics.RecordOperation(op, resultOf(err))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Filesystem API Server",
		"health":  "/health",
		"metrics": "/metrics",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(s.resolver.RootDir())
	exists := err == nil && info.IsDir()

	resp := requests.HealthResponse{
		Status:     "healthy",
		RootExists: exists,
		Operations: metrics.Snapshot(),
	}
	status := http.StatusOK
	if !exists {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleDebugPath(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("path")
	p, ok := s.resolve(w, r, input)
	if !ok {
		return
	}

	resp := requests.DebugPathResponse{
		InputPath:    input,
		ResolvedPath: p.Rel(),
		Parent:       path.Dir(p.Rel()),
		Parts:        []string{},
	}
	if !p.IsRoot() {
		resp.Parts = strings.Split(p.Rel(), "/")
	}
	if info, err := os.Stat(p.Abs()); err == nil {
		isDir, isFile := info.IsDir(), info.Mode().IsRegular()
		resp.Exists, resp.IsDir, resp.IsFile = true, &isDir, &isFile
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleList serves GET /files?path=
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, r.URL.Query().Get("path"))
}

// handleGet dispatches GET /files/{path...} on its last segment:
// .../info, .../content, or a directory listing otherwise.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("path")
	if p, ok := strings.CutSuffix(raw, "/info"); ok {
		s.info(w, r, p)
		return
	}
	if p, ok := strings.CutSuffix(raw, "/content"); ok {
		s.readContent(w, r, p)
		return
	}
	s.list(w, r, raw)
}

// handlePost dispatches POST /files/{path...}/content|upload|copy|move.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("path")
	i := strings.LastIndexByte(raw, '/')
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	target, action := raw[:i], raw[i+1:]

	switch action {
	case "content":
		s.writeContent(w, r, target)
	case "upload":
		s.upload(w, r, target)
	case "copy":
		s.transfer(w, r, target, "copy")
	case "move":
		s.transfer(w, r, target, "move")
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, raw string) {
	p, ok := s.resolve(w, r, raw)
	if !ok {
		return
	}
	entries, err := s.store.List(p)
	observe("list", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []fsapi.Entry{}
	}
	writeJSON(w, http.StatusOK, requests.ListingResponse{Path: displayPath(p), Items: entries})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request, raw string) {
	p, ok := s.resolve(w, r, raw)
	if !ok {
		return
	}
	entry, err := s.store.Describe(p)
	observe("describe", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) readContent(w http.ResponseWriter, r *http.Request, raw string) {
	p, ok := s.resolve(w, r, raw)
	if !ok {
		return
	}
	query := r.URL.Query()
	if download, _ := strconv.ParseBool(query.Get("download")); download {
		s.download(w, r, p)
		return
	}

	res, err := s.store.ReadText(p, query.Get("encoding"))
	observe("read", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Text != nil {
		metrics.RecordBytesRead(int64(len(res.Text.Content)))
		writeJSON(w, http.StatusOK, res.Text)
		return
	}

	notice := requests.BinaryFileResponse{
		Error:       binaryNotice,
		Size:        res.Binary.Size,
		DownloadURL: "/files/" + escapePath(p.Rel()) + "/content?download=true",
	}
	if res.Binary.MIMEType != "" {
		notice.MIMEType = &res.Binary.MIMEType
	}
	writeJSON(w, http.StatusOK, notice)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, p fsapi.Path) {
	f, entry, err := s.store.OpenFile(p)
	observe("download", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": entry.Name}))
	rec := &statusRecorder{ResponseWriter: w}
	http.ServeContent(rec, r, entry.Name, entry.Modified, f)
	metrics.RecordBytesRead(rec.bytes)
}

func (s *Server) writeContent(w http.ResponseWriter, r *http.Request, raw string) {
	p, ok := s.resolve(w, r, raw)
	if !ok {
		return
	}
	data, err := io.ReadAll(s.limitBody(w, r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := requests.UnmarshalWriteFileRequest(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	err = s.store.WriteText(p, req.Content, req.Encoding)
	observe("write", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.RecordBytesWritten(int64(len(req.Content)))
	writeJSON(w, http.StatusOK, requests.MessageResponse{
		Message: fmt.Sprintf("File %s written successfully", p.Rel()),
	})
}

// upload streams the multipart field "file" into the target path.
func (s *Server) upload(w http.ResponseWriter, r *http.Request, raw string) {
	p, ok := s.resolve(w, r, raw)
	if !ok {
		return
	}
	r.Body = s.limitBody(w, r)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", requests.ErrMalformedBody, err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.writeError(w, r, errMissingFile)
			return
		}
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", requests.ErrMalformedBody, err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		n, err := s.store.WriteBinary(p, part)
		part.Close()
		observe("upload", err)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		metrics.RecordBytesWritten(n)
		writeJSON(w, http.StatusOK, requests.MessageResponse{
			Message: fmt.Sprintf("File %s uploaded successfully", p.Rel()),
			Size:    &n,
		})
		return
	}
}

// handleCreateDirectory serves POST /directories
func (s *Server) handleCreateDirectory(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := requests.UnmarshalCreateDirectoryRequest(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, ok := s.resolve(w, r, req.Path)
	if !ok {
		return
	}

	err = s.store.CreateDirectory(p)
	observe("mkdir", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests.MessageResponse{
		Message: fmt.Sprintf("Directory %s created successfully", p.Rel()),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolve(w, r, r.PathValue("path"))
	if !ok {
		return
	}
	entry, err := s.store.Describe(p)
	if err == nil {
		err = s.store.Delete(p)
	}
	observe("delete", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	kind := "File"
	if entry.IsDir() {
		kind = "Directory"
	}
	writeJSON(w, http.StatusOK, requests.MessageResponse{
		Message: fmt.Sprintf("%s %s deleted successfully", kind, p.Rel()),
	})
}

// transfer serves copy and move. The destination comes from the form or
// query parameter "destination" and is resolved on its own.
func (s *Server) transfer(w http.ResponseWriter, r *http.Request, raw, op string) {
	src, ok := s.resolve(w, r, raw)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", requests.ErrMalformedBody, err))
		return
	}
	if _, present := r.Form["destination"]; !present {
		s.writeError(w, r, fmt.Errorf("%w: destination", requests.ErrMissingField))
		return
	}
	dst, ok := s.resolve(w, r, r.Form.Get("destination"))
	if !ok {
		return
	}

	var err error
	verb := "Copied"
	if op == "move" {
		verb = "Moved"
		err = s.store.Move(src, dst)
	} else {
		err = s.store.Copy(src, dst)
	}
	observe(op, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests.MessageResponse{
		Message: fmt.Sprintf("%s %s to %s", verb, src.Rel(), dst.Rel()),
	})
}

// limitBody applies the configured upload cap to the request body.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) io.ReadCloser {
	if s.cfg.MaxUploadSize > 0 {
		return http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	}
	return r.Body
}

// displayPath is the root relative path shown to clients; "" for the root.
func displayPath(p fsapi.Path) string {
	if p.IsRoot() {
		return ""
	}
	return p.Rel()
}

// escapePath percent-encodes each segment of a slash separated path.
func escapePath(rel string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
