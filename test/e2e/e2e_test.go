package e2e

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

var (
	fsapiBin string
	projRoot string
	testEnv  *E2ETestEnvironment
)

func TestMain(m *testing.M) {
	var err error

	// Build the binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "fsapi-bin")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := os.RemoveAll(tmpBinDir); err != nil {
			panic(err)
		}
	}()

	fsapiBin = filepath.Join(tmpBinDir, "fsapi")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")
	src := filepath.Join(projRoot, "cmd", "main.go")

	// Build with debug symbols
	cmd := exec.Command("go", "build", "-o", fsapiBin, "-gcflags=all=-N -l", src)
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	// Create shared test environment
	testEnv, err = NewE2ETestEnvironment(fsapiBin)
	if err != nil {
		panic(err)
	}
	defer testEnv.Close()

	// Run tests
	code := m.Run()
	os.Exit(code)
}

func TestE2EWriteAndRead(t *testing.T) {
	inst := testEnv.StartServer(t, nil)
	defer inst.Stop()

	resp := inst.PostJSON(t, "/files/notes/hello.txt/content", `{"content":"Hello, fsapi!"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("write failed: %d %s", resp.StatusCode, resp.Body)
	}

	resp = inst.Get(t, "/files/notes/hello.txt/content")
	var text struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	resp.Decode(t, &text)
	if text.Content != "Hello, fsapi!" || text.Encoding != "utf-8" {
		t.Fatalf("content mismatch: %+v", text)
	}

	data, err := os.ReadFile(filepath.Join(inst.RootDir, "notes", "hello.txt"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "Hello, fsapi!" {
		t.Fatalf("disk content mismatch: %q", data)
	}
}

func TestE2EListing(t *testing.T) {
	inst := testEnv.StartServer(t, map[string]string{
		"b.txt":          "b",
		"a.txt":          "a",
		"docs/readme.md": "# readme",
	})
	defer inst.Stop()

	var listing struct {
		Path  string `json:"path"`
		Items []struct {
			Name string `json:"name"`
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"items"`
	}
	inst.Get(t, "/files").Decode(t, &listing)

	var names []string
	for _, item := range listing.Items {
		names = append(names, item.Name+":"+item.Type)
	}
	if got := strings.Join(names, ","); got != "a.txt:file,b.txt:file,docs:directory" {
		t.Fatalf("listing mismatch: %s", got)
	}
}

func TestE2ETraversalRejected(t *testing.T) {
	inst := testEnv.StartServer(t, map[string]string{"a.txt": "a"})
	defer inst.Stop()

	secret := filepath.Join(filepath.Dir(inst.RootDir), "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, target := range []string{
		"/files?path=../../etc/passwd",
		"/files?path=" + url.QueryEscape("../secret.txt"),
		"/files/%252e%252e%252fsecret.txt/content",
	} {
		resp := inst.Get(t, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
		if strings.Contains(string(resp.Body), inst.RootDir) || strings.Contains(string(resp.Body), "secret") {
			t.Fatalf("%s: response leaks host paths: %s", target, resp.Body)
		}
	}

	resp := inst.PostForm(t, "/files/a.txt/move", url.Values{"destination": {"../moved.txt"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("move outside root: expected 400, got %d", resp.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(inst.RootDir, "a.txt")); err != nil {
		t.Fatalf("source must be untouched: %v", err)
	}
}

func TestE2ECopyThenDelete(t *testing.T) {
	inst := testEnv.StartServer(t, map[string]string{"a.txt": "alpha"})
	defer inst.Stop()

	resp := inst.PostForm(t, "/files/a.txt/copy", url.Values{"destination": {"backup/a.txt"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("copy failed: %d %s", resp.StatusCode, resp.Body)
	}
	resp = inst.Do(t, http.MethodDelete, "/files/a.txt", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete failed: %d %s", resp.StatusCode, resp.Body)
	}

	if resp := inst.Get(t, "/files/a.txt/info"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected deleted file to be gone, got %d", resp.StatusCode)
	}
	var text struct {
		Content string `json:"content"`
	}
	inst.Get(t, "/files/backup/a.txt/content").Decode(t, &text)
	if text.Content != "alpha" {
		t.Fatalf("backup content mismatch: %q", text.Content)
	}
}

func TestE2EUploadAndDownload(t *testing.T) {
	inst := testEnv.StartServer(t, nil)
	defer inst.Stop()

	content := make([]byte, 4096)
	for i := range content {
		content[i] = byte(i % 256)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "data.bin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp := inst.Do(t, http.MethodPost, "/files/bin/data.bin/upload", &body, mw.FormDataContentType())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload failed: %d %s", resp.StatusCode, resp.Body)
	}

	var notice struct {
		Error       string `json:"error"`
		Size        int64  `json:"size"`
		DownloadURL string `json:"download_url"`
	}
	inst.Get(t, "/files/bin/data.bin/content").Decode(t, &notice)
	if notice.Size != int64(len(content)) || notice.DownloadURL == "" {
		t.Fatalf("unexpected binary notice: %+v", notice)
	}

	resp = inst.Get(t, notice.DownloadURL)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download failed: %d", resp.StatusCode)
	}
	if !bytes.Equal(resp.Body, content) {
		t.Fatalf("download content mismatch: got %d bytes", len(resp.Body))
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Fatalf("missing attachment disposition: %q", cd)
	}
}

func TestE2ERootFromEnvironment(t *testing.T) {
	root := testEnv.NewRoot(t, map[string]string{"env.txt": "from env"})
	inst := testEnv.Start(t, root, []string{"FILESYSTEM_BASE_DIR=" + root})
	defer inst.Stop()

	if resp := inst.Get(t, "/files/env.txt/info"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected env root to be served, got %d", resp.StatusCode)
	}
}

func TestE2EMissingRootExits(t *testing.T) {
	missing := filepath.Join(testEnv.BaseDir, "does-not-exist")
	cmd := exec.Command(testEnv.Bin, "-root", missing, "-addr", "127.0.0.1:0")
	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() == 0 {
			t.Fatalf("expected non-zero exit, got %v", err)
		}
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("server with missing root did not exit")
	}
}

func TestE2EGracefulShutdown(t *testing.T) {
	inst := testEnv.StartServer(t, nil)

	if err := inst.cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- inst.cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			stdout, stderr := inst.GetLogs()
			t.Fatalf("unclean exit: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
		}
	case <-time.After(15 * time.Second):
		_ = inst.cmd.Process.Kill()
		t.Fatal("server did not shut down")
	}
	inst.cmd = nil
	inst.Stop()
}

// E2ETestEnvironment manages shared resources for all e2e tests
type E2ETestEnvironment struct {
	Bin     string
	BaseDir string
}

// ServerInstance represents a running server process for testing
type ServerInstance struct {
	cmd     *exec.Cmd
	BaseURL string
	RootDir string
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	client  *http.Client
	cleanup func()
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(t *testing.T, v any) {
	t.Helper()
	if r.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", r.StatusCode, r.Body)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("failed to decode %s: %v", r.Body, err)
	}
}

// NewE2ETestEnvironment creates a shared test environment
func NewE2ETestEnvironment(bin string) (*E2ETestEnvironment, error) {
	baseDir, err := os.MkdirTemp("", "fsapi-e2e-tests")
	if err != nil {
		return nil, err
	}
	return &E2ETestEnvironment{Bin: bin, BaseDir: baseDir}, nil
}

// Close cleans up the test environment
func (env *E2ETestEnvironment) Close() {
	if env.BaseDir != "" {
		_ = os.RemoveAll(env.BaseDir) // Best effort cleanup
	}
}

// NewRoot creates a test-specific root directory seeded with files
func (env *E2ETestEnvironment) NewRoot(t *testing.T, files map[string]string) string {
	testID := strings.ReplaceAll(t.Name(), "/", "_")
	root := filepath.Join(env.BaseDir, testID, "root")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("Failed to create root dir: %v", err)
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("Failed to create parent of %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return root
}

// StartServer starts a server on a fresh root seeded with files
func (env *E2ETestEnvironment) StartServer(t *testing.T, files map[string]string) *ServerInstance {
	root := env.NewRoot(t, files)
	return env.Start(t, root, nil, "-root", root)
}

// Start runs the binary with extra environment and arguments and waits
// for it to report healthy.
func (env *E2ETestEnvironment) Start(t *testing.T, root string, environ []string, args ...string) *ServerInstance {
	addr := freeAddr(t)
	args = append(args, "-addr", addr, "-v", "4")
	cmd := exec.Command(env.Bin, args...)
	cmd.Env = append(os.Environ(), environ...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	instance := &ServerInstance{
		cmd:     cmd,
		BaseURL: "http://" + addr,
		RootDir: root,
		stdout:  &stdout,
		stderr:  &stderr,
		client:  &http.Client{Timeout: 10 * time.Second},
		cleanup: func() {
			_ = os.RemoveAll(filepath.Dir(root)) // Best effort cleanup
		},
	}

	if err := instance.WaitForHealthy(15 * time.Second); err != nil {
		stdout, stderr := instance.GetLogs()
		instance.Stop()
		t.Fatalf("Server did not become healthy: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
	}
	return instance
}

// freeAddr reserves a loopback port and releases it for the server to bind
func freeAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

// Do sends a request and reads the whole response
func (s *ServerInstance) Do(t *testing.T, method, target string, body io.Reader, contentType string) *Response {
	t.Helper()
	req, err := http.NewRequest(method, s.BaseURL+target, body)
	if err != nil {
		t.Fatalf("bad request %s %s: %v", method, target, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s %s: %v", method, target, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
}

func (s *ServerInstance) Get(t *testing.T, target string) *Response {
	return s.Do(t, http.MethodGet, target, nil, "")
}

func (s *ServerInstance) PostJSON(t *testing.T, target, body string) *Response {
	return s.Do(t, http.MethodPost, target, strings.NewReader(body), "application/json")
}

func (s *ServerInstance) PostForm(t *testing.T, target string, form url.Values) *Response {
	return s.Do(t, http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// Stop gracefully stops the server
func (s *ServerInstance) Stop() {
	if s.cmd != nil && s.cmd.Process != nil {
		// Send interrupt signal
		_ = s.cmd.Process.Signal(os.Interrupt) // Process may have already exited

		// Wait for graceful shutdown with timeout
		done := make(chan error, 1)
		go func() {
			done <- s.cmd.Wait()
		}()

		select {
		case <-done:
			// Graceful shutdown completed
		case <-time.After(5 * time.Second):
			// Force kill if graceful shutdown takes too long
			_ = s.cmd.Process.Kill() // Process may have already exited
			<-done
		}
	}

	// Cleanup temp directories
	if s.cleanup != nil {
		s.cleanup()
	}
}

// WaitForHealthy polls /health until the server answers 200
func (s *ServerInstance) WaitForHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := s.client.Get(s.BaseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("timeout waiting for %s to be healthy", s.BaseURL)
}

// GetLogs returns the stdout and stderr from the server process
func (s *ServerInstance) GetLogs() (stdout, stderr string) {
	return s.stdout.String(), s.stderr.String()
}
