// Package ingest validates, hashes and uploads context files for the
// conversation, and tracks which files the backend currently knows about.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"voice-assistant-client/internal/models"
	"voice-assistant-client/internal/observability/logging"
	"voice-assistant-client/internal/observability/metrics"
	"voice-assistant-client/internal/transport"
)

// mimeByExtension maps local file extensions to the MIME types the
// backend accepts.
var mimeByExtension = map[string]string{
	".c":    "text/x-c",
	".cpp":  "text/x-c++",
	".cs":   "text/x-csharp",
	".css":  "text/css",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".go":   "text/x-golang",
	".html": "text/html",
	".java": "text/x-java",
	".js":   "text/javascript",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".php":  "text/x-php",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".py":   "text/x-python",
	".rb":   "text/x-ruby",
	".sh":   "application/x-sh",
	".tex":  "text/x-tex",
	".ts":   "application/typescript",
	".txt":  "text/plain",
}

const supportedExtensions = ".c, .cpp, .cs, .css, .doc, .docx, .go, .html, .java, .js, .json, .md, .pdf, .php, .pptx, .py, .rb, .sh, .tex, .ts, .txt"

// allowedMimeTypes is the backend's document allow-list. Anything else is
// rejected client-side before any bytes move. Drive pickers report python
// files under a second MIME type, hence the extra entry.
var allowedMimeTypes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(mimeByExtension)+1)
	for _, mime := range mimeByExtension {
		m[mime] = struct{}{}
	}
	m["text/x-script.python"] = struct{}{}
	return m
}()

// ErrFileNotTracked - a delete was requested for a file that is not in
// the visible list.
var ErrFileNotTracked = errors.New("file not in the uploaded list")

// Uploader is the transport surface the ingestor needs. *transport.Rest
// satisfies it.
type Uploader interface {
	Upload(ctx context.Context, sessionID string, files []transport.UploadFile) error
	DeleteFile(ctx context.Context, filename, fileHash, sessionID string) error
}

// Result reports the outcome of one upload batch. Rejected files never
// abort the batch; they surface as notices alongside the successes.
type Result struct {
	Uploaded []models.UploadedFile
	Rejected []string
	Notices  []string
}

// Ingestor uploads validated files and tracks the visible file list. The
// list only changes after the backend confirms an operation; a failed
// batch leaves it untouched.
type Ingestor struct {
	uploader Uploader
	log      zerolog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	visible []models.UploadedFile
}

// New creates an ingestor on top of the given upload transport.
func New(uploader Uploader) *Ingestor {
	return &Ingestor{
		uploader: uploader,
		log:      logging.WithComponent("ingest"),
		metrics:  metrics.DefaultMetrics,
	}
}

// Hash returns the lowercase hex SHA-256 of the file content. The same
// hash identifies the file in delete requests.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// UnsupportedNotice is the per-file message shown when a file fails MIME
// validation.
func UnsupportedNotice(name string) string {
	return fmt.Sprintf("Unsupported file type: %s. Only the following file types are supported: %s", name, supportedExtensions)
}

// MimeForPath resolves the upload MIME type from the file extension.
func MimeForPath(path string) (string, bool) {
	mime, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]
	return mime, ok
}

// Allowed reports whether a MIME type is on the backend allow-list.
func Allowed(mimeType string) bool {
	_, ok := allowedMimeTypes[mimeType]
	return ok
}

// UploadPaths reads local files, validates each by extension, hashes the
// survivors and uploads them as one batch. Files are visible only after
// the whole batch succeeds.
func (g *Ingestor) UploadPaths(ctx context.Context, sessionID string, paths []string) (Result, error) {
	var batch []transport.UploadFile
	var accepted []models.UploadedFile
	var res Result

	for _, path := range paths {
		name := filepath.Base(path)
		mime, ok := MimeForPath(path)
		if !ok {
			g.reject(&res, name)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			g.log.Error().Err(err).Str("file", name).Msg("Failed to read file")
			res.Notices = append(res.Notices, fmt.Sprintf("Failed to read %s: %v", name, err))
			continue
		}
		batch = append(batch, transport.UploadFile{Name: name, MimeType: mime, Content: data})
		accepted = append(accepted, models.UploadedFile{Name: name, Hash: Hash(data)})
	}

	return g.send(ctx, sessionID, batch, accepted, res)
}

// UploadContent validates and uploads files whose bytes are already in
// hand, such as drive downloads.
func (g *Ingestor) UploadContent(ctx context.Context, sessionID string, files []transport.UploadFile) (Result, error) {
	var batch []transport.UploadFile
	var accepted []models.UploadedFile
	var res Result

	for _, f := range files {
		if !Allowed(f.MimeType) {
			g.reject(&res, f.Name)
			continue
		}
		batch = append(batch, f)
		accepted = append(accepted, models.UploadedFile{Name: f.Name, Hash: Hash(f.Content)})
	}

	return g.send(ctx, sessionID, batch, accepted, res)
}

func (g *Ingestor) reject(res *Result, name string) {
	g.log.Warn().Str("file", name).Msg("File rejected by MIME validation")
	g.metrics.FilesRejected.Inc()
	res.Rejected = append(res.Rejected, name)
	res.Notices = append(res.Notices, UnsupportedNotice(name))
}

func (g *Ingestor) send(ctx context.Context, sessionID string, batch []transport.UploadFile, accepted []models.UploadedFile, res Result) (Result, error) {
	if len(batch) == 0 {
		res.Notices = append(res.Notices, "No valid files to upload")
		return res, nil
	}

	if err := g.uploader.Upload(ctx, sessionID, batch); err != nil {
		return res, fmt.Errorf("upload batch: %w", err)
	}

	g.mu.Lock()
	g.visible = append(g.visible, accepted...)
	g.mu.Unlock()

	res.Uploaded = accepted
	names := make([]string, len(accepted))
	for i, f := range accepted {
		names[i] = f.Name
	}
	res.Notices = append(res.Notices, "Files uploaded: "+strings.Join(names, ", "))
	g.log.Info().Strs("files", names).Str("session", sessionID).Msg("Upload batch accepted")
	return res, nil
}

// Visible returns a snapshot of the files the backend currently holds.
func (g *Ingestor) Visible() []models.UploadedFile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.UploadedFile(nil), g.visible...)
}

// Delete removes one file by name. The file leaves the visible list only
// after the backend confirms.
func (g *Ingestor) Delete(ctx context.Context, sessionID, name string) error {
	g.mu.Lock()
	idx := -1
	var hash string
	for i, f := range g.visible {
		if f.Name == name {
			idx = i
			hash = f.Hash
			break
		}
	}
	g.mu.Unlock()
	if idx < 0 {
		return ErrFileNotTracked
	}

	if err := g.uploader.DeleteFile(ctx, name, hash, sessionID); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}

	g.mu.Lock()
	for i, f := range g.visible {
		if f.Name == name && f.Hash == hash {
			g.visible = append(g.visible[:i], g.visible[i+1:]...)
			break
		}
	}
	g.mu.Unlock()

	g.log.Info().Str("file", name).Msg("File deleted")
	return nil
}

// Clear forgets the visible file list. Used when the conversation is
// reset; the backend scopes files per session.
func (g *Ingestor) Clear() {
	g.mu.Lock()
	g.visible = nil
	g.mu.Unlock()
}
