// Package storage keeps uploaded report media on local disk, served by the
// API under /uploads.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/learnercloudtech/Karunya-Kripa/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTooLarge        = errors.New("media file too large")
	ErrUnsupportedType = errors.New("media must be an image or a video")
)

// URLPrefix is the path the upload directory is mounted at.
const URLPrefix = "/uploads/"

// Saved describes a stored media file.
type Saved struct {
	Name      string
	Path      string // URL path, URLPrefix + Name
	MIMEType  string
	MediaType string // image | video
	Size      int64
}

// Local stores files in a single directory.
type Local struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
	create   func(name string) (io.WriteCloser, error)
}

func createFile(name string) (io.WriteCloser, error) { return os.Create(name) }

// NewLocal creates dir if needed. maxBytes <= 0 disables the size check.
func NewLocal(dir string, maxBytes int64, logger *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{dir: dir, maxBytes: maxBytes, logger: logger.Named("storage"), create: createFile}, nil
}

// Dir is the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// MaxBytes is the per-file limit.
func (l *Local) MaxBytes() int64 { return l.maxBytes }

// SaveFormFile stores an uploaded multipart file.
func (l *Local) SaveFormFile(fh *multipart.FileHeader) (*Saved, error) {
	if l.maxBytes > 0 && fh.Size > l.maxBytes {
		return nil, ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return l.Save(fh.Filename, fh.Header.Get("Content-Type"), src)
}

// Save writes r under a fresh unique name keeping the extension of
// filename. A missing contentType is guessed from the extension.
func (l *Local) Save(filename, contentType string, r io.Reader) (*Saved, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 8 {
		ext = ext[:8]
	}
	mt := mediaMIME(contentType, ext)
	if mt == "" {
		return nil, ErrUnsupportedType
	}

	name := "media-" + uuid.NewString() + ext
	dst := filepath.Join(l.dir, name)
	n, err := l.copyFile(r, dst)
	if err != nil {
		_ = os.Remove(dst)
		return nil, err
	}

	l.logger.Debug("media stored", zap.String("name", name), zap.String("mime", mt), zap.Int64("bytes", n))
	return &Saved{
		Name:      name,
		Path:      URLPrefix + name,
		MIMEType:  mt,
		MediaType: models.MediaType(mt),
		Size:      n,
	}, nil
}

// Remove deletes a stored file by name. Missing files are not an error.
func (l *Local) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid media name %q", name)
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) copyFile(r io.Reader, dst string) (n int64, err error) {
	out, err := l.create(dst)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(dst), cerr)
		}
	}()

	if l.maxBytes <= 0 {
		return io.Copy(out, r)
	}
	n, err = io.Copy(out, io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return n, err
	}
	if n > l.maxBytes {
		return n, ErrTooLarge
	}
	return n, nil
}

// mediaMIME returns the image/ or video/ type of an upload, or "".
func mediaMIME(contentType, ext string) string {
	mt := contentType
	if base, _, err := mime.ParseMediaType(contentType); err == nil {
		mt = base
	}
	if mt == "" || mt == "application/octet-stream" {
		mt = mime.TypeByExtension(ext)
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			mt = base
		}
	}
	if strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/") {
		return mt
	}
	return ""
}
