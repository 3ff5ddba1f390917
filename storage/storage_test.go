package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, 1<<10, nil)
	require.NoError(t, err)

	s, err := l.Save("Dog.JPG", "image/jpeg", strings.NewReader("jpegdata"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.Name, "media-"))
	assert.True(t, strings.HasSuffix(s.Name, ".jpg"))
	assert.Equal(t, URLPrefix+s.Name, s.Path)
	assert.Equal(t, "image", s.MediaType)
	assert.Equal(t, int64(8), s.Size)

	data, err := os.ReadFile(filepath.Join(dir, s.Name))
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))

	s2, err := l.Save("Dog.JPG", "image/jpeg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotEqual(t, s.Name, s2.Name)
}

func TestSave_Types(t *testing.T) {
	tests := []struct {
		name, filename, ct string
		wantMIME, wantKind string
		wantErr            error
	}{
		{"video header", "clip.mp4", "video/mp4", "video/mp4", "video", nil},
		{"params stripped", "a.png", "image/png; charset=binary", "image/png", "image", nil},
		{"guessed from extension", "a.png", "", "image/png", "image", nil},
		{"octet stream guessed", "a.jpeg", "application/octet-stream", "image/jpeg", "image", nil},
		{"pdf rejected", "a.pdf", "application/pdf", "", "", ErrUnsupportedType},
		{"unknown rejected", "blob", "", "", "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLocal(t.TempDir(), 0, nil)
			require.NoError(t, err)
			s, err := l.Save(tt.filename, tt.ct, strings.NewReader("data"))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, s.MIMEType)
			assert.Equal(t, tt.wantKind, s.MediaType)
		})
	}
}

func TestSave_TooLargeLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, 4, nil)
	require.NoError(t, err)

	_, err = l.Save("a.jpg", "image/jpeg", bytes.NewReader([]byte("12345")))
	assert.True(t, errors.Is(err, ErrTooLarge))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = l.Save("a.jpg", "image/jpeg", bytes.NewReader([]byte("1234")))
	assert.NoError(t, err)
}

type failingCloser struct{ bytes.Buffer }

func (failingCloser) Close() error { return errors.New("no space left on device") }

func TestSave_CloseErrorFails(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, 1<<10, nil)
	require.NoError(t, err)
	l.create = func(name string) (io.WriteCloser, error) {
		// leave a file behind so the rollback has something to remove
		require.NoError(t, os.WriteFile(name, nil, 0o644))
		return &failingCloser{}, nil
	}

	s, err := l.Save("dog.jpg", "image/jpeg", strings.NewReader("jpegdata"))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "no space left on device")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemove(t *testing.T) {
	l, err := NewLocal(t.TempDir(), 0, nil)
	require.NoError(t, err)
	s, err := l.Save("a.mp4", "video/mp4", strings.NewReader("v"))
	require.NoError(t, err)

	require.NoError(t, l.Remove(s.Name))
	_, err = os.Stat(filepath.Join(l.Dir(), s.Name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, l.Remove(s.Name))
	assert.Error(t, l.Remove("../etc/passwd"))
	assert.Error(t, l.Remove(""))
}
