package intake

import (
	"strings"

	"go.uber.org/zap"
)

// MediaFile is the single attachment of a report.
type MediaFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether the file is a picture.
func (m MediaFile) IsImage() bool { return strings.HasPrefix(m.MIMEType, "image/") }

// IsVideo reports whether the file is a video.
func (m MediaFile) IsVideo() bool { return strings.HasPrefix(m.MIMEType, "video/") }

// Size is the file length in bytes.
func (m MediaFile) Size() int64 { return int64(len(m.Data)) }

// SelectMedia attaches m, replacing any previous file. Oversize files are
// rejected and clear the attachment; files that are neither image nor video
// are rejected and leave the current attachment untouched.
func (c *Coordinator) SelectMedia(m MediaFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if m.Size() > c.cfg.MaxMediaBytes {
		c.st.MediaError = tooLargeMessage(c.cfg.MaxMediaBytes)
		c.releasePreviewLocked()
		c.st.Media = nil
		c.inputChangedLocked()
		c.notifyLocked()
		return ErrMediaTooLarge
	}
	if !m.IsImage() && !m.IsVideo() {
		c.st.MediaError = MsgUnsupportedMedia
		c.notifyLocked()
		return ErrUnsupportedMedia
	}

	c.st.MediaError = ""
	c.st.SubmissionError = ""
	delete(c.st.FieldErrors, FieldMedia)

	c.releasePreviewLocked()
	if c.cfg.Preview != nil {
		p, err := c.cfg.Preview(m)
		if err != nil {
			c.logger.Warn("media preview failed", zap.String("name", m.Name), zap.Error(err))
		} else {
			c.preview = p
			c.st.PreviewURL = p.URL()
		}
	}

	c.st.Media = &m
	c.logger.Debug("media selected",
		zap.String("name", m.Name),
		zap.String("mime", m.MIMEType),
		zap.Int64("bytes", m.Size()))
	c.inputChangedLocked()
	c.notifyLocked()
	return nil
}

// ClearMedia removes the attachment.
func (c *Coordinator) ClearMedia() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.st.Media == nil {
		return
	}
	c.releasePreviewLocked()
	c.st.Media = nil
	c.inputChangedLocked()
	c.notifyLocked()
}

func (c *Coordinator) releasePreviewLocked() {
	if c.preview == nil {
		return
	}
	if err := c.preview.Close(); err != nil {
		c.logger.Warn("release media preview", zap.Error(err))
	}
	c.preview = nil
	c.st.PreviewURL = ""
}
