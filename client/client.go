// Package client is the HTTP client for the report API. The intake
// coordinator submits through it and the CLI reads the dashboard with it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/models"

	"go.uber.org/zap"
)

// ConnectivityMessage is shown when the backend cannot be reached or answers
// with something that is not the API's JSON error shape.
const ConnectivityMessage = "Cannot connect to the server. Please check that the backend is running and reachable."

// Fallback messages for JSON error bodies without a message.
const (
	MsgSubmitFailed  = "Failed to submit report."
	MsgRequestFailed = "Request failed."
)

// ErrUnreachable wraps transport failures.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

// NewReport is the multipart payload of POST /api/reports.
type NewReport struct {
	Type            models.ReportType
	Description     string
	Location        string
	ReporterName    string
	ReporterPhone   string
	Coordinates     geo.Coordinates
	AIPriority      string
	AIJustification string

	MediaName string
	MediaType string
	Media     []byte
}

// Client talks to the report API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New builds a client for baseURL. A nil logger disables logging.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("api-client"),
	}
}

// quoteEscaper matches the quoting multipart.Writer.CreateFormFile applies.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// SubmitReport uploads a report with its media file.
func (c *Client) SubmitReport(ctx context.Context, r NewReport) (*models.Report, error) {
	coords, err := json.Marshal(r.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("encode coordinates: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ k, v string }{
		{"type", string(r.Type)},
		{"description", r.Description},
		{"location", r.Location},
		{"reporterName", r.ReporterName},
		{"reporterPhone", r.ReporterPhone},
		{"coordinates", string(coords)},
		{"aiPriority", r.AIPriority},
		{"aiJustification", r.AIJustification},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.k, f.v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.k, err)
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="%s"`, quoteEscaper.Replace(r.MediaName)))
	h.Set("Content-Type", r.MediaType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create media part: %w", err)
	}
	if _, err := part.Write(r.Media); err != nil {
		return nil, fmt.Errorf("write media part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out models.Report
	if err := c.send(ctx, http.MethodPost, "/api/reports", mw.FormDataContentType(), &buf, &out, MsgSubmitFailed); err != nil {
		return nil, err
	}
	c.logger.Info("report submitted", zap.String("id", out.ID.Hex()), zap.String("type", string(out.Type)))
	return &out, nil
}

// ListReports returns all reports, newest first.
func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves a report to status.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*models.Report, error) {
	body, err := json.Marshal(models.StatusUpdate{Status: status})
	if err != nil {
		return nil, err
	}
	var out models.Report
	path := "/api/reports/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVolunteers returns all volunteers, newest first.
func (c *Client) ListVolunteers(ctx context.Context) ([]models.Volunteer, error) {
	var out []models.Volunteer
	if err := c.do(ctx, http.MethodGet, "/api/volunteers", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterVolunteer creates a volunteer registration.
func (c *Client) RegisterVolunteer(ctx context.Context, v models.VolunteerPayload) (*models.Volunteer, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out models.Volunteer
	if err := c.do(ctx, http.MethodPost, "/api/volunteers", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	return c.send(ctx, method, path, contentType, body, out, MsgRequestFailed)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out any, fallback string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data, fallback)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// parseAPIError prefers the server's {message}; a body that is not JSON
// means something other than the API answered.
func parseAPIError(status int, data []byte, fallback string) error {
	var body models.ErrorResp
	if err := json.Unmarshal(data, &body); err != nil {
		return &APIError{StatusCode: status, Message: ConnectivityMessage}
	}
	msg := body.Message
	if msg == "" {
		msg = fallback
	}
	return &APIError{StatusCode: status, Message: msg}
}
