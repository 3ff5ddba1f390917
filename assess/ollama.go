package assess

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize limits the model response body.
const maxResponseSize = 1 << 20

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	BaseURL     string
	TextModel   string
	VisionModel string
	Region      string
	Timeout     time.Duration
}

// Ollama assesses reports through Ollama's native generate endpoint,
// using a vision model when an image is attached and a text model otherwise.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
	logger *zap.Logger
}

// NewOllama builds an Ollama backend. A nil logger disables logging.
func NewOllama(cfg OllamaConfig, logger *zap.Logger) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.TextModel == "" {
		cfg.TextModel = "granite3.1-dense:2b"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "llava"
	}
	if cfg.Region == "" {
		cfg.Region = "Mangalore, India"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("ollama"),
	}
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Format string   `json:"format,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Assess classifies req.
func (o *Ollama) Assess(ctx context.Context, req Request) (Result, error) {
	if req.Image == nil && strings.TrimSpace(req.Description) == "" {
		return Result{Priority: PriorityManualReview, Justification: "No information provided."}, nil
	}

	body := generateRequest{Format: "json"}
	if req.Image != nil {
		body.Model = o.cfg.VisionModel
		body.Prompt = visionPrompt(req.Description)
		body.Images = []string{base64.StdEncoding.EncodeToString(req.Image.Data)}
	} else {
		body.Model = o.cfg.TextModel
		body.Prompt = textPrompt(req.Category, req.Description)
	}

	answer, err := o.generate(ctx, body)
	if err != nil {
		o.logger.Warn("assessment failed", zap.String("model", body.Model), zap.Error(err))
		return Result{}, err
	}
	return parseResult(answer)
}

// Refine rewrites a raw location into a more geocodable address. An empty
// answer leaves raw unchanged.
func (o *Ollama) Refine(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	answer, err := o.generate(ctx, generateRequest{
		Model:  o.cfg.TextModel,
		Prompt: refinePrompt(o.cfg.Region, raw),
	})
	if err != nil {
		o.logger.Warn("refinement failed", zap.Error(err))
		return raw, err
	}
	return cleanRefined(answer, raw), nil
}

func (o *Ollama) generate(ctx context.Context, body generateRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API request failed with status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", ErrEmptyResponse
	}
	return out.Response, nil
}
