package assess

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string
	Region string
	// BaseURL overrides the Gemini API endpoint.
	BaseURL string
}

// Gemini assesses reports with Google's Gemini models. Images are sent
// inline alongside the prompt.
type Gemini struct {
	client *genai.Client
	model  string
	region string
	logger *zap.Logger
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Region == "" {
		cfg.Region = "Mangalore, India"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  cfg.Model,
		region: cfg.Region,
		logger: logger.Named("gemini"),
	}, nil
}

// Assess classifies req.
func (g *Gemini) Assess(ctx context.Context, req Request) (Result, error) {
	if req.Image == nil && strings.TrimSpace(req.Description) == "" {
		return Result{Priority: PriorityManualReview, Justification: "No information provided."}, nil
	}

	var parts []*genai.Part
	if req.Image != nil {
		parts = append(parts,
			genai.NewPartFromText(visionPrompt(req.Description)),
			genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	} else {
		parts = append(parts, genai.NewPartFromText(textPrompt(req.Category, req.Description)))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		g.logger.Warn("assessment failed", zap.Error(err))
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseResult(resp.Text())
}

// Refine rewrites a raw location into a more geocodable address.
func (g *Gemini) Refine(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return raw, nil
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(refinePrompt(g.region, raw)), nil)
	if err != nil {
		g.logger.Warn("refinement failed", zap.Error(err))
		return raw, fmt.Errorf("gemini refine: %w", err)
	}
	return cleanRefined(resp.Text(), raw), nil
}
