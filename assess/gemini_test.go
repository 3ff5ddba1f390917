package assess

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/learnercloudtech/Karunya-Kripa/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		Data     []byte `json:"data"`
		MIMEType string `json:"mimeType"`
	} `json:"inlineData,omitempty"`
}

type geminiRequest struct {
	Contents []struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

// geminiServer answers generateContent calls with text, or with status
// when it is not 200.
func geminiServer(t *testing.T, status int, text string, seen *geminiRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": status, "message": "bad request", "status": "INVALID_ARGUMENT"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, srv *httptest.Server) *Gemini {
	t.Helper()
	g, err := NewGemini(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: srv.URL,
	}, nil)
	require.NoError(t, err)
	return g
}

func TestGemini_AssessImage(t *testing.T) {
	var seen geminiRequest
	srv := geminiServer(t, http.StatusOK, `{"priority":"high","justification":"Visible wound."}`, &seen)
	g := newTestGemini(t, srv)

	res, err := g.Assess(context.Background(), Request{
		Description: "dog limping",
		Category:    models.ReportEmergency,
		Image:       &Image{MIMEType: "image/jpeg", Data: []byte("jpegdata")},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Priority: PriorityHigh, Justification: "Visible wound."}, res)

	assert.Equal(t, "application/json", seen.GenerationConfig.ResponseMIMEType)
	require.Len(t, seen.Contents, 1)
	var inline int
	for _, p := range seen.Contents[0].Parts {
		if p.InlineData != nil {
			inline++
			assert.Equal(t, "image/jpeg", p.InlineData.MIMEType)
			assert.Equal(t, []byte("jpegdata"), p.InlineData.Data)
		}
	}
	assert.Equal(t, 1, inline)
}

func TestGemini_AssessTextNormalizesPriority(t *testing.T) {
	var seen geminiRequest
	srv := geminiServer(t, http.StatusOK, `{"priority":"Urgent","justification":"Cat stuck on a ledge."}`, &seen)
	g := newTestGemini(t, srv)

	res, err := g.Assess(context.Background(), Request{
		Description: "cat stuck on the third floor ledge",
		Category:    models.ReportEmergency,
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityManualReview, res.Priority)
	assert.Equal(t, "Cat stuck on a ledge.", res.Justification)

	require.Len(t, seen.Contents, 1)
	for _, p := range seen.Contents[0].Parts {
		assert.Nil(t, p.InlineData)
	}
}

func TestGemini_Refine(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `"Hampankatta Circle, Mangalore"`, nil)
	g := newTestGemini(t, srv)

	got, err := g.Refine(context.Background(), "near hampankatta")
	require.NoError(t, err)
	assert.Equal(t, "Hampankatta Circle, Mangalore", got)
}

func TestGemini_RefineErrorKeepsRaw(t *testing.T) {
	srv := geminiServer(t, http.StatusBadRequest, "", nil)
	g := newTestGemini(t, srv)

	got, err := g.Refine(context.Background(), "near hampankatta")
	assert.Error(t, err)
	assert.Equal(t, "near hampankatta", got)
}
