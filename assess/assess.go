// Package assess classifies incident reports by urgency using a language
// model, and refines free-text location queries with the same model.
package assess

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/learnercloudtech/Karunya-Kripa/models"
)

// Priority levels a model may assign.
const (
	PriorityHigh         = "High"
	PriorityMedium       = "Medium"
	PriorityLow          = "Low"
	PriorityInfo         = "Info"
	PriorityManualReview = "Manual Review"
)

// ErrEmptyResponse is returned when the model answers with no usable content.
var ErrEmptyResponse = errors.New("assess: empty model response")

// Result is a priority classification with a one-sentence justification.
type Result struct {
	Priority      string `json:"priority"`
	Justification string `json:"justification"`
}

// Image is an attached picture forwarded to a vision model.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request carries the inputs of one assessment. When Image is set the
// vision path runs and Description is auxiliary context only.
type Request struct {
	Description string
	Category    models.ReportType
	Image       *Image
}

// ValidPriority reports whether p is one of the recognised priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityInfo, PriorityManualReview:
		return true
	}
	return false
}

// normalize maps model output onto the recognised priority set.
func normalize(r Result) Result {
	p := strings.TrimSpace(r.Priority)
	for _, known := range []string{PriorityHigh, PriorityMedium, PriorityLow, PriorityInfo, PriorityManualReview} {
		if strings.EqualFold(p, known) {
			p = known
			break
		}
	}
	if !ValidPriority(p) {
		p = PriorityManualReview
	}
	j := strings.TrimSpace(r.Justification)
	if j == "" {
		j = "Analysis incomplete. Manual review required."
	}
	return Result{Priority: p, Justification: j}
}

var (
	jsonBlockPattern  = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// parseResult extracts the JSON object from a model answer, tolerating
// markdown fences and surrounding prose.
func parseResult(content string) (Result, error) {
	raw := ""
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonObjectPattern.FindString(content)
	}
	if raw == "" {
		return Result{}, ErrEmptyResponse
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Result{}, fmt.Errorf("assess: decode model json: %w", err)
	}
	return normalize(r), nil
}

// cleanRefined trims a refinement answer; an empty answer keeps raw.
func cleanRefined(answer, raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(answer, `"`, ""))
	if s == "" {
		return raw
	}
	return s
}

// Static answers every request with a fixed result. It stands in when no
// model is configured.
type Static struct {
	Result Result
}

// Disabled is the Static assessor used when assessment is turned off.
var Disabled = Static{Result: Result{
	Priority:      PriorityManualReview,
	Justification: "Automatic assessment is disabled.",
}}
