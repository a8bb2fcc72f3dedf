package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// ErrMalformedAIResponse indicates the completion could not be normalized
// into a score report.
var ErrMalformedAIResponse = errors.New("malformed AI response")

// MalformedResponseError carries the raw completion alongside the reason it
// was rejected. Callers match it with errors.Is(err, ErrMalformedAIResponse).
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed AI response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedAIResponse
}

// ComponentScore is the normalized grading outcome for one rubric component.
type ComponentScore struct {
	Score    int
	MaxScore int
	Feedback []models.FeedbackItem
}

// ScoreReport is the normalized form of a grading completion.
type ScoreReport struct {
	OverallScore int
	Summary      string
	Model        ComponentScore
	Controller   ComponentScore
}

var summarySanitizer = bluemonday.StrictPolicy()

type rawComponent struct {
	Score    *float64 `json:"score"`
	MaxScore *float64 `json:"maxScore"`
	Feedback []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"feedback"`
}

type rawReport struct {
	OverallScore *float64      `json:"overallScore"`
	Summary      string        `json:"summary"`
	Model        *rawComponent `json:"modelEvaluation"`
	Controller   *rawComponent `json:"controllerEvaluation"`
}

// ParseScoreReport validates and normalizes a raw completion into a score
// report. Providers commonly wrap the JSON in markdown fencing, which is
// stripped first. Scores must be numeric; a quoted or missing score is a
// failure, not a default. When the reported overall score disagrees with the
// component sum, the sum is authoritative.
func ParseScoreReport(raw string) (ScoreReport, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return ScoreReport{}, &MalformedResponseError{Raw: raw, Reason: "empty completion"}
	}

	var report rawReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return ScoreReport{}, &MalformedResponseError{Raw: raw, Reason: err.Error()}
	}

	if report.OverallScore == nil {
		return ScoreReport{}, &MalformedResponseError{Raw: raw, Reason: "missing overallScore"}
	}
	if strings.TrimSpace(report.Summary) == "" {
		return ScoreReport{}, &MalformedResponseError{Raw: raw, Reason: "missing summary"}
	}

	model, err := normalizeComponent(report.Model, "modelEvaluation", models.ModelMaxScore)
	if err != nil {
		return ScoreReport{}, &MalformedResponseError{Raw: raw, Reason: err.Error()}
	}
	controller, err := normalizeComponent(report.Controller, "controllerEvaluation", models.ControllerMaxScore)
	if err != nil {
		return ScoreReport{}, &MalformedResponseError{Raw: raw, Reason: err.Error()}
	}

	return ScoreReport{
		OverallScore: model.Score + controller.Score,
		Summary:      summarySanitizer.Sanitize(strings.TrimSpace(report.Summary)),
		Model:        model,
		Controller:   controller,
	}, nil
}

func normalizeComponent(component *rawComponent, name string, maxScore int) (ComponentScore, error) {
	if component == nil {
		return ComponentScore{}, fmt.Errorf("missing %s", name)
	}
	if component.Score == nil {
		return ComponentScore{}, fmt.Errorf("missing %s.score", name)
	}

	score := int(math.Round(*component.Score))
	if score < 0 || score > maxScore {
		return ComponentScore{}, fmt.Errorf("%s.score %d outside range 0-%d", name, score, maxScore)
	}

	feedback := make([]models.FeedbackItem, 0, len(component.Feedback))
	for i, item := range component.Feedback {
		if !models.IsValidFeedbackType(item.Type) {
			return ComponentScore{}, fmt.Errorf("%s.feedback[%d] has unknown type %q", name, i, item.Type)
		}
		message := summarySanitizer.Sanitize(strings.TrimSpace(item.Message))
		if message == "" {
			return ComponentScore{}, fmt.Errorf("%s.feedback[%d] has an empty message", name, i)
		}
		feedback = append(feedback, models.FeedbackItem{Type: item.Type, Message: message})
	}

	return ComponentScore{Score: score, MaxScore: maxScore, Feedback: feedback}, nil
}
