package contract

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
)

const gradingResponseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["enrollmentNumber", "evaluationTimestamp", "grade", "overallScore", "summary", "modelEvaluation", "controllerEvaluation"],
  "properties": {
    "enrollmentNumber": {"type": "string", "minLength": 1},
    "evaluationTimestamp": {"type": "string", "format": "date-time"},
    "evaluationId": {"type": "integer", "minimum": 1},
    "submissionId": {"type": "integer", "minimum": 1},
    "studentId": {"type": "integer", "minimum": 1},
    "grade": {"enum": ["A+", "A", "B", "C", "D", "F"]},
    "overallScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "summary": {"type": "string", "minLength": 1},
    "modelEvaluation": {"$ref": "#/$defs/component"},
    "controllerEvaluation": {"$ref": "#/$defs/component"}
  },
  "$defs": {
    "component": {
      "type": "object",
      "required": ["score", "maxScore", "feedback"],
      "properties": {
        "score": {"type": "integer", "minimum": 0},
        "maxScore": {"enum": [40, 60]},
        "feedback": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["type", "message"],
            "properties": {
              "type": {"enum": ["SUCCESS", "IMPROVEMENT", "ERROR", "SYNTAX"]},
              "message": {"type": "string", "minLength": 1}
            }
          }
        }
      }
    }
  }
}`

func compileSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	require.NoError(t, compiler.AddResource("grading.json", strings.NewReader(gradingResponseSchema)))
	schema, err := compiler.Compile("grading.json")
	require.NoError(t, err)
	return schema
}

func TestGradingResponseMatchesContract(t *testing.T) {
	schema := compileSchema(t)

	evaluation := models.Evaluation{
		ID:               1,
		EnrollmentNumber: "210801301",
		StudentID:        1,
		SubmissionID:     1,
		OverallScore:     85,
		Summary:          "Solid work overall.",
		ModelScore:       35,
		ModelFeedback:    []models.FeedbackItem{{Type: models.FeedbackSuccess, Message: "Schema is correct."}},
		ControllerScore:  50,
		ControllerFeedback: []models.FeedbackItem{
			{Type: models.FeedbackImprovement, Message: "Add error handling."},
			{Type: models.FeedbackSyntax, Message: "Missing semicolon."},
		},
		Provider:    "openai",
		EvaluatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(dto.NewGradingResponse(evaluation))
	require.NoError(t, err)

	var decoded interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.NoError(t, schema.Validate(decoded))
}

func TestGradingResponseContractRejectsUnknownGrade(t *testing.T) {
	schema := compileSchema(t)

	payload, err := json.Marshal(dto.NewGradingResponse(models.Evaluation{
		EnrollmentNumber: "210801301",
		OverallScore:     85,
		Summary:          "x",
		EvaluatedAt:      time.Now().UTC(),
	}))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	decoded["grade"] = "S"
	require.Error(t, schema.Validate(decoded))
}
