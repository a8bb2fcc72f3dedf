package service

import (
	"fmt"
	"strings"
)

// BuildEvaluationPrompt renders the grading request for the AI provider. The
// code strings are treated as opaque text and embedded verbatim; grading
// quality is delegated entirely to the model. The embedded JSON contract must
// stay in sync with ParseScoreReport.
func BuildEvaluationPrompt(modelName string, fields []string, modelCode, controllerCode string) string {
	var b strings.Builder

	b.WriteString("You are an expert Node.js and MongoDB programming instructor evaluating a student's practical exam submission.\n\n")

	b.WriteString("**Context:**\n")
	b.WriteString("The student was asked to create a Mongoose model and a controller with full CRUD (Create, Read, Update, Delete) functionality based on a given set of fields. ")
	b.WriteString("The student is a beginner, so expect common syntax errors, logical flaws, and missed best practices.\n\n")

	b.WriteString("**Evaluation Criteria:**\n")
	b.WriteString("1. **Model Correctness (40 points):**\n")
	b.WriteString("   * Is the Mongoose schema defined correctly?\n")
	b.WriteString("   * Does it include all the required fields from the question?\n")
	b.WriteString("   * Are the data types appropriate (e.g., String, Number)?\n")
	b.WriteString("   * Is the model exported correctly?\n")
	b.WriteString("2. **Controller Correctness (60 points):**\n")
	b.WriteString("   * Are all 5 CRUD functions present: `create`, `getAll`, `getById`, `updateById`, `deleteById`?\n")
	b.WriteString("   * Do the functions use the correct Mongoose methods (e.g., `.create()`, `.find()`, `.findById()`, `.findByIdAndUpdate()`, `.findByIdAndDelete()`)?\n")
	b.WriteString("   * Is `async/await` used correctly for asynchronous operations?\n")
	b.WriteString("   * Is there basic error handling (e.g., a `try...catch` block)?\n")
	b.WriteString("   * Does the code correctly use `req.body`, `req.params`, and `res.status().json()`?\n\n")

	b.WriteString("**Student's Question:**\n")
	fmt.Fprintf(&b, "- Model Name: %s\n", modelName)
	fmt.Fprintf(&b, "- Fields: %s\n\n", strings.Join(fields, ", "))

	b.WriteString("**Student's Submission:**\n---\n")
	b.WriteString("**Model Code (`model.js`):**\n```javascript\n")
	b.WriteString(modelCode)
	b.WriteString("\n```\n---\n")
	b.WriteString("**Controller Code (`controller.js`):**\n```javascript\n")
	b.WriteString(controllerCode)
	b.WriteString("\n```\n---\n\n")

	b.WriteString("**Your Task:**\n")
	b.WriteString("Analyze the student's submission based on the question and evaluation criteria. ")
	b.WriteString("Your response MUST be a valid JSON object. Do not include any text or markdown formatting before or after the JSON object.\n\n")

	b.WriteString("The JSON object must strictly follow this structure:\n")
	b.WriteString("```json\n")
	b.WriteString(`{
  "overallScore": <total score out of 100>,
  "summary": "<a brief, 1-2 sentence summary of the student's performance>",
  "modelEvaluation": {
    "score": <score for the model out of 40>,
    "maxScore": 40,
    "feedback": [
      {
        "type": "<'SUCCESS', 'IMPROVEMENT', 'ERROR', or 'SYNTAX'>",
        "message": "<specific feedback on one aspect of the model code>"
      }
    ]
  },
  "controllerEvaluation": {
    "score": <score for the controller out of 60>,
    "maxScore": 60,
    "feedback": [
      {
        "type": "<'SUCCESS', 'IMPROVEMENT', 'ERROR', or 'SYNTAX'>",
        "message": "<specific feedback on one aspect of the controller code>"
      }
    ]
  }
}
`)
	b.WriteString("```\n\n")
	b.WriteString("Calculate the scores for the model and controller sections based on the criteria. ")
	b.WriteString("The `overallScore` must be the sum of the model and controller scores. ")
	b.WriteString("Provide multiple feedback items for each section if necessary. Be specific and constructive in your feedback messages.")

	return b.String()
}
