package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/gradeflow-api/internal/dto"
)

type stubCompleter struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (s *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func gradingRequest() dto.GradingRequest {
	return dto.GradingRequest{
		EnrollmentNumber: "210801301",
		Question: dto.QuestionPayload{
			ModelName: "Book",
			Fields:    []string{"title", "author", "publishedYear"},
		},
		Submission: dto.CodePayload{
			ModelCode:      "const bookSchema = new mongoose.Schema({title: String});",
			ControllerCode: "exports.create = async (req, res) => {};",
		},
	}
}

func newTestEvaluationService(students *memoryStudentRepo, submissions *memorySubmissionRepo, evaluations *memoryEvaluationRepo, completer *stubCompleter) EvaluationService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())
	return NewEvaluationService(students, evaluations, reconciler, completer, nil, validate, testLogger())
}

func TestEvaluateHappyPath(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	completer := &stubCompleter{response: validCompletion}

	svc := newTestEvaluationService(students, submissions, evaluations, completer)

	result, err := svc.Evaluate(context.Background(), gradingRequest())
	require.NoError(t, err)
	require.Equal(t, "210801301", result.EnrollmentNumber)
	require.Equal(t, 85, result.OverallScore)
	require.Equal(t, "A", result.Grade)
	require.Equal(t, 35, result.ModelEvaluation.Score)
	require.Equal(t, 40, result.ModelEvaluation.MaxScore)
	require.Equal(t, 50, result.ControllerEvaluation.Score)
	require.Equal(t, 60, result.ControllerEvaluation.MaxScore)
	require.NotZero(t, result.EvaluationID)
	require.False(t, result.EvaluationTimestamp.IsZero())

	student, err := students.GetByEnrollment(context.Background(), "210801301")
	require.NoError(t, err)
	require.Equal(t, "Book", student.QuestionModel)

	submission, err := submissions.GetByID(context.Background(), result.SubmissionID)
	require.NoError(t, err)
	require.True(t, submission.IsEvaluated)
	require.Equal(t, gradingRequest().Submission.ModelCode, submission.ModelCode)
}

func TestEvaluateRejectsMissingFields(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	completer := &stubCompleter{response: validCompletion}
	svc := newTestEvaluationService(students, submissions, evaluations, completer)

	payload := gradingRequest()
	payload.Submission.ControllerCode = ""

	_, err := svc.Evaluate(context.Background(), payload)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	count, err := submissions.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count, "rejected request must not persist a submission")
	require.Zero(t, completer.callCount())
}

func TestEvaluateSecondAttemptRejected(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	completer := &stubCompleter{response: validCompletion}
	svc := newTestEvaluationService(students, submissions, evaluations, completer)

	_, err := svc.Evaluate(context.Background(), gradingRequest())
	require.NoError(t, err)

	_, err = svc.Evaluate(context.Background(), gradingRequest())
	require.ErrorIs(t, err, ErrAlreadyEvaluated)

	count, err := evaluations.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, 1, completer.callCount(), "no provider call for a rejected second attempt")
}

func TestEvaluateProviderFailureLeavesNoEvaluation(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	completer := &stubCompleter{err: errors.New("rate limited")}
	svc := newTestEvaluationService(students, submissions, evaluations, completer)

	_, err := svc.Evaluate(context.Background(), gradingRequest())
	require.ErrorIs(t, err, ErrUpstreamGrading)

	count, err := evaluations.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)

	// The failed attempt consumed nothing, so a retry can still succeed.
	completer.err = nil
	completer.response = validCompletion
	result, err := svc.Evaluate(context.Background(), gradingRequest())
	require.NoError(t, err)
	require.Equal(t, "A", result.Grade)
}

func TestEvaluateMalformedCompletionIsUpstreamFailure(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	completer := &stubCompleter{response: "I would give this student an 85."}
	svc := newTestEvaluationService(students, submissions, evaluations, completer)

	_, err := svc.Evaluate(context.Background(), gradingRequest())
	require.ErrorIs(t, err, ErrUpstreamGrading)
	require.ErrorIs(t, err, ErrMalformedAIResponse)

	count, err := evaluations.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestEvaluateWithoutCompleterUnavailable(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())
	svc := NewEvaluationService(students, evaluations, reconciler, nil, nil, validate, testLogger())

	_, err := svc.Evaluate(context.Background(), gradingRequest())
	require.ErrorIs(t, err, ErrGraderUnavailable)
}

func TestEvaluateConcurrentDuplicatesSingleSuccess(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	evaluations := newMemoryEvaluationRepo()
	completer := &stubCompleter{response: validCompletion}
	svc := newTestEvaluationService(students, submissions, evaluations, completer)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Evaluate(context.Background(), gradingRequest())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrAlreadyEvaluated)
		}
	}
	require.Equal(t, 1, successes)

	count, err := evaluations.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
