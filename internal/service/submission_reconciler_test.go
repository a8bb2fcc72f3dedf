package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

func seedStudent(t *testing.T, repo *memoryStudentRepo, enrollmentNumber string) models.Student {
	t.Helper()
	student := models.Student{
		EnrollmentNumber: enrollmentNumber,
		QuestionModel:    "Book",
		QuestionFields:   datatypes.NewJSONSlice([]string{"title", "author"}),
	}
	require.NoError(t, repo.Create(context.Background(), &student))
	return student
}

func TestEnsureCurrentCreatesWhenMissing(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	seedStudent(t, students, "210801301")

	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	submission, err := reconciler.EnsureCurrent(context.Background(), "210801301")
	require.NoError(t, err)
	require.NotZero(t, submission.ID)
	require.Equal(t, "Book", submission.QuestionModel)
	require.False(t, submission.IsEvaluated)
}

func TestEnsureCurrentRejectsUnknownStudent(t *testing.T) {
	reconciler := NewSubmissionReconciler(newMemorySubmissionRepo(), newMemoryStudentRepo(), testLogger())

	_, err := reconciler.EnsureCurrent(context.Background(), "999999999")
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestEnsureCurrentPrefersNewestSubmissionWithIDTiebreak(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	student := seedStudent(t, students, "210801301")

	created := time.Now().Truncate(time.Second)
	first := models.Submission{EnrollmentNumber: student.EnrollmentNumber, StudentID: student.ID, CreatedAt: created}
	second := models.Submission{EnrollmentNumber: student.EnrollmentNumber, StudentID: student.ID, CreatedAt: created}
	require.NoError(t, submissions.Create(context.Background(), &first))
	require.NoError(t, submissions.Create(context.Background(), &second))

	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	current, err := reconciler.EnsureCurrent(context.Background(), student.EnrollmentNumber)
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID, "equal timestamps resolve to the higher id")
}

func TestAttachScreenshotSlotsAreCommutative(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	student := seedStudent(t, students, "210801301")
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	_, err := reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpDelete, models.Screenshot{Filename: "delete.png", Path: "/d"})
	require.NoError(t, err)
	_, err = reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpInsert, models.Screenshot{Filename: "insert.png", Path: "/i"})
	require.NoError(t, err)
	current, err := reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpReadAll, models.Screenshot{Filename: "readall.png", Path: "/r"})
	require.NoError(t, err)

	require.Equal(t, "delete.png", current.DeleteShot.Filename)
	require.Equal(t, "insert.png", current.InsertShot.Filename)
	require.Equal(t, "readall.png", current.ReadAllShot.Filename)
	require.False(t, current.ReadByIDShot.Present())
	require.False(t, current.UpdateShot.Present())

	count, err := submissions.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, count, "all slots converge on one submission")
}

func TestAttachScreenshotOverwritesSameSlotOnly(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	student := seedStudent(t, students, "210801301")
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	_, err := reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpUpdate, models.Screenshot{Filename: "old.png", Path: "/old"})
	require.NoError(t, err)
	_, err = reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpInsert, models.Screenshot{Filename: "insert.png", Path: "/i"})
	require.NoError(t, err)
	current, err := reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpUpdate, models.Screenshot{Filename: "new.png", Path: "/new"})
	require.NoError(t, err)

	require.Equal(t, "new.png", current.UpdateShot.Filename)
	require.Equal(t, "insert.png", current.InsertShot.Filename, "sibling slot survives the overwrite")
}

func TestAttachScreenshotRejectsUnknownOperation(t *testing.T) {
	students := newMemoryStudentRepo()
	seedStudent(t, students, "210801301")
	reconciler := NewSubmissionReconciler(newMemorySubmissionRepo(), students, testLogger())

	_, err := reconciler.AttachScreenshot(context.Background(), "210801301", "patch", models.Screenshot{Filename: "x.png"})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestAttachCodePreservesScreenshots(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	student := seedStudent(t, students, "210801301")
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	current, err := reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpInsert, models.Screenshot{Filename: "insert.png", Path: "/i"})
	require.NoError(t, err)

	require.NoError(t, reconciler.AttachCode(context.Background(), &current, "model code", "controller code"))

	stored, err := submissions.GetByID(context.Background(), current.ID)
	require.NoError(t, err)
	require.Equal(t, "model code", stored.ModelCode)
	require.Equal(t, "controller code", stored.ControllerCode)
	require.Equal(t, "insert.png", stored.InsertShot.Filename)
}

func TestCreateAttemptAlwaysCreatesFreshSubmission(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	student := seedStudent(t, students, "210801301")
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	_, err := reconciler.AttachScreenshot(context.Background(), student.EnrollmentNumber, models.ScreenshotOpInsert, models.Screenshot{Filename: "insert.png", Path: "/i"})
	require.NoError(t, err)

	attempt, err := reconciler.CreateAttempt(context.Background(), student, "Book", []string{"title"}, "m", "c")
	require.NoError(t, err)

	count, err := submissions.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.False(t, attempt.InsertShot.Present(), "graded attempt starts with empty slots")
}

func TestMarkEvaluatedIsIdempotent(t *testing.T) {
	students := newMemoryStudentRepo()
	submissions := newMemorySubmissionRepo()
	student := seedStudent(t, students, "210801301")
	reconciler := NewSubmissionReconciler(submissions, students, testLogger())

	attempt, err := reconciler.CreateAttempt(context.Background(), student, "Book", []string{"title"}, "m", "c")
	require.NoError(t, err)

	require.NoError(t, reconciler.MarkEvaluated(context.Background(), &attempt))
	require.True(t, attempt.IsEvaluated)
	require.NoError(t, reconciler.MarkEvaluated(context.Background(), &attempt))

	stored, err := submissions.GetByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.True(t, stored.IsEvaluated)
}
