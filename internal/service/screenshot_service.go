package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/observability"
)

// ErrScreenshotTooLarge indicates the upload exceeds the size cap.
var ErrScreenshotTooLarge = errors.New("screenshot exceeds size limit")

// ErrScreenshotTypeNotAllowed indicates the upload is not an image.
var ErrScreenshotTypeNotAllowed = errors.New("screenshot must be an image")

// ErrStorageUnavailable indicates no file storage backend is configured.
var ErrStorageUnavailable = errors.New("file storage unavailable")

// DefaultMaxScreenshotBytes caps screenshot uploads at 5 MB.
const DefaultMaxScreenshotBytes = 5 * 1024 * 1024

// FileStorage uploads a named file and returns its public URL.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ScreenshotService validates, stores and reconciles screenshot uploads.
type ScreenshotService interface {
	Upload(ctx context.Context, enrollmentNumber, operation string, file *multipart.FileHeader) (dto.ScreenshotUploadResponse, error)
	UploadBulk(ctx context.Context, enrollmentNumber string, files map[string]*multipart.FileHeader) (dto.BulkScreenshotUploadResponse, error)
	State(ctx context.Context, enrollmentNumber string) (dto.ScreenshotStateResponse, error)
}

type screenshotService struct {
	storage    FileStorage
	reconciler SubmissionReconciler
	maxBytes   int64
	logger     zerolog.Logger
	now        func() time.Time
}

// NewScreenshotService constructs the screenshot service.
func NewScreenshotService(storage FileStorage, reconciler SubmissionReconciler, maxBytes int64, logger zerolog.Logger) ScreenshotService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxScreenshotBytes
	}
	return &screenshotService{
		storage:    storage,
		reconciler: reconciler,
		maxBytes:   maxBytes,
		logger:     logger.With().Str("component", "screenshot_service").Logger(),
		now:        time.Now,
	}
}

// Upload stores one screenshot and attaches it to the student's current
// submission slot for the named operation.
func (s *screenshotService) Upload(ctx context.Context, enrollmentNumber, operation string, file *multipart.FileHeader) (dto.ScreenshotUploadResponse, error) {
	start := s.now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if !models.IsValidScreenshotOperation(operation) {
		observability.UploadRejected().WithLabelValues("invalid_operation").Inc()
		return dto.ScreenshotUploadResponse{}, ErrInvalidOperation
	}
	if s.storage == nil {
		observability.UploadRejected().WithLabelValues("storage_unavailable").Inc()
		return dto.ScreenshotUploadResponse{}, ErrStorageUnavailable
	}
	if file.Size > s.maxBytes {
		observability.UploadRejected().WithLabelValues("too_large").Inc()
		return dto.ScreenshotUploadResponse{}, ErrScreenshotTooLarge
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ScreenshotUploadResponse{}, err
	}
	defer reader.Close()

	// Sniff the real content type; the client-supplied header is not trusted.
	kind, err := mimetype.DetectReader(reader)
	if err != nil {
		return dto.ScreenshotUploadResponse{}, err
	}
	if !isImage(kind) {
		observability.UploadRejected().WithLabelValues("not_image").Inc()
		return dto.ScreenshotUploadResponse{}, ErrScreenshotTypeNotAllowed
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return dto.ScreenshotUploadResponse{}, err
	}

	name := fmt.Sprintf("%s-%s-%s", enrollmentNumber, operation, file.Filename)
	url, err := s.storage.Upload(ctx, name, reader)
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage_failed").Inc()
		return dto.ScreenshotUploadResponse{}, err
	}

	uploadedAt := s.now().UTC()
	submission, err := s.reconciler.AttachScreenshot(ctx, enrollmentNumber, operation, models.Screenshot{
		Filename:   file.Filename,
		Path:       url,
		UploadedAt: &uploadedAt,
	})
	if err != nil {
		return dto.ScreenshotUploadResponse{}, err
	}

	observability.UploadRequests().WithLabelValues(operation).Inc()
	s.logger.Info().
		Str("enrollment_number", enrollmentNumber).
		Str("operation", operation).
		Uint("submission_id", submission.ID).
		Msg("screenshot stored")

	return dto.ScreenshotUploadResponse{
		EnrollmentNumber: enrollmentNumber,
		Operation:        operation,
		SubmissionID:     submission.ID,
		Filename:         file.Filename,
		URL:              url,
		SizeBytes:        file.Size,
		UploadedAt:       uploadedAt,
	}, nil
}

// UploadBulk stores several operation slots in one request. The batch is
// validated up front and then applied slot by slot; a mid-batch failure
// leaves earlier slots filled, which is safe since slots are independent.
func (s *screenshotService) UploadBulk(ctx context.Context, enrollmentNumber string, files map[string]*multipart.FileHeader) (dto.BulkScreenshotUploadResponse, error) {
	for operation := range files {
		if !models.IsValidScreenshotOperation(operation) {
			return dto.BulkScreenshotUploadResponse{}, ErrInvalidOperation
		}
	}

	result := dto.BulkScreenshotUploadResponse{
		EnrollmentNumber: enrollmentNumber,
		Files:            make(map[string]dto.ScreenshotUploadResponse, len(files)),
	}

	for _, operation := range models.ScreenshotOperations() {
		file, ok := files[operation]
		if !ok {
			continue
		}
		uploaded, err := s.Upload(ctx, enrollmentNumber, operation, file)
		if err != nil {
			return dto.BulkScreenshotUploadResponse{}, fmt.Errorf("operation %s: %w", operation, err)
		}
		result.SubmissionID = uploaded.SubmissionID
		result.UploadedOperations = append(result.UploadedOperations, operation)
		result.Files[operation] = uploaded
	}

	return result, nil
}

// State reports the filled slots on the student's current submission.
func (s *screenshotService) State(ctx context.Context, enrollmentNumber string) (dto.ScreenshotStateResponse, error) {
	submission, err := s.reconciler.EnsureCurrent(ctx, enrollmentNumber)
	if err != nil {
		return dto.ScreenshotStateResponse{}, err
	}

	shots := make(map[string]dto.ScreenshotMeta)
	for operation, shot := range submission.Screenshots() {
		if !shot.Present() {
			continue
		}
		shots[operation] = dto.ScreenshotMeta{
			Filename:   shot.Filename,
			Path:       shot.Path,
			UploadedAt: shot.UploadedAt,
		}
	}

	return dto.ScreenshotStateResponse{
		EnrollmentNumber: enrollmentNumber,
		SubmissionID:     submission.ID,
		Screenshots:      shots,
	}, nil
}

func isImage(kind *mimetype.MIME) bool {
	return kind != nil && strings.HasPrefix(kind.String(), "image/")
}
