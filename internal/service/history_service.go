package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ErrEvaluationNotFound indicates the evaluation id does not exist.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrNoEvaluations indicates the student has no graded history yet.
var ErrNoEvaluations = errors.New("no evaluations for student")

const statsCacheKey = "gradeflow:evaluation:stats"

// HistoryService serves stored evaluation history and aggregate reporting.
type HistoryService interface {
	List(ctx context.Context, filter repository.EvaluationFilter) (dto.EvaluationListResponse, error)
	Get(ctx context.Context, id uint) (dto.EvaluationResponse, error)
	StudentHistory(ctx context.Context, enrollmentNumber string) (dto.StudentEvaluationHistoryResponse, error)
	Stats(ctx context.Context) (dto.EvaluationStatsResponse, error)
}

type historyService struct {
	evaluations repository.EvaluationRepository
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewHistoryService constructs the history service. The Redis client is
// optional; without it the stats endpoint recomputes on every call.
func NewHistoryService(evaluationRepo repository.EvaluationRepository, studentRepo repository.StudentRepository, submissionRepo repository.SubmissionRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) HistoryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &historyService{
		evaluations: evaluationRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "history_service").Logger(),
		now:         time.Now,
	}
}

func (s *historyService) List(ctx context.Context, filter repository.EvaluationFilter) (dto.EvaluationListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	evaluations, total, err := s.evaluations.List(ctx, filter)
	if err != nil {
		return dto.EvaluationListResponse{}, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return dto.EvaluationListResponse{
		Evaluations: dto.NewEvaluationResponseSlice(evaluations),
		Pagination: dto.Pagination{
			CurrentPage:  filter.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: filter.Limit,
		},
	}, nil
}

func (s *historyService) Get(ctx context.Context, id uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}
	return dto.NewEvaluationResponse(evaluation), nil
}

// StudentHistory returns the student's evaluations newest-first along with
// summary stats. Improvement compares the latest score against the earliest.
func (s *historyService) StudentHistory(ctx context.Context, enrollmentNumber string) (dto.StudentEvaluationHistoryResponse, error) {
	evaluations, err := s.evaluations.ListByEnrollment(ctx, enrollmentNumber)
	if err != nil {
		return dto.StudentEvaluationHistoryResponse{}, err
	}
	if len(evaluations) == 0 {
		return dto.StudentEvaluationHistoryResponse{}, ErrNoEvaluations
	}

	return dto.StudentEvaluationHistoryResponse{
		Evaluations: dto.NewEvaluationResponseSlice(evaluations),
		Stats:       historyStats(evaluations),
	}, nil
}

// Stats computes the aggregate reporting payload, cached in Redis for a
// short window since it scans every evaluation.
func (s *historyService) Stats(ctx context.Context) (dto.EvaluationStatsResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statsCacheKey).Bytes()
		if err == nil {
			var stats dto.EvaluationStatsResponse
			if err := json.Unmarshal(cached, &stats); err == nil {
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("stats cache read failed")
		}
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return dto.EvaluationStatsResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("stats cache write failed")
			}
		}
	}

	return stats, nil
}

func (s *historyService) computeStats(ctx context.Context) (dto.EvaluationStatsResponse, error) {
	evaluations, err := s.evaluations.All(ctx)
	if err != nil {
		return dto.EvaluationStatsResponse{}, err
	}

	studentCount, err := s.students.Count(ctx)
	if err != nil {
		return dto.EvaluationStatsResponse{}, err
	}

	submissionCount, err := s.submissions.Count(ctx)
	if err != nil {
		return dto.EvaluationStatsResponse{}, err
	}

	var stats dto.EvaluationStatsResponse
	stats.Totals.Evaluations = int64(len(evaluations))
	stats.Totals.Students = studentCount
	stats.Totals.Submissions = submissionCount
	stats.LastUpdated = s.now().UTC()

	distribution := make(map[string]int, len(models.GradeBuckets()))
	for _, grade := range models.GradeBuckets() {
		distribution[grade] = 0
	}

	if len(evaluations) > 0 {
		var overallSum, modelSum, controllerSum int
		maxScore := evaluations[0].OverallScore
		minScore := evaluations[0].OverallScore
		for _, evaluation := range evaluations {
			distribution[evaluation.Grade()]++
			overallSum += evaluation.OverallScore
			modelSum += evaluation.ModelScore
			controllerSum += evaluation.ControllerScore
			if evaluation.OverallScore > maxScore {
				maxScore = evaluation.OverallScore
			}
			if evaluation.OverallScore < minScore {
				minScore = evaluation.OverallScore
			}
		}

		count := float64(len(evaluations))
		stats.Averages = dto.ScoreAverages{
			AverageOverallScore:    float64(overallSum) / count,
			AverageModelScore:      float64(modelSum) / count,
			AverageControllerScore: float64(controllerSum) / count,
			MaxScore:               maxScore,
			MinScore:               minScore,
		}
	}

	stats.ScoreDistribution = distribution
	return stats, nil
}

func historyStats(evaluations []models.Evaluation) dto.StudentEvaluationStats {
	stats := dto.StudentEvaluationStats{TotalEvaluations: len(evaluations)}
	if len(evaluations) == 0 {
		return stats
	}

	sum := 0
	best := evaluations[0].OverallScore
	worst := evaluations[0].OverallScore
	for _, evaluation := range evaluations {
		sum += evaluation.OverallScore
		if evaluation.OverallScore > best {
			best = evaluation.OverallScore
		}
		if evaluation.OverallScore < worst {
			worst = evaluation.OverallScore
		}
	}

	stats.AverageScore = float64(sum) / float64(len(evaluations))
	stats.BestScore = best
	stats.WorstScore = worst
	// Listings are newest-first, so the improvement is head minus tail.
	stats.Improvement = evaluations[0].OverallScore - evaluations[len(evaluations)-1].OverallScore
	return stats
}
