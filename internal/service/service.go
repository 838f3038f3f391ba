// Package service implements the detection management facade: validation,
// quality gating and persistence behind a single API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/threatforge/detection-platform/internal/metrics"
	"github.com/threatforge/detection-platform/internal/models"
	"github.com/threatforge/detection-platform/internal/repository"
	"github.com/threatforge/detection-platform/internal/validation"
)

const defaultVersion = "1.0.0"

// EventPublisher announces lifecycle events to interested consumers.
// Publishing is best-effort: a failed publish never fails the operation.
type EventPublisher interface {
	DetectionCreated(ctx context.Context, d *models.Detection) error
}

// Service is the detection management facade. All writes pass through the
// validator and the quality gate before touching the repository.
type Service struct {
	repo      repository.Repository
	validator *validation.Validator
	publisher EventPublisher
	logger    *slog.Logger

	minQualityScore float64
	defaultTimeout  time.Duration
}

// New builds the service. publisher may be nil when eventing is disabled.
func New(repo repository.Repository, validator *validation.Validator, publisher EventPublisher, logger *slog.Logger, minQualityScore float64, defaultTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:            repo,
		validator:       validator,
		publisher:       publisher,
		logger:          logger,
		minQualityScore: minQualityScore,
		defaultTimeout:  defaultTimeout,
	}
}

// CreateDetection validates a submission, applies the quality gate and, when
// the gate passes, persists the detection together with its initial version.
// The detection id is assigned before validation so the validation cache is
// warm for the stored record. Scores strictly below the threshold are
// rejected with a *QualityThresholdError.
func (s *Service) CreateDetection(ctx context.Context, req *models.CreateDetectionRequest) (*models.Detection, *models.ValidationResult, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.CreateDuration.Observe(time.Since(start).Seconds())
	}()

	if err := validateCreateRequest(req); err != nil {
		return nil, nil, err
	}
	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", validation.ErrInvalidPlatform, req.Platform)
	}

	version := req.Version
	if version == "" {
		version = defaultVersion
	}

	idUUID, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("generate detection id: %w", err)
	}

	now := time.Now().UTC()
	d := &models.Detection{
		ID:           idUUID.String(),
		Name:         req.Name,
		Description:  req.Description,
		Content:      req.Content,
		PlatformType: platform,
		Version:      version,
		OwnerID:      req.OwnerID,
		Metadata:     req.Metadata,
		Tags:         req.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.OrgID != "" {
		orgID := req.OrgID
		d.OrgID = &orgID
	}

	result, m, err := s.validator.Validate(ctx, d)
	if err != nil {
		return nil, nil, err
	}

	if result.QualityScore < s.minQualityScore {
		metrics.SubmissionsRejectedTotal.Inc()
		s.logger.InfoContext(ctx, "detection rejected by quality gate",
			"name", d.Name,
			"platform", d.PlatformType,
			"score", result.QualityScore,
			"threshold", s.minQualityScore,
			"issues", len(result.Issues))
		return nil, result, &QualityThresholdError{
			Score:     result.QualityScore,
			Threshold: s.minQualityScore,
			Result:    result,
		}
	}

	d.QualityScore = result.QualityScore
	d.TranslationAccuracy = result.AccuracyScore
	d.PerformanceScore = (1 - m.PerformanceImpact) * 100

	versionUUID, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("generate version id: %w", err)
	}
	initial := &models.DetectionVersion{
		ID:          versionUUID.String(),
		DetectionID: d.ID,
		Content:     d.Content,
		Changes:     "Initial version",
		AuthorID:    d.OwnerID,
		CreatedAt:   now,
	}

	if err := s.repo.CreateDetection(ctx, d, initial); err != nil {
		return nil, nil, fmt.Errorf("create detection: %w", err)
	}

	// Read the committed row back so the caller sees exactly what was
	// stored, including any database-side defaults.
	stored, err := s.repo.GetDetection(ctx, d.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("read back detection: %w", err)
	}
	d = stored

	// History and eventing are best-effort: the detection is already
	// committed, so failures here are logged and swallowed.
	if err := s.repo.InsertValidationResult(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "failed to record validation history",
			"detection_id", d.ID, "error", err)
	}
	if s.publisher != nil {
		if err := s.publisher.DetectionCreated(ctx, d); err != nil {
			s.logger.WarnContext(ctx, "failed to publish detection event",
				"detection_id", d.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "detection created",
		"detection_id", d.ID,
		"platform", d.PlatformType,
		"score", d.QualityScore)
	return d, result, nil
}

// ValidateContent runs validation on standalone content without persisting
// anything. No detection id exists yet, so the run bypasses the cache.
func (s *Service) ValidateContent(ctx context.Context, req *models.ValidateContentRequest) (*models.ValidationResult, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", validation.ErrInvalidPlatform, req.Platform)
	}

	d := &models.Detection{
		Content:      req.Content,
		PlatformType: platform,
		Version:      defaultVersion,
	}
	result, _, err := s.validator.Validate(ctx, d)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) GetDetection(ctx context.Context, id string) (*models.Detection, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", validation.ErrInvalidInput)
	}
	return s.repo.GetDetection(ctx, id)
}

func (s *Service) ListDetections(ctx context.Context, opts repository.ListOptions) (*models.ListDetectionsResponse, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	detections, nextCursor, err := s.repo.ListDetections(ctx, opts)
	if err != nil {
		return nil, err
	}
	if detections == nil {
		detections = []*models.Detection{}
	}
	return &models.ListDetectionsResponse{
		Detections: detections,
		NextCursor: nextCursor,
	}, nil
}

func (s *Service) GetVersionHistory(ctx context.Context, detectionID string) (*models.VersionHistoryResponse, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if strings.TrimSpace(detectionID) == "" {
		return nil, fmt.Errorf("%w: id is required", validation.ErrInvalidInput)
	}
	versions, err := s.repo.ListVersions(ctx, detectionID)
	if err != nil {
		return nil, err
	}
	return &models.VersionHistoryResponse{
		DetectionID: detectionID,
		Versions:    versions,
	}, nil
}

// withDeadline applies the service default timeout unless the caller already
// set a tighter one.
func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.defaultTimeout)
}

func validateCreateRequest(req *models.CreateDetectionRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: name is required", validation.ErrInvalidInput)
	case strings.TrimSpace(req.Description) == "":
		return fmt.Errorf("%w: description is required", validation.ErrInvalidInput)
	case strings.TrimSpace(req.Content) == "":
		return fmt.Errorf("%w: content is required", validation.ErrInvalidInput)
	case strings.TrimSpace(req.OwnerID) == "":
		return fmt.Errorf("%w: owner is required", validation.ErrInvalidInput)
	}
	return nil
}
