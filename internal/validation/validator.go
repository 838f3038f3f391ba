package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threatforge/detection-platform/internal/cache"
	"github.com/threatforge/detection-platform/internal/metrics"
	"github.com/threatforge/detection-platform/internal/models"
)

var (
	// ErrInvalidInput indicates a detection that cannot be validated at
	// all, as opposed to one that validates with issues.
	ErrInvalidInput = errors.New("invalid detection input")

	// ErrInvalidPlatform indicates an unrecognized target platform.
	ErrInvalidPlatform = errors.New("unsupported platform")
)

// Validator runs the applicable rule set against a detection and scores the
// outcome. It is safe for concurrent use: the registry is read-only and the
// cache handles its own locking.
type Validator struct {
	registry *Registry
	cache    cache.Cache
}

// NewValidator builds a validator. cache may be nil to disable memoization;
// results are identical either way.
func NewValidator(registry *Registry, c cache.Cache) *Validator {
	return &Validator{registry: registry, cache: c}
}

// Validate runs every common and platform-specific rule against the
// detection and returns the aggregate result plus the raw quality metrics.
// Rules do not short-circuit: one failing rule never prevents the rest from
// running. The only error conditions are empty content and an unrecognized
// platform.
func (v *Validator) Validate(ctx context.Context, d *models.Detection) (*models.ValidationResult, models.QualityMetrics, error) {
	if strings.TrimSpace(d.Content) == "" {
		return nil, models.QualityMetrics{}, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	if _, err := models.ParsePlatform(string(d.PlatformType)); err != nil {
		return nil, models.QualityMetrics{}, fmt.Errorf("%w: %q", ErrInvalidPlatform, d.PlatformType)
	}

	// Transient detections (no identity yet) are never cached: the key
	// would not distinguish different contents.
	key := cache.Key{DetectionID: d.ID, Version: d.Version, Platform: d.PlatformType}
	cacheable := v.cache != nil && d.ID != ""
	if cacheable {
		if cached, ok := v.cache.Get(ctx, key); ok {
			metrics.CacheHitsTotal.Inc()
			return cached, v.registry.scoreMetrics(d, cached.Issues), nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	issues := make([]models.ValidationIssue, 0)
	for _, rule := range v.registry.RulesFor(d.PlatformType) {
		issues = append(issues, rule.Check(d)...)
	}

	m := v.registry.scoreMetrics(d, issues)
	result := &models.ValidationResult{
		DetectionID:       d.ID,
		PlatformType:      d.PlatformType,
		Issues:            issues,
		QualityScore:      m.Score * 100,
		PerformanceImpact: models.ImpactLabel(m.PerformanceImpact),
		FalsePositiveRate: m.FalsePositiveRate * 100,
		AccuracyScore:     m.Accuracy * 100,
		ValidatedAt:       time.Now().UTC(),
	}

	metrics.ValidationsTotal.WithLabelValues(string(d.PlatformType)).Inc()
	for _, iss := range issues {
		metrics.ValidationIssuesTotal.WithLabelValues(string(iss.Severity)).Inc()
	}

	if cacheable {
		v.cache.Put(ctx, key, result)
	}
	return result, m, nil
}
