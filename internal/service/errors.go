package service

import (
	"errors"
	"fmt"

	"github.com/threatforge/detection-platform/internal/models"
)

// ErrQualityBelowThreshold is the sentinel matched by errors.Is for any
// quality-gate rejection.
var ErrQualityBelowThreshold = errors.New("quality score below threshold")

// QualityThresholdError carries the full validation outcome of a rejected
// submission so callers can show the author exactly what to fix.
type QualityThresholdError struct {
	Score     float64
	Threshold float64
	Result    *models.ValidationResult
}

func (e *QualityThresholdError) Error() string {
	return fmt.Sprintf("quality score %.1f below threshold %.1f", e.Score, e.Threshold)
}

func (e *QualityThresholdError) Is(target error) bool {
	return target == ErrQualityBelowThreshold
}
