// Package repository implements persistence for detections, their version
// history and validation-history records.
package repository

import (
	"context"
	"errors"

	"github.com/threatforge/detection-platform/internal/models"
)

var (
	ErrDetectionNotFound = errors.New("detection not found")
)

// MaxPageSize is the server-enforced page cap. Larger requests are clamped,
// not rejected.
const MaxPageSize = 100

// ListOptions filters and paginates detection listings. Cursor is the id of
// the last item of the previous page (exclusive); empty starts from the
// newest detection.
type ListOptions struct {
	Platform models.PlatformType
	Tags     []string
	PageSize int
	Cursor   string
}

// Repository is the persistence contract consumed by the service facade.
// CreateDetection must write the detection and its initial version in one
// atomic transaction: on failure, neither row is observable.
type Repository interface {
	CreateDetection(ctx context.Context, d *models.Detection, initial *models.DetectionVersion) error
	GetDetection(ctx context.Context, id string) (*models.Detection, error)
	ListDetections(ctx context.Context, opts ListOptions) ([]*models.Detection, string, error)
	ListVersions(ctx context.Context, detectionID string) ([]*models.DetectionVersion, error)
	InsertValidationResult(ctx context.Context, result *models.ValidationResult) error
	Close()
}
