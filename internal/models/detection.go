package models

import (
	"fmt"
	"time"
)

// PlatformType identifies the security tooling category a detection targets.
type PlatformType string

const (
	PlatformSIEM PlatformType = "SIEM"
	PlatformEDR  PlatformType = "EDR"
	PlatformNSM  PlatformType = "NSM"
)

// Platforms lists every recognized platform in a stable order.
var Platforms = []PlatformType{PlatformSIEM, PlatformEDR, PlatformNSM}

// ParsePlatform converts a string to a PlatformType.
func ParsePlatform(s string) (PlatformType, error) {
	switch PlatformType(s) {
	case PlatformSIEM, PlatformEDR, PlatformNSM:
		return PlatformType(s), nil
	}
	return "", fmt.Errorf("unrecognized platform %q", s)
}

// Severity classifies a validation issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Performance impact labels derived from the 0-1 impact fraction.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Detection is a security detection rule under management.
type Detection struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Content             string            `json:"content"`
	PlatformType        PlatformType      `json:"platform_type"`
	Version             string            `json:"version"`
	OwnerID             string            `json:"owner_id"`
	OrgID               *string           `json:"org_id,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	Tags                []string          `json:"tags,omitempty"`
	QualityScore        float64           `json:"quality_score"`
	TranslationAccuracy float64           `json:"translation_accuracy"`
	PerformanceScore    float64           `json:"performance_score"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// DetectionVersion is an immutable snapshot of a detection's content.
// Versions are append-only; exactly one is written in the same transaction
// as its parent detection at creation time.
type DetectionVersion struct {
	ID          string    `json:"id"`
	DetectionID string    `json:"detection_id"`
	Content     string    `json:"content"`
	Changes     string    `json:"changes,omitempty"`
	AuthorID    string    `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidationIssue is a single finding produced by one validation rule.
type ValidationIssue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult is the aggregate outcome of one validation run.
type ValidationResult struct {
	DetectionID       string            `json:"detection_id,omitempty"`
	PlatformType      PlatformType      `json:"platform_type"`
	Issues            []ValidationIssue `json:"issues"`
	QualityScore      float64           `json:"quality_score"`
	PerformanceImpact string            `json:"performance_impact"`
	FalsePositiveRate float64           `json:"false_positive_rate"`
	AccuracyScore     float64           `json:"accuracy_score"`
	ValidatedAt       time.Time         `json:"validated_at"`
}

// QualityMetrics holds scoring intermediates as 0-1 fractions. They are
// scaled to 0-100 when copied onto ValidationResult and Detection.
type QualityMetrics struct {
	Score             float64
	PerformanceImpact float64
	FalsePositiveRate float64
	Accuracy          float64
}

// ImpactLabel buckets a 0-1 performance impact fraction into its label.
func ImpactLabel(impact float64) string {
	switch {
	case impact <= 0.3:
		return ImpactLow
	case impact <= 0.7:
		return ImpactMedium
	default:
		return ImpactHigh
	}
}
