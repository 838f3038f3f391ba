package validation

import (
	"strings"

	"github.com/threatforge/detection-platform/internal/models"
)

// Severity multipliers compound per issue against a base score of 1.0.
const (
	errorMultiplier   = 0.5
	warningMultiplier = 0.8
	infoMultiplier    = 0.95
)

// Accuracy penalties per issue, subtracted from 1.0.
const (
	errorAccuracyPenalty   = 0.15
	warningAccuracyPenalty = 0.06
	infoAccuracyPenalty    = 0.02
)

// False-positive-rate floor. Tuned detections (metadata tuned=true) start
// lower; the floor is metadata-derived, so zero issues does not mean zero.
const (
	baseFalsePositiveRate  = 0.02
	tunedFalsePositiveRate = 0.01
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// scoreMetrics derives the quality metrics for a detection and its issue
// list. The computation is a pure function of its inputs: no clock, no
// randomness, so repeated runs on identical input are bit-identical.
func (r *Registry) scoreMetrics(d *models.Detection, issues []models.ValidationIssue) models.QualityMetrics {
	score := 1.0
	accuracy := 1.0
	for _, iss := range issues {
		switch iss.Severity {
		case models.SeverityError:
			score *= errorMultiplier
			accuracy -= errorAccuracyPenalty
		case models.SeverityWarning:
			score *= warningMultiplier
			accuracy -= warningAccuracyPenalty
		case models.SeverityInfo:
			score *= infoMultiplier
			accuracy -= infoAccuracyPenalty
		}
	}

	byCode := r.ruleByCode(d.PlatformType)
	perf := structuralImpact(d.Content)
	fpr := falsePositiveFloor(d.Metadata)
	for _, iss := range issues {
		if rule, ok := byCode[iss.Code]; ok {
			perf += rule.PerfWeight
			fpr += rule.FPWeight
		}
	}

	return models.QualityMetrics{
		Score:             clamp01(score),
		PerformanceImpact: clamp01(perf),
		FalsePositiveRate: clamp01(fpr),
		Accuracy:          clamp01(accuracy),
	}
}

// structuralImpact estimates evaluation cost on the target platform from
// content size and complexity signals, on a 0-1 scale.
func structuralImpact(content string) float64 {
	lower := strings.ToLower(content)

	sizeLoad := float64(len(content)) / float64(maxContentBytes) * 0.25
	if sizeLoad > 0.25 {
		sizeLoad = 0.25
	}

	wildcardLoad := float64(strings.Count(content, "*")) * 0.02
	if wildcardLoad > 0.1 {
		wildcardLoad = 0.1
	}

	joinLoad := float64(strings.Count(lower, "join")) * 0.05
	if joinLoad > 0.15 {
		joinLoad = 0.15
	}

	regexLoad := float64(strings.Count(lower, "regex")+strings.Count(lower, "pcre")) * 0.05
	if regexLoad > 0.15 {
		regexLoad = 0.15
	}

	return sizeLoad + wildcardLoad + joinLoad + regexLoad
}

func falsePositiveFloor(metadata map[string]string) float64 {
	if metadata["tuned"] == "true" {
		return tunedFalsePositiveRate
	}
	return baseFalsePositiveRate
}
