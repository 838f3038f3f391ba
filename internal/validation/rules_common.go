package validation

import (
	"regexp"

	"github.com/threatforge/detection-platform/internal/models"
)

const (
	maxNameLength      = 200
	minNameLength      = 3
	minDescription     = 10
	largeContentBytes  = 16 * 1024
	maxContentBytes    = 64 * 1024
	experimentalMetaKey = "experimental"
)

var semverPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

func issue(code, message string, severity models.Severity) []models.ValidationIssue {
	return []models.ValidationIssue{{Code: code, Message: message, Severity: severity}}
}

// commonRules apply to every platform. A well-formed detection produces no
// issues here.
func commonRules() []Rule {
	return []Rule{
		{
			Name:        "name-too-short",
			Code:        "NAME_TOO_SHORT",
			Description: "Detection names shorter than three characters are not searchable",
			Severity:    models.SeverityWarning,
			FPWeight:    0.0,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if len(d.Name) > 0 && len(d.Name) < minNameLength {
					return issue("NAME_TOO_SHORT", "detection name must be at least 3 characters", models.SeverityWarning)
				}
				return nil
			},
		},
		{
			Name:        "name-too-long",
			Code:        "NAME_TOO_LONG",
			Description: "Detection names are capped at 200 characters",
			Severity:    models.SeverityError,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if len(d.Name) > maxNameLength {
					return issue("NAME_TOO_LONG", "detection name exceeds 200 characters", models.SeverityError)
				}
				return nil
			},
		},
		{
			Name:        "description-too-short",
			Code:        "DESCRIPTION_TOO_SHORT",
			Description: "Descriptions under ten characters rarely explain the detection intent",
			Severity:    models.SeverityWarning,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if len(d.Description) > 0 && len(d.Description) < minDescription {
					return issue("DESCRIPTION_TOO_SHORT", "description must be at least 10 characters", models.SeverityWarning)
				}
				return nil
			},
		},
		{
			Name:        "content-too-large",
			Code:        "CONTENT_TOO_LARGE",
			Description: "Rule bodies above 64KiB are rejected by most target platforms",
			Severity:    models.SeverityError,
			PerfWeight:  0.3,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if len(d.Content) > maxContentBytes {
					return issue("CONTENT_TOO_LARGE", "content exceeds 64KiB", models.SeverityError)
				}
				return nil
			},
		},
		{
			Name:        "content-large",
			Code:        "CONTENT_LARGE",
			Description: "Large rule bodies degrade evaluation latency on the target platform",
			Severity:    models.SeverityWarning,
			PerfWeight:  0.15,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if len(d.Content) > largeContentBytes && len(d.Content) <= maxContentBytes {
					return issue("CONTENT_LARGE", "content exceeds 16KiB; consider splitting the detection", models.SeverityWarning)
				}
				return nil
			},
		},
		{
			Name:        "version-format",
			Code:        "INVALID_VERSION",
			Description: "Versions must be semantic version strings",
			Severity:    models.SeverityError,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if d.Version != "" && !semverPattern.MatchString(d.Version) {
					return issue("INVALID_VERSION", "version is not a valid semantic version", models.SeverityError)
				}
				return nil
			},
		},
		{
			Name:        "experimental-flag",
			Code:        "EXPERIMENTAL",
			Description: "Detections flagged experimental need review before production rollout",
			Severity:    models.SeverityInfo,
			FPWeight:    0.02,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if d.Metadata[experimentalMetaKey] == "true" {
					return issue("EXPERIMENTAL", "detection is flagged experimental", models.SeverityInfo)
				}
				return nil
			},
		},
	}
}
