package validation

import (
	"strings"

	"github.com/threatforge/detection-platform/internal/models"
)

// edrEventTokens anchor a rule to at least one endpoint telemetry type.
var edrEventTokens = []string{"process", "file", "registry", "network", "module", "image"}

func edrRules() []Rule {
	return []Rule{
		{
			Name:        "edr-event-type",
			Code:        "EDR_NO_EVENT_TYPE",
			Description: "EDR rules must anchor on an endpoint event type",
			Severity:    models.SeverityError,
			FPWeight:    0.1,
			Check: func(d *models.Detection) []models.ValidationIssue {
				content := strings.ToLower(d.Content)
				for _, tok := range edrEventTokens {
					if strings.Contains(content, tok) {
						return nil
					}
				}
				return issue("EDR_NO_EVENT_TYPE", "rule does not reference an endpoint event type (process, file, registry, network)", models.SeverityError)
			},
		},
		{
			Name:        "edr-recursive-path",
			Code:        "EDR_RECURSIVE_PATH",
			Description: "Recursive path wildcards force full filesystem walks on the agent",
			Severity:    models.SeverityWarning,
			PerfWeight:  0.35,
			FPWeight:    0.05,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if strings.Contains(d.Content, "**") {
					return issue("EDR_RECURSIVE_PATH", "recursive path wildcard (**) is expensive on endpoint agents", models.SeverityWarning)
				}
				return nil
			},
		},
		{
			Name:        "edr-weak-hash",
			Code:        "EDR_WEAK_HASH",
			Description: "MD5 lookups collide; SHA-256 indicators are preferred",
			Severity:    models.SeverityInfo,
			FPWeight:    0.03,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if strings.Contains(strings.ToLower(d.Content), "md5") {
					return issue("EDR_WEAK_HASH", "md5 indicator matching is weak; prefer sha256", models.SeverityInfo)
				}
				return nil
			},
		},
	}
}
