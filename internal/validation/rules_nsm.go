package validation

import (
	"strings"

	"github.com/threatforge/detection-platform/internal/models"
)

// nsmActionVerbs are the rule actions recognized by suricata-style engines.
var nsmActionVerbs = []string{"alert", "pass", "drop", "reject", "log"}

func nsmRules() []Rule {
	return []Rule{
		{
			Name:        "nsm-action",
			Code:        "NSM_NO_ACTION",
			Description: "Network rules must start with an action verb",
			Severity:    models.SeverityError,
			Check: func(d *models.Detection) []models.ValidationIssue {
				content := strings.ToLower(strings.TrimSpace(d.Content))
				for _, verb := range nsmActionVerbs {
					if strings.HasPrefix(content, verb+" ") || content == verb {
						return nil
					}
				}
				return issue("NSM_NO_ACTION", "rule does not begin with an action verb (alert, pass, drop, reject, log)", models.SeverityError)
			},
		},
		{
			Name:        "nsm-broad-match",
			Code:        "NSM_BROAD_MATCH",
			Description: "any/any to any/any rules inspect every flow",
			Severity:    models.SeverityWarning,
			PerfWeight:  0.4,
			FPWeight:    0.2,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if strings.Contains(strings.ToLower(d.Content), "any any -> any any") {
					return issue("NSM_BROAD_MATCH", "rule matches any source to any destination; narrow the traffic selector", models.SeverityWarning)
				}
				return nil
			},
		},
		{
			Name:        "nsm-missing-sid",
			Code:        "NSM_NO_SID",
			Description: "Rules without a sid cannot be tracked or suppressed downstream",
			Severity:    models.SeverityWarning,
			FPWeight:    0.02,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if !strings.Contains(strings.ToLower(d.Content), "sid:") {
					return issue("NSM_NO_SID", "rule has no sid; downstream tooling cannot reference it", models.SeverityWarning)
				}
				return nil
			},
		},
	}
}
