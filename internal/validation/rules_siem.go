package validation

import (
	"strings"

	"github.com/threatforge/detection-platform/internal/models"
)

// siemDataSourceTokens are the query fragments a SIEM search needs to scope
// what it reads. A rule that names none of them scans everything.
var siemDataSourceTokens = []string{"index=", "sourcetype=", "source=", "search ", "from ", "select "}

var siemTimeBoundTokens = []string{"earliest", "latest", "_time", "timechart", "span="}

func siemRules() []Rule {
	return []Rule{
		{
			Name:        "siem-data-source",
			Code:        "SIEM_NO_DATA_SOURCE",
			Description: "SIEM searches must reference an index, sourcetype or source",
			Severity:    models.SeverityError,
			PerfWeight:  0.4,
			FPWeight:    0.1,
			Check: func(d *models.Detection) []models.ValidationIssue {
				content := strings.ToLower(d.Content)
				for _, tok := range siemDataSourceTokens {
					if strings.Contains(content, tok) {
						return nil
					}
				}
				return issue("SIEM_NO_DATA_SOURCE", "search does not reference a data source (index, sourcetype or source)", models.SeverityError)
			},
		},
		{
			Name:        "siem-wildcard-index",
			Code:        "SIEM_WILDCARD_INDEX",
			Description: "index=* scans every index and is disallowed",
			Severity:    models.SeverityError,
			PerfWeight:  0.5,
			FPWeight:    0.15,
			Check: func(d *models.Detection) []models.ValidationIssue {
				if strings.Contains(strings.ToLower(d.Content), "index=*") {
					return issue("SIEM_WILDCARD_INDEX", "index=* matches every index; scope the search to specific indexes", models.SeverityError)
				}
				return nil
			},
		},
		{
			Name:        "siem-time-bounds",
			Code:        "SIEM_NO_TIME_BOUNDS",
			Description: "Unbounded searches re-scan full history on every run",
			Severity:    models.SeverityWarning,
			PerfWeight:  0.25,
			Check: func(d *models.Detection) []models.ValidationIssue {
				content := strings.ToLower(d.Content)
				for _, tok := range siemTimeBoundTokens {
					if strings.Contains(content, tok) {
						return nil
					}
				}
				return issue("SIEM_NO_TIME_BOUNDS", "search has no time bounds (earliest/latest)", models.SeverityWarning)
			},
		},
	}
}
