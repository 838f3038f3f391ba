// Package validation implements the rule registry, the validator and the
// quality scoring for submitted detection content.
package validation

import (
	"github.com/threatforge/detection-platform/internal/models"
)

// Rule is a named, pure check of a detection. Check must not mutate the
// detection and must not fail: malformed content produces issues, never
// errors. PerfWeight and FPWeight are informational fractions consumed by
// the scorer when the rule fires.
type Rule struct {
	Name        string
	Code        string
	Description string
	Severity    models.Severity
	PerfWeight  float64
	FPWeight    float64
	Check       func(*models.Detection) []models.ValidationIssue
}

// Registry holds the common rule set and the per-platform rule sets.
// It is built once at process start and read-only afterwards, so it needs
// no locking.
type Registry struct {
	common   []Rule
	platform map[models.PlatformType][]Rule
}

// NewRegistry constructs the registry with all statically known rules.
func NewRegistry() *Registry {
	return &Registry{
		common: commonRules(),
		platform: map[models.PlatformType][]Rule{
			models.PlatformSIEM: siemRules(),
			models.PlatformEDR:  edrRules(),
			models.PlatformNSM:  nsmRules(),
		},
	}
}

// RulesFor returns the ordered union of the common rules and the rules for
// the given platform. The order is registration order, which keeps rule
// output stable for a fixed input.
func (r *Registry) RulesFor(platform models.PlatformType) []Rule {
	rules := make([]Rule, 0, len(r.common)+len(r.platform[platform]))
	rules = append(rules, r.common...)
	rules = append(rules, r.platform[platform]...)
	return rules
}

// lookup maps issue codes back to the rule that owns them so the scorer can
// apply the rule's weights to fired issues.
func (r *Registry) ruleByCode(platform models.PlatformType) map[string]Rule {
	byCode := make(map[string]Rule)
	for _, rule := range r.RulesFor(platform) {
		byCode[rule.Code] = rule
	}
	return byCode
}
