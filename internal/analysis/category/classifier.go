package category

import (
	"regexp"
	"strings"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

const (
	summaryBudget     = 80
	descriptionBudget = 200
)

// DepartmentRule binds a department to its trigger keywords. Rules are
// checked in slice order and the first keyword hit wins, so water complaints
// take priority over waste and road.
type DepartmentRule struct {
	Department grievance.Department
	Keywords   []string
}

// SeverityRule binds a severity level to its trigger keywords, checked from
// most to least urgent.
type SeverityRule struct {
	Severity grievance.Severity
	Keywords []string
}

// The keyword tables are fixed configuration; matching is case-insensitive
// substring containment, so "pipeline" triggers the water rule via "pipe".
var departmentRules = []DepartmentRule{
	{grievance.DepartmentWater, []string{"water", "pipe", "leak", "supply", "tap", "drinking", "paani", "jal"}},
	{grievance.DepartmentWaste, []string{"garbage", "waste", "trash", "dump", "sanitation", "cleanliness", "kachra", "safai"}},
	{grievance.DepartmentRoad, []string{"road", "pothole", "street", "highway", "pavement", "sadak", "rasta"}},
}

var severityRules = []SeverityRule{
	{grievance.SeverityCritical, []string{"critical", "emergency", "immediate", "danger", "life-threatening", "severe"}},
	{grievance.SeverityHigh, []string{"urgent", "serious", "important", "high"}},
	{grievance.SeverityMedium, []string{"moderate", "medium", "normal"}},
	{grievance.SeverityLow, []string{"minor", "small", "slight", "low"}},
}

// locationPatterns are tried in order against the original (case-preserving)
// text; the first capture group wins.
var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:at|in|near|location:)\s+([A-Z][a-zA-Z\s]+(?:road|street|area|colony|nagar|park)?)`),
	regexp.MustCompile(`([A-Z][a-zA-Z\s]+(?:road|street|area|colony|nagar|park))`),
}

// DepartmentRules exposes the ordered department table so callers and tests
// can enumerate every branch without duplicating string literals.
func DepartmentRules() []DepartmentRule {
	return departmentRules
}

// SeverityRules exposes the ordered severity table.
func SeverityRules() []SeverityRule {
	return severityRules
}

// Classify maps raw complaint text to a structured output using the fixed
// keyword tables. It is a pure function with no I/O and is total: every
// input, including the empty string, yields defined values for every field.
func Classify(text string) grievance.Output {
	lower := strings.ToLower(text)
	location := extractLocation(text)

	return grievance.Output{
		Department:  matchDepartment(lower),
		Severity:    matchSeverity(lower),
		Location:    location,
		Summary:     buildSummary(text),
		Description: buildDescription(text, location),
	}
}

func matchDepartment(lower string) grievance.Department {
	for _, rule := range departmentRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Department
			}
		}
	}
	return grievance.DepartmentRoad
}

func matchSeverity(lower string) grievance.Severity {
	for _, rule := range severityRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Severity
			}
		}
	}
	return grievance.SeverityLow
}

func extractLocation(text string) string {
	for _, pattern := range locationPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// buildSummary takes the first sentence and trims it to the summary budget.
// Texts at exactly the budget stay untouched; only strictly longer ones get
// the ellipsis marker.
func buildSummary(text string) string {
	first, _, _ := strings.Cut(text, ".")
	return truncate(strings.TrimSpace(first), summaryBudget)
}

// buildDescription keeps the full text up to the description budget and
// appends the extracted location as a trailing clause when present.
func buildDescription(text, location string) string {
	description := truncate(strings.TrimSpace(text), descriptionBudget)
	if location != "" {
		description = description + " Located at " + location + "."
	}
	return description
}

func truncate(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return strings.TrimSpace(string(runes[:budget])) + "..."
}
