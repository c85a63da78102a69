package ai

import (
	"strings"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

// ParseOutput recovers the structured fields from a labelled model answer.
// Lines look like "Department: water"; label matching is case-insensitive
// and a stray "**" markdown wrapper around the label is tolerated. Fields
// the model omitted or mangled keep the fallback value.
func ParseOutput(raw string, fallback grievance.Output) grievance.Output {
	output := fallback

	for _, line := range strings.Split(raw, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.ToLower(strings.Trim(strings.TrimSpace(label), "*"))
		value = strings.TrimSpace(value)

		switch label {
		case "department":
			if value != "" {
				output.Department = grievance.ParseDepartment(value)
			}
		case "severity":
			if severity, err := grievance.ParseSeverity(value); err == nil {
				output.Severity = severity
			}
		case "location":
			if value != "" {
				output.Location = value
			}
		case "description":
			if value != "" {
				output.Description = value
			}
		case "summary":
			if value != "" {
				output.Summary = value
			}
		}
	}

	return output
}
