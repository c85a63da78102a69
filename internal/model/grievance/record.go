package grievance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Department is the municipal service category a complaint is routed to.
type Department string

const (
	DepartmentWater Department = "water"
	DepartmentWaste Department = "waste"
	DepartmentRoad  Department = "road"
)

// Departments lists every routable category.
func Departments() []Department {
	return []Department{DepartmentWater, DepartmentWaste, DepartmentRoad}
}

// ParseDepartment normalizes free-form department text. Unknown values fall
// back to road, the catch-all category used across the intake pipeline.
func ParseDepartment(raw string) Department {
	switch Department(strings.ToLower(strings.TrimSpace(raw))) {
	case DepartmentWater:
		return DepartmentWater
	case DepartmentWaste:
		return DepartmentWaste
	case DepartmentRoad:
		return DepartmentRoad
	default:
		return DepartmentRoad
	}
}

// Severity is the ordered urgency level of a complaint.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every level from least to most urgent.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank returns the ordering position of a severity, low being 0. Unknown
// severities rank below low so comparisons never promote them.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// ParseSeverity normalizes free-form severity text. Unknown values are
// rejected rather than silently dropped.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s.Rank() < 0 {
		return "", fmt.Errorf("unknown severity %q", raw)
	}
	return s, nil
}

// Output is the structured categorization of a single complaint, whether it
// came from the LLM backend or the keyword fallback.
type Output struct {
	Department  Department `json:"department"`
	Location    string     `json:"location"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	Summary     string     `json:"summary"`
}

// Metadata carries identifiers and derived fields alongside an output.
// Extra holds caller-supplied keys and is flattened into the metadata object
// on the wire, so the persisted layout stays a single open JSON object.
type Metadata struct {
	UserID      string `json:"user_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	VoiceInput  bool   `json:"voice_input"`
	InputLength int    `json:"input_length"`
	HasLocation bool   `json:"has_location"`
	Extra       map[string]any
}

// knownMetadataKeys are the reserved field names of Metadata; extension keys
// never shadow them.
var knownMetadataKeys = map[string]bool{
	"user_id":      true,
	"session_id":   true,
	"voice_input":  true,
	"input_length": true,
	"has_location": true,
}

// MarshalJSON flattens Extra into the metadata object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	obj := map[string]any{
		"voice_input":  m.VoiceInput,
		"input_length": m.InputLength,
		"has_location": m.HasLocation,
	}
	if m.UserID != "" {
		obj["user_id"] = m.UserID
	}
	if m.SessionID != "" {
		obj["session_id"] = m.SessionID
	}
	for k, v := range m.Extra {
		if !knownMetadataKeys[k] {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

// UnmarshalJSON restores the known fields and keeps every other key in
// Extra, so records written by newer builds survive a round trip.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	known := struct {
		UserID      string `json:"user_id"`
		SessionID   string `json:"session_id"`
		VoiceInput  bool   `json:"voice_input"`
		InputLength int    `json:"input_length"`
		HasLocation bool   `json:"has_location"`
	}{}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	m.UserID = known.UserID
	m.SessionID = known.SessionID
	m.VoiceInput = known.VoiceInput
	m.InputLength = known.InputLength
	m.HasLocation = known.HasLocation
	m.Extra = nil
	for k, raw := range obj {
		if knownMetadataKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		m.Extra[k] = v
	}
	return nil
}

// Record is one processed grievance as persisted in the event log. Records
// are immutable once appended.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	UserInput string    `json:"user_input"`
	Output    Output    `json:"output"`
	Metadata  Metadata  `json:"metadata"`
}

// NewRecord stamps a record at write time and derives input_length and
// has_location from the supplied input and output.
func NewRecord(userInput string, output Output, meta Metadata) Record {
	meta.InputLength = len(userInput)
	meta.HasLocation = output.Location != ""
	return Record{
		Timestamp: time.Now().UTC(),
		UserInput: userInput,
		Output:    output,
		Metadata:  meta,
	}
}

// Stats is the aggregate view over the whole event log.
type Stats struct {
	Total        int                `json:"total"`
	Departments  map[Department]int `json:"departments,omitempty"`
	Severities   map[Severity]int   `json:"severities,omitempty"`
	VoiceInputs  int                `json:"voice_inputs,omitempty"`
	WithLocation int                `json:"with_location,omitempty"`
}
