// Package validate runs the consistency checks that turn raw labeled wire
// segments into validated wire connections. Checks record what they found,
// not how bad it is; severity is assigned in one place from the strict flag
// so no check carries mode-dependent branches.
package validate

import "fmt"

// Kind identifies a class of validation finding.
type Kind string

const (
	NoCircuitLabelsFound     Kind = "no_circuit_labels_found"
	MissingCircuitID         Kind = "missing_circuit_id"
	MultipleCircuitIDs       Kind = "multiple_circuit_ids"
	DuplicateCircuitID       Kind = "duplicate_circuit_id"
	OrphanLabel              Kind = "orphan_label"
	UnresolvedCircuitCurrent Kind = "unresolved_circuit_current"
)

// Severity of a finding after policy has been applied.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one collected validation message. Findings are accumulated,
// never thrown mid-pipeline.
type Finding struct {
	Kind       Kind     `json:"kind"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	WireID     string   `json:"wire_id,omitempty"`
}

func (f Finding) String() string {
	if f.WireID != "" {
		return fmt.Sprintf("[%s] %s: %s", f.Severity, f.WireID, f.Message)
	}
	return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
}

// policySensitive lists the kinds whose severity depends on the strict flag.
// OrphanLabel and UnresolvedCircuitCurrent never abort in either mode.
var policySensitive = map[Kind]bool{
	NoCircuitLabelsFound: true,
	MissingCircuitID:     true,
	MultipleCircuitIDs:   true,
	DuplicateCircuitID:   true,
}

// severityFor maps a kind to its severity under the given policy.
func severityFor(kind Kind, strict bool) Severity {
	if policySensitive[kind] && strict {
		return SeverityError
	}
	return SeverityWarning
}

// Errors returns the findings with error severity.
func Errors(findings []Finding) []Finding {
	return bySeverity(findings, SeverityError)
}

// Warnings returns the findings with warning severity.
func Warnings(findings []Finding) []Finding {
	return bySeverity(findings, SeverityWarning)
}

func bySeverity(findings []Finding, s Severity) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}
