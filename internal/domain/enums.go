package domain

import "strings"

// Severity is the importance tier of a failure record.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Valid reports whether s is one of the known tiers.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityNormal, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ParseSeverity normalizes case and whitespace. ok is false for unknown tiers.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	return sev, sev.Valid()
}

// Origin identifies which side of the system produced a failure.
type Origin string

const (
	OriginFrontend Origin = "FE"
	OriginBackend  Origin = "BE"
	OriginOther    Origin = "OTHER"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginFrontend, OriginBackend, OriginOther:
		return true
	}
	return false
}

// ParseOrigin normalizes case and whitespace. ok is false for unknown origins.
func ParseOrigin(s string) (Origin, bool) {
	o := Origin(strings.ToUpper(strings.TrimSpace(s)))
	return o, o.Valid()
}
