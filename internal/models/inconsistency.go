package models

import "fmt"

// Property is the compared attribute of an element
type Property string

const (
	PropertyPosition Property = "position"
	PropertySize     Property = "size"
	PropertyColor    Property = "color"
)

// Severity classifies an inconsistency
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities, higher is worse
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Inconsistency is a discrepancy between two same-role elements
type Inconsistency struct {
	Role        Role     `json:"role"`
	Property    Property `json:"property"`
	PageA       string   `json:"page_a"`
	PageB       string   `json:"page_b"`
	ValueA      string   `json:"value_a"`
	ValueB      string   `json:"value_b"`
	DiffPercent int      `json:"diff_percent"`
	Severity    Severity `json:"severity"`
}

// Key returns the deduplication key: role, property and the sorted page pair
func (i Inconsistency) Key() string {
	a, b := i.PageA, i.PageB
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s|%s|%s|%s", i.Role, i.Property, a, b)
}

// String renders the inconsistency as a report issue line
func (i Inconsistency) String() string {
	if i.PageA == i.PageB {
		return fmt.Sprintf("[%s] %s %s varies on %s: %s vs %s",
			i.Severity, i.Role, i.Property, i.PageA, i.ValueA, i.ValueB)
	}
	return fmt.Sprintf("[%s] %s %s differs between %s and %s: %s vs %s (%d%%)",
		i.Severity, i.Role, i.Property, i.PageA, i.PageB, i.ValueA, i.ValueB, i.DiffPercent)
}
