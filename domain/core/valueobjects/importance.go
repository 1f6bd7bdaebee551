package valueobjects

import "strconv"

// Importance ranks an idea from 1 (Low) to 3 (High).
type Importance int

const (
	ImportanceLow    Importance = 1
	ImportanceMedium Importance = 2
	ImportanceHigh   Importance = 3
)

// Importances lists every valid importance in ascending order.
var Importances = []Importance{ImportanceLow, ImportanceMedium, ImportanceHigh}

// IsValid reports whether i is within 1..3.
func (i Importance) IsValid() bool {
	return i >= ImportanceLow && i <= ImportanceHigh
}

// Label returns the human readable name shown in forms.
func (i Importance) Label() string {
	switch i {
	case ImportanceLow:
		return "Low"
	case ImportanceMedium:
		return "Medium"
	case ImportanceHigh:
		return "High"
	default:
		return strconv.Itoa(int(i))
	}
}

// ParseImportance converts a form value. Unparseable input yields 0, which
// fails IsValid.
func ParseImportance(s string) Importance {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return Importance(n)
}
