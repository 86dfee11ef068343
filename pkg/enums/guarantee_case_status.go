package enums

import "fmt"

// GuaranteeCaseStatus mirrors the coarse lifecycle of a complaint inside a
// processing record.
type GuaranteeCaseStatus string

const (
	GuaranteeCaseStatusOpen      GuaranteeCaseStatus = "open"
	GuaranteeCaseStatusDiagnosed GuaranteeCaseStatus = "diagnosed"
	GuaranteeCaseStatusInRepair  GuaranteeCaseStatus = "in_repair"
	GuaranteeCaseStatusClosed    GuaranteeCaseStatus = "closed"
)

var validGuaranteeCaseStatuses = []GuaranteeCaseStatus{
	GuaranteeCaseStatusOpen,
	GuaranteeCaseStatusDiagnosed,
	GuaranteeCaseStatusInRepair,
	GuaranteeCaseStatusClosed,
}

// String implements fmt.Stringer.
func (g GuaranteeCaseStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GuaranteeCaseStatus.
func (g GuaranteeCaseStatus) IsValid() bool {
	for _, candidate := range validGuaranteeCaseStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGuaranteeCaseStatus converts raw input into a GuaranteeCaseStatus.
func ParseGuaranteeCaseStatus(value string) (GuaranteeCaseStatus, error) {
	for _, candidate := range validGuaranteeCaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid guarantee case status %q", value)
}
