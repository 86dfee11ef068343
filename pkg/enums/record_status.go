package enums

import "fmt"

// RecordStatus tracks the lifecycle of a vehicle processing record.
type RecordStatus string

const (
	RecordStatusCheckedIn       RecordStatus = "checked_in"
	RecordStatusInDiagnosis     RecordStatus = "in_diagnosis"
	RecordStatusWaitingForParts RecordStatus = "waiting_for_parts"
	RecordStatusInRepair        RecordStatus = "in_repair"
	RecordStatusCompleted       RecordStatus = "completed"
	RecordStatusCancelled       RecordStatus = "cancelled"
)

var validRecordStatuses = []RecordStatus{
	RecordStatusCheckedIn,
	RecordStatusInDiagnosis,
	RecordStatusWaitingForParts,
	RecordStatusInRepair,
	RecordStatusCompleted,
	RecordStatusCancelled,
}

// String implements fmt.Stringer.
func (r RecordStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecordStatus.
func (r RecordStatus) IsValid() bool {
	for _, candidate := range validRecordStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the record can no longer be mutated.
func (r RecordStatus) IsTerminal() bool {
	return r == RecordStatusCompleted || r == RecordStatusCancelled
}

// CanTransitionTo reports whether the edge from r to next is part of the
// record state machine.
func (r RecordStatus) CanTransitionTo(next RecordStatus) bool {
	if next == RecordStatusCancelled {
		return !r.IsTerminal()
	}
	switch r {
	case RecordStatusCheckedIn:
		return next == RecordStatusInDiagnosis
	case RecordStatusInDiagnosis:
		return next == RecordStatusWaitingForParts || next == RecordStatusCompleted
	case RecordStatusWaitingForParts:
		return next == RecordStatusInRepair
	case RecordStatusInRepair:
		return next == RecordStatusCompleted
	default:
		return false
	}
}

// ParseRecordStatus converts raw input into a RecordStatus.
func ParseRecordStatus(value string) (RecordStatus, error) {
	for _, candidate := range validRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record status %q", value)
}
