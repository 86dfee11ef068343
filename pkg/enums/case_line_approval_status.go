package enums

import "fmt"

// CaseLineApprovalStatus tracks the manager approval gate on a case line.
type CaseLineApprovalStatus string

const (
	CaseLineApprovalStatusPending  CaseLineApprovalStatus = "pending_manager_approval"
	CaseLineApprovalStatusApproved CaseLineApprovalStatus = "approved"
	CaseLineApprovalStatusRejected CaseLineApprovalStatus = "rejected"
)

var validCaseLineApprovalStatuses = []CaseLineApprovalStatus{
	CaseLineApprovalStatusPending,
	CaseLineApprovalStatusApproved,
	CaseLineApprovalStatusRejected,
}

// String implements fmt.Stringer.
func (c CaseLineApprovalStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CaseLineApprovalStatus.
func (c CaseLineApprovalStatus) IsValid() bool {
	for _, candidate := range validCaseLineApprovalStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the line has been decided.
func (c CaseLineApprovalStatus) IsTerminal() bool {
	return c == CaseLineApprovalStatusApproved || c == CaseLineApprovalStatusRejected
}

// ParseCaseLineApprovalStatus converts raw input into a CaseLineApprovalStatus.
func ParseCaseLineApprovalStatus(value string) (CaseLineApprovalStatus, error) {
	for _, candidate := range validCaseLineApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid case line approval status %q", value)
}
