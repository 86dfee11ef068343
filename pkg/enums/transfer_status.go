package enums

import "fmt"

// TransferStatus tracks the lifecycle of a stock transfer request.
type TransferStatus string

const (
	TransferStatusPendingApproval TransferStatus = "pending_approval"
	TransferStatusApproved        TransferStatus = "approved"
	TransferStatusShipped         TransferStatus = "shipped"
	TransferStatusReceived        TransferStatus = "received"
	TransferStatusRejected        TransferStatus = "rejected"
	TransferStatusCancelled       TransferStatus = "cancelled"
)

var validTransferStatuses = []TransferStatus{
	TransferStatusPendingApproval,
	TransferStatusApproved,
	TransferStatusShipped,
	TransferStatusReceived,
	TransferStatusRejected,
	TransferStatusCancelled,
}

// String implements fmt.Stringer.
func (t TransferStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransferStatus.
func (t TransferStatus) IsValid() bool {
	for _, candidate := range validTransferStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the transfer can no longer be mutated.
func (t TransferStatus) IsTerminal() bool {
	return t == TransferStatusReceived || t == TransferStatusRejected || t == TransferStatusCancelled
}

// CanTransitionTo reports whether the edge from t to next is allowed.
func (t TransferStatus) CanTransitionTo(next TransferStatus) bool {
	switch t {
	case TransferStatusPendingApproval:
		return next == TransferStatusApproved || next == TransferStatusRejected || next == TransferStatusCancelled
	case TransferStatusApproved:
		return next == TransferStatusShipped || next == TransferStatusCancelled
	case TransferStatusShipped:
		return next == TransferStatusReceived
	default:
		return false
	}
}

// ParseTransferStatus converts raw input into a TransferStatus.
func ParseTransferStatus(value string) (TransferStatus, error) {
	for _, candidate := range validTransferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer status %q", value)
}
