package enums

import "fmt"

// ReservationPurpose distinguishes repair holds from transfer earmarks. Both
// draw from the same unreserved balance per (warehouse, component type).
type ReservationPurpose string

const (
	ReservationPurposeRepair   ReservationPurpose = "repair"
	ReservationPurposeTransfer ReservationPurpose = "transfer"
)

// IsValid reports whether the value is a known ReservationPurpose.
func (r ReservationPurpose) IsValid() bool {
	return r == ReservationPurposeRepair || r == ReservationPurposeTransfer
}

// String implements fmt.Stringer.
func (r ReservationPurpose) String() string {
	return string(r)
}

// ReservationStatus tracks whether a reservation token is still redeemable.
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusConsumed ReservationStatus = "consumed"
	ReservationStatusReleased ReservationStatus = "released"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusConsumed,
	ReservationStatusReleased,
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
