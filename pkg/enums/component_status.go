package enums

import "fmt"

// ComponentStatus tracks a serialized component through the stock ledger.
type ComponentStatus string

const (
	ComponentStatusInWarehouse ComponentStatus = "in_warehouse"
	ComponentStatusReserved    ComponentStatus = "reserved"
	ComponentStatusInTransit   ComponentStatus = "in_transit"
	ComponentStatusInstalled   ComponentStatus = "installed"
)

var validComponentStatuses = []ComponentStatus{
	ComponentStatusInWarehouse,
	ComponentStatusReserved,
	ComponentStatusInTransit,
	ComponentStatusInstalled,
}

// String implements fmt.Stringer.
func (c ComponentStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComponentStatus.
func (c ComponentStatus) IsValid() bool {
	for _, candidate := range validComponentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseComponentStatus converts raw input into a ComponentStatus.
func ParseComponentStatus(value string) (ComponentStatus, error) {
	for _, candidate := range validComponentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid component status %q", value)
}
