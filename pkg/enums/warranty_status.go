package enums

import "fmt"

// WarrantyStatus is the verdict of a single coverage check.
type WarrantyStatus string

const (
	WarrantyStatusActive  WarrantyStatus = "active"
	WarrantyStatusExpired WarrantyStatus = "expired"
)

var validWarrantyStatuses = []WarrantyStatus{
	WarrantyStatusActive,
	WarrantyStatusExpired,
}

// String implements fmt.Stringer.
func (w WarrantyStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WarrantyStatus.
func (w WarrantyStatus) IsValid() bool {
	for _, candidate := range validWarrantyStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWarrantyStatus converts raw input into a WarrantyStatus.
func ParseWarrantyStatus(value string) (WarrantyStatus, error) {
	for _, candidate := range validWarrantyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warranty status %q", value)
}
