package enums

import "fmt"

// ActorRole identifies the dealership role an authenticated actor holds.
type ActorRole string

const (
	ActorRoleAdmin            ActorRole = "admin"
	ActorRoleServiceManager   ActorRole = "service_manager"
	ActorRoleServiceAdvisor   ActorRole = "service_advisor"
	ActorRoleTechnician       ActorRole = "technician"
	ActorRoleReceptionist     ActorRole = "receptionist"
	ActorRolePartsCoordinator ActorRole = "parts_coordinator"
	ActorRoleWarehouseManager ActorRole = "warehouse_manager"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleServiceManager,
	ActorRoleServiceAdvisor,
	ActorRoleTechnician,
	ActorRoleReceptionist,
	ActorRolePartsCoordinator,
	ActorRoleWarehouseManager,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
