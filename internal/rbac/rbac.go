// Package rbac maps dealership roles onto the operations they may call. The
// mapping is a fixed table checked once at the HTTP boundary; services never
// branch on roles.
package rbac

import "github.com/evmotors/warranty-backend/pkg/enums"

// Capability names one guarded operation group.
type Capability string

const (
	CapWarrantyRead    Capability = "warranty:read"
	CapRecordIntake    Capability = "records:intake"
	CapRecordRead      Capability = "records:read"
	CapRecordDiagnose  Capability = "records:diagnose"
	CapRecordComplete  Capability = "records:complete"
	CapRecordCancel    Capability = "records:cancel"
	CapCaseLineSubmit  Capability = "caselines:submit"
	CapCaseLineDecide  Capability = "caselines:decide"
	CapComponentSearch Capability = "components:search"
	CapTransferRead    Capability = "transfers:read"
	CapTransferCreate  Capability = "transfers:create"
	CapTransferApprove Capability = "transfers:approve"
	CapTransferShip    Capability = "transfers:ship"
	CapTransferReceive Capability = "transfers:receive"
	CapTransferReject  Capability = "transfers:reject"
	CapTransferCancel  Capability = "transfers:cancel"
)

var allCapabilities = []Capability{
	CapWarrantyRead,
	CapRecordIntake,
	CapRecordRead,
	CapRecordDiagnose,
	CapRecordComplete,
	CapRecordCancel,
	CapCaseLineSubmit,
	CapCaseLineDecide,
	CapComponentSearch,
	CapTransferRead,
	CapTransferCreate,
	CapTransferApprove,
	CapTransferShip,
	CapTransferReceive,
	CapTransferReject,
	CapTransferCancel,
}

var capabilitiesByRole = map[enums.ActorRole][]Capability{
	enums.ActorRoleAdmin: allCapabilities,
	enums.ActorRoleServiceManager: {
		CapWarrantyRead,
		CapRecordRead,
		CapRecordComplete,
		CapRecordCancel,
		CapCaseLineDecide,
		CapComponentSearch,
		CapTransferRead,
	},
	enums.ActorRoleServiceAdvisor: {
		CapWarrantyRead,
		CapRecordIntake,
		CapRecordRead,
		CapRecordCancel,
	},
	enums.ActorRoleTechnician: {
		CapWarrantyRead,
		CapRecordRead,
		CapRecordDiagnose,
		CapCaseLineSubmit,
		CapComponentSearch,
	},
	enums.ActorRoleReceptionist: {
		CapWarrantyRead,
		CapRecordIntake,
		CapRecordRead,
	},
	enums.ActorRolePartsCoordinator: {
		CapRecordRead,
		CapComponentSearch,
		CapTransferRead,
		CapTransferCreate,
		CapTransferCancel,
	},
	enums.ActorRoleWarehouseManager: {
		CapTransferRead,
		CapTransferApprove,
		CapTransferShip,
		CapTransferReceive,
		CapTransferReject,
		CapTransferCancel,
	},
}

// Allowed reports whether the role carries the capability.
func Allowed(role enums.ActorRole, capability Capability) bool {
	for _, candidate := range capabilitiesByRole[role] {
		if candidate == capability {
			return true
		}
	}
	return false
}

// CapabilitiesFor returns a copy of the role's capability set.
func CapabilitiesFor(role enums.ActorRole) []Capability {
	granted := capabilitiesByRole[role]
	out := make([]Capability, len(granted))
	copy(out, granted)
	return out
}
