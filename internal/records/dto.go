package records

import (
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/types"
	"github.com/google/uuid"
)

// IntakeInput is the check-in request for one vehicle visit.
type IntakeInput struct {
	VIN            string
	WarehouseID    uuid.UUID
	OdometerKm     int
	Visitor        types.VisitorInfo
	GuaranteeCases []GuaranteeCaseInput
}

// GuaranteeCaseInput names one complaint captured at intake.
type GuaranteeCaseInput struct {
	Title     string
	Complaint string
}

// CaseLineInput is one diagnosis entry submitted by a technician.
type CaseLineInput struct {
	Diagnosis       string
	Correction      string
	ComponentTypeID *uuid.UUID
	Quantity        int
}

// DecideInput carries one approval batch. IDs may span records; each line is
// decided independently.
type DecideInput struct {
	ApprovedIDs []uuid.UUID
	RejectedIDs []uuid.UUID
}

// Decision outcome results.
const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// DecisionOutcome is the per-line result of an approval batch.
type DecisionOutcome struct {
	CaseLineID uuid.UUID `json:"caseLineId"`
	Result     string    `json:"result"`
	ErrorCode  string    `json:"errorCode,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// RecordsPageDTO is one cursor page of processing records.
type RecordsPageDTO struct {
	Records    []models.ProcessingRecord `json:"records"`
	NextCursor string                    `json:"nextCursor,omitempty"`
}
