package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/evmotors/warranty-backend/api/middleware"
	"github.com/evmotors/warranty-backend/api/responses"
	"github.com/evmotors/warranty-backend/api/validators"
	"github.com/evmotors/warranty-backend/internal/records"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/logger"
)

type submitCaseLinesPayload struct {
	Lines []caseLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type caseLinePayload struct {
	Diagnosis       string  `json:"diagnosis" validate:"required"`
	Correction      string  `json:"correction" validate:"required"`
	ComponentTypeID *string `json:"componentTypeId" validate:"omitempty,uuid"`
	Quantity        int     `json:"quantity" validate:"min=0"`
}

type decidePayload struct {
	ApprovedIDs []string `json:"approvedIds" validate:"dive,uuid"`
	RejectedIDs []string `json:"rejectedIds" validate:"dive,uuid"`
}

// CaseLinesSubmit records a technician's diagnosis lines for one case. Each
// line is stamped with the coverage verdict current at submission time.
func CaseLinesSubmit(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		caseID, err := validators.ParseUUIDParam(r, "caseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload submitCaseLinesPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lines := make([]records.CaseLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			input := records.CaseLineInput{
				Diagnosis:  line.Diagnosis,
				Correction: line.Correction,
				Quantity:   line.Quantity,
			}
			if line.ComponentTypeID != nil {
				typeID, parseErr := uuid.Parse(*line.ComponentTypeID)
				if parseErr != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid component type id"))
					return
				}
				input.ComponentTypeID = &typeID
			}
			lines = append(lines, input)
		}

		created, err := svc.SubmitCaseLines(ctx, actor, caseID, lines)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CaseLinesDecide applies an approval batch. Lines are decided independently;
// the response reports a per-line outcome rather than failing the batch.
func CaseLinesDecide(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "records service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload decidePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if len(payload.ApprovedIDs) == 0 && len(payload.RejectedIDs) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one case line id is required"))
			return
		}

		input := records.DecideInput{}
		for _, raw := range payload.ApprovedIDs {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid approved case line id"))
				return
			}
			input.ApprovedIDs = append(input.ApprovedIDs, id)
		}
		for _, raw := range payload.RejectedIDs {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid rejected case line id"))
				return
			}
			input.RejectedIDs = append(input.RejectedIDs, id)
		}

		outcomes, err := svc.Decide(ctx, actor, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"outcomes": outcomes})
	}
}
