package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/evmotors/warranty-backend/api/middleware"
	"github.com/evmotors/warranty-backend/internal/records"
	"github.com/evmotors/warranty-backend/internal/warranty"
	"github.com/evmotors/warranty-backend/pkg/auth"
	"github.com/evmotors/warranty-backend/pkg/db/models"
	"github.com/evmotors/warranty-backend/pkg/enums"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/pagination"
)

type stubWarrantyService struct {
	report  warranty.Report
	err     error
	lastVIN string
	lastKm  int
}

func (s *stubWarrantyService) Evaluate(_ context.Context, vin string, odometerKm int) (warranty.Report, error) {
	s.lastVIN = vin
	s.lastKm = odometerKm
	return s.report, s.err
}

func (s *stubWarrantyService) Preview(_ context.Context, vin string, odometerKm int, _ time.Time) (warranty.Report, error) {
	s.lastVIN = vin
	s.lastKm = odometerKm
	return s.report, s.err
}

type stubRecordsService struct {
	outcomes  []records.DecisionOutcome
	decideErr error
	lastInput records.DecideInput
	lastActor auth.ActorRef
}

func (s *stubRecordsService) Intake(context.Context, auth.ActorRef, records.IntakeInput) (*models.ProcessingRecord, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubRecordsService) Get(context.Context, uuid.UUID) (*models.ProcessingRecord, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubRecordsService) List(context.Context, *enums.RecordStatus, pagination.Params) (records.RecordsPageDTO, error) {
	return records.RecordsPageDTO{}, nil
}

func (s *stubRecordsService) StartDiagnosis(context.Context, auth.ActorRef, uuid.UUID) (*models.ProcessingRecord, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubRecordsService) SubmitCaseLines(context.Context, auth.ActorRef, uuid.UUID, []records.CaseLineInput) ([]models.CaseLine, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubRecordsService) Decide(_ context.Context, actor auth.ActorRef, input records.DecideInput) ([]records.DecisionOutcome, error) {
	s.lastActor = actor
	s.lastInput = input
	return s.outcomes, s.decideErr
}

func (s *stubRecordsService) Complete(context.Context, auth.ActorRef, uuid.UUID) (*models.ProcessingRecord, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubRecordsService) Cancel(context.Context, auth.ActorRef, uuid.UUID, string) (*models.ProcessingRecord, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func warrantyRouter(svc warranty.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/vehicles/{vin}/warranty", WarrantyStatus(svc, nil))
	return r
}

func TestWarrantyStatusReturnsReport(t *testing.T) {
	t.Parallel()

	svc := &stubWarrantyService{
		report: warranty.Report{
			VIN:        "5YJ3E1EA7KF000001",
			OdometerKm: 42000,
			General:    warranty.Verdict{Overall: enums.WarrantyStatusActive},
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/5YJ3E1EA7KF000001/warranty?odometer=42000", nil)
	warrantyRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastVIN != "5YJ3E1EA7KF000001" || svc.lastKm != 42000 {
		t.Fatalf("service called with %q / %d", svc.lastVIN, svc.lastKm)
	}

	var envelope struct {
		Data warranty.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.General.Overall != enums.WarrantyStatusActive {
		t.Fatalf("unexpected verdict %q", envelope.Data.General.Overall)
	}
}

func TestWarrantyStatusRequiresOdometer(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/5YJ3E1EA7KF000001/warranty", nil)
	warrantyRouter(&stubWarrantyService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWarrantyStatusMapsNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubWarrantyService{err: pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/5YJ3E1EA7KF000002/warranty?odometer=100", nil)
	warrantyRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func decideRequest(t *testing.T, body string, withActor bool) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/case-lines/approve", strings.NewReader(body))
	if withActor {
		actor := auth.ActorRef{UserID: uuid.New(), Role: enums.ActorRoleServiceManager}
		req = req.WithContext(middleware.WithActor(req.Context(), actor))
	}
	return req
}

func TestCaseLinesDecideReportsOutcomes(t *testing.T) {
	t.Parallel()

	approvedID := uuid.New()
	rejectedID := uuid.New()
	svc := &stubRecordsService{
		outcomes: []records.DecisionOutcome{
			{CaseLineID: approvedID, Result: records.OutcomeApproved},
			{CaseLineID: rejectedID, Result: records.OutcomeRejected},
		},
	}

	body := `{"approvedIds":["` + approvedID.String() + `"],"rejectedIds":["` + rejectedID.String() + `"]}`
	rec := httptest.NewRecorder()
	CaseLinesDecide(svc, nil).ServeHTTP(rec, decideRequest(t, body, true))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.lastInput.ApprovedIDs) != 1 || svc.lastInput.ApprovedIDs[0] != approvedID {
		t.Fatalf("approved ids not forwarded: %+v", svc.lastInput)
	}
	if len(svc.lastInput.RejectedIDs) != 1 || svc.lastInput.RejectedIDs[0] != rejectedID {
		t.Fatalf("rejected ids not forwarded: %+v", svc.lastInput)
	}

	var envelope struct {
		Data struct {
			Outcomes []records.DecisionOutcome `json:"outcomes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(envelope.Data.Outcomes))
	}
}

func TestCaseLinesDecideRequiresActor(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	CaseLinesDecide(&stubRecordsService{}, nil).ServeHTTP(rec, decideRequest(t, `{"approvedIds":[]}`, false))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCaseLinesDecideRejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	CaseLinesDecide(&stubRecordsService{}, nil).ServeHTTP(rec, decideRequest(t, `{"approvedIds":[],"rejectedIds":[]}`, true))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
