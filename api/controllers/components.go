package controllers

import (
	"net/http"
	"strings"

	"github.com/evmotors/warranty-backend/api/responses"
	"github.com/evmotors/warranty-backend/api/validators"
	"github.com/evmotors/warranty-backend/internal/components"
	pkgerrors "github.com/evmotors/warranty-backend/pkg/errors"
	"github.com/evmotors/warranty-backend/pkg/logger"
)

// ComponentSearch lists in-stock replacement candidates compatible with the
// record's vehicle, each flagged with its current coverage.
func ComponentSearch(svc components.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "components service unavailable"))
			return
		}

		recordID, err := validators.ParseUUIDParam(r, "recordId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category := strings.TrimSpace(r.URL.Query().Get("category"))
		search := strings.TrimSpace(r.URL.Query().Get("searchName"))

		candidates, err := svc.Search(ctx, recordID, category, search)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"candidates": candidates})
	}
}
