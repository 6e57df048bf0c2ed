package handler

import (
	"net/http"

	"github.com/boddenberg/sales-tracker-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard & Reports
// ============================================================

func dashboardStatsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/stats")
		defer span.End()

		ref, err := parseDate("at", r.URL.Query().Get("at"), svc.Location())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		stats, err := svc.Stats(ctx, ref)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func weeklyReportHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/weekly")
		defer span.End()

		ref, err := parseDate("at", r.URL.Query().Get("at"), svc.Location())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		report, err := svc.WeeklyReport(ctx, ref)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
