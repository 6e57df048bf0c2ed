package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/service"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clients Handlers
// ============================================================

func newClientView(c domain.Client, tracker *weekly.Tracker, ref time.Time) domain.ClientView {
	query := c.Location
	if query == "" {
		query = c.City
	}
	if c.WeeklySales == nil {
		c.WeeklySales = []domain.WeeklySale{}
	}
	return domain.ClientView{
		Client:        c,
		BusinessLabel: c.BusinessType.Label(),
		SoldThisWeek:  tracker.SoldThisWeek(c, ref),
		WhatsAppURL:   "https://wa.me/55" + digitsOnly(c.Phone),
		MapsURL:       "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(query),
	}
}

func listClientsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		q := r.URL.Query()
		clients, err := svc.List(ctx, domain.ClientQuery{
			Search:       q.Get("search"),
			BusinessType: domain.BusinessType(q.Get("business_type")),
			Importance:   domain.ImportanceLevel(q.Get("importance")),
			SortBy:       domain.ClientSort(q.Get("sort")),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		now := svc.Tracker().Now()
		views := make([]domain.ClientView, 0, len(clients))
		for _, c := range clients {
			views = append(views, newClientView(c, svc.Tracker(), now))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func createClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var in domain.ClientInput
		if err := decodeJSON(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		client, err := svc.Create(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, newClientView(*client, svc.Tracker(), time.Time{}))
	}
}

func getClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))
		client, err := svc.Get(ctx, clientID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newClientView(*client, svc.Tracker(), time.Time{}))
	}
}

func updateClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}")
		defer span.End()

		var in domain.ClientInput
		if err := decodeJSON(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		client, err := svc.Update(ctx, chi.URLParam(r, "clientId"), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newClientView(*client, svc.Tracker(), time.Time{}))
	}
}

func deleteClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}")
		defer span.End()

		if err := svc.Delete(ctx, chi.URLParam(r, "clientId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateImportanceHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/clients/{clientId}/importance")
		defer span.End()

		var req struct {
			ImportanceLevel domain.ImportanceLevel `json:"importance_level"`
		}
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		client, err := svc.UpdateImportance(ctx, chi.URLParam(r, "clientId"), req.ImportanceLevel)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, newClientView(*client, svc.Tracker(), time.Time{}))
	}
}

// toggleWeeklySaleHandler flips the sold flag for the week containing ?at=
// (default now) and returns the client together with the new status.
func toggleWeeklySaleHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/weekly-sale/toggle")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(
			attribute.String("client.id", clientID),
			attribute.String("auth.subject", SubjectFromContext(ctx)),
		)

		ref, err := parseDate("at", r.URL.Query().Get("at"), svc.Tracker().Location())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		client, err := svc.ToggleWeeklySale(ctx, clientID, ref)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ToggleResult{
			Client: newClientView(*client, svc.Tracker(), ref),
			Status: svc.Tracker().Status(*client, ref),
		})
	}
}

func weeklySaleStatusHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}/weekly-sale")
		defer span.End()

		ref, err := parseDate("at", r.URL.Query().Get("at"), svc.Tracker().Location())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status, err := svc.WeekStatus(ctx, chi.URLParam(r, "clientId"), ref)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
