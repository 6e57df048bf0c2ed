package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/export"
	"github.com/boddenberg/sales-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Sales Handlers
// ============================================================

// saleRequest is the body of create and update calls. Date accepts
// YYYY-MM-DD or RFC 3339.
type saleRequest struct {
	Value      decimal.Decimal `json:"value"`
	ClientName string          `json:"client_name"`
	City       string          `json:"city"`
	Date       string          `json:"date"`
}

func (req saleRequest) input(loc *time.Location) (domain.SaleInput, error) {
	date, err := parseDate("date", req.Date, loc)
	if err != nil {
		return domain.SaleInput{}, err
	}
	return domain.SaleInput{
		Value:      req.Value,
		ClientName: req.ClientName,
		City:       req.City,
		Date:       date,
	}, nil
}

func saleQuery(r *http.Request, loc *time.Location) (domain.SaleQuery, error) {
	q := r.URL.Query()
	day, err := parseDate("date", q.Get("date"), loc)
	if err != nil {
		return domain.SaleQuery{}, err
	}
	return domain.SaleQuery{
		Day:        day,
		ClientName: q.Get("client"),
		SortBy:     domain.SaleSort(q.Get("sort")),
		Order:      domain.SortOrder(q.Get("order")),
	}, nil
}

func listSalesHandler(svc *service.SaleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tz := svc.Location()
		ctx, span := tracer.Start(r.Context(), "GET /v1/sales")
		defer span.End()

		q, err := saleQuery(r, tz)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		list, err := svc.List(ctx, q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("sales.count", len(list.Sales)))
		writeJSON(w, http.StatusOK, list)
	}
}

func createSaleHandler(svc *service.SaleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tz := svc.Location()
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales")
		defer span.End()

		var req saleRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		in, err := req.input(tz)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		sale, err := svc.Create(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sale)
	}
}

func getSaleHandler(svc *service.SaleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/sales/{saleId}")
		defer span.End()

		sale, err := svc.Get(ctx, chi.URLParam(r, "saleId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sale)
	}
}

func updateSaleHandler(svc *service.SaleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tz := svc.Location()
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sales/{saleId}")
		defer span.End()

		var req saleRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		in, err := req.input(tz)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		sale, err := svc.Update(ctx, chi.URLParam(r, "saleId"), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sale)
	}
}

func deleteSaleHandler(svc *service.SaleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sales/{saleId}")
		defer span.End()

		if err := svc.Delete(ctx, chi.URLParam(r, "saleId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// exportSalesHandler streams the filtered listing as an XLSX workbook.
// The workbook is built in memory first so errors still produce JSON.
func exportSalesHandler(svc *service.SaleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tz := svc.Location()
		ctx, span := tracer.Start(r.Context(), "GET /v1/sales/export")
		defer span.End()

		q, err := saleQuery(r, tz)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		var buf bytes.Buffer
		if err := svc.Export(ctx, q, &buf); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		filename := fmt.Sprintf("vendas-%s.xlsx", time.Now().In(tz).Format("2006-01-02"))
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logger.Warn("export write failed", zap.Error(err))
		}
	}
}
