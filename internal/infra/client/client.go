// Package client is a typed HTTP client for the tracker API, used by the
// CLI when it talks to a running server.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

const serviceName = "tracker-api"

// Client calls the tracker HTTP API.
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL. token, when set, is sent as a bearer token.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &Client{http: rc}
}

type apiError struct {
	Error string `json:"error"`
}

// do runs req against path and maps error responses to domain errors.
func (c *Client) do(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "Client."+method)
	defer span.End()
	span.SetAttributes(attribute.String("http.path", path))

	apiErr := new(apiError)
	resp, err := req.SetContext(ctx).SetError(apiErr).Execute(method, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: serviceName, Err: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.StatusCode() < http.StatusBadRequest {
		return resp, nil
	}
	msg := apiErr.Error
	if msg == "" {
		msg = resp.Status()
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return nil, &domain.ErrNotFound{Resource: path, ID: msg}
	case http.StatusBadRequest:
		return nil, &domain.ErrValidation{Field: "request", Message: msg}
	case http.StatusUnauthorized:
		return nil, &domain.ErrUnauthorized{Message: msg}
	case http.StatusGatewayTimeout:
		return nil, &domain.ErrTimeout{Operation: method + " " + path}
	default:
		return nil, &domain.ErrExternalService{
			Service: serviceName,
			Err:     fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode(), msg),
		}
	}
}

// ============================================================
// Clients
// ============================================================

// ListClients fetches the client listing.
func (c *Client) ListClients(ctx context.Context, q domain.ClientQuery) ([]domain.ClientView, error) {
	var out []domain.ClientView
	params := map[string]string{}
	setParam(params, "search", q.Search)
	setParam(params, "business_type", string(q.BusinessType))
	setParam(params, "importance", string(q.Importance))
	setParam(params, "sort", string(q.SortBy))

	if _, err := c.do(ctx, http.MethodGet, "/v1/clients", c.http.R().SetQueryParams(params).SetResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClient creates a client.
func (c *Client) CreateClient(ctx context.Context, in domain.ClientInput) (*domain.ClientView, error) {
	out := new(domain.ClientView)
	if _, err := c.do(ctx, http.MethodPost, "/v1/clients", c.http.R().SetBody(in).SetResult(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteClient removes a client.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/clients/"+url.PathEscape(id), c.http.R())
	return err
}

// ToggleWeeklySale flips the client's flag for the week containing at
// (zero means the server's now).
func (c *Client) ToggleWeeklySale(ctx context.Context, id string, at time.Time) (*domain.ToggleResult, error) {
	out := new(domain.ToggleResult)
	req := c.http.R().SetResult(out)
	if !at.IsZero() {
		req.SetQueryParam("at", at.Format(time.RFC3339))
	}
	if _, err := c.do(ctx, http.MethodPost, "/v1/clients/"+url.PathEscape(id)+"/weekly-sale/toggle", req); err != nil {
		return nil, err
	}
	return out, nil
}

// ============================================================
// Sales
// ============================================================

// ListSales fetches the filtered sale listing with its summary.
func (c *Client) ListSales(ctx context.Context, q domain.SaleQuery) (*domain.SaleList, error) {
	out := new(domain.SaleList)
	params := map[string]string{}
	if !q.Day.IsZero() {
		params["date"] = q.Day.Format("2006-01-02")
	}
	setParam(params, "client", q.ClientName)
	setParam(params, "sort", string(q.SortBy))
	setParam(params, "order", string(q.Order))

	if _, err := c.do(ctx, http.MethodGet, "/v1/sales", c.http.R().SetQueryParams(params).SetResult(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale records a sale.
func (c *Client) CreateSale(ctx context.Context, in domain.SaleInput) (*domain.Sale, error) {
	body := map[string]any{
		"value":       in.Value.String(),
		"client_name": in.ClientName,
		"city":        in.City,
	}
	if !in.Date.IsZero() {
		body["date"] = in.Date.Format(time.RFC3339)
	}
	out := new(domain.Sale)
	if _, err := c.do(ctx, http.MethodPost, "/v1/sales", c.http.R().SetBody(body).SetResult(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSale removes a sale.
func (c *Client) DeleteSale(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/sales/"+url.PathEscape(id), c.http.R())
	return err
}

// ExportSales downloads the XLSX export into w.
func (c *Client) ExportSales(ctx context.Context, q domain.SaleQuery, w io.Writer) error {
	params := map[string]string{}
	if !q.Day.IsZero() {
		params["date"] = q.Day.Format("2006-01-02")
	}
	setParam(params, "client", q.ClientName)

	resp, err := c.do(ctx, http.MethodGet, "/v1/sales/export", c.http.R().SetQueryParams(params))
	if err != nil {
		return err
	}
	if _, err := w.Write(resp.Body()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ============================================================
// Dashboard
// ============================================================

// Stats fetches the dashboard aggregates.
func (c *Client) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	out := new(domain.DashboardStats)
	if _, err := c.do(ctx, http.MethodGet, "/v1/dashboard/stats", c.http.R().SetResult(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// WeeklyReport fetches the report for the week containing at.
func (c *Client) WeeklyReport(ctx context.Context, at time.Time) (*domain.WeeklyReport, error) {
	out := new(domain.WeeklyReport)
	req := c.http.R().SetResult(out)
	if !at.IsZero() {
		req.SetQueryParam("at", at.Format(time.RFC3339))
	}
	if _, err := c.do(ctx, http.MethodGet, "/v1/reports/weekly", req); err != nil {
		return nil, err
	}
	return out, nil
}

func setParam(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}
