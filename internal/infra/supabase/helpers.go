package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
)

// ============================================================
// HTTP helpers for POST, PATCH, DELETE
// ============================================================

func (c *Client) doPost(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPost, table, data)
}

// doPatch updates the rows matched by path and returns their new representation.
func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPatch, path, data)
}

// doDelete removes the rows matched by path and returns what was deleted.
func (c *Client) doDelete(ctx context.Context, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "return=representation")
	return c.send(req, http.MethodDelete, path)
}

func (c *Client) doWrite(ctx context.Context, method, path string, data map[string]any) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "return=representation")
	return c.send(req, method, path)
}

// eq builds a PostgREST equality filter.
func eq(column, value string) string {
	return column + "=eq." + url.QueryEscape(value)
}

// guarded runs fn through the guard and maps failures to domain errors.
// Client errors from PostgREST (bad payloads, constraint violations) are
// reported as validation errors and never retried.
func (c *Client) guarded(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		var se *statusError
		if errors.As(err, &se) {
			switch se.Status {
			case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
				return &domain.ErrValidation{Field: op, Message: se.Body}
			}
		}
		return err
	})
	if err == nil {
		return nil
	}

	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var timeout *domain.ErrTimeout
	var open *domain.ErrCircuitOpen
	switch {
	case errors.As(err, &notFound), errors.As(err, &validation),
		errors.As(err, &timeout), errors.As(err, &open),
		errors.Is(err, context.Canceled):
		return err
	}
	return &domain.ErrExternalService{Service: "supabase/" + op, Err: err}
}

// decodeFirst decodes a PostgREST array and returns its first element.
func decodeFirst[T any](body []byte) (*T, bool, error) {
	if len(body) == 0 {
		return nil, false, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return &rows[0], true, nil
}
