package service

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := NewTokenService("s3cret", time.Hour)

	token, expires, err := svc.Issue("cli")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.Subject)
	assert.Equal(t, "access", claims.Type)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("s3cret", time.Hour)
	token, _, err := svc.Issue("cli")
	require.NoError(t, err)

	var unauthorized *domain.ErrUnauthorized

	_, err = NewTokenService("other", time.Hour).Validate(token)
	assert.True(t, errors.As(err, &unauthorized))

	_, err = svc.Validate("not-a-jwt")
	assert.True(t, errors.As(err, &unauthorized))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Validate(token)
	require.True(t, errors.As(err, &unauthorized))
	assert.Equal(t, "token expired", unauthorized.Message)
}

func TestTokenService_IssueWithoutSecret(t *testing.T) {
	_, _, err := NewTokenService("", 0).Issue("cli")
	var validation *domain.ErrValidation
	assert.True(t, errors.As(err, &validation))
}
