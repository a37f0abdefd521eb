package utils

import (
	"context"
	"testing"

	"admin-console/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
)

func TestGetSetContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req1")
	ctx = WithResource(ctx, "page")
	ctx = WithRecordID(ctx, "p1")
	ctx = WithComponent(ctx, "form")
	ctx = WithOperation(ctx, "update")

	requestID, err := GetRequestIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "req1", requestID)

	resource, err := GetResourceFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "page", resource)

	assert.Equal(t, "p1", ctx.Value(contextkeys.RecordIDKey))
	assert.Equal(t, "update", ctx.Value(contextkeys.OperationKey))
}

func TestContextValues_Missing(t *testing.T) {
	ctx := context.Background()

	_, err := GetRequestIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrRequestIDNotFound)
	_, err = GetResourceFromContext(ctx)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	assert.False(t, HasRequestID(ctx))
	assert.Equal(t, "fallback", GetRequestIDOrDefault(ctx, "fallback"))
}

func TestContextValues_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.RequestIDKey, 42)
	_, err := GetRequestIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrRequestIDNotString)
}
