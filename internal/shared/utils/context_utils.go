package utils

import (
	"context"
	"errors"

	"admin-console/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrRequestIDNotFound  = errors.New("requestID not found in context")
	ErrRequestIDNotString = errors.New("requestID in context is not a string")
	ErrResourceNotFound   = errors.New("resource not found in context")
	ErrResourceNotString  = errors.New("resource in context is not a string")
)

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// GetResourceFromContext retrieves the remote collection name from the context.
func GetResourceFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.ResourceKey, ErrResourceNotFound, ErrResourceNotString)
}

func stringValue(ctx context.Context, key interface{}, missing, wrongType error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", missing
	}
	s, ok := val.(string)
	if !ok {
		return "", wrongType
	}
	return s, nil
}

// Context setters

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

func WithResource(ctx context.Context, resource string) context.Context {
	return context.WithValue(ctx, contextkeys.ResourceKey, resource)
}

func WithRecordID(ctx context.Context, recordID string) context.Context {
	return context.WithValue(ctx, contextkeys.RecordIDKey, recordID)
}

func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// GetRequestIDOrDefault returns the request ID or def when absent.
func GetRequestIDOrDefault(ctx context.Context, def string) string {
	if id, err := GetRequestIDFromContext(ctx); err == nil && id != "" {
		return id
	}
	return def
}

// HasRequestID reports whether a request ID is attached to ctx.
func HasRequestID(ctx context.Context) bool {
	_, err := GetRequestIDFromContext(ctx)
	return err == nil
}
