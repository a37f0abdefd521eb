package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	apperrors "admin-console/internal/shared/errors"
	"admin-console/internal/shared/logger"

	"github.com/valyala/fasthttp"
)

// ClientConfig tunes the shared fasthttp client.
type ClientConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int
}

// NewHTTPClient builds the fasthttp client shared by every resource client.
func NewHTTPClient(cfg ClientConfig) *fasthttp.Client {
	maxConns := cfg.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = fasthttp.DefaultMaxConnsPerHost
	}
	return &fasthttp.Client{
		Name:            "admin-console",
		MaxConnsPerHost: maxConns,
		ReadTimeout:     cfg.Timeout,
		WriteTimeout:    cfg.Timeout,
	}
}

// Client talks to one REST collection rooted at BaseURL/{resource}.
type Client[T model.Record] struct {
	http     *fasthttp.Client
	base     string
	resource string
	timeout  time.Duration
	log      logger.Logger
}

var (
	_ repository.RemoteCollection[model.User] = (*Client[model.User])(nil)
	_ repository.RemoteCollection[model.Page] = (*Client[model.Page])(nil)
)

// NewClient returns a client for resource. timeout is the fallback deadline
// for contexts that carry none.
func NewClient[T model.Record](httpClient *fasthttp.Client, baseURL, resource string, timeout time.Duration, log logger.Logger) *Client[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client[T]{
		http:     httpClient,
		base:     strings.TrimRight(baseURL, "/"),
		resource: resource,
		timeout:  timeout,
		log:      log.WithComponent("rest_client"),
	}
}

func (c *Client[T]) Resource() string { return c.resource }

// List fetches the whole collection.
func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	var records []T
	if err := c.do(ctx, fasthttp.MethodGet, c.collectionURL(), "", nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Get fetches one record.
func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	var record T
	err := c.do(ctx, fasthttp.MethodGet, c.recordURL(id), id, nil, &record)
	return record, err
}

// Create posts fields as a new record.
func (c *Client[T]) Create(ctx context.Context, fields map[string]string) (T, error) {
	var record T
	err := c.do(ctx, fasthttp.MethodPost, c.collectionURL(), "", fields, &record)
	return record, err
}

// Update patches record id with fields.
func (c *Client[T]) Update(ctx context.Context, id string, fields map[string]string) (T, error) {
	var record T
	err := c.do(ctx, fasthttp.MethodPatch, c.recordURL(id), id, fields, &record)
	return record, err
}

// Delete removes record id.
func (c *Client[T]) Delete(ctx context.Context, id string) error {
	return c.do(ctx, fasthttp.MethodDelete, c.recordURL(id), id, nil, nil)
}

func (c *Client[T]) collectionURL() string {
	return c.base + "/" + c.resource
}

func (c *Client[T]) recordURL(id string) string {
	return c.collectionURL() + "/" + url.PathEscape(id)
}

// do sends one request. id is empty for collection URLs; only a 404 on a
// record URL means the record is missing.
func (c *Client[T]) do(ctx context.Context, method, uri, id string, body interface{}, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewRemoteError(err.Error(), 0).WithCause(err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request body").WithCause(err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	log := c.log.WithContext(ctx).WithFields(map[string]interface{}{"method": method, "uri": uri})
	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Remote request failed")
		return apperrors.NewRemoteError(transportMessage(err), 0).WithCause(err)
	}

	status := resp.StatusCode()
	log.WithFields(map[string]interface{}{"status": status, "elapsed": time.Since(start).String()}).Debug("Remote request completed")

	if status == fasthttp.StatusNotFound && id != "" {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %s", c.resource, id)).
			WithDetail("status", status)
	}
	if status < 200 || status >= 300 {
		return apperrors.NewRemoteError(errorMessage(status, resp.Body()), status)
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperrors.NewRemoteError("invalid response body: "+err.Error(), status).WithCause(err)
	}
	return nil
}

// errorMessage prefers the server's own message or error field and falls back
// to the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("Request failed with status code %d (%s)", status, fasthttp.StatusMessage(status))
}

func transportMessage(err error) string {
	if errors.Is(err, fasthttp.ErrTimeout) {
		return "Request timed out"
	}
	return "Network Error: " + err.Error()
}
