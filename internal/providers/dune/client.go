package dune

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/pkp-indexer/internal/adapter"
	"github.com/feral-file/pkp-indexer/internal/logger"
)

const (
	// PROVIDER_NAME tags the log entries of the client
	PROVIDER_NAME = "dune"

	// API_KEY_HEADER carries the Dune API key on every request
	API_KEY_HEADER = "X-DUNE-API-KEY"

	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
)

var (
	ErrNoAPIKey = errors.New("no API key provided")

	// ErrTableExists is returned by CreateTable when the table is already there
	ErrTableExists = errors.New("table already exists")
)

// Column describes a column of a Dune uploaded table
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
}

// CreateTableRequest is the body of POST /v1/table/create
type CreateTableRequest struct {
	Namespace   string   `json:"namespace"`
	TableName   string   `json:"table_name"`
	Description string   `json:"description,omitempty"`
	Schema      []Column `json:"schema"`
	IsPrivate   bool     `json:"is_private"`
}

// InsertResponse is returned by POST /v1/table/{namespace}/{table}/insert
type InsertResponse struct {
	RowsWritten  int64 `json:"rows_written"`
	BytesWritten int64 `json:"bytes_written"`
}

// ExecuteResponse is returned by POST /v1/query/{id}/execute
type ExecuteResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

// Client defines the interface for Dune Analytics client operations to enable mocking
//
//go:generate mockgen -source=client.go -destination=../../mocks/dune_client.go -package=mocks -mock_names=Client=MockDuneClient
type Client interface {
	// QueryResultsCSV returns the latest results of a query as CSV (header line included)
	QueryResultsCSV(ctx context.Context, queryID string) ([]byte, error)

	// ExecuteQuery triggers a new execution of a query so its results pick up table changes
	ExecuteQuery(ctx context.Context, queryID string) (*ExecuteResponse, error)

	// InsertNDJSON appends newline-delimited JSON rows to a table
	InsertNDJSON(ctx context.Context, namespace, table string, data []byte) (*InsertResponse, error)

	// CreateTable creates an empty table; ErrTableExists when it is already there
	CreateTable(ctx context.Context, req CreateTableRequest) error
}

// DuneClient implements the Dune Analytics REST client
type DuneClient struct {
	httpClient adapter.HTTPClient
	limiter    *rate.Limiter
	apiURL     string
	apiKey     string
	json       adapter.JSON
}

// NewClient creates a new Dune client. limiter may be nil for unlimited requests.
func NewClient(httpClient adapter.HTTPClient, limiter *rate.Limiter, apiURL string, apiKey string, json adapter.JSON) Client {
	return &DuneClient{
		httpClient: httpClient,
		limiter:    limiter,
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		json:       json,
	}
}

// QueryResultsCSV returns the latest results of a query as CSV
func (c *DuneClient) QueryResultsCSV(ctx context.Context, queryID string) ([]byte, error) {
	respBody, err := c.get(ctx, fmt.Sprintf("/v1/query/%s/results/csv", url.PathEscape(queryID)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results csv of query %s: %w", queryID, err)
	}
	return respBody, nil
}

// ExecuteQuery triggers a new execution of a query
func (c *DuneClient) ExecuteQuery(ctx context.Context, queryID string) (*ExecuteResponse, error) {
	respBody, err := c.post(ctx, fmt.Sprintf("/v1/query/%s/execute", url.PathEscape(queryID)), "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query %s: %w", queryID, err)
	}

	var response ExecuteResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Dune execution: %w", err)
	}

	logger.DebugCtx(ctx, "Dune query execution triggered",
		zap.String("provider", PROVIDER_NAME),
		zap.String("queryID", queryID),
		zap.String("executionID", response.ExecutionID),
		zap.String("state", response.State))

	return &response, nil
}

// InsertNDJSON appends rows to a table
func (c *DuneClient) InsertNDJSON(ctx context.Context, namespace, table string, data []byte) (*InsertResponse, error) {
	path := fmt.Sprintf("/v1/table/%s/%s/insert", url.PathEscape(namespace), url.PathEscape(table))
	respBody, err := c.post(ctx, path, ContentTypeNDJSON, data)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s.%s: %w", namespace, table, err)
	}

	var response InsertResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Dune insert response: %w", err)
	}

	logger.DebugCtx(ctx, "Dune rows inserted",
		zap.String("provider", PROVIDER_NAME),
		zap.String("table", namespace+"."+table),
		zap.Int64("rows", response.RowsWritten))

	return &response, nil
}

// CreateTable creates an empty table
func (c *DuneClient) CreateTable(ctx context.Context, req CreateTableRequest) error {
	body, err := c.json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal create table request: %w", err)
	}

	if _, err := c.post(ctx, "/v1/table/create", ContentTypeJSON, body); err != nil {
		if isTableExists(err) {
			return ErrTableExists
		}
		return fmt.Errorf("failed to create table %s.%s: %w", req.Namespace, req.TableName, err)
	}

	return nil
}

func (c *DuneClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.GetBytes(ctx, c.apiURL+path, c.headers(""))
}

func (c *DuneClient) post(ctx context.Context, path string, contentType string, body []byte) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.PostBytes(ctx, c.apiURL+path, c.headers(contentType), body)
}

// wait blocks until the rate limiter allows the next request
func (c *DuneClient) wait(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (c *DuneClient) headers(contentType string) map[string]string {
	headers := map[string]string{
		API_KEY_HEADER: c.apiKey,
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	return headers
}

// isTableExists reports whether a create table failure means the table is already there
func isTableExists(err error) bool {
	var statusErr *adapter.HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	if statusErr.StatusCode == http.StatusConflict {
		return true
	}
	return statusErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(statusErr.Body), "already exist")
}
