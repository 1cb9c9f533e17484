// Package api implements the catalog backend client. The backend's envelopes
// are only loosely consistent, so responses are probed with gjson rather than
// decoded into rigid structs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"catalogops/domain/catalog"
	"catalogops/internal/config"
	"catalogops/internal/errors"
	"catalogops/ports"
)

// Client talks to the catalog backend over JSON/HTTP with retries.
type Client struct {
	baseURL     string
	http        *retryablehttp.Client
	bulkTimeout time.Duration
}

var _ ports.CatalogAPI = (*Client)(nil)

// NewClient builds a client from the backend configuration.
func NewClient(cfg config.BackendConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.RequestTimeout
	rc.Logger = nil
	return &Client{
		baseURL:     cfg.BaseURL,
		http:        rc,
		bulkTimeout: cfg.BulkTimeout,
	}
}

// PaginatedProducts fetches one page of the collection.
func (c *Client) PaginatedProducts(ctx context.Context, collection catalog.Collection, page, limit int) (*ports.Page, error) {
	url := fmt.Sprintf("%s/api/%s/products/paginated?page=%d&limit=%d", c.baseURL, collection, page, limit)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Products   map[string]map[string]any `json:"products"`
		Pagination ports.Pagination          `json:"pagination"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.BackendError("undecodable paginated products response", err)
	}

	products := make(map[int]map[string]any, len(envelope.Products))
	for key, fields := range envelope.Products {
		rowNum, err := strconv.Atoi(key)
		if err != nil || rowNum <= 0 {
			log.Printf("[CatalogAPI] dropping product with unusable row key %q", key)
			continue
		}
		products[rowNum] = fields
	}
	return &ports.Page{Products: products, Pagination: envelope.Pagination}, nil
}

// Product fetches the full single-product record.
func (c *Client) Product(ctx context.Context, collection catalog.Collection, rowNum int) (map[string]any, error) {
	url := fmt.Sprintf("%s/api/%s/products/%d", c.baseURL, collection, rowNum)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	product := gjson.GetBytes(body, "product")
	if !product.IsObject() {
		return nil, errors.NotFound(fmt.Sprintf("product at row %d", rowNum))
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(product.Raw), &fields); err != nil {
		return nil, errors.BackendError("undecodable product record", err)
	}
	return fields, nil
}

// SaveFields writes edits back to the sheet row. A single edit uses the
// backend's {field, value} form; multiple edits send the full field map.
func (c *Client) SaveFields(ctx context.Context, collection catalog.Collection, rowNum int, fields map[string]string) error {
	if len(fields) == 0 {
		return errors.ValidationError("no fields to save")
	}

	var payload any
	if len(fields) == 1 {
		for key, value := range fields {
			payload = map[string]string{"field": key, "value": value}
		}
	} else {
		payload = fields
	}

	url := fmt.Sprintf("%s/api/%s/products/%d", c.baseURL, collection, rowNum)
	_, err := c.do(ctx, http.MethodPut, url, payload)
	return err
}

// MissingInfo returns the raw missing_info_analysis array for normalization.
func (c *Client) MissingInfo(ctx context.Context, collection catalog.Collection) ([]byte, error) {
	url := fmt.Sprintf("%s/api/%s/products/missing-info", c.baseURL, collection)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	analysis := gjson.GetBytes(body, "missing_info_analysis")
	if !analysis.Exists() {
		return nil, errors.BackendError("missing-info response carries no analysis", nil)
	}
	return []byte(analysis.Raw), nil
}

// ProcessExtract triggers AI attribute extraction for the selected rows.
func (c *Client) ProcessExtract(ctx context.Context, collection catalog.Collection, rows []int) (*ports.BulkOutcome, error) {
	return c.process(ctx, collection, "extract", rows)
}

// ProcessDescriptions triggers AI description generation for the selected rows.
func (c *Client) ProcessDescriptions(ctx context.Context, collection catalog.Collection, rows []int) (*ports.BulkOutcome, error) {
	return c.process(ctx, collection, "descriptions", rows)
}

// ProcessExtractImages triggers image extraction for the selected rows.
func (c *Client) ProcessExtractImages(ctx context.Context, collection catalog.Collection, rows []int) (*ports.BulkOutcome, error) {
	return c.process(ctx, collection, "extract-images", rows)
}

// process runs one bulk backend operation under the bulk timeout. When the
// client-side deadline fires the server keeps working, so the outcome is the
// distinguished still-running status, not a failure.
func (c *Client) process(ctx context.Context, collection catalog.Collection, operation string, rows []int) (*ports.BulkOutcome, error) {
	if len(rows) == 0 {
		return nil, errors.ValidationError("no rows selected")
	}

	ctx, cancel := context.WithTimeout(ctx, c.bulkTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/%s/process/%s", c.baseURL, collection, operation)
	body, err := c.do(ctx, http.MethodPost, url, map[string]any{"selected_rows": rows})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("[CatalogAPI] %s on %s outlived the client timeout, continuing server-side", operation, collection)
			return nil, errors.StillRunning(operation)
		}
		return nil, err
	}
	return decodeBulkOutcome(body, len(rows)), nil
}

// decodeBulkOutcome tolerates the two summary shapes the backend emits.
func decodeBulkOutcome(body []byte, total int) *ports.BulkOutcome {
	parsed := gjson.ParseBytes(body)
	outcome := &ports.BulkOutcome{Detail: parsed.Get("summary.message").String()}

	for _, path := range []string{"successful_count", "summary.successful_count", "summary.successful"} {
		if v := parsed.Get(path); v.Exists() {
			outcome.Succeeded = int(v.Int())
			break
		}
	}
	for _, path := range []string{"failed_count", "summary.failed_count", "summary.failed"} {
		if v := parsed.Get(path); v.Exists() {
			outcome.Failed = int(v.Int())
			break
		}
	}
	for _, path := range []string{"skipped_count", "summary.skipped_count", "summary.skipped"} {
		if v := parsed.Get(path); v.Exists() {
			outcome.Skipped = int(v.Int())
			break
		}
	}

	// A success envelope without counts means the whole batch went through.
	if outcome.Succeeded == 0 && outcome.Failed == 0 && outcome.Skipped == 0 {
		outcome.Succeeded = total
	}
	return outcome
}

// Sync pushes the sheet to the e-commerce platform.
func (c *Client) Sync(ctx context.Context, collection catalog.Collection) error {
	url := fmt.Sprintf("%s/api/%s/sync", c.baseURL, collection)
	body, err := c.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	if status := gjson.GetBytes(body, "status").String(); status != "success" {
		message := gjson.GetBytes(body, "error").String()
		if message == "" {
			message = fmt.Sprintf("sync finished with status %q", status)
		}
		return errors.BackendError(message, nil)
	}
	return nil
}

// do issues one request and enforces the shared envelope rules: non-2xx and
// success=false both surface as backend errors carrying the server's message.
func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request payload")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "building backend request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.BackendError(fmt.Sprintf("%s %s failed", method, url), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.BackendError("reading backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.BackendError(fmt.Sprintf("backend returned %s for %s", resp.Status, url), nil)
	}

	if success := gjson.GetBytes(body, "success"); success.Exists() && !success.Bool() {
		message := gjson.GetBytes(body, "error").String()
		if message == "" {
			message = "backend reported failure without detail"
		}
		return nil, errors.BackendError(message, nil)
	}
	return body, nil
}
