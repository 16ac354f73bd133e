// Package postgrest is a minimal REST client for a hosted Postgres-compatible
// backend exposing table CRUD and stored-procedure invocation in the PostgREST
// dialect. It is the single source of truth for request shaping: filter
// predicates, ordering, pagination, upsert conflict targets and
// return-representation preferences.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Filter is one (column, operator, value) predicate. Supported operators are
// the PostgREST set the repositories use: eq, neq, gte, lte, gt, lt, like,
// ilike, in, is.
type Filter struct {
	Column   string
	Operator string
	Value    string
}

// In builds an in-list filter from raw values.
func In(column string, values []string) Filter {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, `"`+strings.ReplaceAll(v, `"`, ``)+`"`)
	}
	return Filter{Column: column, Operator: "in", Value: "(" + strings.Join(quoted, ",") + ")"}
}

func Eq(column string, value string) Filter {
	return Filter{Column: column, Operator: "eq", Value: value}
}

// Query shapes a select: projection, predicates, ordering and paging.
type Query struct {
	Columns []string
	Filters []Filter
	Order   string // e.g. "created_at.desc"
	Limit   int
	Offset  int
}

// WriteOptions shape mutating requests.
type WriteOptions struct {
	// Returning asks the backend to echo the affected rows back.
	Returning bool
	// ConflictColumns are the upsert conflict target (on_conflict=...).
	ConflictColumns []string
}

// APIError is a non-2xx response with the backend's parsed error message.
// It is an application-level rejection and must never trigger offline
// fallback.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("backend error (%d %s): %s: %s", e.Status, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("backend error (%d %s): %s", e.Status, e.Code, e.Message)
}

// ErrUnreachable tags transport-level failures: connection refused, DNS
// failure, timeout. These are the only errors that route a covered operation
// to the local store.
var ErrUnreachable = errors.New("remote backend unreachable")

// IsUnreachable reports whether err is a network-unreachable condition as
// opposed to an application error.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewWithHTTPClient exists for tests that need to fail transport on demand.
func NewWithHTTPClient(baseURL string, apiKey string, httpClient *http.Client) *Client {
	c := New(baseURL, apiKey)
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

// Select fetches rows from table into dest (a pointer to a slice).
func (c *Client) Select(ctx context.Context, table string, q Query, dest any) error {
	values := url.Values{}
	if len(q.Columns) > 0 {
		values.Set("select", strings.Join(q.Columns, ","))
	}
	for _, f := range q.Filters {
		values.Add(f.Column, f.Operator+"."+f.Value)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}

	body, err := c.do(ctx, http.MethodGet, "/rest/v1/"+table, values, nil, nil)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return json.Unmarshal(body, dest)
}

// defaultPageSize defeats the backend's row cap: aggregate reads must see the
// whole table, not a truncated first page.
const defaultPageSize = 1000

// SelectAll pages through table until a short page is returned, appending
// each page's raw rows to the returned slice.
func (c *Client) SelectAll(ctx context.Context, table string, q Query) ([]json.RawMessage, error) {
	all := make([]json.RawMessage, 0, defaultPageSize)
	page := q
	page.Limit = defaultPageSize
	page.Offset = 0

	for {
		var rows []json.RawMessage
		if err := c.Select(ctx, table, page, &rows); err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < defaultPageSize {
			return all, nil
		}
		page.Offset += defaultPageSize
	}
}

// Insert posts rows (a slice or single object) to table. With opts.Returning
// the inserted rows are decoded into dest.
func (c *Client) Insert(ctx context.Context, table string, rows any, opts WriteOptions, dest any) error {
	headers := writeHeaders(opts, false)
	body, err := c.do(ctx, http.MethodPost, "/rest/v1/"+table, nil, rows, headers)
	if err != nil {
		return err
	}
	if dest == nil || !opts.Returning {
		return nil
	}
	return json.Unmarshal(body, dest)
}

// Upsert inserts-or-merges rows on the conflict columns.
func (c *Client) Upsert(ctx context.Context, table string, rows any, opts WriteOptions, dest any) error {
	values := url.Values{}
	if len(opts.ConflictColumns) > 0 {
		values.Set("on_conflict", strings.Join(opts.ConflictColumns, ","))
	}
	headers := writeHeaders(opts, true)
	body, err := c.do(ctx, http.MethodPost, "/rest/v1/"+table, values, rows, headers)
	if err != nil {
		return err
	}
	if dest == nil || !opts.Returning {
		return nil
	}
	return json.Unmarshal(body, dest)
}

// Update patches the rows matching filters.
func (c *Client) Update(ctx context.Context, table string, patch any, filters []Filter, opts WriteOptions, dest any) error {
	values := url.Values{}
	for _, f := range filters {
		values.Add(f.Column, f.Operator+"."+f.Value)
	}
	headers := writeHeaders(opts, false)
	body, err := c.do(ctx, http.MethodPatch, "/rest/v1/"+table, values, patch, headers)
	if err != nil {
		return err
	}
	if dest == nil || !opts.Returning {
		return nil
	}
	return json.Unmarshal(body, dest)
}

// Delete removes the rows matching filters.
func (c *Client) Delete(ctx context.Context, table string, filters []Filter) error {
	values := url.Values{}
	for _, f := range filters {
		values.Add(f.Column, f.Operator+"."+f.Value)
	}
	_, err := c.do(ctx, http.MethodDelete, "/rest/v1/"+table, values, nil, nil)
	return err
}

// RPC invokes a named server-side procedure. Transactional business rules
// (refund processing, sale-group finalization) live behind RPC so atomicity
// is enforced where concurrent checkouts race.
func (c *Client) RPC(ctx context.Context, procedure string, args any, dest any) error {
	body, err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+procedure, nil, args, nil)
	if err != nil {
		return err
	}
	if dest == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dest)
}

func writeHeaders(opts WriteOptions, merge bool) map[string]string {
	prefer := make([]string, 0, 2)
	if opts.Returning {
		prefer = append(prefer, "return=representation")
	} else {
		prefer = append(prefer, "return=minimal")
	}
	if merge {
		prefer = append(prefer, "resolution=merge-duplicates")
	}
	return map[string]string{"Prefer": strings.Join(prefer, ",")}
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, payload any, headers map[string]string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failure: dial error, DNS, timeout. The request never
		// produced an application-level verdict.
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
			apiErr.Code = parsed.Code
			apiErr.Message = parsed.Message
			apiErr.Details = parsed.Details
		}
		return nil, apiErr
	}

	return body, nil
}
