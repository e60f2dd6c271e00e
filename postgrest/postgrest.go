// Package postgrest serves list queries from a PostgREST endpoint, the REST
// dialect exposed by hosted Postgres services such as Supabase.
package postgrest

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"go.uber.org/zap"
)

const (
	backendName    = "postgrest"
	restPath       = "/rest/v1/"
	defaultTimeout = 10 * time.Second
)

type Config struct {
	URL     string
	APIKey  string
	Schema  string
	Timeout time.Duration
}

// APIError is the error body PostgREST answers with on a rejected request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {

	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}

	if e.Code == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("status %d: %s (%s)", e.Status, e.Message, e.Code)
}

type Backend struct {
	cfg    Config
	base   *url.URL
	client *http.Client
}

type Option func(*Backend)

// WithHTTPClient replaces the default logging client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Backend) {
		b.client = client
	}
}

func NewBackend(cfg Config, logger *zap.Logger, opts ...Option) (*Backend, error) {

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse postgrest url: %w", err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("postgrest url %q must be absolute", cfg.URL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backend{
		cfg:  cfg,
		base: base,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &loggingRoundTripper{inner: http.DefaultTransport, logger: logger},
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

func (b *Backend) Query(ctx context.Context, req collection.Request) (collection.Page, error) {

	query, err := QueryValues(req)
	if err != nil {
		return collection.Page{}, err
	}

	httpReq, err := b.newRequest(ctx, http.MethodGet, req.Collection, query)
	if err != nil {
		return collection.Page{}, err
	}

	httpReq.Header.Set("Range-Unit", "items")
	httpReq.Header.Set("Range", fmt.Sprintf("%d-%d", max(req.From, 0), max(req.To, req.From)))
	httpReq.Header.Set("Prefer", "count=exact")
	if b.cfg.Schema != "" {
		httpReq.Header.Set("Accept-Profile", b.cfg.Schema)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return collection.Page{}, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		total, err := ParseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return collection.Page{}, errors.BackendQueryError.Wrap(err, req.Collection)
		}

		return collection.Page{Rows: []collection.Record{}, Count: total}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return collection.Page{}, errors.BackendQueryError.Wrap(readAPIError(resp), req.Collection)
	}

	rows := []collection.Record{}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return collection.Page{}, classify(ctx, fmt.Errorf("decode %s rows: %w", req.Collection, err))
	}

	total, err := ParseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return collection.Page{}, errors.BackendQueryError.Wrap(err, req.Collection)
	}

	return collection.Page{Rows: rows, Count: total}, nil
}

func (b *Backend) Delete(ctx context.Context, collectionName, id string) error {

	query := url.Values{}
	query.Set(collection.IDField, "eq."+id)

	httpReq, err := b.newRequest(ctx, http.MethodDelete, collectionName, query)
	if err != nil {
		return err
	}

	httpReq.Header.Set("Prefer", "return=representation")
	if b.cfg.Schema != "" {
		httpReq.Header.Set("Content-Profile", b.cfg.Schema)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.BackendQueryError.Wrap(readAPIError(resp), collectionName)
	}

	var deleted []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil && !goerrors.Is(err, io.EOF) {
		return classify(ctx, fmt.Errorf("decode deleted %s rows: %w", collectionName, err))
	}

	if len(deleted) == 0 {
		return errors.ObjectIDNotFoundError.New(id)
	}

	return nil
}

func (b *Backend) newRequest(ctx context.Context, method, table string, query url.Values) (*http.Request, error) {

	target := *b.base
	target.Path = strings.TrimRight(target.Path, "/") + restPath + url.PathEscape(table)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("apikey", b.cfg.APIKey)
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	return req, nil
}

// QueryValues renders the select, filter and order parameters of a request.
func QueryValues(req collection.Request) (url.Values, error) {

	query := url.Values{}
	query.Set("select", Select(req.Projection))
	query.Set("order", collection.CreatedAtField+".desc,"+collection.IDField+".desc")

	if !req.Filtered() {
		return query, nil
	}

	// ilike turns every * into %, so the term is matched as a quoted regex.
	term := regexp.QuoteMeta(req.SearchTerm)

	switch req.MatchType {
	case collection.EqualMatchType:
		query.Set(req.SearchField, "eq."+req.SearchTerm)
	case collection.PartialMatchType:
		query.Set(req.SearchField, "imatch."+term)
	case collection.StartWithMatchType:
		query.Set(req.SearchField, "imatch.^"+term)
	case collection.EndWithMatchType:
		query.Set(req.SearchField, "imatch."+term+"$")
	default:
		return nil, errors.MatchTypeInvalidError.New(req.MatchType)
	}

	return query, nil
}

// Select renders a projection in PostgREST embedding syntax. Relations carry
// their local key as a foreign key hint.
func Select(p collection.Projection) string {

	var items []string
	if p.All {
		items = append(items, "*")
	}

	items = append(items, p.Fields...)

	for _, rel := range p.Relations {

		fields := "*"
		if !rel.AllFields() {
			fields = strings.Join(rel.Fields, ",")
		}

		items = append(items, fmt.Sprintf("%s:%s!%s(%s)", rel.Alias, rel.Collection, rel.LocalKey, fields))
	}

	return strings.Join(items, ",")
}

// ParseContentRange reads the total out of a header such as "0-4/12" or "*/0".
func ParseContentRange(header string) (int, error) {

	_, total, ok := strings.Cut(strings.TrimSpace(header), "/")
	if !ok || total == "" || total == "*" {
		return 0, fmt.Errorf("content range %q carries no exact count", header)
	}

	count, err := strconv.Atoi(total)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("content range %q has a bad count", header)
	}

	return count, nil
}

func readAPIError(resp *http.Response) error {

	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

func classify(ctx context.Context, err error) error {

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return errors.TransportError.Wrap(err, backendName)
}
