package storage

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

	"property-media/media"
	"property-media/models"
	"property-media/utils"
)

const (
	restPageSize    = 1000
	storagePageSize = 100
)

// SupabaseClient talks to a Supabase project over HTTP. It serves listing
// rows through the REST API and folder listings through the Storage API, so
// it satisfies both RowStore and media.StorageClient.
type SupabaseClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   *utils.RetryConfig
}

// NewSupabaseClient creates a client for the project at baseURL.
// A nil retry config performs each request once.
func NewSupabaseClient(baseURL, apiKey string, timeout time.Duration, retry *utils.RetryConfig) (*SupabaseClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("supabase: invalid base url %q", baseURL)
	}
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	return &SupabaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retry:   retry,
	}, nil
}

// FindByID fetches the row of table whose id equals id.
func (s *SupabaseClient) FindByID(ctx context.Context, table, id string) (models.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []models.Record
	if err := s.do(ctx, http.MethodGet, s.restURL(table, q), nil, &rows); err != nil {
		return nil, fmt.Errorf("supabase: find %s/%s: %w", table, id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// FetchAll pages through every row of table.
func (s *SupabaseClient) FetchAll(ctx context.Context, table string) ([]models.Record, error) {
	var all []models.Record
	for offset := 0; ; offset += restPageSize {
		q := url.Values{}
		q.Set("select", "*")
		q.Set("limit", strconv.Itoa(restPageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page []models.Record
		if err := s.do(ctx, http.MethodGet, s.restURL(table, q), nil, &page); err != nil {
			return nil, fmt.Errorf("supabase: fetch all %s: %w", table, err)
		}
		all = append(all, page...)
		if len(page) < restPageSize {
			return all, nil
		}
	}
}

type listRequest struct {
	Prefix string       `json:"prefix"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	SortBy media.SortBy `json:"sortBy"`
}

// ListObjects lists the direct entries of folder in bucket.
func (s *SupabaseClient) ListObjects(ctx context.Context, bucket, folder string, opts media.ListOptions) ([]media.StorageObject, error) {
	endpoint := s.baseURL + "/storage/v1/object/list/" + url.PathEscape(bucket)

	var all []media.StorageObject
	for offset := 0; ; offset += storagePageSize {
		var page []media.StorageObject
		req := listRequest{Prefix: folder, Limit: storagePageSize, Offset: offset, SortBy: opts.SortBy}
		if err := s.do(ctx, http.MethodPost, endpoint, req, &page); err != nil {
			return nil, fmt.Errorf("supabase: list %s/%s: %w", bucket, folder, err)
		}
		all = append(all, page...)
		if len(page) < storagePageSize {
			return all, nil
		}
	}
}

// PublicURL returns the public URL of the object at path in bucket.
func (s *SupabaseClient) PublicURL(bucket, path string) (string, error) {
	if bucket == "" || strings.Trim(path, "/") == "" {
		return "", fmt.Errorf("supabase: public url needs a bucket and a path (got %q, %q)", bucket, path)
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + media.DefaultMarker + url.PathEscape(bucket) + "/" + strings.Join(segments, "/"), nil
}

// Close releases idle connections.
func (s *SupabaseClient) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

func (s *SupabaseClient) restURL(table string, q url.Values) string {
	return s.baseURL + "/rest/v1/" + url.PathEscape(table) + "?" + q.Encode()
}

// do sends one JSON request, retrying transport failures and 5xx responses.
func (s *SupabaseClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	return s.retry.Do(ctx, method+" "+endpoint, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return utils.Permanent(err)
		}
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return utils.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
			if resp.StatusCode >= 500 {
				return statusErr
			}
			return utils.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return utils.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
