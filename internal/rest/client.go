package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dialdesk/internal/domain"
)

// Client talks to the call backend's REST boundary.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
}

func (c *Client) Initiate(ctx context.Context, req domain.CallRequest) (domain.InitiatedCall, error) {
	body := initiateRequest{
		PhoneNumber: req.PhoneNumber,
		CallerID:    req.CallerID,
		AIPersona:   req.AIPersona,
	}

	var resp initiateResponse
	if err := c.do(ctx, http.MethodPost, "/calls/initiate", body, &resp); err != nil {
		return domain.InitiatedCall{}, fmt.Errorf("initiate call: %w", err)
	}

	return domain.InitiatedCall{
		CallID:       resp.CallID,
		Status:       domain.CallStatus(resp.Status),
		PhoneNumber:  resp.PhoneNumber,
		CreatedAt:    resp.CreatedAt.Time,
		WebsocketURL: resp.WebsocketURL,
	}, nil
}

func (c *Client) Call(ctx context.Context, callID string) (domain.Call, error) {
	var resp callResponse
	if err := c.do(ctx, http.MethodGet, "/calls/"+url.PathEscape(callID), nil, &resp); err != nil {
		return domain.Call{}, fmt.Errorf("fetch call %s: %w", callID, err)
	}
	return resp.toDomain(), nil
}

func (c *Client) List(ctx context.Context, page int, pageSize int, status domain.CallStatus) (domain.HistoryPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	if status != "" {
		query.Set("status", string(status))
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/calls?"+query.Encode(), nil, &resp); err != nil {
		return domain.HistoryPage{}, fmt.Errorf("list calls: %w", err)
	}

	items := make([]domain.Call, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, item.toDomain())
	}
	return domain.HistoryPage{
		Items:    items,
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
		Pages:    resp.Pages,
	}, nil
}

func (c *Client) End(ctx context.Context, callID string) error {
	if err := c.do(ctx, http.MethodDelete, "/calls/"+url.PathEscape(callID), nil, nil); err != nil {
		return fmt.Errorf("end call %s: %w", callID, err)
	}
	return nil
}

func (c *Client) Transcripts(ctx context.Context, callID string) ([]domain.TranscriptEntry, error) {
	var resp transcriptListResponse
	if err := c.do(ctx, http.MethodGet, "/transcripts/"+url.PathEscape(callID), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch transcripts %s: %w", callID, err)
	}

	entries := make([]domain.TranscriptEntry, 0, len(resp.Transcripts))
	for _, item := range resp.Transcripts {
		entries = append(entries, item.toDomain())
	}
	return entries, nil
}

// RecordingURL returns the playback URL for a call's recording. The URL is
// opaque to the rest of the client.
func (c *Client) RecordingURL(callID string) string {
	return c.baseURL + "/recordings/" + url.PathEscape(callID)
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if c.log != nil {
		c.log.Debug("backend request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(started)),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(payload, &parsed) == nil && parsed.Detail != "" {
		apiErr.Detail = parsed.Detail
	}
	return apiErr
}
