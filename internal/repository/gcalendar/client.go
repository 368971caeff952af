package gcalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the Google Calendar v3 REST endpoint
	DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

	httpTimeout = 30 * time.Second
)

// Client is the generic Google Calendar client for making authenticated calls to the REST API
type Client struct {
	client *resty.Client
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(httpTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{client: client}
}

// Do sends a request authenticated with accessToken, decoding a 2xx body into result
func (c *Client) Do(ctx context.Context, method, path, accessToken string, pathParams map[string]string, body, result any) error {
	var apiErr errorResponse

	req := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetPathParams(pathParams).
		SetResult(result).
		SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return NetworkError{Err: err}
		}
		return fmt.Errorf("calendar request failed: %w", err)
	}

	if resp.IsError() {
		e := &APIError{
			StatusCode: resp.StatusCode(),
			Status:     apiErr.Error.Status,
			Message:    apiErr.Error.Message,
		}
		log.Warn("Calendar API returned an error", "status", e.StatusCode, "reason", e.Status)
		if e.StatusCode == http.StatusUnauthorized {
			return &domain.AuthError{Kind: domain.AuthDenied, Msg: "calendar API rejected the access token", Err: e}
		}
		return e
	}

	return nil
}

type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx answer from the Calendar API
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("calendar API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("calendar API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// errorResponse is Google's JSON error envelope
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
