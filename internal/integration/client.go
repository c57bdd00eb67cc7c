// Package integration implements the HTTP gateway to the external system of
// record. The client is stateless: it submits new requests and polls status,
// one outbound call per invocation, with no retry or backoff of its own.
// Every call honors the caller's context, so cancellation aborts the
// in-flight transport operation promptly.
//
// Failures carry a result.Kind so callers can branch without parsing
// message text:
//   - non-2xx responses -> KindExternal (KindNotFound for 404), message
//     "External API returned <status>: <body>"
//   - transport errors  -> KindNetwork, message "Network error: ..."
//   - unparseable 2xx   -> KindExternal, "Failed to parse response from
//     external API"
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-integration-backend/internal/config"
	"github.com/tbourn/go-integration-backend/internal/result"
)

// maxErrorBody caps how much of a non-2xx response body is read into the
// failure message.
const maxErrorBody = 64 << 10

// AddResult is the external system's answer to a submission.
type AddResult struct {
	ExternalRequestID string    `json:"externalRequestId"`
	Status            string    `json:"status"`
	SubmittedAt       time.Time `json:"submittedAt"`
}

// InquiryResult is the external system's view of a request. AdditionalInfo
// is always non-nil; an absent field decodes to an empty map.
type InquiryResult struct {
	RequestID         string         `json:"requestId"`
	ExternalRequestID string         `json:"externalRequestId"`
	Status            string         `json:"status"`
	SubmittedAt       time.Time      `json:"submittedAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	ResponseData      string         `json:"responseData,omitempty"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	AdditionalInfo    map[string]any `json:"additionalInfo"`
}

// addPayload is the wire format of the submission call.
type addPayload struct {
	RequestID   string            `json:"requestId"`
	RequestType string            `json:"requestType"`
	Data        string            `json:"data"`
	Metadata    map[string]string `json:"metadata"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Client talks to the external integration endpoint. It holds no request
// state and is safe for concurrent use; the underlying http.Client pools
// connections.
type Client struct {
	http        *http.Client
	baseURL     string
	addPath     string
	inquiryPath string
	apiKey      string
}

// NewClient builds a Client from integration settings. The per-call timeout
// is enforced by the underlying http.Client in addition to any deadline on
// the caller's context.
func NewClient(cfg config.IntegrationConfig) *Client {
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		addPath:     cfg.AddRequestPath,
		inquiryPath: cfg.InquiryPath,
		apiKey:      cfg.APIKey,
	}
}

// AddRequest submits a new request to the external add endpoint. On success
// the returned value carries the identifier the external system assigned.
func (c *Client) AddRequest(ctx context.Context, requestID, requestType, requestData string, metadata map[string]string) result.Result[AddResult] {
	log.Info().Str("request_id", requestID).Msg("submitting request to external integration")

	body, err := json.Marshal(addPayload{
		RequestID:   requestID,
		RequestType: requestType,
		Data:        requestData,
		Metadata:    metadata,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return result.Failuref[AddResult](result.KindInternal, "Internal error: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.addPath, bytes.NewReader(body))
	if err != nil {
		return result.Failuref[AddResult](result.KindInternal, "Internal error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("http error while submitting request")
		return result.Failuref[AddResult](result.KindNetwork, "Network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse[AddResult](resp)
	}

	var out AddResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return result.Failure[AddResult](result.KindExternal, "Failed to parse response from external API")
	}

	log.Info().
		Str("request_id", requestID).
		Str("external_request_id", out.ExternalRequestID).
		Msg("request accepted by external integration")
	return result.Success(out)
}

// InquireRequest queries the external inquiry endpoint for the status of a
// request identified by lookupID (internal or external identifier).
func (c *Client) InquireRequest(ctx context.Context, lookupID string) result.Result[InquiryResult] {
	log.Info().Str("lookup_id", lookupID).Msg("inquiring request status")

	u := c.baseURL + c.inquiryPath + "?requestId=" + url.QueryEscape(lookupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return result.Failuref[InquiryResult](result.KindInternal, "Internal error: %v", err)
	}
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("lookup_id", lookupID).Msg("http error while inquiring request")
		return result.Failuref[InquiryResult](result.KindNetwork, "Network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse[InquiryResult](resp)
	}

	var out InquiryResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return result.Failure[InquiryResult](result.KindExternal, "Failed to parse response from external API")
	}
	if out.AdditionalInfo == nil {
		out.AdditionalInfo = map[string]any{}
	}

	log.Info().
		Str("lookup_id", lookupID).
		Str("status", out.Status).
		Msg("retrieved inquiry data")
	return result.Success(out)
}

// setAuth attaches the API key header when one is configured.
func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// errorFromResponse converts a non-2xx response into a kind-tagged failure
// carrying the status code and (bounded) body text.
func errorFromResponse[T any](resp *http.Response) result.Result[T] {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	kind := result.KindExternal
	if resp.StatusCode == http.StatusNotFound {
		kind = result.KindNotFound
	}
	log.Error().
		Int("status", resp.StatusCode).
		Str("body", string(b)).
		Msg("external integration returned an error")
	return result.Failuref[T](kind, "External API returned %d: %s", resp.StatusCode, string(b))
}
