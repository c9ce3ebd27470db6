package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// Config describes how to reach the analysis backend and on whose behalf.
type Config struct {
	BaseURL    string
	UserID     string
	HTTPClient *http.Client
	// RequestsPerSecond paces outbound requests; 0 disables pacing.
	RequestsPerSecond int
	Logger            *log.Logger
}

// Client is an explicit API context: base URL plus owner identity. It replaces a shared
// global client with an ambient user header, so concurrent sessions never leak identity.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %d %s", e.StatusCode, describeStatus(e.StatusCode))
	}
	return fmt.Sprintf("request failed: %d %s", e.StatusCode, e.Message)
}

// NewClient builds a client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base URL must not be empty", ErrInvalidParams)
	}
	if _, err := tool.HostOf(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		userID:  cfg.UserID,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
	if c.http == nil {
		c.http = tool.GetHttpClient()
	}
	if c.logger == nil {
		c.logger = tool.DefaultLogger
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond)
	}
	return c, nil
}

// WithUserID returns a copy of the client acting for another owner. The limiter is shared.
func (c *Client) WithUserID(userID string) *Client {
	cp := *c
	cp.userID = userID
	return &cp
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// LiveURL returns the live channel URL for a call id, empty when callID is empty.
func (c *Client) LiveURL(callID string) (string, error) {
	return tool.BuildLiveURL(c.baseURL, callID)
}

// doJSON sends body (if any) as JSON and decodes a 2xx JSON response into out (if any).
func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("request pacing interrupted: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := tool.NewHTTPReqWithApplication(http.NewRequestWithContext(ctx, method, url, reader))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	requestID := tool.GenerateRequestID()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("failed to read response body: %w", readErr)
	}
	c.logger.Debugf("%s %s -> %d (request %s, %d bytes)", method, url, resp.StatusCode, requestID, len(data))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}
	return nil
}

// parseAPIError reads the {error, message, code} envelope, or a FastAPI {detail} body.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if len(body) == 0 {
		return apiErr
	}
	var envelope types.APIErrorBody
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}
	apiErr.Code = envelope.Code
	switch {
	case envelope.Message != "":
		apiErr.Message = envelope.Message
	case envelope.Error != "":
		apiErr.Message = envelope.Error
	default:
		if detail, ok := envelope.Detail.(string); ok {
			apiErr.Message = detail
		}
	}
	return apiErr
}
