package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// ListCalls returns one page of the owner's calls. limit <= 0 uses the server default.
func (c *Client) ListCalls(ctx context.Context, limit int, cursor string) (*types.CallListResponse, error) {
	url, err := tool.BuildCallsURL(c.baseURL, limit, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to build calls URL: %v", err)
	}
	var response types.CallListResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetCall fetches the analysed call with its segments, alerts and summary.
func (c *Client) GetCall(ctx context.Context, callID string) (*types.CallDetails, error) {
	if callID == "" {
		return nil, fmt.Errorf("%w: callId must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildCallURL(c.baseURL, callID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to build call URL: %v", err)
	}
	var response types.CallDetails
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) GetCallSegments(ctx context.Context, callID string) ([]types.SegmentResponse, error) {
	if callID == "" {
		return nil, fmt.Errorf("%w: callId must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildCallURL(c.baseURL, callID, "segments")
	if err != nil {
		return nil, fmt.Errorf("failed to build segments URL: %v", err)
	}
	var response []types.SegmentResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// SubmitFeedback sends corrected emotion scores for one segment.
func (c *Client) SubmitFeedback(ctx context.Context, callID string, request types.FeedbackRequest) (*types.FeedbackResponse, error) {
	if callID == "" {
		return nil, fmt.Errorf("%w: callId must not be empty", ErrInvalidParams)
	}
	if request.CorrectedEnthusiasm == nil && request.CorrectedAgreement == nil && request.CorrectedStress == nil {
		return nil, fmt.Errorf("%w: at least one corrected score is required", ErrInvalidParams)
	}
	for _, v := range []*float64{request.CorrectedEnthusiasm, request.CorrectedAgreement, request.CorrectedStress} {
		if v != nil && (*v < 0 || *v > 1) {
			return nil, fmt.Errorf("%w: corrected scores must be within [0, 1]", ErrInvalidParams)
		}
	}
	url, err := tool.BuildCallURL(c.baseURL, callID, "feedback")
	if err != nil {
		return nil, fmt.Errorf("failed to build feedback URL: %v", err)
	}
	var response types.FeedbackResponse
	if err := c.doJSON(ctx, http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// DeleteCall removes a call and its stored audio.
func (c *Client) DeleteCall(ctx context.Context, callID string) error {
	if callID == "" {
		return fmt.Errorf("%w: callId must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildCallURL(c.baseURL, callID, "")
	if err != nil {
		return fmt.Errorf("failed to build call URL: %v", err)
	}
	if err := c.doJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return err
	}
	c.logger.Infof("Deleted call %s", callID)
	return nil
}
