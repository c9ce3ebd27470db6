package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// InitUpload opens a chunked upload session on the backend.
func (c *Client) InitUpload(ctx context.Context, request types.UploadInitRequest) (*types.UploadInitResponse, error) {
	if request.OwnerID == "" || request.Filename == "" {
		return nil, fmt.Errorf("%w: owner and filename must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildInitUploadURL(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload init URL: %v", err)
	}
	var response types.UploadInitResponse
	if err := c.WithUserID(request.OwnerID).doJSON(ctx, http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}
	if response.UploadID == "" {
		return nil, fmt.Errorf("upload init response missing upload_id")
	}
	c.logger.Infof("[Upload] Initialized upload %s for call %s (chunk size %d)", response.UploadID, response.CallID, response.ChunkSize)
	return &response, nil
}

// UploadChunk sends one base64 chunk of an upload.
func (c *Client) UploadChunk(ctx context.Context, uploadID string, request types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
	if uploadID == "" {
		return nil, fmt.Errorf("%w: uploadId must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildChunkURL(c.baseURL, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to build chunk URL: %v", err)
	}
	var response types.ChunkUploadResponse
	if err := c.doJSON(ctx, http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// CompleteUpload finalizes an upload and queues the analysis.
func (c *Client) CompleteUpload(ctx context.Context, uploadID string) (*types.UploadCompleteResponse, error) {
	if uploadID == "" {
		return nil, fmt.Errorf("%w: uploadId must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildCompleteURL(c.baseURL, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to build complete URL: %v", err)
	}
	var response types.UploadCompleteResponse
	if err := c.doJSON(ctx, http.MethodPost, url, nil, &response); err != nil {
		return nil, err
	}
	if response.CallID == "" {
		return nil, fmt.Errorf("upload complete response missing call_id")
	}
	c.logger.Infof("[Upload] Completed upload %s: call %s is %s", uploadID, response.CallID, response.Status)
	return &response, nil
}

// TrainingStatus reports the feedback-driven retraining state of the emotion models.
func (c *Client) TrainingStatus(ctx context.Context) (*types.TrainingStatusResponse, error) {
	url, err := tool.BuildTrainingStatusURL(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build training status URL: %v", err)
	}
	var response types.TrainingStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
