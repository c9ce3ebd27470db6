package transfer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// Enrollment needs between MinTrainingSamples and MaxTrainingSamples recordings.
const (
	MinTrainingSamples = 5
	MaxTrainingSamples = 10
)

func (c *Client) RegisterUser(ctx context.Context, request types.UserRegisterRequest) (*types.UserResponse, error) {
	if strings.TrimSpace(request.Name) == "" || strings.TrimSpace(request.Email) == "" {
		return nil, fmt.Errorf("%w: name and email must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildRegisterURL(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build register URL: %v", err)
	}
	var response types.UserResponse
	if err := c.doJSON(ctx, http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}
	c.logger.Infof("Registered user %s (%s)", response.UserID, response.Email)
	return &response, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*types.UserResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildUserURL(c.baseURL, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to build user URL: %v", err)
	}
	var response types.UserResponse
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// UpdateSettings changes the audio retention period (1 to 365 days).
func (c *Client) UpdateSettings(ctx context.Context, userID string, request types.UserSettingsUpdate) (*types.UserSettingsResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId must not be empty", ErrInvalidParams)
	}
	if request.AudioRetentionDays < 1 || request.AudioRetentionDays > 365 {
		return nil, fmt.Errorf("%w: audio retention must be between 1 and 365 days", ErrInvalidParams)
	}
	url, err := tool.BuildUserURL(c.baseURL, userID, "settings")
	if err != nil {
		return nil, fmt.Errorf("failed to build settings URL: %v", err)
	}
	var response types.UserSettingsResponse
	if err := c.doJSON(ctx, http.MethodPut, url, request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// TrainVoice enrolls the user's voice from 5 to 10 recordings.
func (c *Client) TrainVoice(ctx context.Context, userID string, samples []types.TrainingSample) (*types.VoiceTrainingResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId must not be empty", ErrInvalidParams)
	}
	if len(samples) < MinTrainingSamples || len(samples) > MaxTrainingSamples {
		return nil, fmt.Errorf("%w: voice training needs %d to %d samples, got %d", ErrInvalidParams,
			MinTrainingSamples, MaxTrainingSamples, len(samples))
	}
	url, err := tool.BuildUserURL(c.baseURL, userID, "train-voice")
	if err != nil {
		return nil, fmt.Errorf("failed to build train-voice URL: %v", err)
	}
	var response types.VoiceTrainingResponse
	if err := c.doJSON(ctx, http.MethodPost, url, types.VoiceTrainingRequest{AudioSamples: samples}, &response); err != nil {
		return nil, err
	}
	c.logger.Infof("Voice training finished for %s: %d samples, accuracy %.2f", userID, response.SamplesCount, response.ModelAccuracy)
	return &response, nil
}

// VerifyVoice scores one recording against the enrolled model.
func (c *Client) VerifyVoice(ctx context.Context, userID string, request types.VoiceVerificationRequest) (*types.VoiceVerificationResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId must not be empty", ErrInvalidParams)
	}
	if request.AudioBase64 == "" {
		return nil, fmt.Errorf("%w: audio must not be empty", ErrInvalidParams)
	}
	url, err := tool.BuildUserURL(c.baseURL, userID, "verify-voice")
	if err != nil {
		return nil, fmt.Errorf("failed to build verify-voice URL: %v", err)
	}
	var response types.VoiceVerificationResponse
	if err := c.doJSON(ctx, http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
