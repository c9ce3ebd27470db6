package models

import (
	"context"
	"errors"
	"sync"

	"github.com/moyoez/nanalyzer-go/api/notifyhub"
	"github.com/moyoez/nanalyzer-go/share"
	"github.com/moyoez/nanalyzer-go/types"
	"github.com/moyoez/nanalyzer-go/uploader"
)

// Backend is the part of the analysis backend client the agent API uses.
// *transfer.Client implements it.
type Backend interface {
	uploader.Transport
	TrainingStatus(ctx context.Context) (*types.TrainingStatusResponse, error)
	TrainVoice(ctx context.Context, userID string, samples []types.TrainingSample) (*types.VoiceTrainingResponse, error)
	VerifyVoice(ctx context.Context, userID string, request types.VoiceVerificationRequest) (*types.VoiceVerificationResponse, error)
	ListCalls(ctx context.Context, limit int, cursor string) (*types.CallListResponse, error)
	GetCall(ctx context.Context, callID string) (*types.CallDetails, error)
	GetCallSegments(ctx context.Context, callID string) ([]types.SegmentResponse, error)
	SubmitFeedback(ctx context.Context, callID string, request types.FeedbackRequest) (*types.FeedbackResponse, error)
	DeleteCall(ctx context.Context, callID string) error
	RegisterUser(ctx context.Context, request types.UserRegisterRequest) (*types.UserResponse, error)
	GetUser(ctx context.Context, userID string) (*types.UserResponse, error)
	UpdateSettings(ctx context.Context, userID string, request types.UserSettingsUpdate) (*types.UserSettingsResponse, error)
	LiveURL(callID string) (string, error)
	UserID() string
	BaseURL() string
}

var (
	agentMu   sync.RWMutex
	backend   Backend
	uploads   *uploader.Controller
	tracker   *share.Tracker
	notifyHub *notifyhub.Hub
)

func SetBackend(b Backend) {
	agentMu.Lock()
	defer agentMu.Unlock()
	backend = b
}

func GetBackend() Backend {
	agentMu.RLock()
	defer agentMu.RUnlock()
	return backend
}

// CurrentUserID is the owner of the current backend, or empty without one.
func CurrentUserID() string {
	b := GetBackend()
	if b == nil {
		return ""
	}
	return b.UserID()
}

// ErrNoBackend is returned by BackendTransport when no backend is configured.
var ErrNoBackend = errors.New("analysis backend is not configured")

// BackendTransport sends uploads through whatever backend is current at call time, so a
// controller built at startup follows a later SetBackend.
type BackendTransport struct{}

func (BackendTransport) InitUpload(ctx context.Context, request types.UploadInitRequest) (*types.UploadInitResponse, error) {
	b := GetBackend()
	if b == nil {
		return nil, ErrNoBackend
	}
	return b.InitUpload(ctx, request)
}

func (BackendTransport) UploadChunk(ctx context.Context, uploadID string, request types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
	b := GetBackend()
	if b == nil {
		return nil, ErrNoBackend
	}
	return b.UploadChunk(ctx, uploadID, request)
}

func (BackendTransport) CompleteUpload(ctx context.Context, uploadID string) (*types.UploadCompleteResponse, error) {
	b := GetBackend()
	if b == nil {
		return nil, ErrNoBackend
	}
	return b.CompleteUpload(ctx, uploadID)
}

// SetUploadController sets the single upload controller shared by all requests.
func SetUploadController(c *uploader.Controller) {
	agentMu.Lock()
	defer agentMu.Unlock()
	uploads = c
}

func GetUploadController() *uploader.Controller {
	agentMu.RLock()
	defer agentMu.RUnlock()
	return uploads
}

func SetTracker(t *share.Tracker) {
	agentMu.Lock()
	defer agentMu.Unlock()
	tracker = t
}

// GetTracker returns the call tracker, creating one with the default TTL on first use.
func GetTracker() *share.Tracker {
	agentMu.Lock()
	defer agentMu.Unlock()
	if tracker == nil {
		tracker = share.NewTracker(share.DefaultTTL)
	}
	return tracker
}

// SetNotifyHub sets the hub served on /notify-ws. nil disables the endpoint.
func SetNotifyHub(h *notifyhub.Hub) {
	agentMu.Lock()
	defer agentMu.Unlock()
	notifyHub = h
}

func GetNotifyHub() *notifyhub.Hub {
	agentMu.RLock()
	defer agentMu.RUnlock()
	return notifyHub
}
