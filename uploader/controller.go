package uploader

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/moyoez/nanalyzer-go/metrics"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// DefaultChunkSize is used when the backend does not dictate one.
const DefaultChunkSize int64 = 1 << 20

// maxPendingProgress caps progress until the complete step has resolved.
const maxPendingProgress = 99.0

// Transport is the backend side of the init -> chunk x N -> complete protocol.
type Transport interface {
	InitUpload(ctx context.Context, request types.UploadInitRequest) (*types.UploadInitResponse, error)
	UploadChunk(ctx context.Context, uploadID string, request types.ChunkUploadRequest) (*types.ChunkUploadResponse, error)
	CompleteUpload(ctx context.Context, uploadID string) (*types.UploadCompleteResponse, error)
}

// Phase is the coarse lifecycle position of the controller.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseCompleted Phase = "completed"
	PhaseCancelled Phase = "cancelled"
	PhaseFailed    Phase = "failed"
)

// State is a snapshot of the current upload session.
type State struct {
	Phase               Phase         `json:"phase"`
	UploadID            string        `json:"uploadId,omitempty"`
	TargetID            string        `json:"targetId,omitempty"`
	Filename            string        `json:"filename,omitempty"`
	TotalBytes          int64         `json:"totalBytes"`
	ChunkSize           int64         `json:"chunkSize"`
	ChunksSent          int           `json:"chunksSent"`
	TotalChunks         int           `json:"totalChunks"`
	Progress            float64       `json:"progress"`
	Uploading           bool          `json:"uploading"`
	Cancelled           bool          `json:"cancelled"`
	Err                 error         `json:"-"`
	ErrorMessage        string        `json:"error,omitempty"`
	Status              string        `json:"status,omitempty"`
	EstimatedCompletion time.Duration `json:"estimatedCompletion,omitempty"`
	// Seq increases with every change, so observers can drop snapshots that arrive late.
	Seq                 uint64        `json:"seq"`
}

type session struct {
	id        string
	owner     string
	startedAt time.Time
	cancelled atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithChunkSize sets the fallback chunk size used when init does not return one.
func WithChunkSize(size int64) Option {
	return func(c *Controller) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers fn to receive a snapshot after every state change. fn is called
// without the controller lock held and must not block.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithOwner supplies the owner used when Upload or Start is given an empty one. fn runs
// under the controller lock, so the owner cannot change between the busy check and init.
func WithOwner(fn func() string) Option {
	return func(c *Controller) {
		c.ownerOf = fn
	}
}

// Controller drives one chunked upload at a time against a Transport.
type Controller struct {
	transport Transport
	chunkSize int64
	logger    *log.Logger
	observer  func(State)
	ownerOf   func() string

	mu      sync.Mutex
	state   State
	session *session
	seq     uint64
}

func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		chunkSize: DefaultChunkSize,
		logger:    tool.DefaultLogger,
		state:     State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WhileIdle runs fn with the controller locked and no upload active, or returns ErrBusy.
// Nothing can start while fn runs; fn must not call back into the controller.
func (c *Controller) WhileIdle(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return ErrBusy
	}
	fn()
	return nil
}

// Upload sends src to the backend on behalf of owner and returns the call id produced by
// the complete step. It blocks until the upload reaches a terminal outcome:
// ErrCancelled after Cancel (or ctx cancellation), a *TransportError on a failed step,
// ErrBusy when another upload is active, a *ValidationError on bad input.
func (c *Controller) Upload(ctx context.Context, src Source, owner string) (string, error) {
	s, err := c.start(src, owner)
	if err != nil {
		return "", err
	}
	return c.execute(ctx, s, src)
}

// Start is Upload in the background. Input and busy errors are returned before anything is
// sent; the outcome of the upload itself goes to done, which may be nil.
func (c *Controller) Start(ctx context.Context, src Source, owner string, done func(targetID string, err error)) error {
	s, err := c.start(src, owner)
	if err != nil {
		return err
	}
	go func() {
		targetID, err := c.execute(ctx, s, src)
		if done != nil {
			done(targetID, err)
		}
	}()
	return nil
}

func (c *Controller) start(src Source, owner string) (*session, error) {
	if src == nil || src.Size() <= 0 {
		return nil, &ValidationError{Field: "file", Reason: "file is empty"}
	}
	s, err := c.begin(src, owner)
	if err != nil {
		return nil, err
	}
	metrics.RecordUploadStarted()
	c.logger.Infof("[Upload %s] Starting upload of %s (%d bytes)", s.id, src.Name(), src.Size())
	return s, nil
}

func (c *Controller) execute(ctx context.Context, s *session, src Source) (string, error) {
	targetID, err := c.run(ctx, s, src)
	switch {
	case err == nil:
		metrics.RecordUploadFinished(string(PhaseCompleted), time.Since(s.startedAt))
	case errors.Is(err, ErrCancelled):
		c.finish(s, func(st *State) {
			st.Phase = PhaseCancelled
			st.Cancelled = true
			st.TargetID = ""
		})
		metrics.RecordUploadFinished(string(PhaseCancelled), time.Since(s.startedAt))
		c.logger.Infof("[Upload %s] Cancelled", s.id)
	default:
		c.finish(s, func(st *State) {
			st.Phase = PhaseFailed
			st.TargetID = ""
			st.Err = err
			st.ErrorMessage = err.Error()
		})
		var te *TransportError
		if errors.As(err, &te) {
			metrics.RecordUploadStepError(string(te.Step))
		}
		metrics.RecordUploadFinished(string(PhaseFailed), time.Since(s.startedAt))
		c.logger.Errorf("[Upload %s] %v", s.id, err)
	}
	return targetID, err
}

func (c *Controller) run(ctx context.Context, s *session, src Source) (string, error) {
	if c.stopped(ctx, s) {
		return "", ErrCancelled
	}

	initResp, err := c.transport.InitUpload(ctx, types.UploadInitRequest{
		OwnerID:        s.owner,
		Filename:       src.Name(),
		TotalSizeBytes: src.Size(),
	})
	if c.stopped(ctx, s) {
		return "", ErrCancelled
	}
	if err != nil {
		return "", newTransportError(StepInit, -1, err)
	}

	totalBytes := src.Size()
	chunkSize := c.chunkSize
	if initResp.ChunkSize > 0 {
		chunkSize = initResp.ChunkSize
	}
	totalChunks := int((totalBytes + chunkSize - 1) / chunkSize)
	c.update(s, func(st *State) {
		st.UploadID = initResp.UploadID
		st.TargetID = initResp.CallID
		st.ChunkSize = chunkSize
		st.TotalChunks = totalChunks
	})

	buf := make([]byte, min(chunkSize, totalBytes))
	for index := 0; index < totalChunks; index++ {
		if c.stopped(ctx, s) {
			return "", ErrCancelled
		}

		offset := int64(index) * chunkSize
		size := min(chunkSize, totalBytes-offset)
		chunk := buf[:size]
		if n, err := src.ReadAt(chunk, offset); int64(n) != size {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return "", newTransportError(StepRead, index, err)
		}

		sentAt := time.Now()
		resp, err := c.transport.UploadChunk(ctx, initResp.UploadID, types.ChunkUploadRequest{
			ChunkNumber: index,
			ChunkData:   base64.StdEncoding.EncodeToString(chunk),
			IsLast:      index == totalChunks-1,
		})
		if c.stopped(ctx, s) {
			return "", ErrCancelled
		}
		if err != nil {
			return "", newTransportError(StepChunk, index, err)
		}
		metrics.RecordChunk(int(size), time.Since(sentAt))

		sent := index + 1
		reported := resp.ProgressPercent
		if reported <= 0 {
			reported = float64(sent) / float64(totalChunks) * 100
		}
		c.update(s, func(st *State) {
			st.ChunksSent = sent
			st.Progress = max(st.Progress, min(reported, maxPendingProgress))
		})
		c.logger.Debugf("[Upload %s] Chunk %d/%d acknowledged (%.1f%%)", s.id, sent, totalChunks, reported)
	}

	doneResp, err := c.transport.CompleteUpload(ctx, initResp.UploadID)
	if c.stopped(ctx, s) {
		return "", ErrCancelled
	}
	if err != nil {
		return "", newTransportError(StepComplete, -1, err)
	}

	c.finish(s, func(st *State) {
		st.Phase = PhaseCompleted
		st.TargetID = doneResp.CallID
		st.Progress = 100
		st.Status = doneResp.Status
		st.EstimatedCompletion = time.Duration(doneResp.EstimatedCompletionSeconds) * time.Second
	})
	c.logger.Infof("[Upload %s] Completed, call %s is %s", s.id, doneResp.CallID, doneResp.Status)
	return doneResp.CallID, nil
}

// Cancel asks the active upload to stop at its next check point. It does not wait for the
// upload to settle and is a no-op when nothing is uploading.
func (c *Controller) Cancel() {
	c.CancelActive()
}

// CancelActive is Cancel that reports whether an upload was active to receive it.
func (c *Controller) CancelActive() bool {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return false
	}
	s.cancelled.Store(true)
	c.state.Cancelled = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
	c.logger.Infof("[Upload %s] Cancel requested", s.id)
	return true
}

// Reset returns the controller to idle. An upload still in flight is told to stop and
// its later state changes are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.session != nil {
		c.session.cancelled.Store(true)
		c.session = nil
	}
	c.state = State{Phase: PhaseIdle}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) begin(src Source, owner string) (*session, error) {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if owner == "" && c.ownerOf != nil {
		owner = c.ownerOf()
	}
	if strings.TrimSpace(owner) == "" {
		c.mu.Unlock()
		return nil, &ValidationError{Field: "owner", Reason: "owner identity is required"}
	}
	s := &session{id: tool.GenerateShortID(), owner: owner, startedAt: time.Now()}
	c.session = s
	c.state = State{
		Phase:      PhaseUploading,
		Filename:   src.Name(),
		TotalBytes: src.Size(),
		Uploading:  true,
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
	return s, nil
}

func (c *Controller) stopped(ctx context.Context, s *session) bool {
	return s.cancelled.Load() || ctx.Err() != nil
}

// update applies fn if s is still the active session.
func (c *Controller) update(s *session, fn func(*State)) {
	c.apply(s, fn, false)
}

// finish applies fn, marks the session not uploading and releases it.
func (c *Controller) finish(s *session, fn func(*State)) {
	c.apply(s, fn, true)
}

func (c *Controller) apply(s *session, fn func(*State), terminal bool) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	if terminal {
		c.state.Uploading = false
		c.session = nil
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) snapshotLocked() State {
	c.seq++
	c.state.Seq = c.seq
	return c.state
}

func (c *Controller) notify(snapshot State) {
	if c.observer != nil {
		c.observer(snapshot)
	}
}
