package uploader

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/nanalyzer-go/transfer"
	"github.com/moyoez/nanalyzer-go/types"
)

type fakeTransport struct {
	mu sync.Mutex

	chunkSize   int64
	initCallID  string
	finalID     string
	initErr     error
	completeErr error

	// hooks run inside the corresponding call, before it returns
	onInit  func()
	onChunk func(req types.ChunkUploadRequest) (*types.ChunkUploadResponse, error)

	owners    []string
	chunks    []types.ChunkUploadRequest
	payloads  [][]byte
	completes int
}

func (f *fakeTransport) InitUpload(ctx context.Context, request types.UploadInitRequest) (*types.UploadInitResponse, error) {
	f.mu.Lock()
	f.owners = append(f.owners, request.OwnerID)
	f.mu.Unlock()
	if f.onInit != nil {
		f.onInit()
	}
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &types.UploadInitResponse{UploadID: "up-1", ChunkSize: f.chunkSize, CallID: f.initCallID}, nil
}

func (f *fakeTransport) UploadChunk(ctx context.Context, uploadID string, request types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
	data, err := base64.StdEncoding.DecodeString(request.ChunkData)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.chunks = append(f.chunks, request)
	f.payloads = append(f.payloads, data)
	received := len(f.chunks)
	f.mu.Unlock()
	if f.onChunk != nil {
		return f.onChunk(request)
	}
	return &types.ChunkUploadResponse{UploadID: uploadID, ChunksReceived: received}, nil
}

func (f *fakeTransport) CompleteUpload(ctx context.Context, uploadID string) (*types.UploadCompleteResponse, error) {
	f.mu.Lock()
	f.completes++
	f.mu.Unlock()
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &types.UploadCompleteResponse{CallID: f.finalID, Status: types.CompleteStatusProcessing, EstimatedCompletionSeconds: 30}, nil
}

func (f *fakeTransport) chunkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

func (f *fakeTransport) completeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completes
}

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 31)
	}
	return data
}

func TestUploadPartitionsFileIntoOrderedChunks(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		clientSize int64
		serverSize int64
		wantChunks int
	}{
		{"exact multiple", 4096, 1024, 0, 4},
		{"short last chunk", 4097, 1024, 0, 5},
		{"smaller than one chunk", 10, 1024, 0, 1},
		{"server dictated size", 1000, 1024, 300, 4},
		{"single byte", 1, 1024, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testData(tt.size)
			transport := &fakeTransport{chunkSize: tt.serverSize, finalID: "call-final"}
			ctrl := NewController(transport, WithChunkSize(tt.clientSize))

			target, err := ctrl.Upload(context.Background(), NewBytesSource("call.wav", data), "owner-1")
			require.NoError(t, err)
			assert.Equal(t, "call-final", target)

			require.Len(t, transport.chunks, tt.wantChunks)
			var reassembled []byte
			for i, chunk := range transport.chunks {
				assert.Equal(t, i, chunk.ChunkNumber)
				assert.Equal(t, i == tt.wantChunks-1, chunk.IsLast, "chunk %d", i)
				reassembled = append(reassembled, transport.payloads[i]...)
			}
			assert.True(t, bytes.Equal(data, reassembled), "chunks must partition the file exactly")
			assert.Equal(t, 1, transport.completes)
			assert.Equal(t, []string{"owner-1"}, transport.owners)
		})
	}
}

func TestUploadTwoAndAHalfMiB(t *testing.T) {
	const mib = 1 << 20
	data := testData(5 * mib / 2)
	transport := &fakeTransport{initCallID: "call-provisional", finalID: "call-42"}
	ctrl := NewController(transport)

	target, err := ctrl.Upload(context.Background(), NewBytesSource("long.wav", data), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "call-42", target)

	require.Len(t, transport.payloads, 3)
	assert.Len(t, transport.payloads[0], mib)
	assert.Len(t, transport.payloads[1], mib)
	assert.Len(t, transport.payloads[2], mib/2)
	assert.False(t, transport.chunks[0].IsLast)
	assert.False(t, transport.chunks[1].IsLast)
	assert.True(t, transport.chunks[2].IsLast)

	state := ctrl.State()
	assert.Equal(t, PhaseCompleted, state.Phase)
	assert.Equal(t, "call-42", state.TargetID)
	assert.Equal(t, 3, state.ChunksSent)
	assert.Equal(t, 3, state.TotalChunks)
	assert.InDelta(t, 100, state.Progress, 0)
	assert.False(t, state.Uploading)
	assert.Equal(t, types.CompleteStatusProcessing, state.Status)
	assert.Equal(t, 30*time.Second, state.EstimatedCompletion)
}

func TestCancelDuringInitSendsNoChunks(t *testing.T) {
	transport := &fakeTransport{finalID: "call-1"}
	ctrl := NewController(transport, WithChunkSize(8))
	transport.onInit = ctrl.Cancel

	target, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(64)), "owner-1")
	require.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, target)
	assert.Equal(t, 0, transport.chunkCount())
	assert.Equal(t, 0, transport.completeCount())

	state := ctrl.State()
	assert.False(t, state.Uploading)
	assert.True(t, state.Cancelled)
	assert.Equal(t, PhaseCancelled, state.Phase)
	assert.Empty(t, state.ErrorMessage, "cancel is not an error")
}

func TestCancelBeforeFirstChunkResolves(t *testing.T) {
	transport := &fakeTransport{finalID: "call-1"}
	ctrl := NewController(transport, WithChunkSize(8))
	transport.onChunk = func(req types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
		ctrl.Cancel()
		return &types.ChunkUploadResponse{ProgressPercent: 10}, nil
	}

	_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(64)), "owner-1")
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, transport.chunkCount())
	assert.Equal(t, 0, transport.completeCount())
}

func TestCancelBetweenChunks(t *testing.T) {
	for _, k := range []int{0, 2, 5} {
		transport := &fakeTransport{finalID: "call-1"}
		ctrl := NewController(transport, WithChunkSize(4))
		transport.onChunk = func(req types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
			if req.ChunkNumber == k {
				ctrl.Cancel()
			}
			return &types.ChunkUploadResponse{}, nil
		}

		_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(40)), "owner-1")
		require.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, k+1, transport.chunkCount(), "cancel after chunk %d", k)
		assert.Equal(t, 0, transport.completeCount())
		assert.False(t, ctrl.State().Uploading)
	}
}

func TestContextCancellationActsAsUserCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transport := &fakeTransport{finalID: "call-1"}
	transport.onChunk = func(req types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
		cancel()
		return nil, ctx.Err()
	}
	ctrl := NewController(transport, WithChunkSize(4))

	_, err := ctrl.Upload(ctx, NewBytesSource("a.wav", testData(16)), "owner-1")
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, PhaseCancelled, ctrl.State().Phase)
	assert.Nil(t, ctrl.State().Err)
}

func TestProgressIsMonotonicAndReaches100OnlyAfterComplete(t *testing.T) {
	reported := []float64{40, 30, 75, 100}
	transport := &fakeTransport{finalID: "call-1"}
	transport.onChunk = func(req types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
		return &types.ChunkUploadResponse{ProgressPercent: reported[req.ChunkNumber]}, nil
	}

	var mu sync.Mutex
	var history []State
	ctrl := NewController(transport, WithChunkSize(4), WithObserver(func(s State) {
		mu.Lock()
		history = append(history, s)
		mu.Unlock()
	}))

	_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, history)
	last := 0.0
	for i, s := range history {
		assert.GreaterOrEqual(t, s.Progress, last, "progress regressed at update %d", i)
		last = s.Progress
		if s.Phase != PhaseCompleted {
			assert.Less(t, s.Progress, 100.0, "100%% before complete at update %d", i)
		}
	}
	final := history[len(history)-1]
	assert.Equal(t, PhaseCompleted, final.Phase)
	assert.InDelta(t, 100, final.Progress, 0)
}

func TestProgressFallsBackToLocalFraction(t *testing.T) {
	transport := &fakeTransport{finalID: "call-1"}
	var seen []float64
	ctrl := NewController(transport, WithChunkSize(4), WithObserver(func(s State) {
		if s.Uploading && s.ChunksSent > 0 {
			seen = append(seen, s.Progress)
		}
	}))
	_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{25, 50, 75, 99}, seen)
}

func TestChunkFailureStopsUpload(t *testing.T) {
	transport := &fakeTransport{finalID: "call-1"}
	transport.onChunk = func(req types.ChunkUploadRequest) (*types.ChunkUploadResponse, error) {
		if req.ChunkNumber == 1 {
			return nil, &transfer.APIError{StatusCode: 500, Message: "reassembly failed"}
		}
		return &types.ChunkUploadResponse{ProgressPercent: 25}, nil
	}
	ctrl := NewController(transport, WithChunkSize(4))

	target, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
	assert.Empty(t, target)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepChunk, te.Step)
	assert.Equal(t, 1, te.Chunk)
	assert.Equal(t, 500, te.StatusCode)
	assert.Equal(t, "reassembly failed", te.Message)
	assert.Contains(t, te.Error(), "chunk 1")

	assert.Equal(t, 2, transport.chunkCount(), "no chunk calls after the failing one")
	assert.Equal(t, 0, transport.completeCount())

	state := ctrl.State()
	assert.False(t, state.Uploading)
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Equal(t, err, state.Err)
	assert.NotEmpty(t, state.ErrorMessage)
}

func TestCompleteFailureLeavesNoTarget(t *testing.T) {
	transport := &fakeTransport{
		initCallID:  "call-provisional",
		completeErr: &transfer.APIError{StatusCode: 502, Message: "analysis queue unavailable"},
	}
	var mu sync.Mutex
	var history []State
	ctrl := NewController(transport, WithChunkSize(4), WithObserver(func(s State) {
		mu.Lock()
		history = append(history, s)
		mu.Unlock()
	}))

	target, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
	assert.Empty(t, target)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepComplete, te.Step)
	assert.Equal(t, -1, te.Chunk)
	assert.Equal(t, 502, te.StatusCode)
	assert.Equal(t, 4, transport.chunkCount())
	assert.Equal(t, 1, transport.completeCount())

	state := ctrl.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.False(t, state.Uploading)
	assert.Less(t, state.Progress, 100.0)
	assert.Empty(t, state.TargetID, "the provisional call id is not an outcome")
	assert.Equal(t, err, state.Err)
	assert.Contains(t, state.ErrorMessage, "analysis queue unavailable")

	mu.Lock()
	defer mu.Unlock()
	for i, s := range history {
		assert.Less(t, s.Progress, 100.0, "update %d", i)
	}
}

func TestInitFailure(t *testing.T) {
	transport := &fakeTransport{initErr: errors.New("connection refused")}
	ctrl := NewController(transport)

	_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepInit, te.Step)
	assert.Equal(t, 0, te.StatusCode)
	assert.Contains(t, te.Error(), "connection refused")
	assert.Equal(t, 0, transport.chunkCount())
}

func TestResetAfterTerminalStates(t *testing.T) {
	failing := &fakeTransport{initErr: errors.New("boom")}
	cancelling := &fakeTransport{}
	ok := &fakeTransport{finalID: "call-1"}

	for name, transport := range map[string]*fakeTransport{"error": failing, "cancelled": cancelling, "success": ok} {
		t.Run(name, func(t *testing.T) {
			ctrl := NewController(transport, WithChunkSize(4))
			if transport == cancelling {
				transport.onInit = ctrl.Cancel
			}
			_, _ = ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")

			ctrl.Reset()
			state := ctrl.State()
			assert.Equal(t, PhaseIdle, state.Phase)
			assert.InDelta(t, 0, state.Progress, 0)
			assert.Nil(t, state.Err)
			assert.Empty(t, state.ErrorMessage)
			assert.False(t, state.Uploading)
			assert.Empty(t, state.TargetID)
		})
	}
}

func TestSecondUploadWhileBusyIsRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	transport := &fakeTransport{finalID: "call-1"}
	transport.onInit = func() {
		close(entered)
		<-release
	}
	ctrl := NewController(transport, WithChunkSize(4))

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
		done <- err
	}()
	<-entered

	_, err := ctrl.Upload(context.Background(), NewBytesSource("b.wav", testData(16)), "owner-1")
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "a.wav", ctrl.State().Filename, "busy rejection must not touch the active session")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 4, transport.chunkCount())
}

func TestResetSupersedesInFlightUpload(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	transport := &fakeTransport{finalID: "call-1"}
	transport.onInit = func() {
		close(entered)
		<-release
	}
	ctrl := NewController(transport, WithChunkSize(4))

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(16)), "owner-1")
		done <- err
	}()
	<-entered

	ctrl.Reset()
	close(release)
	require.ErrorIs(t, <-done, ErrCancelled)

	state := ctrl.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Empty(t, state.UploadID, "stale session writes are discarded")
	assert.Equal(t, 0, transport.chunkCount())
}

func TestUploadValidation(t *testing.T) {
	transport := &fakeTransport{}
	ctrl := NewController(transport)

	var ve *ValidationError
	_, err := ctrl.Upload(context.Background(), NewBytesSource("empty.wav", nil), "owner-1")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "file", ve.Field)

	_, err = ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(8)), " ")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "owner", ve.Field)

	assert.Empty(t, transport.owners, "validation happens before any network call")
	assert.Equal(t, PhaseIdle, ctrl.State().Phase)
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	var calls int
	ctrl := NewController(&fakeTransport{}, WithObserver(func(State) { calls++ }))
	ctrl.Cancel()
	assert.Equal(t, 0, calls)
	assert.False(t, ctrl.State().Cancelled)
}

func TestStartRunsInBackground(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	transport := &fakeTransport{finalID: "call-9"}
	transport.onInit = func() {
		close(entered)
		<-release
	}
	ctrl := NewController(transport, WithChunkSize(4))

	type outcome struct {
		target string
		err    error
	}
	done := make(chan outcome, 1)
	err := ctrl.Start(context.Background(), NewBytesSource("a.wav", testData(10)), "owner-1", func(target string, err error) {
		done <- outcome{target, err}
	})
	require.NoError(t, err)
	<-entered

	assert.True(t, ctrl.State().Uploading)
	require.ErrorIs(t, ctrl.Start(context.Background(), NewBytesSource("b.wav", testData(10)), "owner-1", nil), ErrBusy)

	close(release)
	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, "call-9", got.target)
	assert.Equal(t, PhaseCompleted, ctrl.State().Phase)
	assert.Equal(t, 3, transport.chunkCount())
}

func TestStartRejectsInvalidInputSynchronously(t *testing.T) {
	ctrl := NewController(&fakeTransport{})
	var ve *ValidationError
	require.ErrorAs(t, ctrl.Start(context.Background(), NewBytesSource("empty.wav", nil), "owner-1", nil), &ve)
	assert.Equal(t, PhaseIdle, ctrl.State().Phase)
}

func TestSnapshotsAreSequenced(t *testing.T) {
	var mu sync.Mutex
	var seqs []uint64
	transport := &fakeTransport{finalID: "call-1"}
	ctrl := NewController(transport, WithChunkSize(4), WithObserver(func(s State) {
		mu.Lock()
		seqs = append(seqs, s.Seq)
		mu.Unlock()
	}))
	transport.onInit = func() { ctrl.Cancel() }

	_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(8)), "owner-1")
	require.ErrorIs(t, err, ErrCancelled)
	ctrl.Reset()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seqs, 4, "begin, cancel request, cancelled, reset")
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1])
	}
	assert.Equal(t, seqs[len(seqs)-1], ctrl.State().Seq)
}

func TestWhileIdleRejectsDuringUpload(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	transport := &fakeTransport{finalID: "call-1"}
	transport.onInit = func() {
		close(entered)
		<-release
	}
	ctrl := NewController(transport, WithChunkSize(4))

	done := make(chan error, 1)
	require.NoError(t, ctrl.Start(context.Background(), NewBytesSource("a.wav", testData(8)), "owner-1", func(_ string, err error) {
		done <- err
	}))
	<-entered

	ran := false
	assert.ErrorIs(t, ctrl.WhileIdle(func() { ran = true }), ErrBusy)
	assert.False(t, ran)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, ctrl.WhileIdle(func() { ran = true }))
	assert.True(t, ran)
}

func TestOwnerResolvedWhenStarting(t *testing.T) {
	owner := "owner-1"
	transport := &fakeTransport{finalID: "call-1"}
	ctrl := NewController(transport, WithChunkSize(4), WithOwner(func() string { return owner }))

	_, err := ctrl.Upload(context.Background(), NewBytesSource("a.wav", testData(8)), "")
	require.NoError(t, err)

	require.NoError(t, ctrl.WhileIdle(func() { owner = "owner-2" }))
	_, err = ctrl.Upload(context.Background(), NewBytesSource("b.wav", testData(8)), "")
	require.NoError(t, err)

	_, err = ctrl.Upload(context.Background(), NewBytesSource("c.wav", testData(8)), "explicit")
	require.NoError(t, err)
	assert.Equal(t, []string{"owner-1", "owner-2", "explicit"}, transport.owners)

	owner = ""
	var ve *ValidationError
	_, err = ctrl.Upload(context.Background(), NewBytesSource("d.wav", testData(8)), "")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "owner", ve.Field)
}
