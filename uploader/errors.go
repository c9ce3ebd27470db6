package uploader

import (
	"errors"
	"fmt"

	"github.com/moyoez/nanalyzer-go/transfer"
)

var (
	// ErrCancelled is returned when the user (or the caller's context) stopped the upload.
	// It is an outcome, not a failure, and is never recorded as the state error.
	ErrCancelled = errors.New("upload cancelled by user")
	// ErrBusy is returned when Upload is called while another upload is active.
	ErrBusy = errors.New("an upload is already in progress")
)

// ValidationError is a caller-side precondition violation detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Step names the protocol step that failed.
type Step string

const (
	StepInit     Step = "init"
	StepRead     Step = "read"
	StepChunk    Step = "chunk"
	StepComplete Step = "complete"
)

// TransportError is a failure at one step of the upload protocol. No automatic retry is
// attempted; the whole upload has to be restarted.
type TransportError struct {
	Step       Step
	Chunk      int // chunk index for StepChunk and StepRead, -1 otherwise
	StatusCode int // backend HTTP status, 0 when the request never got a response
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	where := string(e.Step)
	if e.Chunk >= 0 {
		where = fmt.Sprintf("%s %d", e.Step, e.Chunk)
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("upload failed at %s (status %d): %s", where, e.StatusCode, msg)
	}
	return fmt.Sprintf("upload failed at %s: %s", where, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(step Step, chunk int, err error) *TransportError {
	te := &TransportError{Step: step, Chunk: chunk, Err: err}
	var apiErr *transfer.APIError
	if errors.As(err, &apiErr) {
		te.StatusCode = apiErr.StatusCode
		te.Message = apiErr.Message
	}
	return te
}
