package live

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// EventType tags an inbound or outbound frame.
type EventType string

const (
	EventAnalysisStarted  EventType = "analysis_started"
	EventSegmentComplete  EventType = "segment_complete"
	EventAnalysisComplete EventType = "analysis_complete"
	EventError            EventType = "error"
)

// Event is the {type, data} envelope every frame uses.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrMalformedFrame wraps every frame parse failure.
var ErrMalformedFrame = errors.New("malformed live frame")

// ParseEvent decodes one frame. Frames that are not JSON objects or carry no type are rejected.
func ParseEvent(frame []byte) (Event, error) {
	var evt Event
	if err := sonic.Unmarshal(frame, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if evt.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return evt, nil
}

// NewEvent builds an outbound event, encoding data as its payload.
func NewEvent(eventType EventType, data any) (Event, error) {
	evt := Event{Type: eventType}
	if data == nil {
		return evt, nil
	}
	raw, err := sonic.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %v", eventType, err)
	}
	evt.Data = raw
	return evt, nil
}

// Segment is one analysed unit of speech pushed while a call is processed.
type Segment struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

// Payload is the closed set of decoded event bodies.
type Payload interface {
	eventType() EventType
}

type AnalysisStarted struct {
	CallID string `json:"call_id,omitempty"`
}

type SegmentComplete struct {
	Segment Segment
}

type AnalysisComplete struct {
	CallID        string `json:"call_id,omitempty"`
	TotalSegments int    `json:"total_segments,omitempty"`
}

type AnalysisError struct {
	Message string `json:"message"`
}

// Unknown keeps events with an unrecognized tag so callers can still log or forward them.
type Unknown struct {
	Type EventType
	Data json.RawMessage
}

func (AnalysisStarted) eventType() EventType  { return EventAnalysisStarted }
func (SegmentComplete) eventType() EventType  { return EventSegmentComplete }
func (AnalysisComplete) eventType() EventType { return EventAnalysisComplete }
func (AnalysisError) eventType() EventType    { return EventError }
func (u Unknown) eventType() EventType        { return u.Type }

// Decode interprets Data according to Type.
func (e Event) Decode() (Payload, error) {
	switch e.Type {
	case EventAnalysisStarted:
		var p AnalysisStarted
		return p, decodeData(e, &p)
	case EventSegmentComplete:
		var p SegmentComplete
		return p, decodeData(e, &p.Segment)
	case EventAnalysisComplete:
		var p AnalysisComplete
		return p, decodeData(e, &p)
	case EventError:
		var p AnalysisError
		return p, decodeData(e, &p)
	default:
		return Unknown{Type: e.Type, Data: e.Data}, nil
	}
}

func decodeData(e Event, out any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedFrame, e.Type, err)
	}
	return nil
}
