package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	evt, err := ParseEvent([]byte(`{"type":"segment_complete","data":{"id":"s1","text":"hello","speaker":"client","start_time":1.5,"end_time":3.25,"emotion":"happy","confidence":0.87}}`))
	require.NoError(t, err)
	assert.Equal(t, EventSegmentComplete, evt.Type)

	payload, err := evt.Decode()
	require.NoError(t, err)
	seg, ok := payload.(SegmentComplete)
	require.True(t, ok)
	assert.Equal(t, "s1", seg.Segment.ID)
	assert.Equal(t, "client", seg.Segment.Speaker)
	assert.InDelta(t, 1.5, seg.Segment.StartTime, 0)
	assert.InDelta(t, 0.87, seg.Segment.Confidence, 1e-9)
}

func TestParseEventRejectsMalformedFrames(t *testing.T) {
	for _, frame := range []string{``, `not json`, `[1,2]`, `{"data":{}}`, `{"type":""}`} {
		_, err := ParseEvent([]byte(frame))
		assert.ErrorIs(t, err, ErrMalformedFrame, "frame %q", frame)
	}
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		frame string
		want  Payload
	}{
		{`{"type":"analysis_started","data":{"call_id":"c1"}}`, AnalysisStarted{CallID: "c1"}},
		{`{"type":"analysis_started"}`, AnalysisStarted{}},
		{`{"type":"analysis_complete","data":{"call_id":"c1","total_segments":12}}`, AnalysisComplete{CallID: "c1", TotalSegments: 12}},
		{`{"type":"error","data":{"message":"GPU out of memory"}}`, AnalysisError{Message: "GPU out of memory"}},
		{`{"type":"error","data":null}`, AnalysisError{}},
	}
	for _, tt := range tests {
		evt, err := ParseEvent([]byte(tt.frame))
		require.NoError(t, err)
		got, err := evt.Decode()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.frame)
	}

	evt, err := ParseEvent([]byte(`{"type":"speaker_changed","data":{"speaker":"seller"}}`))
	require.NoError(t, err)
	got, err := evt.Decode()
	require.NoError(t, err)
	unknown, ok := got.(Unknown)
	require.True(t, ok)
	assert.Equal(t, EventType("speaker_changed"), unknown.Type)
	assert.JSONEq(t, `{"speaker":"seller"}`, string(unknown.Data))
}

func TestDecodeBadData(t *testing.T) {
	evt := Event{Type: EventSegmentComplete, Data: []byte(`"oops"`)}
	_, err := evt.Decode()
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent("ping", map[string]int{"seq": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":1}`, string(evt.Data))

	evt, err = NewEvent("ping", nil)
	require.NoError(t, err)
	assert.Empty(t, evt.Data)
}

func TestParseEmotionFallsBackToNeutral(t *testing.T) {
	assert.Equal(t, EmotionHappy, ParseEmotion("Happy"))
	assert.Equal(t, EmotionFrustrated, ParseEmotion(" frustrated "))
	assert.Equal(t, EmotionNeutral, ParseEmotion("bewildered"))
	assert.Equal(t, EmotionNeutral, ParseEmotion(""))
	assert.Equal(t, "#9e9e9e", ParseEmotion("bewildered").Color())
	assert.Equal(t, "#f44336", EmotionFrustrated.Color())
}

func TestToneOf(t *testing.T) {
	assert.Equal(t, TonePositive, ToneOf("joy"))
	assert.Equal(t, ToneNegative, ToneOf("stress"))
	assert.Equal(t, ToneNeutral, ToneOf("surprise"))
	assert.Equal(t, ToneNeutral, ToneOf("whatever"))
}
