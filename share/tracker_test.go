package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/nanalyzer-go/live"
)

func mustEvent(t *testing.T, frame string) live.Event {
	t.Helper()
	evt, err := live.ParseEvent([]byte(frame))
	require.NoError(t, err)
	return evt
}

func TestCallStateReducer(t *testing.T) {
	state := NewCallState("call-1")
	assert.True(t, state.Analyzing)
	require.NotNil(t, state.LastAlert)
	assert.Equal(t, live.SeverityInfo, state.LastAlert.Severity)

	changed, err := state.Apply(mustEvent(t, `{"type":"analysis_started","data":{}}`))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Analysis started", state.LastAlert.Message)

	_, err = state.Apply(mustEvent(t, `{"type":"segment_complete","data":{"id":"1","text":"hi","speaker":"client","start_time":0.5,"end_time":2,"emotion":"happy","confidence":0.9}}`))
	require.NoError(t, err)
	_, err = state.Apply(mustEvent(t, `{"type":"segment_complete","data":{"id":"2","text":"hmm","speaker":"seller","start_time":2,"end_time":4,"emotion":"puzzled","confidence":0.4}}`))
	require.NoError(t, err)

	require.Len(t, state.Segments, 2)
	assert.Equal(t, "1", state.Segments[0].ID)
	assert.Equal(t, "2", state.Segments[1].ID)
	require.Len(t, state.EmotionHistory, 2)
	assert.Equal(t, EmotionPoint{Timestamp: 0.5, Emotion: live.EmotionHappy, Confidence: 0.9}, state.EmotionHistory[0])
	assert.Equal(t, live.EmotionNeutral, state.EmotionHistory[1].Emotion, "unknown labels fall back to neutral")
	require.NotNil(t, state.CurrentEmotion)
	assert.Equal(t, "seller", state.CurrentEmotion.SpeakerLabel)

	_, err = state.Apply(mustEvent(t, `{"type":"analysis_complete","data":{}}`))
	require.NoError(t, err)
	assert.False(t, state.Analyzing)
	assert.Equal(t, live.SeveritySuccess, state.LastAlert.Severity)
}

func TestCallStateErrorEvent(t *testing.T) {
	state := NewCallState("call-1")
	_, err := state.Apply(mustEvent(t, `{"type":"error","data":{"message":"model crashed"}}`))
	require.NoError(t, err)
	assert.False(t, state.Analyzing)
	assert.Equal(t, live.SeverityError, state.LastAlert.Severity)
	assert.Equal(t, "model crashed", state.LastAlert.Message)

	_, err = state.Apply(mustEvent(t, `{"type":"error","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "Analysis failed", state.LastAlert.Message)
}

func TestCallStateIgnoresUnknownEvents(t *testing.T) {
	state := NewCallState("call-1")
	before := state.UpdatedAt
	changed, err := state.Apply(mustEvent(t, `{"type":"heartbeat","data":{}}`))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, state.UpdatedAt)
	assert.True(t, state.Analyzing)
}

func TestTrackerRegistry(t *testing.T) {
	tracker := NewTracker(time.Minute)

	_, ok := tracker.Get("call-1")
	assert.False(t, ok)

	tracker.Track("call-1")
	snapshot, ok := tracker.Get("call-1")
	require.True(t, ok)
	assert.Empty(t, snapshot.Segments)

	state, err := tracker.Apply("call-1", mustEvent(t, `{"type":"segment_complete","data":{"id":"1","emotion":"concerned","confidence":0.7}}`))
	require.NoError(t, err)
	assert.Len(t, state.Segments, 1)

	// the earlier snapshot is not affected by later events
	assert.Empty(t, snapshot.Segments)

	_, err = tracker.Apply("call-2", mustEvent(t, `{"type":"analysis_started"}`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"call-1", "call-2"}, tracker.List())

	tracker.Forget("call-1")
	_, ok = tracker.Get("call-1")
	assert.False(t, ok)
}

func TestTrackerApplyMalformedData(t *testing.T) {
	tracker := NewTracker(0)
	tracker.Track("call-1")
	_, err := tracker.Apply("call-1", live.Event{Type: live.EventSegmentComplete, Data: []byte(`[]`)})
	assert.ErrorIs(t, err, live.ErrMalformedFrame)
}
