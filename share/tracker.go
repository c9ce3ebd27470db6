package share

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/moyoez/nanalyzer-go/live"
	"github.com/moyoez/nanalyzer-go/tool"
)

const (
	DefaultTTL = 60 * time.Minute

	analysisFailedMessage = "Analysis failed"
)

// EmotionPoint is one entry of the emotion timeline, keyed by segment start time.
type EmotionPoint struct {
	Timestamp  float64      `json:"timestamp"`
	Emotion    live.Emotion `json:"emotion"`
	Confidence float64      `json:"confidence"`
}

// CurrentEmotion is the emotion of the latest segment.
type CurrentEmotion struct {
	Emotion      live.Emotion `json:"emotion"`
	Confidence   float64      `json:"confidence"`
	Timestamp    time.Time    `json:"timestamp"`
	SpeakerLabel string       `json:"speakerLabel"`
}

type Alert struct {
	Severity live.Severity `json:"severity"`
	Message  string        `json:"message"`
}

// CallState is the accumulated live view of one call.
type CallState struct {
	CallID         string          `json:"callId"`
	Analyzing      bool            `json:"analyzing"`
	Segments       []live.Segment  `json:"segments"`
	EmotionHistory []EmotionPoint  `json:"emotionHistory"`
	CurrentEmotion *CurrentEmotion `json:"currentEmotion,omitempty"`
	LastAlert      *Alert          `json:"lastAlert,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// NewCallState returns the state of a call whose upload just completed.
func NewCallState(callID string) CallState {
	return CallState{
		CallID:         callID,
		Analyzing:      true,
		Segments:       []live.Segment{},
		EmotionHistory: []EmotionPoint{},
		LastAlert:      &Alert{Severity: live.SeverityInfo, Message: "Upload complete. Starting analysis..."},
		UpdatedAt:      time.Now(),
	}
}

// Apply folds one live event into the state. It reports whether the event changed anything;
// unknown events are ignored.
func (s *CallState) Apply(evt live.Event) (bool, error) {
	payload, err := evt.Decode()
	if err != nil {
		return false, err
	}
	switch p := payload.(type) {
	case live.AnalysisStarted:
		s.Analyzing = true
		s.LastAlert = &Alert{Severity: live.SeverityInfo, Message: "Analysis started"}
	case live.SegmentComplete:
		seg := p.Segment
		emotion := live.ParseEmotion(seg.Emotion)
		s.Segments = append(s.Segments, seg)
		s.CurrentEmotion = &CurrentEmotion{
			Emotion:      emotion,
			Confidence:   seg.Confidence,
			Timestamp:    time.Now(),
			SpeakerLabel: seg.Speaker,
		}
		s.EmotionHistory = append(s.EmotionHistory, EmotionPoint{
			Timestamp:  seg.StartTime,
			Emotion:    emotion,
			Confidence: seg.Confidence,
		})
	case live.AnalysisComplete:
		s.Analyzing = false
		s.LastAlert = &Alert{Severity: live.SeveritySuccess, Message: "Analysis completed successfully"}
	case live.AnalysisError:
		msg := p.Message
		if msg == "" {
			msg = analysisFailedMessage
		}
		s.Analyzing = false
		s.LastAlert = &Alert{Severity: live.SeverityError, Message: msg}
	default:
		return false, nil
	}
	s.UpdatedAt = time.Now()
	return true, nil
}

// clone copies the slices so callers can keep a snapshot while events keep arriving.
func (s CallState) clone() CallState {
	s.Segments = append([]live.Segment(nil), s.Segments...)
	s.EmotionHistory = append([]EmotionPoint(nil), s.EmotionHistory...)
	return s
}

// Tracker keeps the live view of every call a channel is open for. Entries expire after
// the cache TTL.
type Tracker struct {
	mu    sync.Mutex
	calls *ttlworker.Cache[string, *CallState]
}

func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{calls: ttlworker.NewCache[string, *CallState](ttl)}
}

// Track starts (or restarts) tracking callID with a fresh state.
func (t *Tracker) Track(callID string) CallState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := NewCallState(callID)
	t.calls.Set(callID, &state)
	tool.DefaultLogger.Debugf("Tracking call %s", callID)
	return state.clone()
}

// Apply folds evt into the tracked state of callID, tracking it first if needed.
func (t *Tracker) Apply(callID string, evt live.Event) (CallState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.calls.Get(callID)
	if state == nil {
		fresh := NewCallState(callID)
		state = &fresh
	}
	changed, err := state.Apply(evt)
	if err != nil {
		return state.clone(), err
	}
	if changed {
		t.calls.Set(callID, state)
	}
	return state.clone(), nil
}

func (t *Tracker) Get(callID string) (CallState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.calls.Get(callID)
	if state == nil {
		return CallState{}, false
	}
	return state.clone(), true
}

func (t *Tracker) Forget(callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls.Delete(callID)
}

// List returns the ids of every tracked call.
func (t *Tracker) List() []string {
	keys := make([]string, 0)
	err := t.calls.Range(func(k string, v *CallState) error {
		keys = append(keys, k)
		return nil
	})
	if err != nil {
		return nil
	}
	return keys
}
