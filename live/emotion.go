package live

import "strings"

// Emotion is the closed set of labels a segment can carry.
type Emotion string

const (
	EmotionHappy      Emotion = "happy"
	EmotionSatisfied  Emotion = "satisfied"
	EmotionNeutral    Emotion = "neutral"
	EmotionConcerned  Emotion = "concerned"
	EmotionFrustrated Emotion = "frustrated"
)

// ParseEmotion maps a free-form label onto the closed set. Unrecognized labels are neutral.
func ParseEmotion(label string) Emotion {
	switch Emotion(strings.ToLower(strings.TrimSpace(label))) {
	case EmotionHappy:
		return EmotionHappy
	case EmotionSatisfied:
		return EmotionSatisfied
	case EmotionConcerned:
		return EmotionConcerned
	case EmotionFrustrated:
		return EmotionFrustrated
	default:
		return EmotionNeutral
	}
}

// Color is the hex color used to render the emotion.
func (e Emotion) Color() string {
	switch e {
	case EmotionHappy:
		return "#4caf50"
	case EmotionSatisfied:
		return "#8bc34a"
	case EmotionConcerned:
		return "#ff9800"
	case EmotionFrustrated:
		return "#f44336"
	default:
		return "#9e9e9e"
	}
}

// Tone groups labels (including raw classifier labels such as "anger" or "joy") into
// positive, negative and neutral.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

func ToneOf(label string) Tone {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "joy", "agreement", "enthusiasm", "happy", "satisfied":
		return TonePositive
	case "negative", "anger", "sadness", "stress", "concerned", "frustrated":
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// Severity classifies the alert an event raises.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
