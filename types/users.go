package types

type UserRegisterRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Role     string         `json:"role,omitempty"` // seller | admin
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UserLoginRequest switches the agent to an existing backend user.
type UserLoginRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type UserResponse struct {
	UserID             string   `json:"user_id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Role               string   `json:"role"`
	VoiceTrained       bool     `json:"voice_trained"`
	ModelPath          *string  `json:"model_path"`
	GMMThreshold       *float64 `json:"gmm_threshold"`
	AudioRetentionDays int      `json:"audio_retention_days"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

type UserSettingsUpdate struct {
	AudioRetentionDays int `json:"audio_retention_days"`
}

type UserSettingsResponse struct {
	UserID             string `json:"user_id"`
	AudioRetentionDays int    `json:"audio_retention_days"`
	UpdatedAt          string `json:"updated_at"`
}

// TrainingSample is one enrollment recording. It is built once, sent once and discarded.
type TrainingSample struct {
	Ordinal     int     `json:"phrase_number"`
	AudioBase64 string  `json:"audio_base64"`
	Duration    float64 `json:"duration"`
}

type VoiceTrainingRequest struct {
	AudioSamples []TrainingSample `json:"audio_samples"`
}

type VoiceTrainingResponse struct {
	UserID              string  `json:"user_id"`
	VoiceTrained        bool    `json:"voice_trained"`
	SamplesCount        int     `json:"samples_count"`
	ModelAccuracy       float64 `json:"model_accuracy"`
	ModelSizeKB         float64 `json:"model_size_kb"`
	CalibratedThreshold float64 `json:"calibrated_threshold"`
}

// VerificationOutcome is the closed set of speaker verification results.
type VerificationOutcome string

const (
	OutcomeMatch            VerificationOutcome = "match"
	OutcomeUncertain        VerificationOutcome = "uncertain"
	OutcomeDifferentSpeaker VerificationOutcome = "different_speaker"
	OutcomeAudioIssue       VerificationOutcome = "audio_issue"
	OutcomeModelNotReady    VerificationOutcome = "model_not_ready"
)

// Label returns the human readable label for the outcome.
func (o VerificationOutcome) Label() string {
	switch o {
	case OutcomeMatch:
		return "Confident match"
	case OutcomeUncertain:
		return "Borderline"
	case OutcomeDifferentSpeaker:
		return "Different speaker"
	case OutcomeAudioIssue:
		return "Audio issue"
	case OutcomeModelNotReady:
		return "Model not ready"
	default:
		return "Unknown"
	}
}

type VoiceVerificationRequest struct {
	AudioBase64 string  `json:"audio_base64"`
	Source      string  `json:"source,omitempty"` // recording | upload
	Duration    float64 `json:"duration,omitempty"`
	Filename    string  `json:"filename,omitempty"`
}

type VoiceVerificationResponse struct {
	Outcome         VerificationOutcome `json:"outcome"`
	Confidence      float64             `json:"confidence"`
	Score           *float64            `json:"score"`
	Threshold       *float64            `json:"threshold"`
	Message         string              `json:"message"`
	Details         string              `json:"details"`
	Recommendations []string            `json:"recommendations"`
}
