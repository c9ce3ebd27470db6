package types

// EmotionScores is the three-axis score the REST call details use per segment.
type EmotionScores struct {
	Enthusiasm float64 `json:"enthusiasm"`
	Agreement  float64 `json:"agreement"`
	Stress     float64 `json:"stress"`
}

type SegmentResponse struct {
	SegmentID     int            `json:"segment_id"`
	SegmentNumber int            `json:"segment_number"`
	StartTime     float64        `json:"start_time"`
	EndTime       float64        `json:"end_time"`
	Speaker       string         `json:"speaker"` // seller | client
	Transcript    *string        `json:"transcript"`
	Emotions      *EmotionScores `json:"emotions"`
}

type AlertResponse struct {
	Time           float64 `json:"time"`
	Type           string  `json:"type"`
	Message        string  `json:"message"`
	Recommendation *string `json:"recommendation"`
}

type CallSummary struct {
	TotalSegments     int            `json:"total_segments"`
	SellerSegments    int            `json:"seller_segments"`
	ClientSegments    int            `json:"client_segments"`
	AvgClientEmotions *EmotionScores `json:"avg_client_emotions"`
}

type CallDetails struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	Filename         string            `json:"filename"`
	Duration         *float64          `json:"duration"`
	DetectedLanguage *string           `json:"detected_language"`
	Analyzed         bool              `json:"analyzed"`
	UploadedAt       string            `json:"uploaded_at"`
	Segments         []SegmentResponse `json:"segments"`
	Alerts           []AlertResponse   `json:"alerts"`
	Summary          *CallSummary      `json:"summary"`
}

type CallListItem struct {
	ID                string         `json:"id"`
	Filename          string         `json:"filename"`
	Duration          *float64       `json:"duration"`
	DetectedLanguage  *string        `json:"detected_language"`
	UploadedAt        string         `json:"uploaded_at"`
	Analyzed          bool           `json:"analyzed"`
	AvgClientEmotions *EmotionScores `json:"avg_client_emotions"`
}

type PaginationInfo struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
	Total      int     `json:"total"`
}

type CallListResponse struct {
	Data       []CallListItem `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}

type FeedbackRequest struct {
	SegmentID           int      `json:"segment_id"`
	CorrectedEnthusiasm *float64 `json:"corrected_enthusiasm,omitempty"`
	CorrectedAgreement  *float64 `json:"corrected_agreement,omitempty"`
	CorrectedStress     *float64 `json:"corrected_stress,omitempty"`
}

type FeedbackResponse struct {
	FeedbackID         string `json:"feedback_id"`
	SegmentID          int    `json:"segment_id"`
	Accepted           bool   `json:"accepted"`
	TotalFeedbackCount int    `json:"total_feedback_count"`
}
