package types

// UploadInitRequest opens a chunked upload on the analysis backend.
type UploadInitRequest struct {
	OwnerID        string         `json:"user_id"`
	Filename       string         `json:"filename"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// UploadInitResponse carries the server-assigned upload id, the provisional call id
// and the chunk size the server expects (0 means client default).
type UploadInitResponse struct {
	UploadID  string `json:"upload_id"`
	ChunkSize int64  `json:"chunk_size"`
	CallID    string `json:"call_id"`
}

type ChunkUploadRequest struct {
	ChunkNumber int    `json:"chunk_number"`
	ChunkData   string `json:"chunk_data"` // base64
	IsLast      bool   `json:"is_last"`
}

type ChunkUploadResponse struct {
	UploadID        string  `json:"upload_id"`
	ChunksReceived  int     `json:"chunks_received"`
	ChunksTotal     *int    `json:"chunks_total,omitempty"`
	ProgressPercent float64 `json:"progress_percent"`
}

// Complete statuses reported by the backend.
const (
	CompleteStatusProcessing = "processing"
	CompleteStatusQueued     = "queued"
)

type UploadCompleteResponse struct {
	CallID                     string `json:"call_id"`
	Status                     string `json:"status"`
	EstimatedCompletionSeconds int    `json:"estimated_completion_seconds"`
}

type TrainingStatusResponse struct {
	FeedbackSamples   map[string]int     `json:"feedback_samples"`
	TrainingThreshold int                `json:"training_threshold"`
	ModelsTrained     bool               `json:"models_trained"`
	LastTrainingDate  *string            `json:"last_training_date"`
	NextTrainingDate  *string            `json:"next_training_date"`
	ModelAccuracy     map[string]float64 `json:"model_accuracy"`
}

// APIErrorBody is the error envelope returned by the backend.
type APIErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}
