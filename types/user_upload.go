package types

// UserUploadRequest starts a chunked upload of a local file.
type UserUploadRequest struct {
	FilePath string `json:"filePath" binding:"required"` // plain path or file:// URL
}

// UserVoiceTrainRequest lists the WAV recordings used for enrollment, in phrase order.
type UserVoiceTrainRequest struct {
	Files []string `json:"files" binding:"required"`
}

// UserVoiceVerifyRequest points at one recording to verify against the enrolled model.
type UserVoiceVerifyRequest struct {
	FilePath string `json:"filePath" binding:"required"`
	Source   string `json:"source,omitempty"` // recording | upload
}

// UserLiveSendRequest is an outbound {type, data} frame for a call's live channel.
type UserLiveSendRequest struct {
	Type string `json:"type" binding:"required"`
	Data any    `json:"data,omitempty"`
}
