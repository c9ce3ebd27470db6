package types

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "upload_start", "analysis_event", etc.
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

const (
	NotifyTypeInfo            = "info"
	NotifyTypeUploadStart     = "upload_start"
	NotifyTypeUploadProgress  = "upload_progress"
	NotifyTypeUploadEnd       = "upload_end"
	NotifyTypeUploadCancelled = "upload_cancelled"
	NotifyTypeUploadFailed    = "upload_failed"
	NotifyTypeAnalysisEvent   = "analysis_event"
	NotifyTypeLiveStatus      = "live_status"
)

// NotifyHub broadcasts notifications to connected local clients.
type NotifyHub interface {
	Broadcast(notification *Notification)
}
