package notify

import (
	"fmt"

	"github.com/moyoez/nanalyzer-go/types"
)

// UploadInfo is what upload notifications report about the transfer.
type UploadInfo struct {
	UploadID    string
	Filename    string
	TotalBytes  int64
	ChunksSent  int
	TotalChunks int
	Progress    float64
	CallID      string
	Error       string
}

func (u UploadInfo) data() map[string]any {
	data := map[string]any{
		"uploadId":    u.UploadID,
		"fileName":    truncate(u.Filename, MaxNotifyFileNameLen),
		"totalBytes":  u.TotalBytes,
		"chunksSent":  u.ChunksSent,
		"totalChunks": u.TotalChunks,
		"progress":    u.Progress,
	}
	if u.CallID != "" {
		data["callId"] = u.CallID
	}
	if u.Error != "" {
		data["error"] = truncate(u.Error, MaxNotifyTextLen)
	}
	return data
}

// SendUploadNotification sends one of the upload_* notifications.
func SendUploadNotification(eventType string, info UploadInfo) error {
	notification := &types.Notification{
		Type: eventType,
		Data: info.data(),
	}
	name := truncate(info.Filename, MaxNotifyFileNameLen)

	switch eventType {
	case types.NotifyTypeUploadStart:
		notification.Title = "Upload Started"
		notification.Message = fmt.Sprintf("Uploading %s (%d bytes)", name, info.TotalBytes)
	case types.NotifyTypeUploadProgress:
		notification.Title = "Uploading"
		notification.Message = fmt.Sprintf("%s: %.0f%% (%d/%d chunks)", name, info.Progress, info.ChunksSent, info.TotalChunks)
	case types.NotifyTypeUploadEnd:
		notification.Title = "Upload Completed"
		notification.Message = fmt.Sprintf("%s uploaded, analysis queued as call %s", name, info.CallID)
	case types.NotifyTypeUploadCancelled:
		notification.Title = "Upload Cancelled"
		notification.Message = fmt.Sprintf("Upload of %s was cancelled", name)
	case types.NotifyTypeUploadFailed:
		notification.Title = "Upload Failed"
		notification.Message = truncate(info.Error, MaxNotifyTextLen)
	default:
		notification.Title = "Upload Event"
		notification.Message = fmt.Sprintf("Upload event: %s, uploadId=%s", eventType, info.UploadID)
	}

	return Notify(notification)
}

// SendSimpleNotification sends a simple text notification
func SendSimpleNotification(title, message string) error {
	notification := &types.Notification{
		Type:    types.NotifyTypeInfo,
		Title:   title,
		Message: message,
	}
	return Notify(notification)
}
