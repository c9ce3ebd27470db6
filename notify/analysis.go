package notify

import (
	"fmt"

	"github.com/moyoez/nanalyzer-go/live"
	"github.com/moyoez/nanalyzer-go/types"
)

// SendAnalysisEventNotification forwards a live event of callID to local clients.
// Segment text is truncated to keep the payload bounded.
func SendAnalysisEventNotification(callID string, evt live.Event) error {
	payload, err := evt.Decode()
	if err != nil {
		return err
	}
	notification := &types.Notification{
		Type: types.NotifyTypeAnalysisEvent,
		Data: map[string]any{
			"callId":    callID,
			"eventType": string(evt.Type),
		},
	}

	switch p := payload.(type) {
	case live.AnalysisStarted:
		notification.Title = "Analysis Started"
		notification.Message = fmt.Sprintf("Call %s is being analysed", callID)
	case live.SegmentComplete:
		emotion := live.ParseEmotion(p.Segment.Emotion)
		notification.Title = "Segment Analysed"
		notification.Message = fmt.Sprintf("%s: %s (%.0f%%)", p.Segment.Speaker, emotion, p.Segment.Confidence*100)
		notification.Data["segmentId"] = p.Segment.ID
		notification.Data["speaker"] = p.Segment.Speaker
		notification.Data["text"] = truncate(p.Segment.Text, MaxNotifyTextLen)
		notification.Data["startTime"] = p.Segment.StartTime
		notification.Data["endTime"] = p.Segment.EndTime
		notification.Data["emotion"] = string(emotion)
		notification.Data["confidence"] = p.Segment.Confidence
		notification.Data["tone"] = string(live.ToneOf(p.Segment.Emotion))
		notification.Data["color"] = emotion.Color()
	case live.AnalysisComplete:
		notification.Title = "Analysis Completed"
		notification.Message = fmt.Sprintf("Call %s analysed successfully", callID)
	case live.AnalysisError:
		msg := p.Message
		if msg == "" {
			msg = "Analysis failed"
		}
		notification.Title = "Analysis Failed"
		notification.Message = truncate(msg, MaxNotifyTextLen)
	default:
		notification.Title = "Analysis Event"
		notification.Message = fmt.Sprintf("Event %s for call %s", evt.Type, callID)
	}
	return Notify(notification)
}

// SendLiveStatusNotification reports a live channel status change for callID.
func SendLiveStatusNotification(callID string, status live.Status) error {
	return Notify(&types.Notification{
		Type:    types.NotifyTypeLiveStatus,
		Title:   "Live Channel",
		Message: fmt.Sprintf("Live channel for call %s is %s", callID, status),
		Data: map[string]any{
			"callId": callID,
			"status": string(status),
		},
	})
}
