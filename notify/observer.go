package notify

import (
	"sync"

	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
	"github.com/moyoez/nanalyzer-go/uploader"
)

// observerQueueSize bounds pending upload notifications; extra progress events are dropped.
const observerQueueSize = 64

type uploadEvent struct {
	eventType string
	info      UploadInfo
}

// UploadObserver returns an uploader observer that turns state snapshots into upload_*
// notifications. Snapshots older than the last one seen are ignored. Delivery runs on its
// own goroutine.
func UploadObserver() func(uploader.State) {
	var (
		mu   sync.Mutex
		last = uploader.State{Phase: uploader.PhaseIdle}
	)
	queue := make(chan uploadEvent, observerQueueSize)
	go func() {
		for evt := range queue {
			if err := SendUploadNotification(evt.eventType, evt.info); err != nil {
				tool.DefaultLogger.Debugf("[Notify] Failed to send %s notification: %v", evt.eventType, err)
			}
		}
	}()

	return func(st uploader.State) {
		// held through the enqueue so events leave in snapshot order
		mu.Lock()
		defer mu.Unlock()
		if st.Seq < last.Seq {
			// a concurrent change already superseded this snapshot
			return
		}
		prev := last
		last = st

		eventType := uploadEventType(prev, st)
		if eventType == "" {
			return
		}
		evt := uploadEvent{eventType: eventType, info: uploadInfoOf(st)}
		if eventType == types.NotifyTypeUploadProgress {
			select {
			case queue <- evt:
			default:
			}
			return
		}
		// terminal and start events are never dropped
		queue <- evt
	}
}

func uploadEventType(prev, cur uploader.State) string {
	switch cur.Phase {
	case uploader.PhaseUploading:
		if prev.Phase != uploader.PhaseUploading {
			return types.NotifyTypeUploadStart
		}
		if cur.ChunksSent > prev.ChunksSent {
			return types.NotifyTypeUploadProgress
		}
	case uploader.PhaseCompleted:
		if prev.Phase != uploader.PhaseCompleted {
			return types.NotifyTypeUploadEnd
		}
	case uploader.PhaseCancelled:
		if prev.Phase != uploader.PhaseCancelled {
			return types.NotifyTypeUploadCancelled
		}
	case uploader.PhaseFailed:
		if prev.Phase != uploader.PhaseFailed {
			return types.NotifyTypeUploadFailed
		}
	}
	return ""
}

func uploadInfoOf(st uploader.State) UploadInfo {
	return UploadInfo{
		UploadID:    st.UploadID,
		Filename:    st.Filename,
		TotalBytes:  st.TotalBytes,
		ChunksSent:  st.ChunksSent,
		TotalChunks: st.TotalChunks,
		Progress:    st.Progress,
		CallID:      st.TargetID,
		Error:       st.ErrorMessage,
	}
}
