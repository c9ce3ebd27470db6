package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/live"
	"github.com/moyoez/nanalyzer-go/notify"
	"github.com/moyoez/nanalyzer-go/share"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// LiveStatusResponse is the live view of one call.
type LiveStatusResponse struct {
	CallID    string           `json:"callId"`
	URL       string           `json:"url,omitempty"`
	Status    live.Status      `json:"status"`
	Connected bool             `json:"connected"`
	LastEvent *live.Event      `json:"lastEvent,omitempty"`
	State     *share.CallState `json:"state,omitempty"`
}

// OpenLiveChannel opens the live channel of callID, or returns the one already open.
// created reports whether a new channel was started.
func OpenLiveChannel(callID string) (ch *live.Channel, created bool, err error) {
	if existing := models.GetLiveChannel(callID); existing != nil {
		return existing, false, nil
	}
	backend := models.GetBackend()
	if backend == nil {
		return nil, false, fmt.Errorf("analysis backend is not configured")
	}
	url, err := backend.LiveURL(callID)
	if err != nil {
		return nil, false, err
	}

	tracker := models.GetTracker()
	if _, ok := tracker.Get(callID); !ok {
		tracker.Track(callID)
	}

	cfg := tool.GetCurrentConfig()
	header := http.Header{}
	header.Set("X-User-ID", backend.UserID())
	opts := []live.Option{
		live.WithReconnect(cfg.Reconnect),
		live.WithReconnectInterval(time.Duration(cfg.ReconnectIntervalMs) * time.Millisecond),
		live.WithHeader(header),
		live.WithHandlers(live.Handlers{
			OnOpen:    func() { sendLiveStatus(callID, live.StatusOpen) },
			OnMessage: func(evt live.Event) { handleLiveEvent(tracker, callID, evt) },
			OnError:   func(err error) { tool.DefaultLogger.Warnf("[Live] Call %s: %v", callID, err) },
			OnClose:   func() { sendLiveStatus(callID, live.StatusClosed) },
		}),
	}
	opts = append(opts, models.GetLiveOptions()...)

	ch = live.New(url, opts...)
	if existing := models.PutLiveChannel(callID, ch); existing != nil {
		return existing, false, nil
	}
	ch.Start()
	tool.DefaultLogger.Infof("[Live] Opened live channel for call %s", callID)
	return ch, true, nil
}

func handleLiveEvent(tracker *share.Tracker, callID string, evt live.Event) {
	if _, err := tracker.Apply(callID, evt); err != nil {
		tool.DefaultLogger.Warnf("[Live] Call %s: failed to apply %s event: %v", callID, evt.Type, err)
	}
	if err := notify.SendAnalysisEventNotification(callID, evt); err != nil {
		tool.DefaultLogger.Debugf("[Notify] Failed to send analysis event notification: %v", err)
	}
}

func sendLiveStatus(callID string, status live.Status) {
	if err := notify.SendLiveStatusNotification(callID, status); err != nil {
		tool.DefaultLogger.Debugf("[Notify] Failed to send live status notification: %v", err)
	}
}

func callIDParam(c *gin.Context) (string, bool) {
	callID := strings.TrimSpace(c.Param("callId"))
	if callID == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: callId"))
		return "", false
	}
	return callID, true
}

// UserOpenLive opens (or reuses) the live channel of a call.
// POST /api/self/v1/live/:callId
func UserOpenLive(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	if backendOrAbort(c) == nil {
		return
	}
	ch, created, err := OpenLiveChannel(callID)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	c.JSON(code, liveStatusOf(callID, ch))
}

// UserGetLive returns channel status and tracked analysis state of a call.
// GET /api/self/v1/live/:callId
func UserGetLive(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	ch := models.GetLiveChannel(callID)
	resp := liveStatusOf(callID, ch)
	if ch == nil && resp.State == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Call is not tracked"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UserCloseLive tears down the live channel and forgets the tracked state.
// DELETE /api/self/v1/live/:callId
func UserCloseLive(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	ch := models.RemoveLiveChannel(callID)
	if ch == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No live channel for call"))
		return
	}
	ch.Close()
	models.GetTracker().Forget(callID)
	tool.DefaultLogger.Infof("[Live] Closed live channel for call %s", callID)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// liveChannelOrAbort answers 404 when callID has no live channel.
func liveChannelOrAbort(c *gin.Context) (string, *live.Channel) {
	callID, ok := callIDParam(c)
	if !ok {
		return "", nil
	}
	ch := models.GetLiveChannel(callID)
	if ch == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No live channel for call"))
		return "", nil
	}
	return callID, ch
}

// UserDisconnectLive closes the connection but keeps the channel registered; it stays
// closed until reconnected.
// POST /api/self/v1/live/:callId/disconnect
func UserDisconnectLive(c *gin.Context) {
	callID, ch := liveChannelOrAbort(c)
	if ch == nil {
		return
	}
	ch.Disconnect()
	c.JSON(http.StatusOK, liveStatusOf(callID, ch))
}

// UserReconnectLive drops the current connection, if any, and dials again.
// POST /api/self/v1/live/:callId/reconnect
func UserReconnectLive(c *gin.Context) {
	callID, ch := liveChannelOrAbort(c)
	if ch == nil {
		return
	}
	ch.Reconnect()
	c.JSON(http.StatusOK, liveStatusOf(callID, ch))
}

// UserSendLive writes one event on the call's live connection.
// POST /api/self/v1/live/:callId/send
func UserSendLive(c *gin.Context) {
	var request types.UserLiveSendRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	_, ch := liveChannelOrAbort(c)
	if ch == nil {
		return
	}
	evt, err := live.NewEvent(live.EventType(request.Type), request.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	if err := ch.Send(evt); err != nil {
		if errors.Is(err, live.ErrNotConnected) {
			c.JSON(http.StatusConflict, tool.FastReturnError(err.Error()))
			return
		}
		c.JSON(http.StatusBadGateway, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// UserListLive lists the calls with an open live channel.
// GET /api/self/v1/live
func UserListLive(c *gin.Context) {
	ids := models.LiveCallIDs()
	items := make([]LiveStatusResponse, 0, len(ids))
	for _, id := range ids {
		items = append(items, liveStatusOf(id, models.GetLiveChannel(id)))
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(items))
}

func liveStatusOf(callID string, ch *live.Channel) LiveStatusResponse {
	resp := LiveStatusResponse{CallID: callID, Status: live.StatusClosed}
	if ch != nil {
		resp.URL = ch.URL()
		resp.Status = ch.Status()
		resp.Connected = ch.IsConnected()
		if evt, ok := ch.LastMessage(); ok {
			resp.LastEvent = &evt
		}
	}
	if state, ok := models.GetTracker().Get(callID); ok {
		resp.State = &state
	}
	return resp
}
