package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// maxCallPageSize caps the limit forwarded to the backend.
const maxCallPageSize = 100

// UserListCalls lists the user's analysed calls, one page at a time.
// GET /api/self/v1/calls?limit=20&cursor=...
func UserListCalls(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxCallPageSize)
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	resp, err := backend.ListCalls(c.Request.Context(), limit, c.Query("cursor"))
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}

// UserGetCall returns one call with segments, alerts and summary.
// GET /api/self/v1/calls/:callId
func UserGetCall(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	resp, err := backend.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}

// GET /api/self/v1/calls/:callId/segments
func UserGetCallSegments(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	segments, err := backend.GetCallSegments(c.Request.Context(), callID)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if segments == nil {
		segments = []types.SegmentResponse{}
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(segments))
}

// UserSubmitFeedback forwards corrected emotion scores for one segment.
// POST /api/self/v1/calls/:callId/feedback
func UserSubmitFeedback(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	var request types.FeedbackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	resp, err := backend.SubmitFeedback(c.Request.Context(), callID, request)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}

// UserDeleteCall deletes a call on the backend and drops its local live state.
// DELETE /api/self/v1/calls/:callId
func UserDeleteCall(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	if err := backend.DeleteCall(c.Request.Context(), callID); err != nil {
		respondBackendError(c, err)
		return
	}
	if ch := models.RemoveLiveChannel(callID); ch != nil {
		ch.Close()
	}
	models.GetTracker().Forget(callID)
	tool.DefaultLogger.Infof("[Calls] Deleted call %s", callID)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
