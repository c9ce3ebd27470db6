package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/tool"
)

// BackendProbeResponse reports backend reachability at network and API level.
type BackendProbeResponse struct {
	BaseURL       string           `json:"baseUrl"`
	ICMP          tool.ProbeResult `json:"icmp"`
	HTTPReachable bool             `json:"httpReachable"`
	HTTPError     string           `json:"httpError,omitempty"`
	ModelsTrained bool             `json:"modelsTrained"`
}

// UserProbeBackend pings the backend host and then calls its training status endpoint.
// ICMP is informational only: many hosts drop it while the API is fine.
// GET /api/self/v1/probe
func UserProbeBackend(c *gin.Context) {
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	resp := BackendProbeResponse{BaseURL: backend.BaseURL()}

	host, err := tool.HostOf(backend.BaseURL())
	if err != nil {
		resp.ICMP.Error = err.Error()
	} else {
		resp.ICMP = tool.QuickICMPProbe(host, tool.ProbeTimeout)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), tool.ProbeTimeout)
	defer cancel()
	status, err := backend.TrainingStatus(ctx)
	if err != nil {
		resp.HTTPError = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	resp.HTTPReachable = true
	resp.ModelsTrained = status.ModelsTrained
	c.JSON(http.StatusOK, resp)
}
