package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/notify"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// UserStatus returns agent status for the web UI.
// GET /api/self/v1/status
func UserStatus(c *gin.Context) {
	resp := gin.H{
		"running":           true,
		"notify_ws_enabled": models.GetNotifyHub() != nil,
		"live_channels":     len(models.LiveCallIDs()),
		"tracked_calls":     len(models.GetTracker().List()),
	}
	if hub := models.GetNotifyHub(); hub != nil {
		resp["notify_ws_clients"] = hub.Len()
	}
	if uploads := models.GetUploadController(); uploads != nil {
		state := uploads.State()
		resp["upload_phase"] = state.Phase
		resp["uploading"] = state.Uploading
	}
	if backend := models.GetBackend(); backend != nil {
		resp["api_base_url"] = backend.BaseURL()
		resp["user_id"] = backend.UserID()
	}
	c.JSON(http.StatusOK, resp)
}

// UserConfigGet returns the active configuration.
// GET /api/self/v1/config
func UserConfigGet(c *gin.Context) {
	c.JSON(http.StatusOK, configResponse(tool.GetCurrentConfig()))
}

// UserConfigPatch updates the runtime settings and persists them to config.yaml.
// PATCH /api/self/v1/config
func UserConfigPatch(c *gin.Context) {
	var body types.ConfigPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	cfg := tool.GetCurrentConfig()
	if body.MaxUploadBytes != nil {
		if *body.MaxUploadBytes <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("max_upload_bytes must be positive"))
			return
		}
		cfg.MaxUploadBytes = *body.MaxUploadBytes
	}
	if body.Reconnect != nil {
		cfg.Reconnect = *body.Reconnect
	}
	if body.ReconnectIntervalMs != nil {
		if *body.ReconnectIntervalMs <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("reconnect_interval_ms must be positive"))
			return
		}
		cfg.ReconnectIntervalMs = *body.ReconnectIntervalMs
	}
	if body.AutoLive != nil {
		cfg.AutoLive = *body.AutoLive
	}
	if body.WebBaseURL != nil {
		cfg.WebBaseURL = strings.TrimRight(*body.WebBaseURL, "/")
	}

	if err := tool.PersistConfig(cfg); err != nil {
		tool.DefaultLogger.Errorf("Failed to persist config: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to save config: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, configResponse(tool.GetCurrentConfig()))
}

func configResponse(cfg types.AppConfig) types.ConfigResponse {
	return types.ConfigResponse{
		APIBaseURL:          cfg.APIBaseURL,
		UserID:              cfg.UserID,
		Port:                cfg.Port,
		ChunkSizeBytes:      cfg.ChunkSizeBytes,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		Reconnect:           cfg.Reconnect,
		ReconnectIntervalMs: cfg.ReconnectIntervalMs,
		AutoLive:            cfg.AutoLive,
		SkipNotify:          !notify.UseNotify,
		WebBaseURL:          cfg.WebBaseURL,
	}
}
