package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/transfer"
	"github.com/moyoez/nanalyzer-go/types"
)

// ownerScoped is implemented by backends that can act for another user.
type ownerScoped interface {
	WithUserID(userID string) *transfer.Client
}

// UserRegister registers a new user on the backend and makes it the agent's owner.
// POST /api/self/v1/user/register
func UserRegister(c *gin.Context) {
	var request types.UserRegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	if uploads := models.GetUploadController(); uploads != nil && uploads.State().Uploading {
		c.JSON(http.StatusConflict, tool.FastReturnError("Cannot switch user while an upload is active"))
		return
	}
	user, err := backend.RegisterUser(c.Request.Context(), request)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if !switchUser(c, backend, user.UserID) {
		return
	}
	tool.DefaultLogger.Infof("[User] Registered %s as %s", user.Name, user.UserID)
	c.JSON(http.StatusCreated, tool.FastReturnSuccessWithData(user))
}

// UserLogin makes an existing backend user the agent's owner.
// POST /api/self/v1/user/login
func UserLogin(c *gin.Context) {
	var request types.UserLoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	userID := strings.TrimSpace(request.UserID)
	if userID == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("userId is required"))
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	if uploads := models.GetUploadController(); uploads != nil && uploads.State().Uploading {
		c.JSON(http.StatusConflict, tool.FastReturnError("Cannot switch user while an upload is active"))
		return
	}
	user, err := backend.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if !switchUser(c, backend, user.UserID) {
		return
	}
	tool.DefaultLogger.Infof("[User] Logged in as %s", user.UserID)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(user))
}

// UserLogout forgets the agent's owner; uploads are rejected until a user is set again.
// POST /api/self/v1/user/logout
func UserLogout(c *gin.Context) {
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	previous := backend.UserID()
	if !switchUser(c, backend, "") {
		return
	}
	tool.DefaultLogger.Infof("[User] Logged out %s", previous)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// switchUser rescopes the backend to userID and saves it, unless an upload is active.
// The swap happens under the upload controller's lock so no upload can start halfway.
// On failure the response has been written.
func switchUser(c *gin.Context, backend models.Backend, userID string) bool {
	swap := func() {
		if scoped, ok := backend.(ownerScoped); ok {
			models.SetBackend(scoped.WithUserID(userID))
		}
	}
	if uploads := models.GetUploadController(); uploads != nil {
		if err := uploads.WhileIdle(swap); err != nil {
			c.JSON(http.StatusConflict, tool.FastReturnError("Cannot switch user while an upload is active"))
			return false
		}
	} else {
		swap()
	}

	cfg := tool.GetCurrentConfig()
	cfg.UserID = userID
	if err := tool.PersistConfig(cfg); err != nil {
		// the switch already took effect for this process
		tool.DefaultLogger.Errorf("[User] Failed to save user id %q: %v", userID, err)
	}
	return true
}

// UserGetProfile returns the configured user as the backend knows it.
// GET /api/self/v1/user
func UserGetProfile(c *gin.Context) {
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	if backend.UserID() == "" {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No user configured"))
		return
	}
	user, err := backend.GetUser(c.Request.Context(), backend.UserID())
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(user))
}

// UserUpdateSettings changes the user's settings on the backend.
// PUT /api/self/v1/user/settings
func UserUpdateSettings(c *gin.Context) {
	var request types.UserSettingsUpdate
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if request.AudioRetentionDays <= 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("audio_retention_days must be positive"))
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	resp, err := backend.UpdateSettings(c.Request.Context(), backend.UserID(), request)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}
