package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
	"github.com/moyoez/nanalyzer-go/uploader"
)

// UserStartUpload validates the file and starts uploading it in the background.
// POST /api/self/v1/upload
func UserStartUpload(c *gin.Context) {
	var request types.UserUploadRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if backendOrAbort(c) == nil {
		return
	}
	uploads := models.GetUploadController()
	if uploads == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Upload controller is not configured"))
		return
	}

	path, err := tool.ResolveLocalPath(request.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	src, err := uploader.OpenFile(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	cfg := tool.GetCurrentConfig()
	if err := uploader.ValidateAudio(src, cfg.MaxUploadBytes); err != nil {
		closeSource(src)
		respondUploadError(c, err)
		return
	}

	// the upload outlives this request; the owner is resolved by the controller
	err = uploads.Start(context.Background(), src, "", func(callID string, err error) {
		closeSource(src)
		if err != nil || !cfg.AutoLive {
			return
		}
		if _, _, err := OpenLiveChannel(callID); err != nil {
			tool.DefaultLogger.Errorf("[Live] Failed to open live channel for call %s: %v", callID, err)
		}
	})
	if err != nil {
		closeSource(src)
		respondUploadError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, tool.FastReturnMessageWithData("Upload started", uploads.State()))
}

// UserUploadStatus returns the current upload state.
// GET /api/self/v1/upload/status
func UserUploadStatus(c *gin.Context) {
	uploads := models.GetUploadController()
	if uploads == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Upload controller is not configured"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(uploads.State()))
}

// UserCancelUpload asks the active upload to stop.
// POST /api/self/v1/upload/cancel
func UserCancelUpload(c *gin.Context) {
	uploads := models.GetUploadController()
	if uploads == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Upload controller is not configured"))
		return
	}
	if !uploads.CancelActive() {
		c.JSON(http.StatusConflict, tool.FastReturnError("No upload in progress"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(uploads.State()))
}

// UserResetUpload returns the controller to idle.
// POST /api/self/v1/upload/reset
func UserResetUpload(c *gin.Context) {
	uploads := models.GetUploadController()
	if uploads == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Upload controller is not configured"))
		return
	}
	uploads.Reset()
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(uploads.State()))
}

func respondUploadError(c *gin.Context, err error) {
	var ve *uploader.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, tool.FastReturnErrorWithData(err.Error(), map[string]any{"field": ve.Field}))
	case errors.Is(err, uploader.ErrBusy):
		c.JSON(http.StatusConflict, tool.FastReturnError(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
	}
}

func closeSource(src *uploader.FileSource) {
	if err := src.Close(); err != nil {
		tool.DefaultLogger.Errorf("Failed to close %s: %v", src.Path(), err)
	}
}
