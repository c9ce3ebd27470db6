package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/audio"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/transfer"
	"github.com/moyoez/nanalyzer-go/types"
)

// UserTrainVoice enrolls the configured user with the given recordings.
// POST /api/self/v1/voice/train
func UserTrainVoice(c *gin.Context) {
	var request types.UserVoiceTrainRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if n := len(request.Files); n < transfer.MinTrainingSamples || n > transfer.MaxTrainingSamples {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(fmt.Sprintf(
			"voice training needs %d to %d recordings, got %d", transfer.MinTrainingSamples, transfer.MaxTrainingSamples, n)))
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}

	paths := make([]string, 0, len(request.Files))
	for _, f := range request.Files {
		path, err := tool.ResolveLocalPath(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		paths = append(paths, path)
	}
	samples, err := audio.LoadTrainingSamples(paths)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	resp, err := backend.TrainVoice(c.Request.Context(), backend.UserID(), samples)
	if err != nil {
		tool.DefaultLogger.Errorf("[Voice] Training failed: %v", err)
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}

// UserVerifyVoice checks one recording against the enrolled voice.
// POST /api/self/v1/voice/verify
func UserVerifyVoice(c *gin.Context) {
	var request types.UserVoiceVerifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	backend := backendOrAbort(c)
	if backend == nil {
		return
	}
	path, err := tool.ResolveLocalPath(request.FilePath)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(fmt.Sprintf("failed to read file: %v", err)))
		return
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("file is empty"))
		return
	}
	source := request.Source
	if source == "" {
		source = "upload"
	}

	resp, err := backend.VerifyVoice(c.Request.Context(), backend.UserID(), audio.NewVerificationRequest(filepath.Base(path), source, raw))
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(resp))
}
