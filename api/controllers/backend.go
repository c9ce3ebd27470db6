package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/transfer"
)

// backendOrAbort answers 503 when no backend client is configured.
func backendOrAbort(c *gin.Context) models.Backend {
	backend := models.GetBackend()
	if backend == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Analysis backend is not configured"))
		return nil
	}
	return backend
}

// respondBackendError maps a backend failure onto the agent response. Client errors are
// passed through, as are parameters the client rejected locally. Everything else is a bad gateway.
func respondBackendError(c *gin.Context, err error) {
	code := transfer.StatusCodeOf(err)
	var apiErr *transfer.APIError
	switch {
	case errors.Is(err, transfer.ErrInvalidParams):
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
	case code >= 400 && code < 500:
		msg := err.Error()
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.JSON(code, tool.FastReturnErrorWithData(msg, backendErrorData(err, code)))
	case code != 0:
		c.JSON(http.StatusBadGateway, tool.FastReturnErrorWithData(err.Error(), backendErrorData(err, code)))
	default:
		c.JSON(http.StatusBadGateway, tool.FastReturnError(err.Error()))
	}
}

func backendErrorData(err error, code int) map[string]any {
	data := map[string]any{"backendStatus": code}
	var apiErr *transfer.APIError
	if errors.As(err, &apiErr) {
		data["retryable"] = apiErr.Retryable()
	}
	return data
}
