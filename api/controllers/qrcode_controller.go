package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/moyoez/nanalyzer-go/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// GenerateCallQRCode returns a PNG QR code linking to a call page of the web UI.
// GET ?callId=<id>&size=200x200, or ?data=<content> for arbitrary text.
func GenerateCallQRCode(c *gin.Context) {
	data := c.Query("data")
	if callID := strings.TrimSpace(c.Query("callId")); callID != "" {
		link, err := tool.BuildCallPageURL(tool.GetCurrentConfig().WebBaseURL, callID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to build call link: "+err.Error()))
			return
		}
		data = link
	}
	if data == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: callId"))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}
	c.Header("X-QR-Content", data)
	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
