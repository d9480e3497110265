package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curatime/portal/internal/apiclient"
)

// maxProxyBody caps JSON bodies forwarded to the API.
const maxProxyBody = 1 << 20

// @Summary API passthrough
// @Description Forwards a JSON call to the CuraTime API with the browser session's token. The page the browser is on is read from X-Current-Path.
// @Tags proxy
// @Accept json
// @Produce json
// @Param path path string true "API path"
// @Success 200 {object} DataResponse
// @Failure 401 {object} RedirectResponse
// @Router /proxy/{path} [get]
func (s *Server) proxy(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "multipart bodies are not proxied", Toasts: toasts(c)})
		return
	}

	path := c.Param("path")
	if c.Request.URL.RawQuery != "" {
		path += "?" + c.Request.URL.RawQuery
	}

	// Browser-chosen paths share one metric series.
	req := apiclient.Request{Method: c.Request.Method, Path: path, Route: "/proxy"}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProxyBody+1))
	if err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Failed to read request body")
		return
	}
	if len(raw) > maxProxyBody {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large", Toasts: toasts(c)})
		return
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if !json.Valid(raw) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body is not valid JSON", Toasts: toasts(c)})
			return
		}
		req.Body = json.RawMessage(raw)
	}

	var out json.RawMessage
	if err := s.client.Do(c.Request.Context(), req, &out); err != nil {
		s.respondAPIError(c, headerPath(c), err)
		return
	}

	var data any
	if len(out) > 0 {
		data = out
	}
	respondData(c, http.StatusOK, data)
}
