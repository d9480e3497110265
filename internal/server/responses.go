package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/auth"
	"github.com/curatime/portal/internal/notify"
	"github.com/curatime/portal/internal/portal"
)

// currentPathHeader carries the page the browser is on for proxied calls.
const currentPathHeader = "X-Current-Path"

// DataResponse wraps successful payloads.
type DataResponse struct {
	Data   any                   `json:"data"`
	Toasts []notify.Notification `json:"toasts"`
}

// ErrorResponse is returned for failed calls.
type ErrorResponse struct {
	Error  string                `json:"error"`
	Toasts []notify.Notification `json:"toasts"`
}

// RedirectResponse tells the browser to go to a login page.
type RedirectResponse struct {
	Redirect string                `json:"redirect"`
	Toasts   []notify.Notification `json:"toasts"`
}

func toasts(c *gin.Context) []notify.Notification {
	if collector, ok := notify.CollectorFrom(c.Request.Context()); ok {
		if items := collector.Items(); items != nil {
			return items
		}
	}
	return []notify.Notification{}
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, DataResponse{Data: data, Toasts: toasts(c)})
}

// viewPath is the portal page a /view route serves.
func viewPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Request.URL.Path, "/view")
}

// headerPath is the page announced by the browser, "/" when absent.
func headerPath(c *gin.Context) string {
	if p := c.GetHeader(currentPathHeader); p != "" {
		return p
	}
	return "/"
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

func (s *Server) redirectToLogin(c *gin.Context, route string) {
	s.metrics.LoginRedirect(route)
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, route)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, RedirectResponse{Redirect: route, Toasts: toasts(c)})
}

// respondAPIError maps a failed call made while the user is on page to a
// response: a login redirect when the session is no longer accepted on a
// protected page, the upstream status otherwise.
func (s *Server) respondAPIError(c *gin.Context, page string, err error) {
	if route, ok := s.guard.Redirect(page, err); ok {
		s.logger.Debug().Str("page", page).Str("login", route).Msg("Session rejected, redirecting to login")
		s.redirectToLogin(c, route)
		return
	}

	var verr *portal.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, auth.ErrInvalidLogin):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Toasts: toasts(c)})
		return
	}

	if apiErr, ok := apiclient.AsError(err); ok {
		status := apiErr.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		message := apiErr.Message
		if message == "" {
			message = apiclient.FallbackMessage
		}
		c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Toasts: toasts(c)})
		return
	}

	respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
}
