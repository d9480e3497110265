package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curatime/portal/internal/auth"
	"github.com/curatime/portal/internal/navigation"
	"github.com/curatime/portal/internal/notify"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Identity *auth.Identity `json:"identity"`
	Home     string         `json:"home"`
}

func (s *Server) provider(c *gin.Context) *auth.Provider {
	return auth.NewProvider(s.client, sessionStore(c), s.logger)
}

// @Summary Sign in
// @Description Signs in on the login page of the requested role and stores the tokens in the browser session
// @Tags session
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Login request"
// @Success 200 {object} DataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} RedirectResponse
// @Router /session/login [post]
func (s *Server) login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Toasts: toasts(c)})
		return
	}

	ctx := c.Request.Context()
	identity, err := s.provider(c).Login(ctx, req)
	if err != nil {
		page := c.GetHeader(currentPathHeader)
		if page == "" {
			page = navigation.LoginForRole(req.Role)
		}
		s.respondAPIError(c, page, err)
		return
	}

	notify.Success(ctx, s.notifier, "Connexion réussie")
	respondData(c, http.StatusOK, LoginResult{Identity: identity, Home: identity.HomeRoute()})
}

// @Summary Sign out
// @Tags session
// @Success 204
// @Router /session/logout [post]
func (s *Server) logout(c *gin.Context) {
	if err := s.provider(c).Logout(c.Request.Context()); err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to sign out")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Description Returns the signed-in identity. On a protected page without a valid session the response is a login redirect.
// @Tags session
// @Produce json
// @Success 200 {object} DataResponse
// @Failure 401 {object} RedirectResponse
// @Router /session/me [get]
func (s *Server) me(c *gin.Context) {
	ctx := c.Request.Context()
	page := headerPath(c)

	identity, err := s.provider(c).Current(ctx)
	if err != nil && !errors.Is(err, auth.ErrNotAuthenticated) {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to read session")
		return
	}

	if identity == nil || identity.Expired(time.Now()) {
		if route, ok := navigation.LoginRoute(page); ok {
			s.redirectToLogin(c, route)
			return
		}
		respondData(c, http.StatusOK, nil)
		return
	}

	respondData(c, http.StatusOK, identity)
}
