package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/notify"
	"github.com/curatime/portal/internal/session"
	"github.com/curatime/portal/internal/storage"
)

const (
	browserSessionKey = "browser_session"
	sessionStoreKey   = "session_store"

	// touchInterval bounds how often a session's expiry is pushed back.
	touchInterval = time.Minute
)

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		s.metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), duration)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// browserSessionMiddleware binds the request to the browser session named by
// the session cookie, creating one when the cookie is missing, unknown or
// expired. API calls made while handling the request authenticate with that
// session's tokens and their notifications are collected for the response.
func (s *Server) browserSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ttl := s.config.Session.TTL

		var current *storage.BrowserSession
		if id, err := c.Cookie(s.config.Session.CookieName); err == nil && id != "" {
			current, err = s.backend.GetSession(ctx, id)
			if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
				respondWithError(c, s.logger, http.StatusInternalServerError, err, "Session storage unavailable")
				return
			}
		}

		if current == nil {
			created, err := s.backend.CreateSession(ctx, ttl)
			if err != nil {
				respondWithError(c, s.logger, http.StatusInternalServerError, err, "Session storage unavailable")
				return
			}
			current = created
			s.logger.Debug().Str("session_id", current.ID).Msg("Browser session created")
		} else if time.Since(current.LastSeenAt) > touchInterval {
			if err := s.backend.TouchSession(ctx, current.ID, ttl); err != nil {
				s.logger.Warn().Err(err).Str("session_id", current.ID).Msg("Failed to extend browser session")
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.config.Session.CookieName, current.ID, int(ttl.Seconds()), "/", "", c.Request.TLS != nil, true)

		store := s.store.ForSession(current.ID)
		c.Set(browserSessionKey, current.ID)
		c.Set(sessionStoreKey, store)

		ctx = apiclient.ContextWithTokenSource(ctx, session.NewResolver(store))
		ctx, _ = notify.WithCollector(ctx)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func sessionStore(c *gin.Context) session.Store {
	store, ok := c.Get(sessionStoreKey)
	if !ok {
		return session.NewMemoryStore(nil)
	}
	return store.(session.Store)
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message, "toasts": toasts(c)})
	c.Abort()
}
