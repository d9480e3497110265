// Package auth is the authentication-state provider: it signs users in against
// the API, keeps their tokens in a session store and answers who is signed in.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/navigation"
	"github.com/curatime/portal/internal/session"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidLogin     = errors.New("invalid login request")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginRequest is what a user submits on one of the login pages.
type LoginRequest struct {
	Role     string `json:"role" validate:"required,oneof=client doctor admin"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the union of the client, doctor and admin login payloads.
type LoginResponse struct {
	Access    string     `json:"access"`
	Refresh   string     `json:"refresh"`
	UserID    FlexibleID `json:"user_id"`
	DoctorID  FlexibleID `json:"doctor_id"`
	UserRole  string     `json:"user_role"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
}

// LoginPath returns the API endpoint that signs in role.
func LoginPath(role string) string {
	switch role {
	case navigation.RoleAdmin:
		return "/admin/login/"
	case navigation.RoleDoctor:
		return "/doctor/login/"
	default:
		return "/login/"
	}
}

// Provider manages one user session held in store.
type Provider struct {
	client *apiclient.Client
	store  session.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewProvider creates a provider for the session kept in store.
func NewProvider(client *apiclient.Client, store session.Store, logger zerolog.Logger) *Provider {
	return &Provider{
		client: client,
		store:  store,
		logger: logger.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// Login signs in with the API and stores the session. Only the modern token
// key is written.
func (p *Provider) Login(ctx context.Context, req LoginRequest) (*Identity, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogin, err)
	}

	resp, err := apiclient.Post[LoginResponse](ctx, p.client, LoginPath(req.Role), map[string]string{
		"email":    req.Email,
		"password": req.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.Access == "" {
		return nil, fmt.Errorf("login failed: response carried no access token")
	}

	role := resp.UserRole
	if role == "" {
		role = req.Role
	}
	user := storedUser{
		ID:        string(resp.UserID),
		Email:     resp.Email,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
		Role:      role,
		DoctorID:  string(resp.DoctorID),
	}
	if user.ID == "" {
		if claims, err := ParseClaims(resp.Access); err == nil {
			user.ID = string(claims.UserID)
		}
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	// Drop whatever an older client left behind before writing the new session.
	if err := session.Clear(ctx, p.store); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	values := []struct{ key, value string }{
		{session.KeyAuthToken, resp.Access},
		{session.KeyRefreshToken, resp.Refresh},
		{session.KeyUser, string(userJSON)},
		{session.KeyUserType, role},
	}
	for _, v := range values {
		if v.value == "" {
			continue
		}
		if err := p.store.Set(ctx, v.key, v.value); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", v.key, err)
		}
	}

	p.logger.Info().Str("role", role).Str("user_id", user.ID).Msg("User signed in")

	return p.Current(ctx)
}

// Logout forgets the session, legacy token keys included.
func (p *Provider) Logout(ctx context.Context) error {
	if err := session.Clear(ctx, p.store); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	p.logger.Info().Msg("User signed out")
	return nil
}

// Current returns the signed-in identity, or ErrNotAuthenticated when no
// token is stored. A token found only under a legacy key is first promoted to
// the modern key.
func (p *Provider) Current(ctx context.Context) (*Identity, error) {
	promoted, err := session.Promote(ctx, p.store)
	if err != nil {
		return nil, err
	}
	if promoted {
		p.logger.Debug().Msg("Promoted legacy token to modern key")
	}

	token, err := session.ResolveToken(ctx, p.store)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	identity := &Identity{}
	if claims, err := ParseClaims(token); err == nil {
		identity.UserID = string(claims.UserID)
		identity.ExpiresAt = claims.Expiry()
	} else {
		// Tokens are opaque to the portal; a non-JWT token is still a session.
		p.logger.Debug().Err(err).Msg("Stored token is not a JWT")
	}

	if raw, err := p.store.Get(ctx, session.KeyUser); err == nil && raw != "" {
		var user storedUser
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			p.logger.Warn().Err(err).Msg("Ignoring unreadable stored user")
		} else {
			if identity.UserID == "" {
				identity.UserID = user.ID
			}
			identity.Email = user.Email
			identity.FirstName = user.FirstName
			identity.LastName = user.LastName
			identity.Role = user.Role
			identity.DoctorID = user.DoctorID
		}
	} else if err != nil && !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("failed to read stored user: %w", err)
	}

	if userType, err := p.store.Get(ctx, session.KeyUserType); err == nil && userType != "" {
		identity.Role = userType
	} else if err != nil && !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("failed to read user type: %w", err)
	}
	if identity.Role == "" {
		identity.Role = navigation.RoleClient
	}

	return identity, nil
}

// Authenticated reports whether a non-expired session is stored.
func (p *Provider) Authenticated(ctx context.Context) bool {
	identity, err := p.Current(ctx)
	return err == nil && !identity.Expired(p.now())
}
