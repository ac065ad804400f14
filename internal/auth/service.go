package auth

import (
	"context"
	"fmt"
	"net/http"

	"trade-client/internal/gateway"
	"trade-client/models"
)

// Service performs the session-lifecycle calls. Login and refresh are the
// only places a token pair enters the store; logout is the only voluntary
// way it leaves.
type Service struct {
	gw    *gateway.Gateway
	store Store
}

func NewService(gw *gateway.Gateway, store Store) *Service {
	return &Service{gw: gw, store: store}
}

// Login authenticates against the account service and saves the returned
// token pair plus the current-user record as one unit.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	var reply struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		User         models.User `json:"user"`
	}

	err := s.gw.SendJSON(ctx, &gateway.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   map[string]string{"email": email, "password": password},
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	cred := models.Credential{
		AccessToken:  reply.AccessToken,
		RefreshToken: reply.RefreshToken,
	}
	if err := s.store.Save(ctx, cred, &reply.User); err != nil {
		return nil, fmt.Errorf("Login: store.Save: %w", err)
	}

	return &reply.User, nil
}

// Logout clears the stored session as a unit. The backend is not informed;
// the refresh token simply stops being presented.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("Logout: store.Clear: %w", err)
	}
	return nil
}

// CurrentUser returns the persisted user record, if any.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.store.User(ctx)
}
