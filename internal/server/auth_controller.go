package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/hds-chat/internal/server/middleware"
)

type emptyRequest struct{}

func (h *Handler) sessionResponse(user *models.User) (*models.SessionResponse, error) {
	if user == nil {
		return &models.SessionResponse{}, nil
	}
	token, expiresAt, err := h.session.IssueToken()
	if err != nil {
		return nil, err
	}
	return &models.SessionResponse{
		Authenticated: true,
		User:          user,
		Token:         token,
		ExpiresAt:     expiresAt,
	}, nil
}

func (h *Handler) Login(c echo.Context, req models.LoginRequest) (*models.SessionResponse, error) {
	user, err := h.session.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		return nil, err
	}
	return h.sessionResponse(user)
}

func (h *Handler) Register(c echo.Context, req models.RegisterRequest) (*models.SessionResponse, error) {
	user, err := h.session.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return h.sessionResponse(user)
}

// Restore revalidates the persisted session. An already authenticated holder
// answers with the current user.
func (h *Handler) Restore(c echo.Context, _ emptyRequest) (*models.SessionResponse, error) {
	if user := h.session.CurrentUser(); user != nil {
		return h.sessionResponse(user)
	}
	user, err := h.session.RestoreSession(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return h.sessionResponse(user)
}

func (h *Handler) Logout(c echo.Context, _ emptyRequest) error {
	h.session.Logout(c.Request().Context())
	return nil
}

type meRequest struct {
	UserID string `jwt:"sub" validate:"required"`
}

func (h *Handler) Me(c echo.Context, req meRequest) (*models.User, error) {
	user := pkgmdw.CurrentUser(c)
	if user == nil || user.ID != req.UserID {
		return nil, models.ErrNotAuthenticated
	}
	return user, nil
}
