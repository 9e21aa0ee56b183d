package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

type translationsResponse struct {
	Language  string            `json:"language"`
	Available []string          `json:"available"`
	Table     map[string]string `json:"translations"`
}

func (h *Handler) Translations(_ echo.Context, _ emptyRequest) (*translationsResponse, error) {
	return &translationsResponse{
		Language:  h.translations.CurrentLanguage(),
		Available: h.translations.Available(),
		Table:     h.translations.Table(),
	}, nil
}

type changeLanguageRequest struct {
	Language string `json:"language" validate:"required,language"`
}

// ChangeLanguage selects a language. Codes without a table are rejected and
// leave the current language as is.
func (h *Handler) ChangeLanguage(c echo.Context, req changeLanguageRequest) (*translationsResponse, error) {
	ok, err := h.translations.ChangeLanguage(c.Request().Context(), req.Language)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidPayload
	}
	return h.Translations(c, emptyRequest{})
}
