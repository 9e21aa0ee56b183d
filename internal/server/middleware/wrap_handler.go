package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Wrap turns a typed handler into an echo handler: the request struct is bound
// and validated with BindAndValidate, the result is rendered as a success
// Response. A *Response result is rendered as is.
func Wrap[Req any, Res any](f func(c echo.Context, req Req) (Res, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req Req
		if err := BindAndValidate(c, &req); err != nil {
			return err
		}

		data, err := f(c, req)
		if err != nil {
			return err
		}
		if c.Response().Committed {
			return nil
		}

		var payload any = data
		if v, ok := payload.(*Response); ok && v != nil {
			if v.Status == 0 {
				v.Status = http.StatusOK
			}
			return c.JSON(v.Status, v)
		}
		return c.JSON(http.StatusOK, &Response{
			Status:  http.StatusOK,
			Success: true,
			Data:    data,
		})
	}
}

// WrapNoContent is Wrap for handlers without a result; it answers 204.
func WrapNoContent[Req any](f func(c echo.Context, req Req) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req Req
		if err := BindAndValidate(c, &req); err != nil {
			return err
		}
		if err := f(c, req); err != nil {
			return err
		}
		if c.Response().Committed {
			return nil
		}
		return c.NoContent(http.StatusNoContent)
	}
}
