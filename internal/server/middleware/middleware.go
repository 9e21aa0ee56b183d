package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

var (
	DefaultSkipper = func(c echo.Context) bool {
		return false
	}
)

type Skipper func(c echo.Context) bool

// Logger is the structured logger used by the access log and the error handler.
// *logger.Logger satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Response is the envelope of every JSON answer of the API.
type Response struct {
	Status       int    `json:"-"`
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorData    any    `json:"error_data,omitempty"`
}

type ResponseError struct {
	Status       int    `json:"-"`
	Err          error  `json:"-"`
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorData    any    `json:"error_data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("status: %d, code: %s; message: %+v", e.Status, e.ErrorCode, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}
