package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

var httpStatusByCode = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.FailedPrecondition: http.StatusPreconditionFailed,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
}

// StatusFromError maps the status code carried by a domain error to an HTTP
// status, 500 when it carries none.
func StatusFromError(err error) int {
	if s, ok := httpStatusByCode[models.Code(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// NewResponseError builds the error payload for a domain error. The message of
// the innermost status is exposed, wrapped details stay in the logs.
func NewResponseError(err error) *ResponseError {
	resp := &ResponseError{
		Status:  StatusFromError(err),
		Success: false,
		Err:     err,
	}
	code := models.Code(err)
	if code != codes.Unknown {
		resp.ErrorCode = code.String()
		resp.ErrorMessage = statusMessage(err)
	}
	return resp
}

type grpcStatus interface{ GRPCStatus() *status.Status }

func statusMessage(err error) string {
	var gs grpcStatus
	if errors.As(err, &gs) {
		return gs.GRPCStatus().Message()
	}
	return err.Error()
}

// ErrorHandler return custom http error handler.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		var resp *ResponseError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &resp):
		case errors.As(err, &he):
			resp = &ResponseError{
				Status:       he.Code,
				Err:          err,
				ErrorMessage: fmt.Sprint(he.Message),
			}
		default:
			resp = NewResponseError(err)
			// detect canceled request error
			if errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled {
				resp.Status = 499
			}
		}

		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}
		if resp.Status >= http.StatusInternalServerError {
			log.Errorw("request failed", "status", resp.Status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Status)
		} else {
			err = c.JSON(resp.Status, resp)
		}
		if err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}
