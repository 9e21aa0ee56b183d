package hds

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// APIError is an error answered by the platform, either as a failed HTTP call or
// as the error object of one batch call.
type APIError struct {
	Status  int
	ID      string
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hds api error %d %s: %s", e.Status, e.ID, e.Message)
	}
	return fmt.Sprintf("hds api error %s: %s", e.ID, e.Message)
}

func newAPIError(resp *resty.Response) *APIError {
	body := gjson.ParseBytes(resp.Body())
	e := &APIError{
		Status:  resp.StatusCode(),
		ID:      body.Get("error.id").String(),
		Message: body.Get("error.message").String(),
	}
	if e.Message == "" {
		e.Message = resp.Status()
	}
	return e
}
