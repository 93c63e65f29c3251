package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/gleejeyly/storefront/pkg/errors"
)

// ServerError is a 5xx answer from the remote side.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Body)
}

// remoteErrorEnvelope mirrors the error half of httputil.Response.
type remoteErrorEnvelope struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response and translates
// it into an error. Structured error envelopes keep their code and message.
func ParseResponseError(resp *http.Response, remote string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", remote, resp.StatusCode, err)
	}

	var env remoteErrorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		return mapRemoteError(resp.StatusCode, env.Error.Code, env.Error.Message, remote)
	}

	return &apperrors.AppError{
		Code:    "UPSTREAM_ERROR",
		Message: fmt.Sprintf("%s returned status %d: %s", remote, resp.StatusCode, string(body)),
		Status:  resp.StatusCode,
	}
}

func mapRemoteError(status int, code, message, remote string) error {
	qualified := fmt.Sprintf("%s: %s", remote, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status, Err: apperrors.ErrInvalidInput}
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(qualified, nil)
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
