package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/gleejeyly/storefront/pkg/errors"
	"github.com/gleejeyly/storefront/pkg/httputil"
	"github.com/gleejeyly/storefront/pkg/validator"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeBody reads a size-limited JSON body into dst and validates it. On
// failure the error response is already written and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, missing string, l *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, validator.ErrEmptyBody):
		httputil.WriteError(w, r, apperrors.InvalidInput(missing), l)
	case errors.As(err, &tooLarge):
		httputil.WriteError(w, r, apperrors.PayloadTooLarge(tooLarge.Limit), l)
	default:
		httputil.WriteValidationError(w, r, err)
	}
	return false
}
