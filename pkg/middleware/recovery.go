package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/gleejeyly/storefront/pkg/errors"
	"github.com/gleejeyly/storefront/pkg/httputil"
)

// Recovery turns a handler panic into a 500 error envelope. The panic value
// and stack reach the log only.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				cause := fmt.Errorf("panic recovered: %v\n%s", rec, debug.Stack())
				httputil.WriteError(w, r, apperrors.Internal(cause), l)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
