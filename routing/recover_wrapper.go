package routing

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/responses"
)

// RecoverWrapper turns a handler panic into a 500 JSON error.
func RecoverWrapper(logger *zap.Logger) HandlerWrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()))
					responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			inner.ServeHTTP(w, r)
		})
	})
}
