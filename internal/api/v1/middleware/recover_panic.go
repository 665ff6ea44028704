package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"styleaudit/internal/log"
	"styleaudit/pkg/response"
)

// RecoverPanic answers a panicking request with the JSON error envelope and
// keeps the server running. http.ErrAbortHandler is passed through so the
// server still aborts the response as asked.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			requestID := w.Header().Get("X-Request-ID")
			log.Logger.Error("handler panicked",
				zap.String("request_id", requestID),
				zap.String("route", r.Method+" "+r.URL.Path),
				zap.String("panic", fmt.Sprint(rec)),
				zap.ByteString("stack", debug.Stack()),
			)

			w.Header().Set("Connection", "close")
			msg := "internal error"
			if requestID != "" {
				msg += ", request " + requestID
			}
			response.Error(w, http.StatusInternalServerError, msg)
		}()

		next.ServeHTTP(w, r)
	})
}
