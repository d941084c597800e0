package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("http request failed", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", duration.String())
			} else {
				log.Info("http request completed", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", duration.String())
			}
		})
	}
}
