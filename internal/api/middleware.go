package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
)

func (s *GroomingApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Error().Err(panicError).Str("path", r.URL.Path).Msg("panic")
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request once it is served.
func (s *GroomingApp) requestLogger(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, params handlers.LogFormatterParams) {
		s.log.Info().
			Str("method", params.Request.Method).
			Str("path", params.URL.Path).
			Int("status", params.StatusCode).
			Int("size", params.Size).
			Msg("request")
	})
}
