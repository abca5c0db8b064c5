package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func WithServerDefaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// WithIdentity attaches the caller set by the upstream auth gateway and the
// negotiated language (?lang= wins over Accept-Language).
func WithIdentity(tr *i18n.Translator, fallbackLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			explicit, accept := r.URL.Query().Get("lang"), r.Header.Get("Accept-Language")
			lang := i18n.Normalize(fallbackLang)
			if explicit != "" || accept != "" {
				lang = tr.Negotiate(explicit, accept)
			}
			u := auth.UserContext{
				UserID: strings.TrimSpace(r.Header.Get("X-User-ID")),
				Email:  strings.TrimSpace(r.Header.Get("X-User-Email")),
				Lang:   lang,
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

// WithAccessLog logs one line per request and feeds the request metrics.
// The route label is the matched ServeMux pattern.
func WithAccessLog(log logger.ZapLogger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, rec.status, elapsed)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", rec.status),
				zap.Duration("duration", elapsed),
				zap.String("user_id", auth.GetUserID(r.Context())),
			)
		})
	}
}

func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
