package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/guard"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request once the handler has returned.
func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// credentials collects the tokens a request presents: signed cookies first,
// then the Authorization and X-Refresh-Token headers.
func (h *Handler) credentials(r *http.Request) guard.Credentials {
	c := guard.Credentials{
		AccessToken:  h.cookies.Read(r, common.AccessTokenCookie),
		RefreshToken: h.cookies.Read(r, common.RefreshTokenCookie),
	}
	if c.AccessToken == "" {
		c.AccessToken = bearerToken(r)
	}
	if c.RefreshToken == "" {
		c.RefreshToken = strings.TrimSpace(r.Header.Get(common.RefreshTokenHTTPHeader))
	}
	return c
}

// requireAuth runs the guard ahead of a protected handler. A re-issued access
// token goes back in the access cookie and the X-Access-Token header, and the
// unrotated refresh cookie is re-set next to it.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := h.guard.Authorize(r.Context(), h.credentials(r))
		if err != nil {
			var rej *guard.RejectedError
			if errors.As(err, &rej) {
				writeMessage(w, http.StatusUnauthorized, rej.Reason)
				return
			}
			h.logger.Error(r.Context(), "authorization failed", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if res.Reissued() {
			h.cookies.SetAccess(w, res.ReissuedAccessToken)
			h.cookies.SetRefresh(w, res.RefreshToken)
			w.Header().Set(common.ReissuedAccessTokenHeader, res.ReissuedAccessToken)
		}

		next.ServeHTTP(w, r.WithContext(guard.WithResult(r.Context(), res)))
	})
}
