package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

// HashAdminToken returns the bcrypt hash to store as admin_token_hash.
func HashAdminToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New("admin token cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireAdmin admits requests carrying the admin token. Without a configured
// hash the route is disabled. Repeated bad tokens lock the client out.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Server.AdminTokenHash == "" {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "admin endpoints are disabled"})
			return
		}

		ip := clientIP(r)
		if locked, remaining := s.authLimiter.Locked(ip); locked {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many failed attempts"})
			return
		}

		token, ok := bearerToken(r)
		if !ok || bcrypt.CompareHashAndPassword([]byte(s.cfg.Server.AdminTokenHash), []byte(token)) != nil {
			locked, d := s.authLimiter.Fail(ip)
			logger.Warning("Admin token rejected",
				"client_ip", ip,
				"path", r.URL.Path,
				"attempts", s.authLimiter.Attempts(ip),
				"locked", locked,
				"lockout", d)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid admin token"})
			return
		}

		s.authLimiter.Succeed(ip)
		next.ServeHTTP(w, r)
	})
}

// checkOrigin applies the configured WebSocket origin policy.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowed := s.cfg.Server.IsOriginAllowed(origin, r.Host)
	if !allowed {
		logger.Warning("WebSocket connection rejected - origin not allowed",
			"origin", origin,
			"host", r.Host,
			"remote_addr", r.RemoteAddr)
	}
	return allowed
}
