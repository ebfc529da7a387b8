package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code & size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(data)
	rw.size += size
	return size, err
}

// requestLoggingMiddleware logs HTTP requests (if enabled) with latency & size.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	if !s.config.Logging.RequestLogging {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     200,
		}

		next.ServeHTTP(rw, r)

		if !s.shouldLogRequest(r.URL.Path) {
			return
		}

		duration := time.Since(start)
		s.logger.Infof("[%s] %s %s - %d %s (%v)",
			r.Method,
			r.URL.Path,
			r.RemoteAddr,
			rw.statusCode,
			formatBytes(rw.size),
			duration.Round(time.Millisecond),
		)
	})
}

// corsMiddleware injects CORS headers if enabled in configuration.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	if !s.config.Server.EnableCORS {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// authMiddleware gates the admin panel and admin API behind a valid
// session. Everything else on the site is public.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtectedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		sessionManager := s.authService.GetSessionManager()
		session, valid := sessionManager.GetSessionFromRequest(r)
		if !valid {
			if isBrowserRequest(r) {
				http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
			return
		}

		// Keep the admin logged in while they work
		s.authService.RefreshSession(session.ID)

		next.ServeHTTP(w, r)
	})
}

// isProtectedPath checks if a path requires an admin session.
func isProtectedPath(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/api/admin/")
}

// isBrowserRequest checks if the request is from a browser (vs API client).
func isBrowserRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// shouldLogRequest filters noisy paths from request logging output.
func (s *Server) shouldLogRequest(path string) bool {
	skipPaths := []string{
		"/static/",
		"/media/",
		"/health",
		"/api/player/state",
		"/api/player/commands",
	}
	for _, skip := range skipPaths {
		if strings.HasPrefix(path, skip) {
			return false
		}
	}
	return true
}

// formatBytes renders a response size for the request log.
func formatBytes(size int) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1fMB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1fKB", float64(size)/1024)
	default:
		return fmt.Sprintf("%dB", size)
	}
}
