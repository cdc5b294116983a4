package httpserver

import (
	"net/http"

	"github.com/feedhq/feedmanager/internal/errview"
)

// recoverer is the web layer's error boundary: any value escaping a handler
// is logged, classified, and rendered as the standalone error page instead of
// crashing the connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.renderCaught(w, v)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// renderCaught logs the raw caught value, classifies it, and writes the error
// page. RouteError values keep their status; everything else is a 500.
func (s *Server) renderCaught(w http.ResponseWriter, v any) {
	errview.LogCaught(s.log, v)

	classified := errview.Classify(v)
	display := errview.Display(classified)

	status := http.StatusInternalServerError
	if classified.Kind == errview.KindRouteError {
		status = classified.Route.Status
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := errview.RenderPage(w, display); err != nil {
		s.log.Error("Failed to render error page", "error", err)
	}
}
