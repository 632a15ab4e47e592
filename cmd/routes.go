package cmd

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.Handle("POST /check", http.HandlerFunc(s.handleCheck))
	mux.Handle("POST /submit", http.HandlerFunc(s.handleSubmit))
	mux.Handle("GET /metrics", metricsHandler)
	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealth))
}
