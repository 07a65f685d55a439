package server

import "net/http"

// setupRoutes wires the media API contract to the Media handlers.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.media.Health)
	mux.HandleFunc("/realtime", s.media.Realtime)
	mux.HandleFunc("/bulk", s.media.Bulk)
	mux.HandleFunc("/search", s.media.Search)
	mux.HandleFunc("/jobs/", s.jobsRoute)
	mux.HandleFunc("/shutdown", s.ShutdownHandler)

	return mux
}

// jobsRoute dispatches /jobs/{id}, /jobs/{id}/result, and the websocket
// /jobs/{id}/progress stream to the matching Media handler based on path
// suffix.
func (s *Server) jobsRoute(w http.ResponseWriter, r *http.Request) {
	matched := RouteByPathSuffix(w, r, "/jobs/", []PathSuffixRouter{
		{Suffix: "/result", Handler: s.media.JobResult},
		{Suffix: "/progress", Handler: s.media.JobProgress},
	})
	if !matched {
		s.media.JobStatus(w, r)
	}
}
