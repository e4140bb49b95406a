// Package web serves the daemon's status over HTTP: a human-readable page
// at / and the raw snapshot at /index.json.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/power-button/internal/status"
)

// Server renders tracker snapshots for browsers and scrapers. It holds no
// state of its own; every request takes a fresh snapshot.
type Server struct {
	srv     *http.Server
	tracker *status.Tracker
}

// New creates a Server bound to addr, reading from tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	return s
}

// Handler returns the route set, independent of the listener. Useful with
// httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.page)
	mux.HandleFunc("/index.html", s.page)
	mux.HandleFunc("/index.json", s.snapshot)
	return mux
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// page serves the HTML status view. The root pattern also catches every
// unregistered path, so anything else is a 404.
func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot())
}

// snapshot serves the same JSON document the MQTT system events carry.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}
